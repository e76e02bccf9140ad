package executil

import (
	"context"
	"testing"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecAndReportErrorSuccess(t *testing.T) {
	err := ExecAndReportError(context.Background(), []string{"true"})
	require.NoError(t, err)
}

func TestExecAndReportErrorFailure(t *testing.T) {
	err := ExecAndReportError(context.Background(), []string{"false"})
	require.Error(t, err)
	assert.Equal(t, bderrors.KindProcessFailed, bderrors.KindOf(err))
}

func TestExecAndReportErrorSpawnFailure(t *testing.T) {
	err := ExecAndReportError(context.Background(), []string{"/nonexistent/binary-xyz"})
	require.Error(t, err)
	assert.Equal(t, bderrors.KindSpawnFailed, bderrors.KindOf(err))
}

func TestExecAndCaptureOutput(t *testing.T) {
	out, err := ExecAndCaptureOutput(context.Background(), []string{"echo", "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestExecAndCaptureOutputNoOutput(t *testing.T) {
	_, err := ExecAndCaptureOutput(context.Background(), []string{"true"})
	require.Error(t, err)
	assert.Equal(t, bderrors.KindNoOutput, bderrors.KindOf(err))
}

func TestExecWithInput(t *testing.T) {
	out, err := ExecWithInput(context.Background(), []string{"cat"}, "from stdin")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", out)
}

func TestExecWithProgress(t *testing.T) {
	var seen []int

	out, err := ExecWithProgress(context.Background(), []string{"printf", "50\n100\n"}, nil, func(line string) (int, bool) {
		switch line {
		case "50":
			seen = append(seen, 50)
			return 50, true
		case "100":
			seen = append(seen, 100)
			return 100, true
		}
		return 0, false
	})
	require.NoError(t, err)
	assert.Equal(t, "50\n100", out)
	assert.Equal(t, []int{50, 100}, seen)
}

func TestVersionCmp(t *testing.T) {
	cases := []struct {
		v1, v2 string
		want   int
	}{
		{"1.2.3", "1.2.3", 0},
		{"1.2.3", "1.2.4", -1},
		{"2.0.0", "1.9.9", 1},
		{"1.2", "1.2.0", 0},
		{"1.10", "1.9", 1},
	}

	for _, c := range cases {
		got, err := VersionCmp(c.v1, c.v2)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%s vs %s", c.v1, c.v2)
	}
}

func TestVersionCmpInvalid(t *testing.T) {
	_, err := VersionCmp("abc", "1.2.3")
	require.Error(t, err)
	assert.Equal(t, bderrors.KindInvalidArgument, bderrors.KindOf(err))
}
