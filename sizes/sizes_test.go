package sizes

import (
	"testing"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanReadable(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{16 * 1024 * 1024, "16 MiB"},
		{9 * 1024, "9 KiB"},
		{8 * 1024 * 1024 * 1024 * 1024 * 1024 * 1024, "8 EiB"},
		{12 * 1024 * 1024 * 1024 * 1024 * 1024 * 1024, "12 EiB"},
		{uint64(16.4356 * 1024 * 1024 * 1024), "16.44 GiB"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, HumanReadable(c.in))
	}
}

func TestFromSpec(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"10 KiB", 10240},
		{"10 KB", 10000},
		{"5 MiB", 5242880},
		{"3.2 MiB", 3355443},
		{"0", 0},
		{"0.00", 0},
	}

	for _, c := range cases {
		got, err := FromSpec(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestFromSpecInvalid(t *testing.T) {
	_, err := FromSpec("3 XiB")
	require.Error(t, err)
	assert.Equal(t, bderrors.KindInvalidArgument, bderrors.KindOf(err))
}

func TestRoundTrip(t *testing.T) {
	for _, n := range []uint64{1, 1024, 123456789, 5 * 1024 * 1024 * 1024} {
		s := HumanReadable(n)
		got, err := FromSpec(s)
		require.NoError(t, err)
		diff := float64(got) - float64(n)
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff/float64(n), 0.005)
	}
}
