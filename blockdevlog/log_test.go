package blockdevlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogDeliversToInstalledSink(t *testing.T) {
	defer SetLogFunc(nil)

	var got []string
	SetLogFunc(func(category Category, taskID uint64, message string) {
		got = append(got, message)
	})

	Log(CategoryTaskStart, 1, "starting task")
	Log(CategoryStdout, 1, "line one")

	assert.Equal(t, []string{"starting task", "line one"}, got)
}

func TestLogNoopWithoutSink(t *testing.T) {
	SetLogFunc(nil)
	assert.NotPanics(t, func() { Log(CategoryTaskEnd, 1, "done") })
}

func TestProgressDeliversToInstalledSink(t *testing.T) {
	defer SetProgressFunc(nil)

	var lastPct int
	SetProgressFunc(func(taskID uint64, completion int, msg string) {
		lastPct = completion
	})

	Progress("token", 1, 42, "")
	assert.Equal(t, 42, lastPct)
}

func TestMuteThreadSuppressesProgress(t *testing.T) {
	defer SetProgressFunc(nil)
	defer UnmuteThread("muted-token")

	calls := 0
	SetProgressFunc(func(taskID uint64, completion int, msg string) {
		calls++
	})

	MuteThread("muted-token")
	assert.True(t, IsMuted("muted-token"))
	Progress("muted-token", 1, 10, "")
	assert.Equal(t, 0, calls)

	UnmuteThread("muted-token")
	assert.False(t, IsMuted("muted-token"))
	Progress("muted-token", 1, 20, "")
	assert.Equal(t, 1, calls)
}

func TestMuteThreadIsPerToken(t *testing.T) {
	defer SetProgressFunc(nil)
	defer UnmuteThread("a")

	calls := 0
	SetProgressFunc(func(taskID uint64, completion int, msg string) {
		calls++
	})

	MuteThread("a")
	Progress("b", 1, 5, "")
	assert.Equal(t, 1, calls)
}
