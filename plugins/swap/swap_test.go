package swap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwapStatusMatchesDirectPrefix(t *testing.T) {
	dir := t.TempDir()
	content := "Filename\t\t\t\tType\t\tSize\tUsed\tPriority\n" +
		"/dev/sda2                               partition\t2097148\t0\t-2\n"
	path := filepath.Join(dir, "swaps")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))

	orig := procSwapsPath
	procSwapsPath = path
	defer func() { procSwapsPath = orig }()

	active, err := SwapStatus("/dev/sda2")
	assert.NoError(t, err)
	assert.True(t, active)

	active, err = SwapStatus("/dev/sdb1")
	assert.NoError(t, err)
	assert.False(t, active)
}

func TestSwapOnRejectsNonexistentDevice(t *testing.T) {
	err := SwapOn("/dev/does-not-exist-blockdev-test", Default)
	assert.Error(t, err)
}

func TestSwapOffRejectsNonexistentDevice(t *testing.T) {
	err := SwapOff("/dev/does-not-exist-blockdev-test")
	assert.Error(t, err)
}
