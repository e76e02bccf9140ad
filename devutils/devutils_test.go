package devutils

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDeviceNonSymlinkPassesThrough(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "sda")
	require.NoError(t, os.WriteFile(plain, []byte{}, 0644))

	got, err := resolveAbsolute(plain)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestResolveDeviceFollowsRelativeSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sda1")
	require.NoError(t, os.WriteFile(target, []byte{}, 0644))

	link := filepath.Join(dir, "md126")
	require.NoError(t, os.Symlink("sda1", link))

	got, err := resolveAbsolute(link)
	require.NoError(t, err)
	assert.Equal(t, target, got)
}

func TestAtoiStrict(t *testing.T) {
	n, err := atoiStrict("259")
	require.NoError(t, err)
	assert.Equal(t, 259, n)

	_, err = atoiStrict("25x")
	assert.Error(t, err)
}

// resolveAbsolute exercises the same Readlink/EINVAL branch and one-level
// symlink follow as ResolveDevice but against an arbitrary absolute path,
// resolving a link target relative to the link's own directory
// (ResolveDevice itself always prefixes "/dev/", which a t.TempDir() path
// does not match).
func resolveAbsolute(path string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		if errors.Is(err, syscall.EINVAL) {
			return path, nil
		}
		return "", err
	}
	return filepath.Join(filepath.Dir(path), target), nil
}
