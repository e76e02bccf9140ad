package kbd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withScratchSysBlock(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	orig := sysBlockRoot
	sysBlockRoot = root
	t.Cleanup(func() { sysBlockRoot = orig })
	return root
}

func writeAttr(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestZramGetStatsMissingDeviceReturnsError(t *testing.T) {
	withScratchSysBlock(t)
	_, err := ZramGetStats("zram0")
	assert.Error(t, err)
}

func TestZramGetStatsReadsAllAttributes(t *testing.T) {
	root := withScratchSysBlock(t)
	devDir := filepath.Join(root, "zram0")
	writeAttr(t, devDir, "disksize", "1073741824\n")
	writeAttr(t, devDir, "num_reads", "10\n")
	writeAttr(t, devDir, "num_writes", "20\n")
	writeAttr(t, devDir, "invalid_io", "0\n")
	writeAttr(t, devDir, "zero_pages", "5\n")
	writeAttr(t, devDir, "max_comp_streams", "4\n")
	writeAttr(t, devDir, "orig_data_size", "100\n")
	writeAttr(t, devDir, "compr_data_size", "50\n")
	writeAttr(t, devDir, "mem_used_total", "60\n")
	writeAttr(t, devDir, "comp_algorithm", "lzo \n")

	stats, err := ZramGetStats("/dev/zram0")
	require.NoError(t, err)
	assert.Equal(t, uint64(1073741824), stats.Disksize)
	assert.Equal(t, uint64(10), stats.NumReads)
	assert.Equal(t, uint64(4), stats.MaxCompStreams)
	assert.Equal(t, "lzo", stats.CompAlgorithm)
}

func TestAttachBcacheWritesSetUUID(t *testing.T) {
	root := withScratchSysBlock(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bcache0", "bcache"), 0755))

	err := AttachBcache("some-uuid", "/dev/bcache0")
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(root, "bcache0", "bcache", "attach"))
	require.NoError(t, err)
	assert.Equal(t, "some-uuid", string(content))
}
