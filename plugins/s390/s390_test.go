package s390

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeDevInputPadsAndPrepends(t *testing.T) {
	v, err := SanitizeDevInput("1234")
	require.NoError(t, err)
	assert.Equal(t, "0.0.1234", v)
}

func TestSanitizeDevInputTakesLastSegmentAfterDot(t *testing.T) {
	v, err := SanitizeDevInput("0.0.abcd")
	require.NoError(t, err)
	assert.Equal(t, "0.0.abcd", v)
}

func TestSanitizeDevInputRejectsEmpty(t *testing.T) {
	_, err := SanitizeDevInput("")
	assert.Error(t, err)
}

func TestZFCPSanitizeWWPNInputAddsPrefix(t *testing.T) {
	v, err := ZFCPSanitizeWWPNInput("5005076300C213E5")
	require.NoError(t, err)
	assert.Equal(t, "0x5005076300c213e5", v)
}

func TestZFCPSanitizeWWPNInputKeepsExistingPrefix(t *testing.T) {
	v, err := ZFCPSanitizeWWPNInput("0x5005076300C213E5")
	require.NoError(t, err)
	assert.Equal(t, "0x5005076300c213e5", v)
}

func TestZFCPSanitizeLUNInputPadsShortValue(t *testing.T) {
	v, err := ZFCPSanitizeLUNInput("1234")
	require.NoError(t, err)
	assert.Equal(t, "0x1234000000000000", v)
}

func TestZFCPSanitizeLUNInputPassesThroughFullyFormed(t *testing.T) {
	v, err := ZFCPSanitizeLUNInput("0x0000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000000", v)
}

func TestDASDNeedsFormatTrue(t *testing.T) {
	root := t.TempDir()
	orig := dasdStatusRoot
	dasdStatusRoot = root
	t.Cleanup(func() { dasdStatusRoot = orig })

	devDir := filepath.Join(root, "0.0.1234")
	require.NoError(t, os.MkdirAll(devDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(devDir, "status"), []byte("unformatted\n"), 0644))

	needs, err := DASDNeedsFormat("0.0.1234")
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestDASDNeedsFormatMissingDeviceReturnsError(t *testing.T) {
	root := t.TempDir()
	orig := dasdStatusRoot
	dasdStatusRoot = root
	t.Cleanup(func() { dasdStatusRoot = orig })

	_, err := DASDNeedsFormat("0.0.9999")
	assert.Error(t, err)
}
