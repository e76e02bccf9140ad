package vdo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateRejectsMissingTool(t *testing.T) {
	err := Create(context.Background(), "vdo0", "/dev/does-not-exist-blockdev-test", 0, nil)
	assert.Error(t, err)
}

func TestFormatBytesAppendsUnit(t *testing.T) {
	assert.Equal(t, "1024B", formatBytes(1024))
}

func TestStatsMissingVolumeReturnsError(t *testing.T) {
	_, err := Stats("vdo-does-not-exist-blockdev-test")
	assert.Error(t, err)
}
