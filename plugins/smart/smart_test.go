package smart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifyMissingDeviceReturnsError(t *testing.T) {
	_, err := Identify(context.Background(), "/dev/does-not-exist-blockdev-test")
	assert.Error(t, err)
}

func TestCollectMissingDeviceReturnsError(t *testing.T) {
	_, err := Collect(context.Background(), "/dev/does-not-exist-blockdev-test", nil)
	assert.Error(t, err)
}
