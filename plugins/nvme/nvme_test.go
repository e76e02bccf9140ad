package nvme

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifyControllerMissingDeviceReturnsError(t *testing.T) {
	_, err := IdentifyController(context.Background(), "/dev/does-not-exist-blockdev-test")
	assert.Error(t, err)
}

func TestDisconnectNoMatchingControllerReturnsError(t *testing.T) {
	err := Disconnect("nqn.does-not-exist.blockdev-test")
	assert.Error(t, err)
}
