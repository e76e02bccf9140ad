package btrfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateVolumeRejectsEmptyDeviceList(t *testing.T) {
	err := CreateVolume(context.Background(), nil, "", "", "")
	assert.Error(t, err)
}

func TestAddDeviceRejectsMissingMountpoint(t *testing.T) {
	err := AddDevice(context.Background(), "/no/such/mountpoint-blockdev-test", "/dev/does-not-exist-blockdev-test")
	assert.Error(t, err)
}
