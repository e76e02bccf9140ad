package lvm

import (
	"context"
	"testing"

	"github.com/dswarbrick/blockdev/config"
	"github.com/stretchr/testify/assert"
)

func TestBuildArgsPrependsLVMAndAppendsGlobalConfig(t *testing.T) {
	config.Global.SetLVMConfigString(`devices/filter=["a|.*|"]`)
	config.Global.SetLVMDevicesString("/etc/lvm/devices/system.devices")
	defer func() {
		config.Global.SetLVMConfigString("")
		config.Global.SetLVMDevicesString("")
	}()

	got := buildArgs([]string{"pvcreate", "/dev/sda1"})
	assert.Equal(t, []string{
		"lvm", "pvcreate", "/dev/sda1",
		`--config=devices/filter=["a|.*|"]`,
		"--devices=/etc/lvm/devices/system.devices",
	}, got)
}

func TestBuildArgsNoGlobalConfig(t *testing.T) {
	config.Global.SetLVMConfigString("")
	config.Global.SetLVMDevicesString("")

	got := buildArgs([]string{"vgs"})
	assert.Equal(t, []string{"lvm", "vgs"}, got)
}

func TestGetLVInfoMissingVGReturnsError(t *testing.T) {
	_, err := GetLVInfo(context.Background(), "no-such-vg-blockdev-test", "no-such-lv")
	assert.Error(t, err)
}

func TestCacheStatsForMissingDeviceReturnsError(t *testing.T) {
	_, err := CacheStatsFor(context.Background(), "no-such-vg-blockdev-test", "no-such-lv")
	assert.Error(t, err)
}
