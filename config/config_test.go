package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobalConfigRoundTrip(t *testing.T) {
	c := &GlobalConfig{}

	assert.Equal(t, "", c.LVMConfigString())
	assert.Equal(t, "", c.LVMDevicesString())

	c.SetLVMConfigString("devices/filter=[\"a|^/dev/sda$|\", \"r|.*|\"]")
	c.SetLVMDevicesString("/etc/lvm/devices/system.devices")

	assert.Equal(t, `devices/filter=["a|^/dev/sda$|", "r|.*|"]`, c.LVMConfigString())
	assert.Equal(t, "/etc/lvm/devices/system.devices", c.LVMDevicesString())
}

func TestGlobalConfigConcurrentAccess(t *testing.T) {
	c := &GlobalConfig{}
	done := make(chan struct{})

	go func() {
		for i := 0; i < 1000; i++ {
			c.SetLVMConfigString("x")
		}
		close(done)
	}()

	for i := 0; i < 1000; i++ {
		_ = c.LVMConfigString()
	}
	<-done
}
