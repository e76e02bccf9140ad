package ioctlx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIOWRKnownConstants(t *testing.T) {
	// NVME_IOCTL_ADMIN_CMD = _IOWR('N', 0x41, struct nvme_admin_cmd), 72 bytes.
	assert.Equal(t, uintptr(0xc0484e41), IOWR('N', 0x41, 72))

	// NVME_IOCTL_SUBMIT_IO = _IOWR('N', 0x42, struct nvme_user_io), 48 bytes.
	assert.Equal(t, uintptr(0xc0304e42), IOWR('N', 0x42, 48))
}

func TestOpenNonexistentDevice(t *testing.T) {
	_, err := Open("/nonexistent/ioctlx-test-device")
	assert.Error(t, err)
}
