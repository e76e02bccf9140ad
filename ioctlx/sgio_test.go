package ioctlx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSgioErrorFormatting(t *testing.T) {
	err := SgioError{ScsiStatus: 0x02, HostStatus: 0x0001, DriverStatus: 0x0008}
	assert.Equal(t, "SCSI status: 0x02, host status: 0x01, driver status: 0x08", err.Error())
}

func TestSGIOHdrLayoutConstants(t *testing.T) {
	assert.Equal(t, -1, SGDxferNone)
	assert.Equal(t, -2, SGDxferToDev)
	assert.Equal(t, -3, SGDxferFromDev)
	assert.Equal(t, -4, SGDxferToFromDev)
}
