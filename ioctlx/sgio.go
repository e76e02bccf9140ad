// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// SCSI generic IO (SG_IO): one ioctl-level helper used by the ATA/SCSI
// SMART native decode path (package `smart`).

package ioctlx

import (
	"fmt"
	"unsafe"
)

const (
	SGDxferNone        = -1
	SGDxferToDev       = -2
	SGDxferFromDev     = -3
	SGDxferToFromDev   = -4
	sgIO               = 0x2285
	SGInfoOKMask       = 0x1
	SGInfoOK           = 0x0
	DefaultSGTimeout   = 20000 // milliseconds
	INQReplyLen        = 36
	SCSIInquiry        = 0x12
	SCSIModeSense6     = 0x1a
	SCSIReadCapacity10 = 0x25
	SCSIAtaPassthru16  = 0x85
)

// sgIOHdr mirrors struct sg_io_hdr from <scsi/sg.h>.
type sgIOHdr struct {
	interfaceID    int32
	dxferDirection int32
	cmdLen         uint8
	mxSbLen        uint8
	iovecCount     uint16
	dxferLen       uint32
	dxferp         uintptr
	cmdp           uintptr
	sbp            uintptr
	timeout        uint32
	flags          uint32
	packID         int32
	usrPtr         uintptr
	status         uint8
	maskedStatus   uint8
	msgStatus      uint8
	sbLenWr        uint8
	hostStatus     uint16
	driverStatus   uint16
	resid          int32
	duration       uint32
	info           uint32
}

// SgioError reports a non-zero SCSI generic IO status.
type SgioError struct {
	ScsiStatus   uint8
	HostStatus   uint16
	DriverStatus uint16
}

func (e SgioError) Error() string {
	return fmt.Sprintf("SCSI status: %#02x, host status: %#02x, driver status: %#02x",
		e.ScsiStatus, e.HostStatus, e.DriverStatus)
}

// SCSIExec sends a CDB (6/10/12/16-byte command descriptor block) via
// SG_IO, transferring data to/from buf in the given direction, and returns
// the sense buffer written by the target.
func SCSIExec(d *Device, cdb []byte, buf []byte, direction int32, timeoutMs uint32) ([]byte, error) {
	sense := make([]byte, 32)

	hdr := sgIOHdr{
		interfaceID:    'S',
		dxferDirection: direction,
		cmdLen:         uint8(len(cdb)),
		mxSbLen:        uint8(len(sense)),
		dxferLen:       uint32(len(buf)),
		timeout:        timeoutMs,
	}
	if len(buf) > 0 {
		hdr.dxferp = uintptr(unsafe.Pointer(&buf[0]))
	}
	hdr.cmdp = uintptr(unsafe.Pointer(&cdb[0]))
	hdr.sbp = uintptr(unsafe.Pointer(&sense[0]))

	if err := IoctlPtr(d.Fd(), sgIO, unsafe.Pointer(&hdr)); err != nil {
		return nil, err
	}

	if hdr.status != 0 {
		return sense, SgioError{ScsiStatus: hdr.status, HostStatus: hdr.hostStatus, DriverStatus: hdr.driverStatus}
	}

	return sense, nil
}
