// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package ioctlx implements the raw ioctl plumbing shared by the SMART
// and NVMe decoders: SCSI generic IO (SG_IO), the _IOWR request-number
// encoding and a pointer-argument ioctl call used for NVMe admin
// passthrough, and a thin device-open/close wrapper, built on
// golang.org/x/sys/unix so the same helpers serve ATA/SCSI passthrough
// and NVMe passthrough alike.
package ioctlx

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux ioctl direction/size encoding, <uapi/asm-generic/ioctl.h>.
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14
	iocDirBits  = 2

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite = 1
	iocRead  = 2
)

// IOWR builds the ioctl request number for a bidirectional (read+write)
// command, as the kernel's _IOWR(type, nr, size) macro does — needed by
// callers (e.g. nvmeinfo) constructing NVME_IOCTL_ADMIN_CMD and similar
// request numbers that are not exposed as named constants in
// golang.org/x/sys/unix.
func IOWR(ioctlType byte, nr byte, size uintptr) uintptr {
	dir := uintptr(iocRead | iocWrite)
	return (dir << iocDirShift) | (uintptr(ioctlType) << iocTypeShift) | (uintptr(nr) << iocNRShift) | (size << iocSizeShift)
}

// IoctlPtr issues an ioctl(2) passing a pointer argument, for the common
// case of a request that takes a struct rather than an integer.
func IoctlPtr(fd int, request uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), request, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// Device wraps an open block/character device file descriptor used for
// ioctl-based passthrough.
type Device struct {
	fd int
}

// Open opens device for raw ioctl access.
func Open(device string) (*Device, error) {
	fd, err := unix.Open(device, unix.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &Device{fd: fd}, nil
}

// Fd returns the underlying file descriptor.
func (d *Device) Fd() int { return d.fd }

// Close closes the device.
func (d *Device) Close() error {
	return unix.Close(d.fd)
}
