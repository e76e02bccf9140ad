// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Native ATA IDENTIFY DEVICE / SMART passthrough, reading through
// ioctlx's SG_IO helper. This is the "libatasmart"-style native decode
// path, as opposed to the smartctl JSON path in smartctl.go.

package smart

import (
	"context"
	"encoding/binary"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/ioctlx"
)

const (
	ataIdentifyDevice = 0xec
	ataSMART          = 0xb0

	smartReadData     = 0xd0
	smartReadLog      = 0xd5
	smartReturnStatus = 0xda
)

// IdentifyDeviceData is the ATA IDENTIFY DEVICE response (partial; only
// the fields this package decodes are broken out).
type IdentifyDeviceData struct {
	GeneralConfiguration uint16
	NumCylinders         uint16
	ReservedWord2        uint16
	NumHeads             uint16
	Retired1             [2]uint16
	NumSectorsPerTrack   uint16
	VendorUnique         [3]uint16
	SerialNumber         [20]byte
	Retired2             [2]uint16
	Obsolete1            uint16
	FirmwareRevision     [8]byte
	ModelNumber          [40]byte
	MaxBlockTransfer     uint8
	VendorUnique2        uint8
	ReservedWord48       uint16
	Capabilities         uint32
	ObsoleteWords51      [2]uint16
	_                    [512 - 110]byte
}

// Model returns the (byte-swapped, trimmed) model number string.
func (id *IdentifyDeviceData) Model() string {
	return ataString(id.ModelNumber[:])
}

// Serial returns the (byte-swapped, trimmed) serial number string.
func (id *IdentifyDeviceData) Serial() string {
	return ataString(id.SerialNumber[:])
}

// Firmware returns the (byte-swapped, trimmed) firmware revision string.
func (id *IdentifyDeviceData) Firmware() string {
	return ataString(id.FirmwareRevision[:])
}

// ataString decodes an ATA IDENTIFY string field: bytes arrive
// word-swapped (big-endian words in a little-endian structure) and
// padded with trailing spaces.
func ataString(b []byte) string {
	s := make([]byte, len(b))
	copy(s, b)
	swapBytes(s)
	i := len(s)
	for i > 0 && (s[i-1] == ' ' || s[i-1] == 0) {
		i--
	}
	return string(s[:i])
}

// IdentifyDevice sends ATA IDENTIFY DEVICE to device via SAT-16 passthrough
// and decodes the response.
func IdentifyDevice(ctx context.Context, device string) (*IdentifyDeviceData, error) {
	d, err := ioctlx.Open(device)
	if err != nil {
		return nil, bderrors.Wrap(bderrors.KindSpawnFailed, err, "failed to open %s", device)
	}
	defer d.Close()

	buf := make([]byte, 512)
	cdb := buildSAT16CDB(ataIdentifyDevice, 0, 1)

	if _, err := ioctlx.SCSIExec(d, cdb, buf, ioctlx.SGDxferFromDev, ioctlx.DefaultSGTimeout); err != nil {
		return nil, bderrors.Wrap(bderrors.KindProcessFailed, err, "ATA IDENTIFY DEVICE failed on %s", device)
	}

	var identity IdentifyDeviceData
	if err := decodeIdentify(buf, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func decodeIdentify(buf []byte, out *IdentifyDeviceData) error {
	if len(buf) < 110 {
		return bderrors.New(bderrors.KindParse, "short ATA IDENTIFY DEVICE response: %d bytes", len(buf))
	}
	out.GeneralConfiguration = binary.LittleEndian.Uint16(buf[0:2])
	out.NumCylinders = binary.LittleEndian.Uint16(buf[2:4])
	out.NumHeads = binary.LittleEndian.Uint16(buf[6:8])
	out.NumSectorsPerTrack = binary.LittleEndian.Uint16(buf[12:14])
	copy(out.SerialNumber[:], buf[20:40])
	copy(out.FirmwareRevision[:], buf[46:54])
	copy(out.ModelNumber[:], buf[54:94])
	out.Capabilities = uint32(binary.LittleEndian.Uint16(buf[98:100]))
	return nil
}

// buildSAT16CDB constructs a 16-byte SAT ATA PASS-THROUGH CDB for a
// PIO-data-in command.
func buildSAT16CDB(ataCommand byte, features byte, sectorCount byte) []byte {
	cdb := make([]byte, 16)
	cdb[0] = ioctlx.SCSIAtaPassthru16
	cdb[1] = 0x08 // PROTOCOL=4: PIO data-in
	cdb[2] = 0x0e // CK_COND=0, T_DIR=1, BYTE_BLOCK=1, T_LENGTH=2 (sector count)
	cdb[3] = features
	cdb[4] = 0
	cdb[6] = sectorCount
	cdb[14] = ataCommand
	return cdb
}
