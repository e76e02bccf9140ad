// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Get Log Page queries and decoding, shared by the SMART/Health,
// Error-Information and Self-test log pages.

package nvmeinfo

import (
	"bytes"
	"context"
	"encoding/binary"
	"math/big"
	"unsafe"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/ioctlx"
)

// SMARTHealth is the decoded form of the SMART/Health Information log
// page: temperature and power-on/cycle counts are shaped so callers can
// fold them into a unified report alongside an ATA SMART report.
type SMARTHealth struct {
	CriticalWarning   uint8
	TemperatureKelvin float64
	AvailSparePct     uint8
	SpareThreshPct    uint8
	PercentUsed       uint8
	DataUnitsRead     *big.Int
	DataUnitsWritten  *big.Int
	PowerCycles       *big.Int
	PowerOnHours      *big.Int
	UnsafeShutdowns   *big.Int
	MediaErrors       *big.Int
	NumErrLogEntries  *big.Int
}

func le128ToBigInt(v [16]byte) *big.Int {
	lo := binary.LittleEndian.Uint64(v[:8])
	hi := binary.LittleEndian.Uint64(v[8:])
	n := new(big.Int).SetUint64(hi)
	n.Lsh(n, 64)
	n.Or(n, new(big.Int).SetUint64(lo))
	return n
}

// DecodeSMARTLog maps a raw 512-byte SMART/Health Information log page.
func DecodeSMARTLog(buf []byte) (*SMARTHealth, error) {
	if len(buf) < int(unsafe.Sizeof(SMARTLog{})) {
		return nil, bderrors.New(bderrors.KindParse, "short SMART log response: %d bytes", len(buf))
	}

	var sl SMARTLog
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &sl); err != nil {
		return nil, bderrors.Wrap(bderrors.KindParse, err, "failed to decode SMART log")
	}

	tempKelvin := float64(uint16(sl.Temperature[1])<<8 | uint16(sl.Temperature[0]))

	return &SMARTHealth{
		CriticalWarning:   sl.CritWarning,
		TemperatureKelvin: tempKelvin,
		AvailSparePct:     sl.AvailSpare,
		SpareThreshPct:    sl.SpareThresh,
		PercentUsed:       sl.PercentUsed,
		DataUnitsRead:     le128ToBigInt(sl.DataUnitsRead),
		DataUnitsWritten:  le128ToBigInt(sl.DataUnitsWritten),
		PowerCycles:       le128ToBigInt(sl.PowerCycles),
		PowerOnHours:      le128ToBigInt(sl.PowerOnHours),
		UnsafeShutdowns:   le128ToBigInt(sl.UnsafeShutdowns),
		MediaErrors:       le128ToBigInt(sl.MediaErrors),
		NumErrLogEntries:  le128ToBigInt(sl.NumErrLogEntries),
	}, nil
}

// DecodeErrorLog maps a raw Error Information log page buffer (a multiple
// of 64 bytes) into its constituent entries, stopping at the first
// all-zero ErrorCount entry (an unused slot).
func DecodeErrorLog(buf []byte) ([]ErrorLogEntry, error) {
	entrySize := int(unsafe.Sizeof(ErrorLogEntry{}))
	if len(buf)%entrySize != 0 {
		return nil, bderrors.New(bderrors.KindParse, "error log length %d is not a multiple of %d", len(buf), entrySize)
	}

	var out []ErrorLogEntry
	for off := 0; off+entrySize <= len(buf); off += entrySize {
		var e ErrorLogEntry
		if err := binary.Read(bytes.NewReader(buf[off:off+entrySize]), binary.LittleEndian, &e); err != nil {
			return nil, bderrors.Wrap(bderrors.KindParse, err, "failed to decode error log entry")
		}
		if e.ErrorCount == 0 {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

// DecodeSelfTestLog maps the 564-byte Device Self-test log page.
func DecodeSelfTestLog(buf []byte) (*SelfTestLog, error) {
	if len(buf) < binary.Size(SelfTestLog{}) {
		return nil, bderrors.New(bderrors.KindParse, "short self-test log response: %d bytes", len(buf))
	}
	var log SelfTestLog
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &log); err != nil {
		return nil, bderrors.Wrap(bderrors.KindParse, err, "failed to decode self-test log")
	}
	return &log, nil
}

// GetLogPage issues NVMe admin Get Log Page for logID against device and
// returns the raw response of the requested length, for any
// caller-specified length/log id pair.
func GetLogPage(ctx context.Context, device string, nsid uint32, logID uint8, length int) ([]byte, error) {
	if length < 4 || length > 0x4000 || length%4 != 0 {
		return nil, bderrors.New(bderrors.KindInvalidArgument, "invalid log page buffer size: %d", length)
	}

	d, err := ioctlx.Open(device)
	if err != nil {
		return nil, bderrors.Wrap(bderrors.KindSpawnFailed, err, "failed to open %s", device)
	}
	defer d.Close()

	buf := make([]byte, length)
	cmd := PassthruCommand{
		Opcode:  AdminGetLogPage,
		Nsid:    nsid,
		Addr:    uint64(uintptr(unsafe.Pointer(&buf[0]))),
		DataLen: uint32(length),
		Cdw10:   uint32(logID) | (((uint32(length) / 4) - 1) << 16),
	}

	if err := ioctlx.IoctlPtr(d.Fd(), nvmeIOCTLAdminCmd, unsafe.Pointer(&cmd)); err != nil {
		return nil, bderrors.Wrap(bderrors.KindProcessFailed, err, "NVMe Get Log Page 0x%02x failed on %s", logID, device)
	}

	return buf, nil
}

// SMARTHealthLog fetches and decodes the SMART/Health Information log
// page (log id 0x02) for the whole controller (nsid 0xffffffff).
func SMARTHealthLog(ctx context.Context, device string) (*SMARTHealth, error) {
	buf, err := GetLogPage(ctx, device, 0xffffffff, LogIDSMARTHealth, 512)
	if err != nil {
		return nil, err
	}
	return DecodeSMARTLog(buf)
}

// ErrorInfoLog fetches and decodes up to maxEntries Error Information log
// entries (log id 0x01).
func ErrorInfoLog(ctx context.Context, device string, maxEntries int) ([]ErrorLogEntry, error) {
	entrySize := int(unsafe.Sizeof(ErrorLogEntry{}))
	length := maxEntries * entrySize
	buf, err := GetLogPage(ctx, device, 0xffffffff, LogIDError, length)
	if err != nil {
		return nil, err
	}
	return DecodeErrorLog(buf)
}

// SelfTestStatusLog fetches and decodes the Device Self-test log (log id
// 0x06).
func SelfTestStatusLog(ctx context.Context, device string) (*SelfTestLog, error) {
	buf, err := GetLogPage(ctx, device, 0xffffffff, LogIDSelfTest, binary.Size(SelfTestLog{}))
	if err != nil {
		return nil, err
	}
	return DecodeSelfTestLog(buf)
}
