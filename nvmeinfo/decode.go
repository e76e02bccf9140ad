// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Identify/log decoding into the ControllerInfo/NamespaceInfo shape,
// exposed as discrete typed queries rather than a single debug-dump
// function.

package nvmeinfo

import (
	"bytes"
	"context"
	"encoding/binary"
	"unsafe"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/ioctlx"
	"github.com/google/uuid"
)

// ControllerFeature is a bit in NVMeControllerInfo's feature bitset.
type ControllerFeature uint32

const (
	FeatureMultipath ControllerFeature = 1 << iota
	FeatureSRIOV
	FeatureNamespaceManagement
	FeatureSelftest
	FeatureSanitizeCrypto
	FeatureSanitizeBlock
	FeatureSanitizeOverwrite
)

// ControllerType mirrors the {unknown,io,discovery,admin} classification.
type ControllerType int

const (
	ControllerUnknown ControllerType = iota
	ControllerIO
	ControllerDiscovery
	ControllerAdmin
)

// ControllerInfo is the decoded, typed form of an Identify Controller
// response.
type ControllerInfo struct {
	PCIVendorID       uint16
	PCISubsystemID    uint16
	ControllerID      uint16
	FRUGUID           string
	Model             string
	Serial            string
	Firmware          string
	NVMeVersion       string
	Features          ControllerFeature
	Type              ControllerType
	ExtendedSelftestS uint32
	HMBPreferredSize  uint32
	HMBMinSize        uint32
	TotalCapacity     uint64
	UnallocCapacity   uint64
	MaxNamespaces     uint32
	SubsystemNQN      string
}

// NamespaceFeature is a bit in NVMeNamespaceInfo's feature bitset.
type NamespaceFeature uint8

const (
	NSFeatureThinProvisioning NamespaceFeature = 1 << iota
	NSFeatureMultipathShared
	NSFeatureFormatProgress
	NSFeatureRotational
)

// NamespaceInfo is the decoded, typed form of an Identify Namespace
// response.
type NamespaceInfo struct {
	NSID            uint32
	EUI64           string
	NGUID           string
	UUID            string
	Size            uint64
	Capacity        uint64
	Utilization     uint64
	Features        NamespaceFeature
	FormatRemaining uint8
	WriteProtected  bool
	LBAFormats      []LBAF
	CurrentLBAF     int
}

func trimASCII(b []byte) string {
	i := len(b)
	for i > 0 && (b[i-1] == ' ' || b[i-1] == 0) {
		i--
	}
	return string(b[:i])
}

func decodeVersion(v uint32) string {
	major := v >> 16
	minor := (v >> 8) & 0xff
	tert := v & 0xff
	if tert == 0 {
		return itoaVersion(major) + "." + itoaVersion(minor)
	}
	return itoaVersion(major) + "." + itoaVersion(minor) + "." + itoaVersion(tert)
}

func itoaVersion(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// DecodeController maps a raw 4096-byte Identify Controller response
// into a ControllerInfo.
func DecodeController(buf []byte) (*ControllerInfo, error) {
	if len(buf) < int(unsafe.Sizeof(IdentController{})) {
		return nil, bderrors.New(bderrors.KindParse, "short Identify Controller response: %d bytes", len(buf))
	}

	var ic IdentController
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &ic); err != nil {
		return nil, bderrors.Wrap(bderrors.KindParse, err, "failed to decode Identify Controller")
	}

	info := &ControllerInfo{
		PCIVendorID:       ic.VendorID,
		PCISubsystemID:    ic.Ssvid,
		ControllerID:      ic.Cntlid,
		Model:             trimASCII(ic.ModelNumber[:]),
		Serial:            trimASCII(ic.SerialNumber[:]),
		Firmware:          trimASCII(ic.Firmware[:]),
		NVMeVersion:       decodeVersion(ic.Ver),
		HMBPreferredSize:  ic.Hmpre,
		HMBMinSize:        ic.Hmmin,
		TotalCapacity:     le128ToUint64(ic.Tnvmcap),
		UnallocCapacity:   le128ToUint64(ic.Unvmcap),
		MaxNamespaces:     ic.Nn,
		SubsystemNQN:      trimASCII(ic.Subnqn[:]),
		ExtendedSelftestS: uint32(binary.LittleEndian.Uint16(ic.Rsvd316[:2])), // EDSTT, bytes 316-317
	}

	if ic.Cmic&0x1 != 0 {
		info.Features |= FeatureMultipath
	}
	if ic.Cmic&0x2 != 0 {
		info.Features |= FeatureSRIOV
	}
	if ic.Oacs&0x8 != 0 {
		info.Features |= FeatureNamespaceManagement
	}
	if ic.Oacs&0x10 != 0 {
		info.Features |= FeatureSelftest
	}
	if ic.Sqes != 0 || ic.Cqes != 0 {
		info.Type = ControllerIO
	} else {
		info.Type = ControllerAdmin
	}

	return info, nil
}

// le128ToUint64 truncates a little-endian 128-bit value to its low 64
// bits, sufficient for realistic NVM capacities; the high 8 bytes are
// ignored.
func le128ToUint64(v [16]byte) uint64 {
	return binary.LittleEndian.Uint64(v[:8])
}

// DecodeNamespace maps a raw 4096-byte Identify Namespace response for
// nsid into a NamespaceInfo.
func DecodeNamespace(nsid uint32, buf []byte) (*NamespaceInfo, error) {
	if len(buf) < int(unsafe.Sizeof(IdentNamespace{})) {
		return nil, bderrors.New(bderrors.KindParse, "short Identify Namespace response: %d bytes", len(buf))
	}

	var ns IdentNamespace
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &ns); err != nil {
		return nil, bderrors.Wrap(bderrors.KindParse, err, "failed to decode Identify Namespace")
	}

	info := &NamespaceInfo{
		NSID:        nsid,
		EUI64:       hexString(ns.EUI64[:]),
		NGUID:       hexString(ns.Nguid[:]),
		Size:        ns.Nsze,
		Capacity:    ns.Ncap,
		Utilization: ns.Nuse,
		CurrentLBAF: int(ns.Flbas & 0xf),
	}

	if ns.Nsfeat&0x1 != 0 {
		info.Features |= NSFeatureThinProvisioning
	}
	if ns.Nmic&0x1 != 0 {
		info.Features |= NSFeatureMultipathShared
	}
	if ns.Nsfeat&0x10 != 0 {
		info.Features |= NSFeatureFormatProgress
	}
	if ns.Dps&0x4 != 0 {
		info.WriteProtected = true
	}

	for i := 0; i < int(ns.Nlbaf)+1 && i < len(ns.Lbaf); i++ {
		info.LBAFormats = append(info.LBAFormats, ns.Lbaf[i])
	}

	if u, err := uuid.FromBytes(reverseBytes(ns.Rsvd64[:16])); err == nil && u != uuid.Nil {
		info.UUID = u.String()
	}

	return info, nil
}

func hexString(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0xf]
	}
	return string(out)
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[len(b)-1-i]
	}
	return out
}

// IdentifyController issues NVMe admin Identify (CNS=1) via the ioctlx
// passthrough and decodes the response.
func IdentifyController(ctx context.Context, device string) (*ControllerInfo, error) {
	buf, err := identify(device, 0, 1)
	if err != nil {
		return nil, err
	}
	return DecodeController(buf)
}

// IdentifyNamespace issues NVMe admin Identify (CNS=0) for nsid and
// decodes the response.
func IdentifyNamespace(ctx context.Context, device string, nsid uint32) (*NamespaceInfo, error) {
	buf, err := identify(device, nsid, 0)
	if err != nil {
		return nil, err
	}
	return DecodeNamespace(nsid, buf)
}

func identify(device string, nsid uint32, cns uint32) ([]byte, error) {
	d, err := ioctlx.Open(device)
	if err != nil {
		return nil, bderrors.Wrap(bderrors.KindSpawnFailed, err, "failed to open %s", device)
	}
	defer d.Close()

	buf := make([]byte, 4096)
	cmd := PassthruCommand{
		Opcode:  AdminIdentify,
		Nsid:    nsid,
		Addr:    uint64(uintptr(unsafe.Pointer(&buf[0]))),
		DataLen: uint32(len(buf)),
		Cdw10:   cns,
	}

	if err := ioctlx.IoctlPtr(d.Fd(), nvmeIOCTLAdminCmd, unsafe.Pointer(&cmd)); err != nil {
		return nil, bderrors.Wrap(bderrors.KindProcessFailed, err, "NVMe Identify failed on %s", device)
	}

	return buf, nil
}
