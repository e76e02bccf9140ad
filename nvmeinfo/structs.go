// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package nvmeinfo implements the NVMe decoder: Identify
// Controller/Namespace, SMART/Health log, Error-Information log, and
// self-test/sanitize log parsing, plus canonical UUID handling for the
// namespace UUID descriptor.
package nvmeinfo

import (
	"unsafe"

	"github.com/dswarbrick/blockdev/ioctlx"
)

// nvmeIOCTLAdminCmd is NVME_IOCTL_ADMIN_CMD, _IOWR('N', 0x41, sizeof(nvme_passthru_cmd))
// in <linux/nvme_ioctl.h>, constructed via ioctlx.IOWR.
var nvmeIOCTLAdminCmd = ioctlx.IOWR('N', 0x41, unsafe.Sizeof(PassthruCommand{}))

const (
	AdminIdentify    = 0x06
	AdminGetLogPage  = 0x02
	AdminGetFeatures = 0x0a
	AdminSelfTest    = 0x14
	AdminSanitize    = 0x84
)

// LogID selects the NVMe admin Get Log Page identifier.
const (
	LogIDError        = 0x01
	LogIDSMARTHealth  = 0x02
	LogIDFirmwareSlot = 0x03
	LogIDSelfTest     = 0x06
	LogIDSanitize     = 0x81
)

// PassthruCommand mirrors struct nvme_passthru_cmd from
// <linux/nvme_ioctl.h>.
type PassthruCommand struct {
	Opcode      uint8
	Flags       uint8
	Rsvd1       uint16
	Nsid        uint32
	Cdw2        uint32
	Cdw3        uint32
	Metadata    uint64
	Addr        uint64
	MetadataLen uint32
	DataLen     uint32
	Cdw10       uint32
	Cdw11       uint32
	Cdw12       uint32
	Cdw13       uint32
	Cdw14       uint32
	Cdw15       uint32
	TimeoutMs   uint32
	Result      uint32
} // 72 bytes

// IdentPowerState is one Identify Controller power state descriptor.
type IdentPowerState struct {
	MaxPower        uint16
	Rsvd2           uint8
	Flags           uint8
	EntryLat        uint32
	ExitLat         uint32
	ReadTput        uint8
	ReadLat         uint8
	WriteTput       uint8
	WriteLat        uint8
	IdlePower       uint16
	IdleScale       uint8
	Rsvd19          uint8
	ActivePower     uint16
	ActiveWorkScale uint8
	Rsvd23          [9]byte
}

// IdentController is the 4096-byte Identify Controller data structure.
type IdentController struct {
	VendorID     uint16
	Ssvid        uint16
	SerialNumber [20]byte
	ModelNumber  [40]byte
	Firmware     [8]byte
	Rab          uint8
	IEEE         [3]byte
	Cmic         uint8
	Mdts         uint8
	Cntlid       uint16
	Ver          uint32
	Rtd3r        uint32
	Rtd3e        uint32
	Oaes         uint32
	Rsvd96       [160]byte
	Oacs         uint16
	Acl          uint8
	Aerl         uint8
	Frmw         uint8
	Lpa          uint8
	Elpe         uint8
	Npss         uint8
	Avscc        uint8
	Apsta        uint8
	Wctemp       uint16
	Cctemp       uint16
	Mtfa         uint16
	Hmpre        uint32
	Hmmin        uint32
	Tnvmcap      [16]byte
	Unvmcap      [16]byte
	Rpmbs        uint32
	Rsvd316      [196]byte
	Sqes         uint8
	Cqes         uint8
	Rsvd514      [2]byte
	Nn           uint32
	Oncs         uint16
	Fuses        uint16
	Fna          uint8
	Vwc          uint8
	Awun         uint16
	Awupf        uint16
	Nvscc        uint8
	Rsvd531      uint8
	Acwu         uint16
	Rsvd534      [2]byte
	Sgls         uint32
	Subnqn       [256]byte // NVMe-oF subsystem NQN (1.2.1+, carved out of vendor-specific region)
	Rsvd540      [1252]byte
	Psd          [32]IdentPowerState
	Vs           [1024]byte
} // 4096 bytes

// LBAF is one LBA Format descriptor.
type LBAF struct {
	Ms uint16
	Ds uint8
	Rp uint8
}

// IdentNamespace is the 4096-byte Identify Namespace data structure.
type IdentNamespace struct {
	Nsze    uint64
	Ncap    uint64
	Nuse    uint64
	Nsfeat  uint8
	Nlbaf   uint8
	Flbas   uint8
	Mc      uint8
	Dpc     uint8
	Dps     uint8
	Nmic    uint8
	Rescap  uint8
	Fpi     uint8
	Rsvd33  uint8
	Nawun   uint16
	Nawupf  uint16
	Nacwu   uint16
	Nabsn   uint16
	Nabo    uint16
	Nabspf  uint16
	Rsvd46  [2]byte
	Nvmcap  [16]byte
	Rsvd64  [40]byte
	Nguid   [16]byte
	EUI64   [8]byte
	Lbaf    [16]LBAF
	Rsvd192 [192]byte
	Vs      [3712]byte
} // 4096 bytes

// SMARTLog is the 512-byte SMART/Health Information log page.
type SMARTLog struct {
	CritWarning      uint8
	Temperature      [2]uint8
	AvailSpare       uint8
	SpareThresh      uint8
	PercentUsed      uint8
	Rsvd6            [26]byte
	DataUnitsRead    [16]byte
	DataUnitsWritten [16]byte
	HostReads        [16]byte
	HostWrites       [16]byte
	CtrlBusyTime     [16]byte
	PowerCycles      [16]byte
	PowerOnHours     [16]byte
	UnsafeShutdowns  [16]byte
	MediaErrors      [16]byte
	NumErrLogEntries [16]byte
	WarningTempTime  uint32
	CritCompTime     uint32
	TempSensor       [8]uint16
	Rsvd216          [296]byte
} // 512 bytes

// ErrorLogEntry is one 64-byte entry of the Error Information log page.
type ErrorLogEntry struct {
	ErrorCount     uint64
	SqID           uint16
	CmdID          uint16
	Status         uint16
	ParamErrorLoc  uint16
	LBA            uint64
	NSID           uint32
	VendorSpecific uint8
	Trtype         uint8
	Rsvd29         [2]byte
	CmdSpecific    uint64
	TrtypeSpecific uint16
	Rsvd42         [22]byte
} // 64 bytes

// SelfTestLog is the 564-byte Device Self-test log page (one current
// result + 20 historical results).
type SelfTestLog struct {
	CurrentOp       uint8
	CurrentComplete uint8
	Rsvd2           [2]byte
	Results         [20]SelfTestResult
}

// SelfTestResult is one 28-byte self-test log result entry.
type SelfTestResult struct {
	Status        uint8
	SegmentNumber uint8
	ValidFields   uint8
	Rsvd3         uint8
	POHours       uint64
	NSID          uint32
	FailingLBA    uint64
	StatusCodeT   uint8
	VendorSpecific [2]byte
	Rsvd27        uint8
}
