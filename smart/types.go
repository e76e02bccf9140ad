// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package smart implements the SMART decoder: smartctl --json parsing, a
// libatasmart-style well-known attribute name/unit mapping, and a native
// ATA passthrough decode path.
package smart

// Unit is the semantic unit tag attached to a SMARTAttribute's pretty
// value, mirroring libatasmart's SkSmartAttributeUnit.
type Unit int

const (
	UnitUnknown Unit = iota
	UnitNone
	UnitMilliseconds
	UnitSectors
	UnitMilliKelvin
	UnitSmallPercent
	UnitPercent
	UnitMB
)

func (u Unit) String() string {
	switch u {
	case UnitNone:
		return "none"
	case UnitMilliseconds:
		return "ms"
	case UnitSectors:
		return "sectors"
	case UnitMilliKelvin:
		return "mKelvin"
	case UnitSmallPercent:
		return "small%"
	case UnitPercent:
		return "%"
	case UnitMB:
		return "MB"
	default:
		return "unknown"
	}
}

// AttrFlag is a bit in an attribute's flags bitset, as reported by
// smartctl/ATA ("prefailure", "online", "performance", "error-rate",
// "event-count", "self-preserving").
type AttrFlag uint16

const (
	FlagPrefailure AttrFlag = 1 << iota
	FlagOnline
	FlagPerformance
	FlagErrorRate
	FlagEventCount
	FlagSelfPreserving
)

// Attribute is one decoded SMART attribute.
type Attribute struct {
	ID            int
	RawLabel      string
	WellKnownName string // "attribute-<id>" if not recognized
	Value         int    // normalized value as reported; 0 if absent (no -1 sentinel is set)
	Worst         int    // 0 if absent
	Threshold     int    // 0 if absent
	PastFail      bool
	NowFail       bool
	RawValue      uint64
	PrettyString  string
	Unit          Unit
	Flags         AttrFlag
}

// OfflineCollectionStatus mirrors libatasmart's SkSmartOfflineDataCollectionStatus.
type OfflineCollectionStatus int

const (
	OfflineNeverStarted OfflineCollectionStatus = iota
	OfflineSuccess
	OfflineInProgress
	OfflineSuspended
	OfflineAborted
	OfflineFatalError
	OfflineUnknown
)

// SelfTestExecutionStatus mirrors libatasmart's SkSmartSelfTestExecutionStatus.
type SelfTestExecutionStatus int

const (
	SelfTestCompletedNoError SelfTestExecutionStatus = iota
	SelfTestAbortedByHost
	SelfTestInterrupted
	SelfTestFatalError
	SelfTestCompletedUnknownFailure
	SelfTestCompletedElectricalFailure
	SelfTestCompletedServoFailure
	SelfTestCompletedReadFailure
	SelfTestCompletedHandlingDamage
	SelfTestInProgress
	SelfTestUnknown
)

// ATAReport is a decoded ATA SMART report.
type ATAReport struct {
	Supported              bool
	Enabled                bool
	OverallPassed          bool
	OfflineCollectionState OfflineCollectionStatus
	SelfTestState          SelfTestExecutionStatus
	SelfTestPercentRemain  int
	ShortPollingMinutes    int
	ExtendedPollingMinutes int
	ConveyancePollingMin   int
	CapabilityBits         uint32
	Attributes             []Attribute
	PowerOnMinutes         uint64
	PowerCycleCount        uint64
	TemperatureKelvin      float64
}
