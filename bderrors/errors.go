// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package bderrors defines the error taxonomy shared by every plugin and
// core component: a single Kind enum plus a wrapped cause, so that
// callers can use errors.Is/errors.As instead of comparing ad hoc error
// domains/codes.
package bderrors

import (
	"errors"
	"fmt"
)

// Kind identifies the cross-cutting error taxonomy. Plugins may
// additionally return sentinel errors of their own, but every error that
// crosses the public API boundary carries one of these.
type Kind int

const (
	// KindUnknown is never returned; it is the zero value of Kind.
	KindUnknown Kind = iota
	// KindTechUnavail means the capability is not supported in this build/runtime.
	KindTechUnavail
	// KindDepsFailed means one or more dependency probes failed.
	KindDepsFailed
	// KindSpawnFailed means the child process could not be started.
	KindSpawnFailed
	// KindProcessFailed means the child exited with a non-zero status.
	KindProcessFailed
	// KindNoOutput means the child exited zero but produced no stdout when output was required.
	KindNoOutput
	// KindParse means a parser could not recognize its input payload.
	KindParse
	// KindInvalidArgument means a caller-supplied value failed a stated precondition.
	KindInvalidArgument
	// KindNotRoot means the operation requires euid == 0.
	KindNotRoot
	// KindDriveSleeping means a SMART query was refused because the drive is in low power mode.
	KindDriveSleeping
	// KindConnectAlreadyExists means an NVMe-oF connect target a controller that already exists.
	KindConnectAlreadyExists
	// KindConnectInvalid means an NVMe-oF connect argument was rejected by the kernel.
	KindConnectInvalid
	// KindConnectAddrInUse means the NVMe-oF transport address is already in use.
	KindConnectAddrInUse
	// KindConnectNoDev means the NVMe-oF transport device does not exist.
	KindConnectNoDev
	// KindConnectOpNotSupp means the NVMe-oF operation is not supported by the transport.
	KindConnectOpNotSupp
	// KindConnectRefused means the NVMe-oF target refused the connection.
	KindConnectRefused
	// KindConnect is a generic NVMe-oF connect failure not covered by a more specific kind.
	KindConnect
	// KindNoMatch means no subsystem/controller matched the requested disconnect criteria.
	KindNoMatch
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown",
	KindTechUnavail:          "tech-unavailable",
	KindDepsFailed:           "deps-failed",
	KindSpawnFailed:          "spawn-failed",
	KindProcessFailed:        "process-failed",
	KindNoOutput:             "no-output",
	KindParse:                "parse",
	KindInvalidArgument:      "invalid-argument",
	KindNotRoot:              "not-root",
	KindDriveSleeping:        "drive-sleeping",
	KindConnectAlreadyExists: "connect-already-exists",
	KindConnectInvalid:       "connect-invalid",
	KindConnectAddrInUse:     "connect-addr-in-use",
	KindConnectNoDev:         "connect-no-dev",
	KindConnectOpNotSupp:     "connect-op-not-supported",
	KindConnectRefused:       "connect-refused",
	KindConnect:              "connect",
	KindNoMatch:              "no-match",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Error is the taxonomy-carrying error type returned across the public API.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New creates an Error of the given Kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given Kind, preserving cause for errors.Unwrap.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap allows errors.Is/errors.As to see through to the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so that
// callers can write errors.Is(err, bderrors.New(bderrors.KindNotRoot, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, else KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
