// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package nvdimm wraps a representative slice of NVDIMM namespace
// management: enabling/disabling and reconfiguring namespaces, via the
// ndctl(1) CLI ("ndctl enable-namespace"/"ndctl disable-namespace"/
// "ndctl create-namespace -e <namespace> -m <mode> [-f]").
// NamespaceModeFromString/NamespaceModeString reproduce
// bd_nvdimm_namespace_get_mode_from_str/_get_mode_str's lookup tables
// exactly, since those never touch libndctl at all.
package nvdimm

import (
	"context"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/executil"
	"github.com/dswarbrick/blockdev/extraarg"
	"github.com/dswarbrick/blockdev/plugin"
)

func init() {
	plugin.Register(plugin.NVDIMM, func() plugin.Backend { return &Backend{} })
}

// Backend is the nvdimm plugin's compiled-in registry entry.
type Backend struct{}

// Init satisfies plugin.Backend.
func (b *Backend) Init() error { return nil }

// Close satisfies plugin.Backend.
func (b *Backend) Close() error { return nil }

// IsTechAvail satisfies plugin.Backend.
func (b *Backend) IsTechAvail(tech string, mode plugin.Mode) error { return nil }

// NamespaceMode mirrors BDNVDIMMNamespaceMode.
type NamespaceMode int

const (
	ModeRaw NamespaceMode = iota
	ModeSector
	ModeMemory
	ModeDax
	ModeFSDax
	ModeDevDax
	ModeUnknown
)

var modeStrings = [...]string{"raw", "sector", "memory", "dax", "fsdax", "devdax", "unknown"}

// NamespaceModeString returns mode's CLI string representation
// (bd_nvdimm_namespace_get_mode_str).
func NamespaceModeString(mode NamespaceMode) (string, error) {
	if mode < ModeRaw || mode > ModeUnknown {
		return "", bderrors.New(bderrors.KindInvalidArgument, "invalid mode given: %d", mode)
	}
	return modeStrings[mode], nil
}

// NamespaceModeFromString parses a namespace mode string
// (bd_nvdimm_namespace_get_mode_from_str).
func NamespaceModeFromString(s string) (NamespaceMode, error) {
	for i, v := range modeStrings[:ModeUnknown] {
		if v == s {
			return NamespaceMode(i), nil
		}
	}
	return ModeUnknown, bderrors.New(bderrors.KindInvalidArgument, "invalid mode given: %q", s)
}

// Enable activates an existing namespace (bd_nvdimm_namespace_enable).
func Enable(ctx context.Context, namespace string) error {
	return executil.ExecAndReportError(ctx, []string{"ndctl", "enable-namespace", namespace})
}

// Disable deactivates a namespace (bd_nvdimm_namespace_disable).
func Disable(ctx context.Context, namespace string) error {
	return executil.ExecAndReportError(ctx, []string{"ndctl", "disable-namespace", namespace})
}

// Reconfigure recreates namespace in the requested mode, optionally
// forcing past a non-idle check (bd_nvdimm_namespace_reconfigure).
func Reconfigure(ctx context.Context, namespace string, mode NamespaceMode, force bool, extra []extraarg.ExtraArg) error {
	modeStr, err := NamespaceModeString(mode)
	if err != nil {
		return err
	}

	args := []string{"ndctl", "create-namespace", "-e", namespace, "-m", modeStr}
	if force {
		args = append(args, "-f")
	}
	args = append(args, extraarg.Args(extra)...)

	return executil.ExecAndReportError(ctx, args)
}
