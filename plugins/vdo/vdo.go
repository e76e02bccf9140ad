// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package vdo wraps a representative slice of VDO (virtual data
// optimizer) volume management: creating/removing a volume via
// vdo(8) CLI conventions ("vdo create --name ... --device ...
// [--vdoLogicalSize ...]", "vdo remove --name ...") and reading its
// usage statistics via the vdostats package.
package vdo

import (
	"context"
	"strconv"

	"github.com/dswarbrick/blockdev/executil"
	"github.com/dswarbrick/blockdev/extraarg"
	"github.com/dswarbrick/blockdev/plugin"
	"github.com/dswarbrick/blockdev/vdostats"
)

func init() {
	plugin.Register(plugin.VDO, func() plugin.Backend { return &Backend{} })
}

// Backend is the vdo plugin's compiled-in registry entry.
type Backend struct{}

// Init satisfies plugin.Backend.
func (b *Backend) Init() error { return nil }

// Close satisfies plugin.Backend.
func (b *Backend) Close() error { return nil }

// IsTechAvail satisfies plugin.Backend.
func (b *Backend) IsTechAvail(tech string, mode plugin.Mode) error { return nil }

// Create creates a new VDO volume named name over backingDevice, with
// an optional logical size larger than the physical backing device
// (logicalSizeBytes == 0 leaves it at vdo's own default).
func Create(ctx context.Context, name, backingDevice string, logicalSizeBytes uint64, extra []extraarg.ExtraArg) error {
	args := []string{"vdo", "create", "--name", name, "--device", backingDevice}
	if logicalSizeBytes > 0 {
		args = append(args, "--vdoLogicalSize", formatBytes(logicalSizeBytes))
	}
	args = append(args, extraarg.Args(extra)...)
	return executil.ExecAndReportError(ctx, args)
}

// Remove tears down a VDO volume (vdo remove --name <name>).
func Remove(ctx context.Context, name string, extra []extraarg.ExtraArg) error {
	args := append([]string{"vdo", "remove", "--name", name}, extraarg.Args(extra)...)
	return executil.ExecAndReportError(ctx, args)
}

// Stats reads the kvdo sysfs statistics for a VDO volume and derives
// the same summary ratios plugins/lvm.VDOPoolStats computes for VDO
// pool logical volumes.
func Stats(name string) (vdostats.Stats, error) {
	raw, err := vdostats.FromSysfs(name)
	if err != nil {
		return nil, err
	}
	return vdostats.Derive(raw), nil
}

func formatBytes(n uint64) string {
	return strconv.FormatUint(n, 10) + "B"
}
