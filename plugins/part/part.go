// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package part wraps a representative slice of partition table
// management: creating a disk label, adding a partition, and removing
// one, by shelling out to parted(8) through executil, whose
// ExecAndReportError folds captured stderr into the returned error.
package part

import (
	"context"
	"fmt"

	"github.com/dswarbrick/blockdev/executil"
	"github.com/dswarbrick/blockdev/plugin"
)

func init() {
	plugin.Register(plugin.PART, func() plugin.Backend { return &Backend{} })
}

// Backend is the part plugin's compiled-in registry entry.
type Backend struct{}

// Init satisfies plugin.Backend.
func (b *Backend) Init() error { return nil }

// Close satisfies plugin.Backend.
func (b *Backend) Close() error { return nil }

// IsTechAvail satisfies plugin.Backend.
func (b *Backend) IsTechAvail(tech string, mode plugin.Mode) error { return nil }

// CreateTable writes a new disk label of the given type (e.g. "gpt",
// "msdos") to device, discarding any existing partition table.
func CreateTable(ctx context.Context, device, label string) error {
	return executil.ExecAndReportError(ctx, []string{"parted", "-s", device, "mklabel", label})
}

// CreatePartition adds a partition to device spanning [startSector,
// endSector) of the given partType ("primary", "logical", "extended"),
// formatted with fsType if non-empty.
func CreatePartition(ctx context.Context, device, partType string, startSector, endSector uint64, fsType string) error {
	args := []string{"parted", "-s", device, "unit", "s", "mkpart", partType}
	if fsType != "" {
		args = append(args, fsType)
	}
	args = append(args, fmt.Sprintf("%ds", startSector), fmt.Sprintf("%ds", endSector))
	return executil.ExecAndReportError(ctx, args)
}

// RemovePartition removes partition number partNum from device.
func RemovePartition(ctx context.Context, device string, partNum int) error {
	return executil.ExecAndReportError(ctx, []string{"parted", "-s", device, "rm", fmt.Sprintf("%d", partNum)})
}
