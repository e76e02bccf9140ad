// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package btrfs wraps a representative slice of btrfs volume
// management: creating a multi-device volume, adding/removing member
// devices, and creating/deleting subvolumes, built on mkfs.btrfs(8)/
// btrfs(8) CLI conventions ("mkfs.btrfs -L <label> -d <data level> -m
// <md level> <devices...>", "btrfs device add/remove <device>
// <mountpoint>", "btrfs subvolume create/delete <path>").
package btrfs

import (
	"context"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/executil"
	"github.com/dswarbrick/blockdev/plugin"
)

func init() {
	plugin.Register(plugin.BTRFS, func() plugin.Backend { return &Backend{} })
}

// Backend is the btrfs plugin's compiled-in registry entry.
type Backend struct{}

// Init satisfies plugin.Backend.
func (b *Backend) Init() error { return nil }

// Close satisfies plugin.Backend.
func (b *Backend) Close() error { return nil }

// IsTechAvail satisfies plugin.Backend.
func (b *Backend) IsTechAvail(tech string, mode plugin.Mode) error { return nil }

// CreateVolume formats devices into a single btrfs volume, optionally
// labeled and with explicit data/metadata RAID levels
// (bd_btrfs_create_volume). dataLevel/mdLevel of "" leave mkfs.btrfs's
// own defaults in place.
func CreateVolume(ctx context.Context, devices []string, label, dataLevel, mdLevel string) error {
	if len(devices) == 0 {
		return bderrors.New(bderrors.KindInvalidArgument, "btrfs create-volume requires at least one device")
	}

	args := []string{"mkfs.btrfs"}
	if label != "" {
		args = append(args, "-L", label)
	}
	if dataLevel != "" {
		args = append(args, "-d", dataLevel)
	}
	if mdLevel != "" {
		args = append(args, "-m", mdLevel)
	}
	args = append(args, devices...)

	return executil.ExecAndReportError(ctx, args)
}

// AddDevice adds device to the btrfs volume mounted at mountpoint
// (bd_btrfs_add_device).
func AddDevice(ctx context.Context, mountpoint, device string) error {
	return executil.ExecAndReportError(ctx, []string{"btrfs", "device", "add", device, mountpoint})
}

// RemoveDevice removes device from the btrfs volume mounted at
// mountpoint (bd_btrfs_remove_device).
func RemoveDevice(ctx context.Context, mountpoint, device string) error {
	return executil.ExecAndReportError(ctx, []string{"btrfs", "device", "remove", device, mountpoint})
}

// CreateSubvolume creates a subvolume named name under mountpoint
// (bd_btrfs_create_subvolume).
func CreateSubvolume(ctx context.Context, mountpoint, name string) error {
	return executil.ExecAndReportError(ctx, []string{"btrfs", "subvolume", "create", mountpoint + "/" + name})
}

// DeleteSubvolume deletes the name subvolume under mountpoint
// (bd_btrfs_delete_subvolume).
func DeleteSubvolume(ctx context.Context, mountpoint, name string) error {
	return executil.ExecAndReportError(ctx, []string{"btrfs", "subvolume", "delete", mountpoint + "/" + name})
}
