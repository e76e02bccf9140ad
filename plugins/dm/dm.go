// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package dm wraps basic device-mapper map management: creating and
// removing a linear map via dmsetup(8)'s "dmsetup create <name>
// --table '0 <len> linear <device> 0' [-u <uuid>]" / "dmsetup remove
// <name>" argv, resolving a dm node to its mapped name via
// devutils.ResolveDMName's /sys/block/<node>/dm/name read, and
// resolving a mapped name back to its node via the /dev/mapper/<name>
// symlink.
package dm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/devutils"
	"github.com/dswarbrick/blockdev/executil"
	"github.com/dswarbrick/blockdev/plugin"
)

func init() {
	plugin.Register(plugin.DM, func() plugin.Backend { return &Backend{} })
}

// Backend is the dm plugin's compiled-in registry entry.
type Backend struct{}

// Init satisfies plugin.Backend.
func (b *Backend) Init() error { return nil }

// Close satisfies plugin.Backend.
func (b *Backend) Close() error { return nil }

// IsTechAvail satisfies plugin.Backend.
func (b *Backend) IsTechAvail(tech string, mode plugin.Mode) error { return nil }

// CreateLinear creates a linear device-mapper map named mapName over
// device, lengthSectors sectors long, optionally with a fixed uuid
// (bd_dm_create_linear).
func CreateLinear(ctx context.Context, mapName, device string, lengthSectors uint64, uuid string) error {
	table := fmt.Sprintf("0 %d linear %s 0", lengthSectors, device)
	args := []string{"dmsetup", "create", mapName, "--table", table}
	if uuid != "" {
		args = append(args, "-u", uuid)
	}
	return executil.ExecAndReportError(ctx, args)
}

// Remove tears down a device-mapper map (bd_dm_remove).
func Remove(ctx context.Context, mapName string) error {
	return executil.ExecAndReportError(ctx, []string{"dmsetup", "remove", mapName})
}

// NameFromDMNode resolves a DM node (e.g. "dm-0") to its map name
// (bd_dm_name_from_dm_node).
func NameFromDMNode(dmNode string) (string, error) {
	return devutils.ResolveDMName(dmNode)
}

// NodeFromName resolves a map name to its DM node (e.g. "dm-0"), by
// reading the /dev/mapper/<name> symlink (bd_dm_node_from_name).
func NodeFromName(mapName string) (string, error) {
	path := filepath.Join("/dev/mapper", mapName)
	target, err := os.Readlink(path)
	if err != nil {
		return "", bderrors.Wrap(bderrors.KindProcessFailed, err, "failed to resolve %s", path)
	}
	return filepath.Base(strings.TrimSpace(target)), nil
}

// MapExists reports whether mapName is currently listed by "dmsetup info
// -c", optionally requiring it to be live and/or active
// (bd_dm_map_exists). dmsetup's "Live table" and "Suspended" columns
// (via -o name,live,suspended --noheadings) replace the source's direct
// libdevmapper DM_DEVICE_LIST/DM_DEVICE_INFO task pair.
func MapExists(ctx context.Context, mapName string, liveOnly, activeOnly bool) (bool, error) {
	out, err := executil.ExecAndCaptureOutput(ctx, []string{"dmsetup", "info", "-c", "--noheadings", "-o", "name,live,suspended", mapName})
	if err != nil {
		return false, nil
	}

	fields := strings.Fields(out)
	if len(fields) < 3 {
		return false, nil
	}

	liveStr, suspendedStr := fields[1], fields[2]
	if liveOnly && liveStr != "1" {
		return false, nil
	}
	suspended, _ := strconv.Atoi(suspendedStr)
	if activeOnly && suspended != 0 {
		return false, nil
	}

	return true, nil
}
