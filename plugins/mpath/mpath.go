// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package mpath wraps a representative slice of device-mapper multipath
// management: flushing unused multipath maps and checking multipath
// membership, via the multipath(8) CLI — "multipath -F" flushes every
// unused map (whether any map remains afterwards is not checked), and
// "multipath -c <device>" is
// multipath-tools' own membership check, exiting zero exactly when the
// device is mapped.
package mpath

import (
	"context"
	"os"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/executil"
	"github.com/dswarbrick/blockdev/plugin"
)

func init() {
	plugin.Register(plugin.MPATH, func() plugin.Backend { return &Backend{} })
}

// Backend is the mpath plugin's compiled-in registry entry.
type Backend struct{}

// Init satisfies plugin.Backend.
func (b *Backend) Init() error { return nil }

// Close satisfies plugin.Backend.
func (b *Backend) Close() error { return nil }

// IsTechAvail satisfies plugin.Backend.
func (b *Backend) IsTechAvail(tech string, mode plugin.Mode) error { return nil }

// FlushMpaths flushes all unused multipath device maps
// (bd_mpath_flush_mpaths). Requires root, matching the source's explicit
// geteuid() check.
func FlushMpaths(ctx context.Context) error {
	if os.Geteuid() != 0 {
		return bderrors.New(bderrors.KindNotRoot, "not running as root, cannot flush mpaths")
	}
	return executil.ExecAndReportError(ctx, []string{"multipath", "-F"})
}

// IsMpathMember reports whether device is a member of a multipath map
// (bd_mpath_is_mpath_member).
func IsMpathMember(ctx context.Context, device string) bool {
	return executil.ExecAndReportError(ctx, []string{"multipath", "-c", device}) == nil
}
