// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package swap wraps swap space creation and the swapon(2)/swapoff(2)
// activation primitives: "mkswap -f [-L label] device" for creation,
// and golang.org/x/sys/unix.Swapon/Swapoff for activation, calling the
// swapon(2)/swapoff(2) syscalls directly rather than shelling out.
package swap

import (
	"context"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/devutils"
	"github.com/dswarbrick/blockdev/executil"
	"github.com/dswarbrick/blockdev/extraarg"
	"github.com/dswarbrick/blockdev/plugin"
)

// procSwapsPath is a variable, not a constant, so tests can point it at a
// scratch file instead of the real /proc/swaps.
var procSwapsPath = "/proc/swaps"

func init() {
	plugin.Register(plugin.SWAP, func() plugin.Backend { return &Backend{} })
}

// Backend is the swap plugin's compiled-in registry entry.
type Backend struct{}

// Init satisfies plugin.Backend.
func (b *Backend) Init() error { return nil }

// Close satisfies plugin.Backend.
func (b *Backend) Close() error { return nil }

// IsTechAvail satisfies plugin.Backend.
func (b *Backend) IsTechAvail(tech string, mode plugin.Mode) error { return nil }

// MkSwap formats device as swap space via mkswap(8), optionally labelled
// (bd_swap_mkswap). "-f" is always passed, matching the source's own
// comment: mkswap otherwise refuses whole-disk creation over old
// bootbits sectors.
func MkSwap(ctx context.Context, device, label string, extra []extraarg.ExtraArg) error {
	args := []string{"mkswap", "-f"}
	if label != "" {
		args = append(args, "-L", label)
	}
	args = append(args, extraarg.Args(extra)...)
	args = append(args, device)
	return executil.ExecAndReportError(ctx, args)
}

// Default is the SwapOn priority that leaves the kernel's allocation
// order unmodified; any non-negative priority requests that fixed
// priority, like swapon(8)'s -p.
const Default = -1

// SwapOn activates device as swap space at the given priority, or at the
// kernel default if priority is Default (bd_swap_swapon). Unlike the
// source, the page-sized swap-header signature check before activating
// is left to the kernel: swapon(2) itself already rejects a device
// lacking a valid "SWAPSPACE2" signature.
func SwapOn(device string, priority int) error {
	flags := 0
	if priority >= 0 {
		flags = unix.SWAP_FLAG_PREFER | ((priority << unix.SWAP_FLAG_PRIO_SHIFT) & unix.SWAP_FLAG_PRIO_MASK)
	}
	if err := unix.Swapon(device, flags); err != nil {
		return bderrors.Wrap(bderrors.KindProcessFailed, err, "failed to activate swap on %s", device)
	}
	return nil
}

// SwapOff deactivates an active swap device (bd_swap_swapoff).
func SwapOff(device string) error {
	if err := unix.Swapoff(device); err != nil {
		return bderrors.Wrap(bderrors.KindProcessFailed, err, "failed to deactivate swap on %s", device)
	}
	return nil
}

// SwapStatus reports whether device is currently listed in /proc/swaps
// as active (bd_swap_swapstatus). device-mapper and MD nodes are
// resolved to their real device path first, since /proc/swaps lists the
// resolved path rather than the symlink name.
func SwapStatus(device string) (bool, error) {
	content, err := os.ReadFile(procSwapsPath)
	if err != nil {
		return false, bderrors.Wrap(bderrors.KindProcessFailed, err, "failed to read /proc/swaps")
	}

	lookFor := device
	if strings.HasPrefix(device, "/dev/mapper/") || strings.HasPrefix(device, "/dev/md/") {
		resolved, rerr := devutils.ResolveDevice(device)
		if rerr == nil {
			lookFor = resolved
		}
	}

	for _, line := range strings.Split(string(content), "\n") {
		if strings.HasPrefix(line, lookFor) {
			return true, nil
		}
	}
	return false, nil
}
