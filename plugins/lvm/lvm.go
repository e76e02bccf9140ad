// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package lvm wraps a representative slice of the lvm2 command line:
// physical/volume group creation and removal, logical volume size and
// dm-cache statistics queries, and VDO-backed logical volume
// statistics. Every call is prefixed with "lvm" and the global
// --config/--devices passthrough sourced from the config package.
package lvm

import (
	"context"
	"strconv"
	"strings"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/config"
	"github.com/dswarbrick/blockdev/executil"
	"github.com/dswarbrick/blockdev/extraarg"
	"github.com/dswarbrick/blockdev/plugin"
	"github.com/dswarbrick/blockdev/vdostats"
)

func init() {
	plugin.Register(plugin.LVM, func() plugin.Backend { return &Backend{} })
}

// Backend is the lvm plugin's compiled-in registry entry.
type Backend struct{}

// Init satisfies plugin.Backend; lvm2 has no process-wide setup to perform
// beyond what config.Global already provides.
func (b *Backend) Init() error { return nil }

// Close satisfies plugin.Backend.
func (b *Backend) Close() error { return nil }

// IsTechAvail reports tech/mode support. Every tech and mode is reported
// available: no probe for the lvm binary and no finer-grained per-tech
// gating (thin provisioning, caching, ...) is done.
func (b *Backend) IsTechAvail(tech string, mode plugin.Mode) error {
	return nil
}

// buildArgs prepends "lvm" and appends the global --config/--devices
// passthrough strings, mirroring call_lvm_and_report_error's argv
// construction.
func buildArgs(args []string) []string {
	argv := append([]string{"lvm"}, args...)
	if c := config.Global.LVMConfigString(); c != "" {
		argv = append(argv, "--config="+c)
	}
	if d := config.Global.LVMDevicesString(); d != "" {
		argv = append(argv, "--devices="+d)
	}
	return argv
}

// PVCreate initializes device as an LVM physical volume (bd_lvm_pvcreate).
// dataAlignment and metadataSize are in bytes; 0 uses lvm2's own default.
func PVCreate(ctx context.Context, device string, dataAlignment, metadataSize uint64, extra []extraarg.ExtraArg) error {
	args := []string{"pvcreate", device}
	if dataAlignment != 0 {
		args = append(args, "--dataalignment="+strconv.FormatUint(dataAlignment/1024, 10)+"K")
	}
	if metadataSize != 0 {
		args = append(args, "--metadatasize="+strconv.FormatUint(metadataSize/1024, 10)+"K")
	}
	args = append(args, extraarg.Args(extra)...)
	return executil.ExecAndReportError(ctx, buildArgs(args))
}

// PVRemove wipes an LVM physical volume signature (bd_lvm_pvremove).
func PVRemove(ctx context.Context, device string, extra []extraarg.ExtraArg) error {
	args := append([]string{"pvremove", "-y", "-ff", device}, extraarg.Args(extra)...)
	return executil.ExecAndReportError(ctx, buildArgs(args))
}

// VGCreate creates a volume group named name from pvList, using peSize
// bytes as the physical extent size (bd_lvm_vgcreate).
func VGCreate(ctx context.Context, name string, pvList []string, peSize uint64, extra []extraarg.ExtraArg) error {
	args := []string{"vgcreate", "-s", strconv.FormatUint(peSize/1024, 10) + "K", name}
	args = append(args, pvList...)
	args = append(args, extraarg.Args(extra)...)
	return executil.ExecAndReportError(ctx, buildArgs(args))
}

// VGRemove removes an existing volume group (bd_lvm_vgremove).
func VGRemove(ctx context.Context, vgName string, extra []extraarg.ExtraArg) error {
	args := append([]string{"vgremove", "-f", vgName}, extraarg.Args(extra)...)
	return executil.ExecAndReportError(ctx, buildArgs(args))
}

// VDOPoolStats returns VDO-derived statistics for a VDO-backed logical
// volume's pool, by reading its /sys/kvdo entry (an lvm2 LV of
// --type vdo-pool). vgName/lvName identify the LV whose kvdo sysfs
// directory is named "<vgName>-<lvName>-vpool-vpool".
func VDOPoolStats(vgName, lvName string) (vdostats.Stats, error) {
	name := vgName + "-" + lvName + "-vpool-vpool"
	stats, err := vdostats.FromSysfs(name)
	if err != nil {
		return nil, err
	}
	vdostats.Derive(stats)
	return stats, nil
}

// LVInfo is the subset of `lvs` output lvm-cache-stats.c reads via
// bd_lvm_lvinfo: the LV's size in bytes.
type LVInfo struct {
	Size uint64
}

// GetLVInfo reports size for vgName/lvName (bd_lvm_lvinfo), by running
// `lvs --noheadings --nosuffix --units b -o lv_size`.
func GetLVInfo(ctx context.Context, vgName, lvName string) (LVInfo, error) {
	argv := buildArgs([]string{"lvs", "--noheadings", "--nosuffix", "--units", "b", "-o", "lv_size", vgName + "/" + lvName})
	out, err := executil.ExecAndCaptureOutput(ctx, argv)
	if err != nil {
		return LVInfo{}, err
	}

	size, err := strconv.ParseUint(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return LVInfo{}, bderrors.Wrap(bderrors.KindParse, err, "failed to parse lv_size output %q", out)
	}
	return LVInfo{Size: size}, nil
}

// CacheMode is a dm-cache write policy, as reported by dmsetup status
// (bd_lvm_cache_get_mode_str's writeback/writethrough/passthrough set).
type CacheMode string

const (
	CacheModeWriteback    CacheMode = "writeback"
	CacheModeWritethrough CacheMode = "writethrough"
	CacheModePassthrough  CacheMode = "passthrough"
	CacheModeUnknown      CacheMode = "unknown"
)

// CacheStats is the decoded form of a cache-type LV's dmsetup status line
// (bd_lvm_cache_stats / BDLVMCacheStats): cache-pool occupancy plus
// cumulative read/write hit and miss counters.
type CacheStats struct {
	Mode        CacheMode
	CacheSize   uint64 // in 512-byte sectors
	CacheUsed   uint64
	ReadHits    uint64
	ReadMisses  uint64
	WriteHits   uint64
	WriteMisses uint64
}

// CacheStatsFor returns dm-cache statistics for a cached logical volume
// (bd_lvm_cache_stats), by parsing `dmsetup status <vg>-<lv>`'s "cache"
// target line:
//
//	<start> <len> cache <metadata used>/<metadata total> \
//	    <cache used>/<cache total> <rhit> <rmiss> <whit> <wmiss> ... \
//	    <policy-name> <n-args> ... writeback|writethrough|passthrough ...
func CacheStatsFor(ctx context.Context, vgName, lvName string) (CacheStats, error) {
	dmName := vgName + "-" + lvName
	out, err := executil.ExecAndCaptureOutput(ctx, []string{"dmsetup", "status", dmName})
	if err != nil {
		return CacheStats{}, err
	}

	fields := strings.Fields(out)
	// fields[0], fields[1] = start, length; fields[2] = target type "cache"
	if len(fields) < 9 || fields[2] != "cache" {
		return CacheStats{}, bderrors.New(bderrors.KindParse, "unexpected dmsetup status output for %s: %q", dmName, out)
	}

	cacheUsage := strings.SplitN(fields[4], "/", 2)
	if len(cacheUsage) != 2 {
		return CacheStats{}, bderrors.New(bderrors.KindParse, "unexpected cache usage field %q in dmsetup status for %s", fields[4], dmName)
	}

	used, err := strconv.ParseUint(cacheUsage[0], 10, 64)
	if err != nil {
		return CacheStats{}, bderrors.Wrap(bderrors.KindParse, err, "failed to parse cache blocks used")
	}
	total, err := strconv.ParseUint(cacheUsage[1], 10, 64)
	if err != nil {
		return CacheStats{}, bderrors.Wrap(bderrors.KindParse, err, "failed to parse cache blocks total")
	}

	counters := make([]uint64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseUint(fields[5+i], 10, 64)
		if err != nil {
			return CacheStats{}, bderrors.Wrap(bderrors.KindParse, err, "failed to parse cache hit/miss counters")
		}
		counters[i] = v
	}

	mode := CacheModeUnknown
	for _, f := range fields[9:] {
		switch f {
		case "writeback":
			mode = CacheModeWriteback
		case "writethrough":
			mode = CacheModeWritethrough
		case "passthrough":
			mode = CacheModePassthrough
		}
	}

	return CacheStats{
		Mode:        mode,
		CacheSize:   total,
		CacheUsed:   used,
		ReadHits:    counters[0],
		ReadMisses:  counters[1],
		WriteHits:   counters[2],
		WriteMisses: counters[3],
	}, nil
}
