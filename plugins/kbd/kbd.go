// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package kbd wraps a representative slice of "kernel block device"
// management: zRAM device statistics, read via a chain of
// /sys/block/<dev>/{disksize, num_reads, num_writes, invalid_io,
// zero_pages, max_comp_streams, orig_data_size, compr_data_size,
// mem_used_total, comp_algorithm} reads, and bcache creation/
// attachment, via "make-bcache -B <backing> -C <cache>", a
// "Set UUID:\s+([-a-z0-9]+)" regex extraction from its output, a glob
// over /sys/block/*/slaves/<backing-dev-name> to discover the
// resulting bcache device name, and a /sys/block/<dev>/bcache/attach
// write.
package kbd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/executil"
	"github.com/dswarbrick/blockdev/plugin"
)

func init() {
	plugin.Register(plugin.KBD, func() plugin.Backend { return &Backend{} })
}

// Backend is the kbd plugin's compiled-in registry entry.
type Backend struct{}

// Init satisfies plugin.Backend.
func (b *Backend) Init() error { return nil }

// Close satisfies plugin.Backend.
func (b *Backend) Close() error { return nil }

// IsTechAvail satisfies plugin.Backend.
func (b *Backend) IsTechAvail(tech string, mode plugin.Mode) error { return nil }

// ZramStats mirrors BDKBDZramStats, the sysfs-reported counters for a
// single zram device.
type ZramStats struct {
	Disksize       uint64
	NumReads       uint64
	NumWrites      uint64
	InvalidIO      uint64
	ZeroPages      uint64
	MaxCompStreams uint64
	CompAlgorithm  string
	OrigDataSize   uint64
	ComprDataSize  uint64
	MemUsedTotal   uint64
}

var sysBlockRoot = "/sys/block"

func readSysfsUint(path string) (uint64, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(content)), 10, 64)
	if err != nil {
		return 0, bderrors.Wrap(bderrors.KindParse, err, "failed to parse %s", path)
	}
	return v, nil
}

// ZramGetStats reads the sysfs attributes for a zram device
// (bd_kbd_zram_get_stats). device may be given with or without a
// "/dev/" prefix.
func ZramGetStats(device string) (ZramStats, error) {
	device = strings.TrimPrefix(device, "/dev/")
	devDir := filepath.Join(sysBlockRoot, device)
	if _, err := os.Stat(devDir); err != nil {
		return ZramStats{}, bderrors.New(bderrors.KindNoMatch, "device %q doesn't seem to exist", device)
	}

	var stats ZramStats
	var err error
	fail := func(attr string, readErr error) (ZramStats, error) {
		return ZramStats{}, bderrors.Wrap(bderrors.KindProcessFailed, readErr, "failed to get %q for %q zram device", attr, device)
	}

	if stats.Disksize, err = readSysfsUint(filepath.Join(devDir, "disksize")); err != nil {
		return fail("disksize", err)
	}
	if stats.NumReads, err = readSysfsUint(filepath.Join(devDir, "num_reads")); err != nil {
		return fail("num_reads", err)
	}
	if stats.NumWrites, err = readSysfsUint(filepath.Join(devDir, "num_writes")); err != nil {
		return fail("num_writes", err)
	}
	if stats.InvalidIO, err = readSysfsUint(filepath.Join(devDir, "invalid_io")); err != nil {
		return fail("invalid_io", err)
	}
	if stats.ZeroPages, err = readSysfsUint(filepath.Join(devDir, "zero_pages")); err != nil {
		return fail("zero_pages", err)
	}
	if stats.MaxCompStreams, err = readSysfsUint(filepath.Join(devDir, "max_comp_streams")); err != nil {
		return fail("max_comp_streams", err)
	}
	if stats.OrigDataSize, err = readSysfsUint(filepath.Join(devDir, "orig_data_size")); err != nil {
		return fail("orig_data_size", err)
	}
	if stats.ComprDataSize, err = readSysfsUint(filepath.Join(devDir, "compr_data_size")); err != nil {
		return fail("compr_data_size", err)
	}
	if stats.MemUsedTotal, err = readSysfsUint(filepath.Join(devDir, "mem_used_total")); err != nil {
		return fail("mem_used_total", err)
	}

	algo, err := os.ReadFile(filepath.Join(devDir, "comp_algorithm"))
	if err != nil {
		return fail("comp_algorithm", err)
	}
	stats.CompAlgorithm = strings.TrimSpace(string(algo))

	return stats, nil
}

var setUUIDRegexp = regexp.MustCompile(`Set UUID:\s+([-a-z0-9]+)`)

func echoToFile(content, path string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return bderrors.Wrap(bderrors.KindProcessFailed, err, "failed to write %q to %s", content, path)
	}
	return nil
}

// CreateBcache creates a bcache device out of backingDevice (slow)
// and cacheDevice (fast), registers it, and attaches the cache
// (bd_kbd_bcache_create). Returns the resulting bcache device name
// (e.g. "bcache0").
func CreateBcache(ctx context.Context, backingDevice, cacheDevice string) (string, error) {
	out, err := executil.ExecAndCaptureOutput(ctx, []string{"make-bcache", "-B", backingDevice, "-C", cacheDevice})
	if err != nil {
		return "", err
	}

	match := setUUIDRegexp.FindStringSubmatch(out)
	if match == nil {
		return "", bderrors.New(bderrors.KindParse, "failed to determine Set UUID from: %s", out)
	}
	setUUID := match[1]

	backingName := filepath.Base(backingDevice)
	if err := echoToFile(backingDevice, "/sys/fs/bcache/register"); err != nil {
		return "", err
	}

	pattern := filepath.Join(sysBlockRoot, "*", "slaves", backingName)
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return "", bderrors.New(bderrors.KindNoMatch, "failed to determine bcache device name for %q", backingName)
	}

	// matches[0] looks like /sys/block/bcache0/slaves/<backingName>;
	// the bcache device name is the third path component.
	rel := strings.TrimPrefix(matches[0], sysBlockRoot+string(filepath.Separator))
	parts := strings.SplitN(rel, string(filepath.Separator), 2)
	bcacheDevice := parts[0]

	if err := AttachBcache(setUUID, bcacheDevice); err != nil {
		return "", fmt.Errorf("failed to attach the cache to the backing device: %w", err)
	}

	return bcacheDevice, nil
}

// AttachBcache attaches the cache set identified by cSetUUID to
// bcacheDevice (bd_kbd_bcache_attach).
func AttachBcache(cSetUUID, bcacheDevice string) error {
	bcacheDevice = strings.TrimPrefix(bcacheDevice, "/dev/")
	path := filepath.Join(sysBlockRoot, bcacheDevice, "bcache", "attach")
	return echoToFile(cSetUUID, path)
}
