// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package loop wraps losetup(8) loop device setup/teardown and the
// backing-file <-> loop-device sysfs lookups: reading
// /sys/class/block/<name>/loop/backing_file, globbing over
// /sys/block/loop*/loop/backing_file to find a device by backing file,
// and "losetup -f <file>" / "losetup -d <dev>" to set up and tear down.
package loop

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/dswarbrick/blockdev/executil"
	"github.com/dswarbrick/blockdev/plugin"
)

func init() {
	plugin.Register(plugin.LOOP, func() plugin.Backend { return &Backend{} })
}

// Backend is the loop plugin's compiled-in registry entry.
type Backend struct{}

// Init satisfies plugin.Backend.
func (b *Backend) Init() error { return nil }

// Close satisfies plugin.Backend.
func (b *Backend) Close() error { return nil }

// IsTechAvail satisfies plugin.Backend.
func (b *Backend) IsTechAvail(tech string, mode plugin.Mode) error { return nil }

// GetBackingFile returns the backing file path for a loop device name
// (e.g. "loop0"), or "" if none is set (bd_loop_get_backing_file).
func GetBackingFile(devName string) (string, error) {
	sysPath := filepath.Join("/sys/class/block", devName, "loop", "backing_file")
	if _, err := os.Stat(sysPath); err != nil {
		return "", nil
	}
	b, err := os.ReadFile(sysPath)
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(string(b)), nil
}

// GetLoopName finds the name of the loop device currently backed by
// file, or "" if none is found (bd_loop_get_loop_name).
func GetLoopName(file string) (string, error) {
	matches, err := filepath.Glob("/sys/block/loop*/loop/backing_file")
	if err != nil {
		return "", nil
	}

	for _, path := range matches {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(content)) == file {
			parts := strings.Split(path, "/")
			if len(parts) > 3 {
				return parts[3], nil
			}
		}
	}

	return "", nil
}

// Setup associates file with a free loop device via "losetup -f", returning
// the resulting device name (bd_loop_setup).
func Setup(ctx context.Context, file string) (string, error) {
	if err := executil.ExecAndReportError(ctx, []string{"losetup", "-f", file}); err != nil {
		return "", err
	}
	return GetLoopName(file)
}

// Teardown detaches a loop device identified by name or full path
// (bd_loop_teardown).
func Teardown(ctx context.Context, loopDev string) error {
	dev := loopDev
	if !strings.HasPrefix(dev, "/dev/") {
		dev = "/dev/" + dev
	}
	return executil.ExecAndReportError(ctx, []string{"losetup", "-d", dev})
}
