// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package mdraid wraps a representative slice of Linux software RAID
// (md) array management: creating and destroying arrays, and examining
// member devices, built on mdadm(8) CLI conventions: Create builds an
// "mdadm --create" argv from a (device name, level, disks, spares,
// version, bitmap) signature, Destroy runs an "mdadm --stop" followed
// by "mdadm --zero-superblock", and Examine parses
// "mdadm --examine --export" output into the BDMDExamineData fields.
package mdraid

import (
	"context"
	"strconv"
	"strings"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/executil"
	"github.com/dswarbrick/blockdev/plugin"
)

func init() {
	plugin.Register(plugin.MDRAID, func() plugin.Backend { return &Backend{} })
}

// Backend is the mdraid plugin's compiled-in registry entry.
type Backend struct{}

// Init satisfies plugin.Backend.
func (b *Backend) Init() error { return nil }

// Close satisfies plugin.Backend.
func (b *Backend) Close() error { return nil }

// IsTechAvail satisfies plugin.Backend.
func (b *Backend) IsTechAvail(tech string, mode plugin.Mode) error { return nil }

// ExamineData mirrors BDMDExamineData, the fields "mdadm --examine
// --export" reports for a single member device.
type ExamineData struct {
	Device     string
	Level      string
	NumDevices int
	Name       string
	Size       uint64
	UUID       string
	UpdateTime uint64
	DevUUID    string
	Events     uint64
	Metadata   string
}

// Create assembles a new array named raidName at level from disks,
// with spares of them held back as hot spares (bd_md_create). version
// selects the on-disk metadata version (e.g. "1.2"); empty uses
// mdadm's default. bitmap requests an internal write-intent bitmap.
func Create(ctx context.Context, raidName, level string, disks []string, spares int, version string, bitmap bool) error {
	if len(disks) == 0 {
		return bderrors.New(bderrors.KindInvalidArgument, "mdraid create requires at least one member device")
	}

	args := []string{"mdadm", "--create", "/dev/md/" + raidName, "--run",
		"--level=" + level, "--raid-devices=" + strconv.Itoa(len(disks)-spares)}
	if spares > 0 {
		args = append(args, "--spare-devices="+strconv.Itoa(spares))
	}
	if version != "" {
		args = append(args, "--metadata="+version)
	}
	if bitmap {
		args = append(args, "--bitmap=internal")
	}
	args = append(args, disks...)

	return executil.ExecAndReportError(ctx, args)
}

// Destroy stops an assembled array and wipes its superblock on
// device, mirroring bd_md_destroy's stop-then-zero-superblock
// sequence.
func Destroy(ctx context.Context, device string) error {
	if err := executil.ExecAndReportError(ctx, []string{"mdadm", "--stop", device}); err != nil {
		return err
	}
	return executil.ExecAndReportError(ctx, []string{"mdadm", "--zero-superblock", device})
}

// Activate assembles (starts) an already-created array from its
// member devices (bd_md_activate).
func Activate(ctx context.Context, raidName string, members []string, uuid string) error {
	args := []string{"mdadm", "--assemble", "/dev/md/" + raidName}
	if uuid != "" {
		args = append(args, "--uuid="+uuid)
	}
	args = append(args, members...)
	return executil.ExecAndReportError(ctx, args)
}

// Deactivate stops an assembled array without destroying its member
// superblocks (bd_md_deactivate).
func Deactivate(ctx context.Context, raidName string) error {
	return executil.ExecAndReportError(ctx, []string{"mdadm", "--stop", "/dev/md/" + raidName})
}

// Add hot-adds device to an already-running raidName array
// (bd_md_add). If raidDevs is nonzero, the array's active device
// count is grown to match first.
func Add(ctx context.Context, raidName, device string, raidDevs int) error {
	if raidDevs > 0 {
		if err := executil.ExecAndReportError(ctx, []string{"mdadm", "--grow", raidName, "--raid-devices=" + strconv.Itoa(raidDevs)}); err != nil {
			return err
		}
	}
	return executil.ExecAndReportError(ctx, []string{"mdadm", raidName, "--add", device})
}

// Remove detaches device from raidName, optionally marking it failed
// first so a currently-active member can be removed (bd_md_remove).
func Remove(ctx context.Context, raidName, device string, fail bool) error {
	if fail {
		if err := executil.ExecAndReportError(ctx, []string{"mdadm", raidName, "--fail", device}); err != nil {
			return err
		}
	}
	return executil.ExecAndReportError(ctx, []string{"mdadm", raidName, "--remove", device})
}

// Examine parses "mdadm --examine --export" for device into an
// ExamineData record.
func Examine(ctx context.Context, device string) (ExamineData, error) {
	out, err := executil.ExecAndCaptureOutput(ctx, []string{"mdadm", "--examine", "--export", device})
	if err != nil {
		return ExamineData{}, err
	}

	fields := parseExportFields(out)
	data := ExamineData{
		Device:   device,
		Level:    fields["MD_LEVEL"],
		Name:     fields["MD_NAME"],
		UUID:     fields["MD_UUID"],
		DevUUID:  fields["MD_DEV_UUID"],
		Metadata: fields["MD_METADATA"],
	}
	data.NumDevices, _ = strconv.Atoi(fields["MD_DEVICES"])
	data.Size, _ = strconv.ParseUint(fields["MD_ARRAY_SIZE"], 10, 64)
	data.Events, _ = strconv.ParseUint(fields["MD_EVENTS"], 10, 64)
	data.UpdateTime, _ = strconv.ParseUint(fields["MD_UPDATE_TIME"], 10, 64)

	if data.Level == "" {
		return ExamineData{}, bderrors.New(bderrors.KindParse, "no MD_LEVEL field in mdadm --examine --export output for %s", device)
	}

	return data, nil
}

// parseExportFields splits KEY=VALUE lines as emitted by mdadm's
// --export mode, trimming surrounding quotes from the value.
func parseExportFields(out string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = strings.Trim(val, `"`)
	}
	return fields
}
