// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package devutils implements small device-node helpers used by the dm
// and mpath plugins: resolving symlinks, reading device numbers, and
// mapping a device-mapper device node back to its mapped name.
package devutils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dswarbrick/blockdev/bderrors"
)

// ResolveDevice returns the canonical "/dev/..." path for devSpec (an
// absolute device path, a symlink under /dev, or a bare device name),
// mirroring bd_utils_resolve_device: devSpec is prefixed with "/dev/" if
// it isn't already an absolute path, then any one level of symlink is
// followed. A devSpec that isn't a symlink is returned unchanged.
func ResolveDevice(devSpec string) (string, error) {
	path := devSpec
	if !strings.HasPrefix(path, "/dev/") {
		path = "/dev/" + path
	}

	target, err := os.Readlink(path)
	if err != nil {
		if errors.Is(err, syscall.EINVAL) {
			return path, nil
		}
		return "", bderrors.Wrap(bderrors.KindInvalidArgument, err, "failed to resolve device %s", devSpec)
	}

	if strings.HasPrefix(target, "../") {
		return "/dev/" + target[3:], nil
	}
	return "/dev/" + target, nil
}

// DeviceSymlinks returns every symlink under /dev/disk/* that resolves to
// the same device node as devSpec, mirroring
// bd_utils_get_device_symlinks's sweep of the udev-maintained by-id/
// by-path/by-uuid trees.
func DeviceSymlinks(devSpec string) ([]string, error) {
	canonical, err := ResolveDevice(devSpec)
	if err != nil {
		return nil, err
	}

	var out []string
	matches, err := filepath.Glob("/dev/disk/*/*")
	if err != nil {
		return nil, bderrors.Wrap(bderrors.KindInvalidArgument, err, "failed to list /dev/disk symlinks")
	}

	for _, m := range matches {
		target, err := filepath.EvalSymlinks(m)
		if err != nil {
			continue
		}
		if target == canonical {
			out = append(out, m)
		}
	}

	return out, nil
}

// DeviceNumber returns the major:minor device number of devSpec, read
// from the corresponding /sys/class/block/<name>/dev file — the sysfs
// counterpart to the source's stat()-based bd_utils_get_device_number.
func DeviceNumber(devSpec string) (major, minor int, err error) {
	canonical, rerr := ResolveDevice(devSpec)
	if rerr != nil {
		return 0, 0, rerr
	}

	name := filepath.Base(canonical)
	data, rerr := os.ReadFile(filepath.Join("/sys/class/block", name, "dev"))
	if rerr != nil {
		return 0, 0, bderrors.Wrap(bderrors.KindInvalidArgument, rerr, "failed to read device number for %s", devSpec)
	}

	parts := strings.SplitN(strings.TrimSpace(string(data)), ":", 2)
	if len(parts) != 2 {
		return 0, 0, bderrors.New(bderrors.KindParse, "unexpected device number format %q for %s", string(data), devSpec)
	}

	major, err = atoiStrict(parts[0])
	if err != nil {
		return 0, 0, bderrors.Wrap(bderrors.KindParse, err, "invalid major number for %s", devSpec)
	}
	minor, err = atoiStrict(parts[1])
	if err != nil {
		return 0, 0, bderrors.Wrap(bderrors.KindParse, err, "invalid minor number for %s", devSpec)
	}
	return major, minor, nil
}

func atoiStrict(s string) (int, error) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, bderrors.New(bderrors.KindParse, "not a digit: %q", s)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// ResolveDMName maps a device-mapper node (a kernel dm-N name or node, or
// a /dev/mapper symlink to one) to its user-facing mapped name, read from
// /sys/block/<dm-N>/dm/name; used by plugins/dm to turn a dm-N node back
// into its mapper name.
func ResolveDMName(dmNode string) (string, error) {
	entries, err := os.ReadDir("/sys/block")
	if err != nil {
		return "", bderrors.Wrap(bderrors.KindInvalidArgument, err, "failed to list /sys/block")
	}

	canonical, err := ResolveDevice(dmNode)
	if err != nil {
		return "", err
	}
	target := filepath.Base(canonical)

	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "dm-") {
			continue
		}
		if e.Name() == target {
			data, err := os.ReadFile(filepath.Join("/sys/block", e.Name(), "dm", "name"))
			if err != nil {
				continue
			}
			return strings.TrimSpace(string(data)), nil
		}
	}

	return "", bderrors.New(bderrors.KindInvalidArgument, "no dm device found for %s", dmNode)
}
