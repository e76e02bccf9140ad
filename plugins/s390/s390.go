// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package s390 wraps a representative slice of s390 DASD/zFCP device
// management: formatting DASDs, checking their format status via
// /sys/bus/ccw/drivers/dasd-eckd/<dasd>/status, and sanitizing the
// device/WWPN/LUN identifier strings those subsystems take.
package s390

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/executil"
	"github.com/dswarbrick/blockdev/extraarg"
	"github.com/dswarbrick/blockdev/plugin"
)

func init() {
	plugin.Register(plugin.S390, func() plugin.Backend { return &Backend{} })
}

// Backend is the s390 plugin's compiled-in registry entry.
type Backend struct{}

// Init satisfies plugin.Backend.
func (b *Backend) Init() error { return nil }

// Close satisfies plugin.Backend.
func (b *Backend) Close() error { return nil }

// IsTechAvail satisfies plugin.Backend.
func (b *Backend) IsTechAvail(tech string, mode plugin.Mode) error { return nil }

var dasdStatusRoot = "/sys/bus/ccw/drivers/dasd-eckd"

// DASDFormat low-level formats a DASD device (bd_s390_dasd_format).
func DASDFormat(ctx context.Context, dasd string, extra []extraarg.ExtraArg) error {
	dev := "/dev/" + dasd
	args := append([]string{"/sbin/dasdfmt", "-y", "-d", "cdl", "-b", "4096", dev}, extraarg.Args(extra)...)
	return executil.ExecAndReportError(ctx, args)
}

// DASDNeedsFormat reports whether dasd's sysfs status reads
// "unformatted" (bd_s390_dasd_needs_format).
func DASDNeedsFormat(dasd string) (bool, error) {
	path := dasdStatusRoot + "/" + dasd + "/status"
	content, err := os.ReadFile(path)
	if err != nil {
		return false, bderrors.New(bderrors.KindNoMatch, "error checking status of device %s; device may not exist, or status can not be read", dasd)
	}

	status := strings.TrimSpace(string(content))
	return strings.EqualFold(status, "unformatted"), nil
}

// SanitizeDevInput pads a DASD or zFCP device number's final segment
// to 4 hex digits and prepends the "0.0." channel-subsystem/subchannel
// prefix (bd_s390_sanitize_dev_input).
func SanitizeDevInput(dev string) (string, error) {
	if dev == "" {
		return "", bderrors.New(bderrors.KindInvalidArgument, "you have not specified a device number or the number is invalid")
	}

	lc := strings.ToLower(dev)
	tok := lc
	if idx := strings.LastIndex(lc, "."); idx >= 0 {
		tok = lc[idx+1:]
	}

	return fmt.Sprintf("0.0.%s%s", strings.Repeat("0", max0(4-len(tok))), tok), nil
}

// ZFCPSanitizeWWPNInput lowercases and 0x-prefixes a zFCP WWPN
// (bd_s390_zfcp_sanitize_wwpn_input).
func ZFCPSanitizeWWPNInput(wwpn string) (string, error) {
	if wwpn == "" {
		return "", bderrors.New(bderrors.KindInvalidArgument, "you have not specified a WWPN or the WWPN is invalid")
	}

	lc := strings.ToLower(wwpn)
	if strings.HasPrefix(lc, "0x") {
		return lc, nil
	}
	return "0x" + lc, nil
}

// ZFCPSanitizeLUNInput pads a zFCP LUN to the canonical 0x + 16 hex
// digit form (bd_s390_zfcp_sanitize_lun_input).
func ZFCPSanitizeLUNInput(lun string) (string, error) {
	if lun == "" {
		return "", bderrors.New(bderrors.KindInvalidArgument, "you have not specified a LUN or the LUN is invalid")
	}

	lc := strings.ToLower(lun)
	if strings.HasPrefix(lc, "0x") && len(lc) == 18 {
		return lc, nil
	}

	tok := strings.TrimPrefix(lc, "0x")

	var prepend string
	if len(tok) < 4 {
		prepend = strings.Repeat("0", 4-len(tok))
	}
	suffix := strings.Repeat("0", max0(16-len(tok)-len(prepend)))

	return "0x" + prepend + tok + suffix, nil
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
