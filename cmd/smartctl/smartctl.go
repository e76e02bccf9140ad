// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// smartctl is a reference CLI over the smart/nvmeinfo/drivedb packages:
// given a single device, it identifies it, collects its SMART data and
// prints a human-readable report, picking the ATA or NVMe path by
// /dev/nvme* device name prefix.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/dswarbrick/blockdev/drivedb"
	"github.com/dswarbrick/blockdev/nvmeinfo"
	"github.com/dswarbrick/blockdev/smart"
)

const (
	_LINUX_CAPABILITY_VERSION_3 = 0x20080522

	CAP_SYS_RAWIO = 1 << 17
	CAP_SYS_ADMIN = 1 << 21
)

type capHeader struct {
	version uint32
	pid     int
}

type capData struct {
	effective   uint32
	permitted   uint32
	inheritable uint32
}

type capsV3 struct {
	hdr  capHeader
	data [2]capData
}

// checkCaps invokes the capget syscall to check for necessary capabilities. Note that this depends
// on the binary having the capabilities set (i.e., via the `setcap` utility), and on VFS support.
// Alternatively, if the binary is executed as root, it automatically has all capabilities set.
func checkCaps() {
	caps := new(capsV3)
	caps.hdr.version = _LINUX_CAPABILITY_VERSION_3

	// Use RawSyscall since we do not expect it to block
	_, _, e1 := unix.RawSyscall(unix.SYS_CAPGET, uintptr(unsafe.Pointer(&caps.hdr)), uintptr(unsafe.Pointer(&caps.data)), 0)
	if e1 != 0 {
		fmt.Println("capget() failed:", e1.Error())
		return
	}

	if (caps.data[0].effective&CAP_SYS_RAWIO == 0) && (caps.data[0].effective&CAP_SYS_ADMIN == 0) {
		fmt.Println("Neither cap_sys_rawio nor cap_sys_admin are in effect. Device access will probably fail.")
	}
}

func printATAReport(ctx context.Context, device string) error {
	identity, err := smart.IdentifyDevice(ctx, device)
	if err != nil {
		return err
	}

	model, firmware := identity.Model(), identity.Firmware()
	fmt.Printf("Model:    %s\n", model)
	fmt.Printf("Serial:   %s\n", identity.Serial())
	fmt.Printf("Firmware: %s\n", firmware)

	if matches, err := drivedb.Lookup(model, firmware); err != nil {
		fmt.Println("drivedb lookup failed:", err)
	} else {
		for _, m := range matches {
			fmt.Printf("Matched drivedb family: %s\n", m.Family)
			if m.WarningMsg != "" {
				fmt.Printf("  Warning: %s\n", m.WarningMsg)
			}
		}
	}

	report, err := smart.Collect(ctx, device, nil)
	if err != nil {
		return err
	}

	fmt.Printf("\nSMART overall-health: %s\n", passFailString(report.OverallPassed))
	fmt.Printf("Temperature: %.1f K\n", report.TemperatureKelvin)
	fmt.Printf("Power on time: %d minutes, %d power cycles\n", report.PowerOnMinutes, report.PowerCycleCount)
	fmt.Println()
	fmt.Printf("%-4s %-24s %-5s %-5s %-5s %-10s %s\n", "ID", "ATTRIBUTE_NAME", "VALUE", "WORST", "THRESH", "RAW_VALUE", "FLAGS")
	for _, a := range report.Attributes {
		name := a.WellKnownName
		if name == "" {
			name = a.RawLabel
		}
		fmt.Printf("%-4d %-24s %-5d %-5d %-5d %-10d %s\n", a.ID, name, a.Value, a.Worst, a.Threshold, a.RawValue, attrFlagsString(a))
	}

	return nil
}

func attrFlagsString(a smart.Attribute) string {
	var flags []string
	if a.Flags&smart.FlagPrefailure != 0 {
		flags = append(flags, "prefail")
	}
	if a.Flags&smart.FlagOnline != 0 {
		flags = append(flags, "online")
	}
	if a.Flags&smart.FlagPerformance != 0 {
		flags = append(flags, "perf")
	}
	if a.Flags&smart.FlagErrorRate != 0 {
		flags = append(flags, "error-rate")
	}
	if a.Flags&smart.FlagEventCount != 0 {
		flags = append(flags, "event-count")
	}
	if a.Flags&smart.FlagSelfPreserving != 0 {
		flags = append(flags, "self-preserving")
	}
	if a.NowFail {
		flags = append(flags, "NOW_FAILING")
	} else if a.PastFail {
		flags = append(flags, "past-fail")
	}
	return strings.Join(flags, " ")
}

func passFailString(passed bool) string {
	if passed {
		return "PASSED"
	}
	return "FAILED"
}

func printNVMeReport(ctx context.Context, device string) error {
	ctrl, err := nvmeinfo.IdentifyController(ctx, device)
	if err != nil {
		return err
	}

	fmt.Printf("Model:    %s\n", ctrl.Model)
	fmt.Printf("Serial:   %s\n", ctrl.Serial)
	fmt.Printf("Firmware: %s\n", ctrl.Firmware)
	fmt.Printf("NVMe version: %s\n", ctrl.NVMeVersion)
	fmt.Printf("Total capacity: %d bytes (%d unallocated)\n", ctrl.TotalCapacity, ctrl.UnallocCapacity)

	health, err := nvmeinfo.SMARTHealthLog(ctx, device)
	if err != nil {
		return err
	}

	fmt.Printf("\nCritical warning: %#02x\n", health.CriticalWarning)
	fmt.Printf("Temperature: %.1f K\n", health.TemperatureKelvin)
	fmt.Printf("Available spare: %d%% (threshold %d%%)\n", health.AvailSparePct, health.SpareThreshPct)
	fmt.Printf("Percentage used: %d%%\n", health.PercentUsed)
	fmt.Printf("Data units read: %s, written: %s\n", health.DataUnitsRead.String(), health.DataUnitsWritten.String())
	fmt.Printf("Power cycles: %s, power-on hours: %s\n", health.PowerCycles.String(), health.PowerOnHours.String())
	fmt.Printf("Unsafe shutdowns: %s, media errors: %s\n", health.UnsafeShutdowns.String(), health.MediaErrors.String())

	return nil
}

func main() {
	fmt.Println("Go smartctl Reference Implementation")
	fmt.Printf("Built with %s on %s (%s)\n\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	device := flag.String("device", "", "SATA / NVMe device from which to read SMART attributes, e.g., /dev/sda, /dev/nvme0")
	flag.Parse()

	checkCaps()

	if *device == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()

	var err error
	if strings.HasPrefix(*device, "/dev/nvme") {
		err = printNVMeReport(ctx, *device)
	} else {
		err = printATAReport(ctx, *device)
	}

	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
