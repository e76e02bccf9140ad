// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// lvmcachestats prints dm-cache statistics for one or more cached
// logical volumes, given as VG/LV arguments, in either plain-text or
// (with -j/--json) JSON form.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dswarbrick/blockdev/plugins/lvm"
)

func printLVStats(ctx context.Context, vgName, lvName string) error {
	info, err := lvm.GetLVInfo(ctx, vgName, lvName)
	if err != nil {
		return err
	}
	stats, err := lvm.CacheStatsFor(ctx, vgName, lvName)
	if err != nil {
		return err
	}

	cacheUsedPct := float64(0)
	if stats.CacheSize != 0 {
		cacheUsedPct = float64(stats.CacheUsed) / float64(stats.CacheSize) * 100
	}
	readHitPct := float64(0)
	if total := stats.ReadHits + stats.ReadMisses; total != 0 {
		readHitPct = float64(stats.ReadHits) / float64(total) * 100
	}
	writeHitPct := float64(0)
	if total := stats.WriteHits + stats.WriteMisses; total != 0 {
		writeHitPct = float64(stats.WriteHits) / float64(total) * 100
	}

	fmt.Printf("%s/%s:\n", vgName, lvName)
	fmt.Printf("  mode:         %s\n", stats.Mode)
	fmt.Printf("  LV size:      %d B\n", info.Size)
	fmt.Printf("  cache size:   %d (512B sectors)\n", stats.CacheSize)
	fmt.Printf("  cache used:   %d [%6.2f%%]\n", stats.CacheUsed, cacheUsedPct)
	fmt.Printf("  read misses:  %10d\n", stats.ReadMisses)
	fmt.Printf("  read hits:    %10d [%6.2f%%]\n", stats.ReadHits, readHitPct)
	fmt.Printf("  write misses: %10d\n", stats.WriteMisses)
	fmt.Printf("  write hits:   %10d [%6.2f%%]\n", stats.WriteHits, writeHitPct)

	return nil
}

type jsonReport struct {
	LV            string  `json:"lv"`
	Mode          string  `json:"mode"`
	LVSize        uint64  `json:"lv-size"`
	CacheSize     uint64  `json:"cache-size"`
	CacheUsed     uint64  `json:"cache-used"`
	CacheUsedPct  float64 `json:"cache-used-pct"`
	ReadMisses    uint64  `json:"read-misses"`
	ReadHits      uint64  `json:"read-hits"`
	ReadHitRatio  float64 `json:"read-hit-ratio"`
	WriteMisses   uint64  `json:"write-misses"`
	WriteHits     uint64  `json:"write-hits"`
	WriteHitRatio float64 `json:"write-hit-ratio"`
}

func printLVStatsJSON(ctx context.Context, vgName, lvName string) error {
	info, err := lvm.GetLVInfo(ctx, vgName, lvName)
	if err != nil {
		return err
	}
	stats, err := lvm.CacheStatsFor(ctx, vgName, lvName)
	if err != nil {
		return err
	}

	report := jsonReport{
		LV:        vgName + "/" + lvName,
		Mode:      string(stats.Mode),
		LVSize:    info.Size,
		CacheSize: stats.CacheSize,
		CacheUsed: stats.CacheUsed,
	}
	if stats.CacheSize != 0 {
		report.CacheUsedPct = float64(stats.CacheUsed) / float64(stats.CacheSize) * 100
	}
	report.ReadMisses = stats.ReadMisses
	report.ReadHits = stats.ReadHits
	if total := stats.ReadHits + stats.ReadMisses; total != 0 {
		report.ReadHitRatio = float64(stats.ReadHits) / float64(total)
	}
	report.WriteMisses = stats.WriteMisses
	report.WriteHits = stats.WriteHits
	if total := stats.WriteHits + stats.WriteMisses; total != 0 {
		report.WriteHitRatio = float64(stats.WriteHits) / float64(total)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-j] VG/LV [VG2/LV2...]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	jsonOutput := flag.Bool("j", false, "Print stats as JSON")
	flag.BoolVar(jsonOutput, "json", false, "Print stats as JSON")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(1)
	}

	if os.Geteuid() != 0 {
		fmt.Fprintln(os.Stderr, "This utility must be run as root.")
		os.Exit(1)
	}

	ctx := context.Background()
	ok := true

	for i, arg := range flag.Args() {
		if i > 0 && !*jsonOutput {
			fmt.Println()
		}

		vgName, lvName, found := strings.Cut(arg, "/")
		if !found {
			fmt.Fprintf(os.Stderr, "Invalid LV specified: %q. Has to be in the VG/LV format.\n", arg)
			ok = false
			continue
		}

		var err error
		if *jsonOutput {
			err = printLVStatsJSON(ctx, vgName, lvName)
		} else {
			err = printLVStats(ctx, vgName, lvName)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to get stats for %s/%s: %v\n", vgName, lvName, err)
			ok = false
		}
	}

	if !ok {
		os.Exit(3)
	}
}
