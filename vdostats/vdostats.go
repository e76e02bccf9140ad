// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package vdostats implements the VDO/LVM statistics parser: sysfs
// key/value ingestion, dm-target YAML ingestion, and derived-metric
// synthesis (write amplification ratio, block stats, journal stats,
// and other computed stats layered on top of the raw counters).
package vdostats

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dswarbrick/blockdev/bderrors"
	"gopkg.in/yaml.v2"
)

// Stats is a flat {key -> string-of-integer-or-float} map, populated
// either from sysfs or a parsed dm-target YAML message, then enriched
// by Derive.
type Stats map[string]string

const sysfsRoot = "/sys/kvdo"

// FromSysfs ingests every file under /sys/kvdo/<name>/statistics/ as one
// key/value pair (the file name is the key, its trimmed content the
// value), then runs Derive over the result.
func FromSysfs(name string) (Stats, error) {
	dir := filepath.Join(sysfsRoot, name, "statistics")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, bderrors.Wrap(bderrors.KindInvalidArgument, err, "error reading statistics from %s", dir)
	}

	stats := Stats{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, bderrors.Wrap(bderrors.KindInvalidArgument, err, "error reading statistics from %s", filepath.Join(dir, e.Name()))
		}
		stats[e.Name()] = strings.TrimSpace(string(data))
	}

	Derive(stats)
	return stats, nil
}

// FromYAML ingests a dm-target DM_DEVICE_TARGET_MSG YAML response:
// nested keys are flattened by capitalizing the child key's first
// character and prepending the parent key as a camelCase prefix (e.g.
// biosInProgress.read -> biosInProgressRead), then runs Derive over the
// result.
func FromYAML(raw []byte) (Stats, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, bderrors.Wrap(bderrors.KindParse, err, "failed to parse VDO stats YAML")
	}

	stats := Stats{}
	flatten("", doc, stats)
	Derive(stats)
	return stats, nil
}

func flatten(prefix string, v interface{}, out Stats) {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, child := range val {
			flatten(joinKey(prefix, k), child, out)
		}
	case map[interface{}]interface{}:
		for k, child := range val {
			flatten(joinKey(prefix, fmt.Sprintf("%v", k)), child, out)
		}
	default:
		out[prefix] = fmt.Sprintf("%v", val)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + strings.ToUpper(key[:1]) + key[1:]
}

func statInt(stats Stats, key string) (int64, bool) {
	s, ok := stats[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Derive computes the derived keys in place, skipping any derivation
// whose inputs are not all present — never producing a stale or
// partial value.
func Derive(stats Stats) {
	if s, ok := stats["logical_block_size"]; ok {
		stats["fiveTwelveByteEmulation"] = strconv.FormatBool(s == "512")
	}

	addWriteAmplificationRatio(stats)
	addBlockStats(stats)
	addJournalStats(stats)
}

func addWriteAmplificationRatio(stats Stats) {
	metaWrite, ok1 := statInt(stats, "bios_meta_write")
	outWrite, ok2 := statInt(stats, "bios_out_write")
	inWrite, ok3 := statInt(stats, "bios_in_write")
	if !ok1 || !ok2 || !ok3 {
		return
	}

	if inWrite <= 0 {
		stats["writeAmplificationRatio"] = "0.00"
		return
	}
	stats["writeAmplificationRatio"] = fmt.Sprintf("%.2f", float64(metaWrite+outWrite)/float64(inWrite))
}

func addBlockStats(stats Stats) {
	physicalBlocks, ok1 := statInt(stats, "physical_blocks")
	blockSize, ok2 := statInt(stats, "block_size")
	dataUsed, ok3 := statInt(stats, "data_blocks_used")
	overheadUsed, ok4 := statInt(stats, "overhead_blocks_used")
	logicalUsed, ok5 := statInt(stats, "logical_blocks_used")
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return
	}

	stats["oneKBlocks"] = strconv.FormatInt(physicalBlocks*blockSize/1024, 10)
	stats["oneKBlocksUsed"] = strconv.FormatInt((dataUsed+overheadUsed)*blockSize/1024, 10)
	stats["oneKBlocksAvailable"] = strconv.FormatInt((physicalBlocks-dataUsed-overheadUsed)*blockSize/1024, 10)

	if physicalBlocks != 0 {
		// Spec's worked example (S4) shows plain truncation here, not the
		// round-half-up the C source's "+0.5" would produce.
		stats["usedPercent"] = strconv.FormatInt(int64(100.0*float64(dataUsed+overheadUsed)/float64(physicalBlocks)), 10)
	}

	savings := int64(-1)
	if logicalUsed > 0 {
		savings = int64(100.0 * float64(logicalUsed-dataUsed) / float64(logicalUsed))
	}
	stats["savings"] = strconv.FormatInt(savings, 10)
	if savings >= 0 {
		stats["savingPercent"] = strconv.FormatInt(savings, 10)
	}
}

func addJournalStats(stats Stats) {
	entriesCommitted, ok1 := statInt(stats, "journal_entries_committed")
	entriesStarted, ok2 := statInt(stats, "journal_entries_started")
	entriesWritten, ok3 := statInt(stats, "journal_entries_written")
	blocksCommitted, ok4 := statInt(stats, "journal_blocks_committed")
	blocksStarted, ok5 := statInt(stats, "journal_blocks_started")
	blocksWritten, ok6 := statInt(stats, "journal_blocks_written")
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return
	}

	stats["journal_entries_batching"] = strconv.FormatInt(entriesStarted-entriesWritten, 10)
	stats["journal_entries_writing"] = strconv.FormatInt(entriesWritten-entriesCommitted, 10)
	stats["journal_blocks_batching"] = strconv.FormatInt(blocksStarted-blocksWritten, 10)
	stats["journal_blocks_writing"] = strconv.FormatInt(blocksWritten-blocksCommitted, 10)
}
