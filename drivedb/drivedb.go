// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package drivedb implements the embedded compile-time drive database: a
// table of (model regex, firmware regex, preset string) records
// consulted by the SMART backend to refine well-known attribute naming
// for known devices. The package embeds drivedb.toml (regenerated from
// an upstream smartmontools drivedb.h by cmd/mkdrivedb) and decodes it
// at init with github.com/BurntSushi/toml.
package drivedb

import (
	_ "embed"
	"regexp"

	"github.com/BurntSushi/toml"
	"github.com/dswarbrick/blockdev/bderrors"
)

//go:embed drivedb.toml
var embeddedTOML []byte

// AttrConv is one `-v id,format[,name[,HDD|SSD]]` preset entry.
type AttrConv struct {
	Conv string `toml:"conv"`
	Name string `toml:"name"`
}

// DriveModel is one drivedb.h record.
type DriveModel struct {
	Family        string              `toml:"family"`
	ModelRegex    string              `toml:"model_regex"`
	FirmwareRegex string              `toml:"firmware_regex"`
	WarningMsg    string              `toml:"warning"`
	Presets       map[string]AttrConv `toml:"presets"`
}

type driveDB struct {
	Drives []DriveModel `toml:"drives"`
}

var db driveDB

func init() {
	if _, err := toml.Decode(string(embeddedTOML), &db); err != nil {
		panic("drivedb: failed to decode embedded drivedb.toml: " + err.Error())
	}
}

func isDefaults(family string) bool {
	return family == "DEFAULT" || family == "DEFAULTS"
}

// isPlaceholder reports whether family is a placeholder entry (spec
// §4.H: "Entries with placeholder families (USB, VERSION) are skipped").
func isPlaceholder(family string) bool {
	matched, _ := regexp.MatchString(`(?i)^(usb|version)\b`, family)
	return matched
}

// Presets returns the merged attribute-id -> AttrConv overrides for a
// device's model/firmware strings: the DEFAULTS record (if any) is
// applied first, then every matching non-placeholder record is layered
// on top, in table order.
func Presets(model, firmware string) (map[string]AttrConv, error) {
	out := map[string]AttrConv{}

	for _, d := range db.Drives {
		if isDefaults(d.Family) {
			for k, v := range d.Presets {
				out[k] = v
			}
		}
	}

	matches, err := Lookup(model, firmware)
	if err != nil {
		return nil, err
	}
	for _, d := range matches {
		for k, v := range d.Presets {
			out[k] = v
		}
	}

	return out, nil
}

// Lookup returns the DriveModel records (in table order, DEFAULT and
// placeholder records excluded) whose ModelRegex matches model and whose
// FirmwareRegex either matches firmware or is empty.
func Lookup(model, firmware string) ([]DriveModel, error) {
	var matches []DriveModel

	for _, d := range db.Drives {
		if isDefaults(d.Family) || isPlaceholder(d.Family) {
			continue
		}

		modelRe, err := regexp.Compile(d.ModelRegex)
		if err != nil {
			return nil, bderrors.Wrap(bderrors.KindParse, err, "invalid model regex for family %q", d.Family)
		}
		if !modelRe.MatchString(model) {
			continue
		}

		if d.FirmwareRegex != "" {
			fwRe, err := regexp.Compile(d.FirmwareRegex)
			if err != nil {
				return nil, bderrors.Wrap(bderrors.KindParse, err, "invalid firmware regex for family %q", d.Family)
			}
			if !fwRe.MatchString(firmware) {
				continue
			}
		}

		matches = append(matches, d)
	}

	return matches, nil
}
