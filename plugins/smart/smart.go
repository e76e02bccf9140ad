// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package smart is the plugin-runtime registry entry for S.M.A.R.T.
// device health querying. The actual ATA/SAT16 identify and attribute
// decoding lives in the smart package (smart/identify.go,
// smart/smartctl.go); this package only wires that implementation into
// the plugin.Backend registry so callers that enumerate plugins by
// plugin.Name get a working SMART entry.
package smart

import (
	"context"

	"github.com/dswarbrick/blockdev/plugin"
	"github.com/dswarbrick/blockdev/smart"
)

func init() {
	plugin.Register(plugin.SMART, func() plugin.Backend { return &Backend{} })
}

// Backend is the smart plugin's compiled-in registry entry.
type Backend struct{}

// Init satisfies plugin.Backend.
func (b *Backend) Init() error { return nil }

// Close satisfies plugin.Backend.
func (b *Backend) Close() error { return nil }

// IsTechAvail satisfies plugin.Backend.
func (b *Backend) IsTechAvail(tech string, mode plugin.Mode) error { return nil }

// Identify returns the ATA IDENTIFY DEVICE data for device, delegating
// to smart.IdentifyDevice.
func Identify(ctx context.Context, device string) (*smart.IdentifyDeviceData, error) {
	return smart.IdentifyDevice(ctx, device)
}

// Collect gathers a full SMART attribute report for device, delegating
// to smart.Collect.
func Collect(ctx context.Context, device string, extra []string) (*smart.ATAReport, error) {
	return smart.Collect(ctx, device, extra)
}
