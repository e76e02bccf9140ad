// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package nvme is the plugin-runtime registry entry for local and
// Fabrics NVMe device management. Local identify/log-page decoding
// lives in the nvmeinfo package (built on the NVMe base specification's
// Identify Controller/Namespace and Get Log Page structures), and
// Fabrics connect/disconnect lives in the nvmefabrics package; this
// package only wires those implementations into the plugin.Backend
// registry so callers that enumerate plugins by plugin.Name get a
// working NVMe entry.
package nvme

import (
	"context"

	"github.com/dswarbrick/blockdev/nvmefabrics"
	"github.com/dswarbrick/blockdev/nvmeinfo"
	"github.com/dswarbrick/blockdev/plugin"
)

func init() {
	plugin.Register(plugin.NVME, func() plugin.Backend { return &Backend{} })
}

// Backend is the nvme plugin's compiled-in registry entry.
type Backend struct{}

// Init satisfies plugin.Backend.
func (b *Backend) Init() error { return nil }

// Close satisfies plugin.Backend.
func (b *Backend) Close() error { return nil }

// IsTechAvail satisfies plugin.Backend.
func (b *Backend) IsTechAvail(tech string, mode plugin.Mode) error { return nil }

// IdentifyController returns the Identify Controller data for device,
// delegating to nvmeinfo.IdentifyController.
func IdentifyController(ctx context.Context, device string) (*nvmeinfo.ControllerInfo, error) {
	return nvmeinfo.IdentifyController(ctx, device)
}

// SMARTHealthLog returns the SMART / Health Information log page for
// device, delegating to nvmeinfo.SMARTHealthLog.
func SMARTHealthLog(ctx context.Context, device string) (*nvmeinfo.SMARTHealth, error) {
	return nvmeinfo.SMARTHealthLog(ctx, device)
}

// Connect establishes a Fabrics connection, delegating to
// nvmefabrics.Connect.
func Connect(ctx context.Context, opts nvmefabrics.ConnectOptions) error {
	return nvmefabrics.Connect(ctx, opts)
}

// Disconnect tears down every Fabrics controller for subsysNQN,
// delegating to nvmefabrics.Disconnect.
func Disconnect(subsysNQN string) error {
	return nvmefabrics.Disconnect(subsysNQN)
}
