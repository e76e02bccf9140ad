// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package config holds the small amount of process-wide mutable state the
// library needs: the LVM config/devices passthrough strings. Everything
// else is threaded explicitly through function arguments rather than
// living in global state; callers set Go struct fields directly instead
// of parsing a config file on disk.
package config

import "sync"

// Global holds the process-wide LVM passthrough configuration.
var Global = &GlobalConfig{}

// GlobalConfig carries the two LVM command-line passthrough strings,
// guarded by a single RWMutex since they are read far more often (once per
// exec_util invocation) than they are written (typically once at startup).
type GlobalConfig struct {
	mu         sync.RWMutex
	lvmConfig  string
	lvmDevices string
}

// LVMConfigString returns the current --config argument value for LVM
// command invocations, or "" if unset.
func (c *GlobalConfig) LVMConfigString() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lvmConfig
}

// SetLVMConfigString sets the --config argument value appended to every LVM
// command invocation made through executil.
func (c *GlobalConfig) SetLVMConfigString(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lvmConfig = s
}

// LVMDevicesString returns the current --devices argument value for LVM
// command invocations, or "" if unset.
func (c *GlobalConfig) LVMDevicesString() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lvmDevices
}

// SetLVMDevicesString sets the --devices argument value appended to every
// LVM command invocation made through executil.
func (c *GlobalConfig) SetLVMDevicesString(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lvmDevices = s
}
