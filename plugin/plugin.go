// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package plugin implements the compiled-in plugin registry: each domain
// package under plugins/<name> calls Register from its own init(), and
// Spec selects which of the registered backends the runtime actually
// loads.
package plugin

import "github.com/dswarbrick/blockdev/bderrors"

// Name is the enumerated plugin identifier.
type Name int

const (
	LVM Name = iota
	BTRFS
	SWAP
	LOOP
	CRYPTO
	MPATH
	DM
	MDRAID
	KBD
	S390
	NVDIMM
	NVME
	SMART
	VDO
	PART
)

var names = map[Name]string{
	LVM: "lvm", BTRFS: "btrfs", SWAP: "swap", LOOP: "loop", CRYPTO: "crypto",
	MPATH: "mpath", DM: "dm", MDRAID: "mdraid", KBD: "kbd", S390: "s390",
	NVDIMM: "nvdimm", NVME: "nvme", SMART: "smart", VDO: "vdo", PART: "part",
}

// String implements fmt.Stringer.
func (n Name) String() string {
	if s, ok := names[n]; ok {
		return s
	}
	return "unknown"
}

// Mode is a bitmask of operation kinds a tech tag may support.
type Mode uint32

const (
	ModeCreate Mode = 1 << iota
	ModeRemove
	ModeModify
	ModeQuery
	ModeActivateDeactivate
)

// Spec is one entry of the ordered init list.
type Spec struct {
	Name Name
	// SoName overrides the platform-default backend name for this
	// plugin, if non-empty.
	SoName string
}

// Backend is the interface every domain package implements and
// registers. Init/Close are the per-plugin load/unload entry points.
// IsTechAvail dispatches a (tech tag, mode) capability query to the
// plugin's own dependency graph.
type Backend interface {
	Init() error
	Close() error
	IsTechAvail(tech string, mode Mode) error
}

// Factory constructs a fresh Backend instance for a plugin Name.
type Factory func() Backend

var factories = map[Name]Factory{}

// Register installs the factory for a plugin Name. Called from each
// plugins/<name> package's init().
func Register(name Name, factory Factory) {
	factories[name] = factory
}

// Lookup returns the registered factory for name, or an error if no
// domain package registered one — the Go analogue of a dlopen failure
// to locate the requested soname.
func Lookup(name Name) (Factory, error) {
	f, ok := factories[name]
	if !ok {
		return nil, bderrors.New(bderrors.KindTechUnavail, "no backend registered for plugin %s", name)
	}
	return f, nil
}

// Registered reports whether a backend factory is installed for name,
// without constructing it.
func Registered(name Name) bool {
	_, ok := factories[name]
	return ok
}
