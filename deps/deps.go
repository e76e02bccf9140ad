// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package deps implements a double-checked-locking dependency cache: an
// atomic bitmask fast path guards a mutex-protected probe-and-OR slow
// path, so concurrent callers asking for the same already-satisfied
// requirement never contend on the lock.
package deps

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/executil"
	"github.com/godbus/dbus/v5"
)

// Spec describes a single checkable dependency: a command-line utility
// reachable on PATH, optionally gated at a minimum version obtained by
// running it with VersionArg and matching VersionRegexp's first capture
// group against MinVersion.
type Spec struct {
	// Util is the executable name, resolved via exec.LookPath.
	Util string
	// MinVersion is the lowest acceptable version, compared with
	// executil.VersionCmp. Empty means any version satisfies the dep.
	MinVersion string
	// VersionArg is the flag passed to Util to print its version (e.g. "--version").
	VersionArg string
	// VersionRegexp extracts the version number from VersionArg's output;
	// its first capture group is fed to executil.VersionCmp.
	VersionRegexp *regexp.Regexp
}

// ModuleSpec names a kernel module that must be loaded or loadable.
type ModuleSpec struct {
	Name string
}

// DBusSpec names a D-Bus service that must own (or be activatable as) a
// well-known bus name, optionally gated at a minimum version read from one
// of its object properties.
type DBusSpec struct {
	BusType      BusType
	BusName      string
	MinVersion   string
	VersionIface string
	VersionProp  string
	VersionPath  string
}

// BusType selects the D-Bus bus to probe.
type BusType int

const (
	// SystemBus targets the system bus.
	SystemBus BusType = iota
	// SessionBus targets the session bus.
	SessionBus
)

// Checker caches the outcome of probing a fixed, ordered set of
// dependencies (at most 32, one bit per dependency) behind an atomic
// bitmask and a slow-path mutex.
type Checker struct {
	avail uint32
	mu    sync.Mutex
}

// Check reports whether every dependency indexed by a set bit in req is
// currently available, probing only the ones not yet cached. specs must be
// addressed by the same bit positions across calls.
func (c *Checker) Check(ctx context.Context, req uint32, specs []Spec) (bool, error) {
	if atomic.LoadUint32(&c.avail)&req == req {
		return true, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	val := atomic.LoadUint32(&c.avail)
	if val&req == req {
		return true, nil
	}

	var failures []string
	for i, s := range specs {
		bit := uint32(1) << uint(i)
		if bit&req == 0 || bit&val != 0 {
			continue
		}
		if err := checkUtilVersion(ctx, s); err != nil {
			failures = append(failures, err.Error())
			continue
		}
		val |= bit
		atomic.StoreUint32(&c.avail, val)
	}

	if val&req == req {
		return true, nil
	}
	if len(failures) == 0 {
		failures = append(failures, "required dependency not available")
	}
	return false, bderrors.New(bderrors.KindDepsFailed, "dependency check failed: %s", strings.Join(failures, "\n"))
}

// CheckModules is the ModuleSpec analogue of Check (check_module_deps),
// probing /proc/modules / modinfo-reachability for each named module.
func (c *Checker) CheckModules(req uint32, mods []ModuleSpec) (bool, error) {
	if atomic.LoadUint32(&c.avail)&req == req {
		return true, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	val := atomic.LoadUint32(&c.avail)
	if val&req == req {
		return true, nil
	}

	var failures []string
	for i, m := range mods {
		bit := uint32(1) << uint(i)
		if bit&req == 0 || bit&val != 0 {
			continue
		}
		if ok, err := haveKernelModule(m.Name); !ok {
			if err != nil {
				failures = append(failures, err.Error())
			} else {
				failures = append(failures, "kernel module '"+m.Name+"' not available")
			}
			continue
		}
		val |= bit
		atomic.StoreUint32(&c.avail, val)
	}

	if val&req == req {
		return true, nil
	}
	if len(failures) == 0 {
		failures = append(failures, "required kernel module not available")
	}
	return false, bderrors.New(bderrors.KindDepsFailed, "module dependency check failed: %s", strings.Join(failures, "\n"))
}

// CheckDBus is the DBusSpec analogue of Check (check_dbus_deps).
func (c *Checker) CheckDBus(req uint32, buses []DBusSpec) (bool, error) {
	if atomic.LoadUint32(&c.avail)&req == req {
		return true, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	val := atomic.LoadUint32(&c.avail)
	if val&req == req {
		return true, nil
	}

	var failures []string
	for i, b := range buses {
		bit := uint32(1) << uint(i)
		if bit&req == 0 || bit&val != 0 {
			continue
		}
		if err := checkDBusService(b); err != nil {
			failures = append(failures, err.Error())
			continue
		}
		val |= bit
		atomic.StoreUint32(&c.avail, val)
	}

	if val&req == req {
		return true, nil
	}
	if len(failures) == 0 {
		failures = append(failures, "required DBus service not available")
	}
	return false, bderrors.New(bderrors.KindDepsFailed, "DBus dependency check failed: %s", strings.Join(failures, "\n"))
}

func checkUtilVersion(ctx context.Context, s Spec) error {
	path, err := exec.LookPath(s.Util)
	if err != nil {
		return bderrors.Wrap(bderrors.KindDepsFailed, err, "utility '%s' not found on PATH", s.Util)
	}

	if s.MinVersion == "" || s.VersionArg == "" || s.VersionRegexp == nil {
		return nil
	}

	out, err := executil.ExecAndCaptureOutput(ctx, []string{path, s.VersionArg})
	if err != nil {
		return bderrors.Wrap(bderrors.KindDepsFailed, err, "failed to determine version of '%s'", s.Util)
	}

	m := s.VersionRegexp.FindStringSubmatch(out)
	if m == nil || len(m) < 2 {
		return bderrors.New(bderrors.KindDepsFailed, "failed to determine version of '%s' from: %s", s.Util, out)
	}

	cmp, err := executil.VersionCmp(m[1], s.MinVersion)
	if err != nil {
		return err
	}
	if cmp < 0 {
		return bderrors.New(bderrors.KindDepsFailed, "too low version of %s: %s < %s", s.Util, m[1], s.MinVersion)
	}

	return nil
}

func haveKernelModule(name string) (bool, error) {
	loaded, err := moduleLoaded(name)
	if err != nil {
		return false, bderrors.Wrap(bderrors.KindDepsFailed, err, "failed to check loaded kernel modules")
	}
	if loaded {
		return true, nil
	}

	_, err = exec.LookPath("modinfo")
	if err != nil {
		return false, nil
	}

	ctx := context.Background()
	if _, err := executil.ExecAndCaptureOutput(ctx, []string{"modinfo", name}); err != nil {
		return false, nil
	}
	return true, nil
}

func checkDBusService(b DBusSpec) error {
	busType := dbus.SystemBus
	if b.BusType == SessionBus {
		busType = dbus.SessionBus
	}

	var conn *dbus.Conn
	var err error
	if busType == dbus.SystemBus {
		conn, err = dbus.ConnectSystemBus()
	} else {
		conn, err = dbus.ConnectSessionBus()
	}
	if err != nil {
		return bderrors.Wrap(bderrors.KindDepsFailed, err, "failed to connect to DBus")
	}
	defer conn.Close()

	var hasOwner bool
	if err := conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, b.BusName).Store(&hasOwner); err != nil {
		return bderrors.Wrap(bderrors.KindDepsFailed, err, "failed to query DBus name owner for '%s'", b.BusName)
	}
	if !hasOwner {
		var names []string
		if err := conn.BusObject().Call("org.freedesktop.DBus.ListActivatableNames", 0).Store(&names); err == nil {
			for _, n := range names {
				if n == b.BusName {
					hasOwner = true
					break
				}
			}
		}
	}
	if !hasOwner {
		return bderrors.New(bderrors.KindDepsFailed, "DBus service '%s' not available", b.BusName)
	}

	if b.MinVersion == "" {
		return nil
	}

	obj := conn.Object(b.BusName, dbus.ObjectPath(b.VersionPath))
	v, err := obj.GetProperty(b.VersionIface + "." + b.VersionProp)
	if err != nil {
		return bderrors.Wrap(bderrors.KindDepsFailed, err, "failed to get %s property of %s", b.VersionProp, b.VersionPath)
	}

	busVersion, ok := v.Value().(string)
	if !ok {
		return bderrors.New(bderrors.KindDepsFailed, "unexpected type for %s property of %s", b.VersionProp, b.VersionPath)
	}

	cmp, err := executil.VersionCmp(busVersion, b.MinVersion)
	if err != nil {
		return err
	}
	if cmp < 0 {
		return bderrors.New(bderrors.KindDepsFailed, "DBus service '%s' not available in version '%s'", b.BusName, b.MinVersion)
	}

	return nil
}
