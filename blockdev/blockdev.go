// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package blockdev is the library's public entry point: plugin
// init/reinit/try_init/close lifecycle over a global mutex, s390
// exclusion on non-s390 hosts, and the cross-plugin is_tech_avail
// capability query.
package blockdev

import (
	"runtime"
	"sync"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/blockdevlog"
	"github.com/dswarbrick/blockdev/plugin"
)

var (
	initLock    sync.Mutex
	initialized bool
	loaded      = map[plugin.Name]plugin.Backend{}
)

// Init loads every plugin named in specs (in order), skipping S390 on a
// non-s390 host. A log function may be supplied; passing nil leaves any
// previously-installed sink untouched. Calling Init twice without an
// intervening Close/Reinit returns a KindInvalidArgument error.
func Init(specs []plugin.Spec, logFn blockdevlog.Func) error {
	initLock.Lock()
	defer initLock.Unlock()

	if initialized {
		return bderrors.New(bderrors.KindInvalidArgument, "blockdev already initialized")
	}

	if logFn != nil {
		blockdevlog.SetLogFunc(logFn)
	}

	if err := loadPlugins(specs); err != nil {
		return err
	}

	initialized = true
	return nil
}

// TryInit is the atomic "init if not yet inited" form: if the library is
// already initialized, it returns success without touching state.
func TryInit(specs []plugin.Spec, logFn blockdevlog.Func) error {
	initLock.Lock()
	defer initLock.Unlock()

	if initialized {
		return nil
	}

	if logFn != nil {
		blockdevlog.SetLogFunc(logFn)
	}

	if err := loadPlugins(specs); err != nil {
		return err
	}

	initialized = true
	return nil
}

// Reinit force-closes any loaded plugins (if reload) and reinitializes
// with specs.
func Reinit(specs []plugin.Spec, reload bool, logFn blockdevlog.Func) error {
	initLock.Lock()
	wasInit := initialized
	initLock.Unlock()

	if wasInit && reload {
		if err := Close(); err != nil {
			return err
		}
	} else {
		initLock.Lock()
		initialized = false
		initLock.Unlock()
	}

	return Init(specs, logFn)
}

// loadPlugins populates `loaded` from specs, applying the s390 exclusion.
// Caller must hold initLock.
func loadPlugins(specs []plugin.Spec) error {
	for _, spec := range specs {
		if spec.Name == plugin.S390 && runtime.GOARCH != "s390x" {
			continue
		}

		factory, err := plugin.Lookup(spec.Name)
		if err != nil {
			return err
		}

		backend := factory()
		if err := backend.Init(); err != nil {
			return bderrors.Wrap(bderrors.KindDepsFailed, err, "failed to initialize plugin %s", spec.Name)
		}

		loaded[spec.Name] = backend
	}

	return nil
}

// Close unloads every loaded plugin, logging (not failing on) individual
// unload errors, then clears the init flag. Plugins are unloaded in map
// iteration order, which is not the order they were loaded in.
func Close() error {
	initLock.Lock()
	defer initLock.Unlock()

	order := make([]plugin.Name, 0, len(loaded))
	for name := range loaded {
		order = append(order, name)
	}
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		if err := loaded[name].Close(); err != nil {
			blockdevlog.Log(blockdevlog.CategoryTaskEnd, 0, "failed to close plugin "+name.String()+": "+err.Error())
		}
		delete(loaded, name)
	}

	initialized = false
	return nil
}

// IsPluginAvailable reports whether name was successfully loaded.
func IsPluginAvailable(name plugin.Name) bool {
	initLock.Lock()
	defer initLock.Unlock()
	_, ok := loaded[name]
	return ok
}

// IsTechAvail dispatches a (plugin, tech tag, mode) capability query to
// the loaded plugin's own dependency graph.
func IsTechAvail(name plugin.Name, tech string, mode plugin.Mode) error {
	initLock.Lock()
	backend, ok := loaded[name]
	initLock.Unlock()

	if !ok {
		return bderrors.New(bderrors.KindTechUnavail, "plugin %s is not loaded", name)
	}
	return backend.IsTechAvail(tech, mode)
}
