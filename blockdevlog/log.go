// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package blockdevlog implements the process-wide log and progress
// observer bus. There is deliberately no logging framework backing this
// package: the contract is a single caller-registered callback,
// installed and cleared by the caller.
package blockdevlog

import "sync"

// Category tags the kind of log record the execution engine emits.
type Category int

const (
	// CategoryTaskStart is emitted once per task, before the child is spawned.
	CategoryTaskStart Category = iota
	// CategoryStdout carries the child's whole captured stdout, emitted once
	// per task after the child exits.
	CategoryStdout
	// CategoryStderr carries the child's whole captured stderr, emitted once
	// per task after the child exits.
	CategoryStderr
	// CategoryTaskEnd is emitted once per task, after the child exits.
	CategoryTaskEnd
)

// Func is the process-wide log sink signature.
type Func func(category Category, taskID uint64, message string)

// ProgressFunc is the process-wide progress sink signature. completion is a
// percentage in [0, 100]; msg is an optional human-readable annotation.
type ProgressFunc func(taskID uint64, completion int, msg string)

var (
	mu     sync.RWMutex
	logFn  Func
	progFn ProgressFunc
	muted  threadMute
)

// threadMute tracks per-goroutine progress muting. Go has no native
// thread-local storage; we key on a caller-supplied token (typically
// goroutine-scoped via context) instead of a magic runtime thread id.
type threadMute struct {
	mu    sync.Mutex
	mutes map[interface{}]bool
}

func init() {
	muted.mutes = make(map[interface{}]bool)
}

// SetLogFunc installs the process-wide log sink. A nil fn clears it.
func SetLogFunc(fn Func) {
	mu.Lock()
	defer mu.Unlock()
	logFn = fn
}

// SetProgressFunc installs the process-wide progress sink. A nil fn clears it.
func SetProgressFunc(fn ProgressFunc) {
	mu.Lock()
	defer mu.Unlock()
	progFn = fn
}

// Log emits a log record if a sink is installed.
func Log(category Category, taskID uint64, message string) {
	mu.RLock()
	fn := logFn
	mu.RUnlock()
	if fn != nil {
		fn(category, taskID, message)
	}
}

// Progress emits a progress record if a sink is installed and the calling
// token has not been muted via MuteThread.
func Progress(token interface{}, taskID uint64, completion int, msg string) {
	if IsMuted(token) {
		return
	}
	mu.RLock()
	fn := progFn
	mu.RUnlock()
	if fn != nil {
		fn(taskID, completion, msg)
	}
}

// MuteThread suppresses progress emission for the given token (typically a
// goroutine identity proxy such as a context value or a *struct{} unique
// per caller) without affecting logging. Call UnmuteThread to reverse it.
func MuteThread(token interface{}) {
	muted.mu.Lock()
	defer muted.mu.Unlock()
	muted.mutes[token] = true
}

// UnmuteThread reverses a prior MuteThread call for token.
func UnmuteThread(token interface{}) {
	muted.mu.Lock()
	defer muted.mu.Unlock()
	delete(muted.mutes, token)
}

// IsMuted reports whether token is currently muted.
func IsMuted(token interface{}) bool {
	muted.mu.Lock()
	defer muted.mu.Unlock()
	return muted.mutes[token]
}
