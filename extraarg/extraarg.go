// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package extraarg implements the caller-supplied extra-argument type:
// an immutable (option, value) pair appended verbatim to a constructed
// argv.
package extraarg

import "fmt"

// ExtraArg is a single immutable passthrough command-line argument. Opt is
// the flag as given to the target program (e.g. "--force" or "-y"); Val is
// its value, or "" for a bare flag.
type ExtraArg struct {
	Opt string
	Val string
}

// New constructs an ExtraArg.
func New(opt, val string) ExtraArg {
	return ExtraArg{Opt: opt, Val: val}
}

// Args flattens a slice of ExtraArg into the argv tail a caller would
// splice onto an existing command: each pair contributes either one token
// (a bare flag) or two (flag followed by its value).
func Args(extra []ExtraArg) []string {
	out := make([]string, 0, len(extra)*2)
	for _, e := range extra {
		out = append(out, e.Opt)
		if e.Val != "" {
			out = append(out, e.Val)
		}
	}
	return out
}

// String renders the pair the way it would appear on a command line, for
// logging purposes.
func (e ExtraArg) String() string {
	if e.Val == "" {
		return e.Opt
	}
	return fmt.Sprintf("%s %s", e.Opt, e.Val)
}
