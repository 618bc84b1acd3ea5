// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import "sync/atomic"

// Level specifies a level of verbosity for V logs.
type Level int32

var verbosity atomic.Int32

// SetVerbosity sets the global verbosity level and returns the previous one.
func SetVerbosity(level Level) Level {
	return Level(verbosity.Swap(int32(level)))
}

// V returns true if the logging verbosity is set to the specified level or
// higher.
func V(level Level) bool {
	return VDepth(level, 1)
}

// VDepth reports whether verbosity at the call site is at least the requested
// level. The depth argument is kept for call sites that wrap V.
func VDepth(l Level, depth int) bool {
	_ = depth
	return Level(verbosity.Load()) >= l
}
