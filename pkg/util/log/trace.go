// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import "context"

// VEventf either logs a message to the INFO log (if the verbosity level is
// high enough) or drops it.
func VEventf(ctx context.Context, level Level, format string, args ...interface{}) {
	if VDepth(level, 1) {
		addStructured(ctx, Severity_INFO, format, args)
	}
}

// VEvent is like VEventf but takes a constant message.
func VEvent(ctx context.Context, level Level, msg string) {
	if VDepth(level, 1) {
		addStructured(ctx, Severity_INFO, "%s", []interface{}{msg})
	}
}

// ExpensiveLogEnabled is used to test whether effort should be used to
// produce log messages whose construction has a measurable cost. It returns
// true if logging at the given level would emit the message.
func ExpensiveLogEnabled(ctx context.Context, level Level) bool {
	return VDepth(level, 1)
}
