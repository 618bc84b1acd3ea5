// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"bytes"
	"os"

	"github.com/ringdb/ringdb/pkg/util/syncutil"
)

// tShim is the part of testing.TB used by TestLogScope.
type tShim interface {
	Helper()
	Failed() bool
	Logf(format string, args ...interface{})
}

// TestLogScope captures log output for the duration of a test. When the test
// fails, the captured output is replayed through the test logger.
type TestLogScope struct {
	mu struct {
		syncutil.Mutex
		buf bytes.Buffer
	}
	prevVerbosity Level
}

// Scope redirects log output to an in-memory buffer until Close is called.
// Use as:
//
//	defer log.Scope(t).Close(t)
func Scope(t tShim) *TestLogScope {
	t.Helper()
	sc := &TestLogScope{}
	sc.prevVerbosity = SetVerbosity(Level(verbosity.Load()))
	SetOutput(scopeWriter{sc}, true /* pretty */)
	return sc
}

// Close restores the default sink and verbosity.
func (sc *TestLogScope) Close(t tShim) {
	t.Helper()
	SetOutput(os.Stderr, false /* pretty */)
	SetVerbosity(sc.prevVerbosity)
	if t.Failed() {
		t.Logf("captured log output:\n%s", sc.String())
	}
}

// String returns everything logged in this scope so far.
func (sc *TestLogScope) String() string {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.mu.buf.String()
}

type scopeWriter struct {
	sc *TestLogScope
}

func (w scopeWriter) Write(p []byte) (int, error) {
	w.sc.mu.Lock()
	defer w.sc.mu.Unlock()
	return w.sc.mu.buf.Write(p)
}
