// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package syncutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssertHeld(t *testing.T) {
	var m Mutex
	require.Panics(t, func() { m.AssertHeld() })
	m.Lock()
	require.NotPanics(t, func() { m.AssertHeld() })
	m.Unlock()

	var rw RWMutex
	require.Panics(t, func() { rw.AssertHeld() })
	require.Panics(t, func() { rw.AssertRHeld() })
	rw.RLock()
	require.NotPanics(t, func() { rw.AssertRHeld() })
	rw.RUnlock()
	rw.Lock()
	require.NotPanics(t, func() { rw.AssertHeld() })
	require.NotPanics(t, func() { rw.AssertRHeld() })
	rw.Unlock()
}
