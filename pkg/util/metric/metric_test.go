// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package metric

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadMetrics(t *testing.T) {
	m := NewReadMetrics()
	m.RecordRead(3, 300, false /* indexAssisted */)
	m.RecordRead(2, 100, true /* indexAssisted */)
	m.RecordStalePostings(1)
	m.RecordCapacity(1.5)
	m.RecordCapacity(0.5)

	require.Equal(t, int64(5), m.RowsRead.Count())
	require.Equal(t, int64(2), m.SecondaryIndexRowsRead.Count())
	require.Equal(t, int64(400), m.BytesRead.Count())
	require.Equal(t, int64(1), m.StalePostings.Count())
	require.Equal(t, 2.0, m.ReadCapacityUnits.Count())
	require.Greater(t, m.RowsPerRead.Value(), 0.0)

	reg := NewRegistry()
	require.NoError(t, reg.AddMetricStruct(m))
	var buf strings.Builder
	require.NoError(t, reg.PrintAsText(&buf))
	out := buf.String()
	require.Contains(t, out, "sql_select_rows_read 5")
	require.Contains(t, out, "sql_select_secondary_index_rows_read 2")
	require.Contains(t, out, "sql_select_stale_index_postings 1")

	// Registering the same collectors twice fails.
	require.Error(t, reg.AddMetricStruct(m))
}

func TestCounterIgnoresNonPositive(t *testing.T) {
	c := NewCounter(Metadata{Name: "c", Help: "c"})
	c.Inc(0)
	c.Inc(-3)
	c.Inc(2)
	require.Equal(t, int64(2), c.Count())
}

func TestReadCapacityCounter(t *testing.T) {
	testCases := []struct {
		bytes  int64
		quorum bool
		units  float64
	}{
		{0, true, 1},
		{0, false, 0.5},
		{1, true, 1},
		{4096, true, 1},
		{4097, true, 2},
		{4097, false, 1},
		{3 * 4096, false, 1.5},
	}
	for _, tc := range testCases {
		c := ReadCapacityCounter{Quorum: tc.quorum}
		c.Add(tc.bytes)
		require.Equal(t, tc.units, c.Units(), "bytes=%d quorum=%t", tc.bytes, tc.quorum)
	}
}
