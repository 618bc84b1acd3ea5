// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package metric

var (
	metaRowsRead = Metadata{
		Name: "sql_select_rows_read",
		Help: "Number of rows read by SELECT queries, including index-assisted reads",
	}
	metaSecondaryIndexRowsRead = Metadata{
		Name: "sql_select_secondary_index_rows_read",
		Help: "Number of rows read by SELECT queries through a secondary index",
	}
	metaBytesRead = Metadata{
		Name: "sql_select_bytes_read",
		Help: "Number of bytes read by SELECT queries",
	}
	metaStalePostings = Metadata{
		Name: "sql_select_stale_index_postings",
		Help: "Number of index entries whose base row no longer exists",
	}
	metaReadCapacityUnits = Metadata{
		Name: "sql_select_read_capacity_units",
		Help: "Read capacity units consumed by SELECT queries",
	}
	metaRowsPerRead = Metadata{
		Name: "sql_select_rows_per_read",
		Help: "Moving average of rows returned per storage read",
	}
)

// ReadMetrics holds the read-path counters of the SELECT executor.
type ReadMetrics struct {
	RowsRead               *Counter
	SecondaryIndexRowsRead *Counter
	BytesRead              *Counter
	StalePostings          *Counter
	ReadCapacityUnits      *CounterFloat64
	RowsPerRead            *MovingAverage
}

// MetricStruct implements the Struct interface.
func (*ReadMetrics) MetricStruct() {}

// NewReadMetrics creates a new set of read metrics.
func NewReadMetrics() *ReadMetrics {
	return &ReadMetrics{
		RowsRead:               NewCounter(metaRowsRead),
		SecondaryIndexRowsRead: NewCounter(metaSecondaryIndexRowsRead),
		BytesRead:              NewCounter(metaBytesRead),
		StalePostings:          NewCounter(metaStalePostings),
		ReadCapacityUnits:      NewCounterFloat64(metaReadCapacityUnits),
		RowsPerRead:            NewMovingAverage(metaRowsPerRead),
	}
}

// RecordRead accounts for one storage read returning the given number of rows
// and bytes. Rows read on behalf of an index lookup are counted both as rows
// read and as secondary index rows read.
func (m *ReadMetrics) RecordRead(rows, bytes int64, indexAssisted bool) {
	m.RowsRead.Inc(rows)
	if indexAssisted {
		m.SecondaryIndexRowsRead.Inc(rows)
	}
	m.BytesRead.Inc(bytes)
	m.RowsPerRead.Add(float64(rows))
}

// RecordStalePostings accounts for index entries that pointed at missing base
// rows.
func (m *ReadMetrics) RecordStalePostings(n int64) {
	m.StalePostings.Inc(n)
}

// RecordCapacity accounts for consumed read capacity units.
func (m *ReadMetrics) RecordCapacity(units float64) {
	m.ReadCapacityUnits.Inc(units)
}
