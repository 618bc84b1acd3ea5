// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package kv defines the contract between the query engine and the storage
// proxy that executes reads against partitions spread over the ring.
package kv

import (
	"context"
	"time"

	"github.com/ringdb/ringdb/pkg/dht"
	"github.com/ringdb/ringdb/pkg/sql/catalog"
	"github.com/ringdb/ringdb/pkg/sql/types"
)

// Filter is a row predicate evaluated by the proxy before a row is counted
// against any limit. Rows are laid out in table column order.
type Filter interface {
	Matches(row types.Datums) bool
}

// PartitionSlice selects the rows to read from each partition.
type PartitionSlice struct {
	// Ranges restricts the clustering keys read. No range selects whole
	// partitions.
	Ranges []ClusteringRange
	// Reversed reads partitions in ring order but rows within a partition
	// in reverse clustering order.
	Reversed bool
	// PerPartitionLimit bounds the rows returned per partition. Zero means
	// no limit.
	PerPartitionLimit uint64
	// Filter, if set, drops rows before they count against the limits.
	Filter Filter
}

// Selects returns whether the slice selects the clustering key.
func (s *PartitionSlice) Selects(ck types.Datums) bool {
	if len(s.Ranges) == 0 {
		return true
	}
	for i := range s.Ranges {
		if s.Ranges[i].Contains(ck) {
			return true
		}
	}
	return false
}

// Position identifies the last row handed out by a read, so that a later
// read can resume strictly after it.
type Position struct {
	Partition dht.DecoratedKey
	// Clustering is the clustering key of the last row. When empty, the
	// whole partition has been consumed.
	Clustering types.Datums
	// RowsInPartition is the number of rows of Partition returned so far,
	// counted against the per-partition limit when the read resumes inside
	// the partition.
	RowsInPartition uint64
}

// ReadCommand describes a read over a set of partition ranges.
type ReadCommand struct {
	Table *catalog.TableDescriptor
	Slice PartitionSlice
	// Limit bounds the number of rows returned. Zero means no limit.
	Limit uint64
	// After, if set, makes the read resume strictly after the position.
	After *Position
	// Timeout is the deadline the proxy should apply on its side. Zero
	// leaves it to the context.
	Timeout time.Duration
}

// Row is a row read from a table.
type Row struct {
	Partition  dht.DecoratedKey
	Clustering types.Datums
	// Values holds every column of the table in column order.
	Values types.Datums
}

// Size returns the approximate size of the row, used for read accounting.
func (r *Row) Size() int64 {
	return int64(len(r.Partition.Key)) + r.Values.Size()
}

// ReadResult is the response to a ReadCommand.
type ReadResult struct {
	Rows []Row
	// MoreData is set when the read stopped because of its limit and at
	// least one more row qualifies.
	MoreData bool
	// Last is the position after the last returned row, nil when no row was
	// returned.
	Last *Position
	// BytesRead is the approximate size of the rows examined.
	BytesRead int64
}

// Proxy executes reads against the cluster. Implementations must honor
// context cancellation.
type Proxy interface {
	Read(ctx context.Context, cmd *ReadCommand, ranges dht.PartitionRanges) (*ReadResult, error)
}
