// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package base

import "time"

const (
	// DefaultPageSize is the number of rows returned per round trip when the
	// client does not ask for a page size.
	DefaultPageSize = 100

	// DefaultIndexBatchSize bounds the number of index entries fetched by a
	// single index read.
	DefaultIndexBatchSize = 1000

	// DefaultKeyedFetchConcurrency is the number of concurrent base table
	// point reads issued while resolving index entries.
	DefaultKeyedFetchConcurrency = 16

	// DefaultMaxPartitionKeyCombinations caps the cartesian product of IN
	// restrictions on the partition key.
	DefaultMaxPartitionKeyCombinations = 100

	// DefaultReadTimeout is the deadline of a single round trip.
	DefaultReadTimeout = 5 * time.Second
)
