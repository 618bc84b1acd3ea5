// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package indexresolver scans the table backing a global secondary index
// and turns its rows into the primary keys of the base rows they point to.
package indexresolver

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/dht"
	"github.com/ringdb/ringdb/pkg/kv"
	"github.com/ringdb/ringdb/pkg/sql/catalog"
	"github.com/ringdb/ringdb/pkg/sql/types"
	"github.com/ringdb/ringdb/pkg/util/log"
)

// PrimaryKey identifies a base row, or a whole base partition when the
// clustering key is empty.
type PrimaryKey struct {
	Partition dht.DecoratedKey
	// PartitionValues are the decoded partition key values.
	PartitionValues types.Datums
	Clustering      types.Datums
}

// Compare orders keys by ring position, then by clustering order.
func (k *PrimaryKey) Compare(table *catalog.TableDescriptor, o *PrimaryKey) int {
	if c := k.Partition.Compare(o.Partition); c != 0 {
		return c
	}
	return table.CompareClustering(k.Clustering, o.Clustering)
}

func (k *PrimaryKey) String() string {
	if len(k.Clustering) == 0 {
		return k.PartitionValues.String()
	}
	return fmt.Sprintf("%s%s", k.PartitionValues, k.Clustering)
}

// PostingKind says what the keys of a posting list identify.
type PostingKind int

const (
	// PostingRows postings identify single base rows.
	PostingRows PostingKind = iota
	// PostingPartitions postings identify whole base partitions. They are
	// produced for base tables without clustering columns.
	PostingPartitions
)

// State is the progress of a resolver.
type State int

const (
	// NotStarted is the state of a new resolver.
	NotStarted State = iota
	// FetchingPostingList is the state while a batch is read.
	FetchingPostingList
	// PostingListReady is the state after a batch was read and more index
	// rows may follow.
	PostingListReady
	// Exhausted is the state once the index was scanned to completion.
	Exhausted
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case FetchingPostingList:
		return "FetchingPostingList"
	case PostingListReady:
		return "PostingListReady"
	case Exhausted:
		return "Exhausted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Batch is a batch of postings in index order.
type Batch struct {
	Kind PostingKind
	Keys []PrimaryKey
	// Next is the index position after the batch, nil when the index has
	// been scanned to completion.
	Next *kv.Position
	// Rows and BytesRead account for the index rows read.
	Rows      int64
	BytesRead int64
}

// Spec describes the index scan of one execution.
type Spec struct {
	Base  *catalog.TableDescriptor
	Index *catalog.IndexDescriptor
	// Ranges and Slice select the postings in the backing table.
	Ranges  dht.PartitionRanges
	Slice   []kv.ClusteringRange
	Timeout time.Duration
}

// Resolver reads posting lists. It is owned by a single execution.
type Resolver struct {
	spec        Spec
	proxy       kv.Proxy
	partitioner dht.Partitioner
	state       State
	validated   bool

	// Ordinals in a backing row of the base partition key and clustering
	// columns.
	partitionOrds  []int
	clusteringOrds []int
}

// New creates a resolver for the index scan.
func New(spec Spec, proxy kv.Proxy, partitioner dht.Partitioner) *Resolver {
	return &Resolver{spec: spec, proxy: proxy, partitioner: partitioner}
}

// State returns the progress of the resolver.
func (r *Resolver) State() State {
	return r.state
}

// Kind returns the kind of postings the resolver produces.
func (r *Resolver) Kind() PostingKind {
	if len(r.spec.Base.ClusteringColumns()) == 0 {
		return PostingPartitions
	}
	return PostingRows
}

func (r *Resolver) init() error {
	if r.validated {
		return nil
	}
	if r.spec.Index.Locality != catalog.GlobalIndex {
		return errors.AssertionFailedf("index %s is not global", r.spec.Index.Name)
	}
	if err := catalog.ValidateIndexBacking(r.spec.Base, r.spec.Index); err != nil {
		return err
	}
	backing := r.spec.Index.Backing
	ordinal := func(name string) (int, error) {
		if name == r.spec.Index.Target {
			// The indexed value is the partition key of the backing table.
			return 0, nil
		}
		c, err := backing.FindColumnByName(name)
		if err != nil {
			return 0, errors.Mark(err, catalog.ErrIndexSchemaMismatch)
		}
		return backing.ColumnOrdinal(c.ID), nil
	}
	for _, c := range r.spec.Base.PartitionKeyColumns() {
		o, err := ordinal(c.Name)
		if err != nil {
			return err
		}
		r.partitionOrds = append(r.partitionOrds, o)
	}
	for _, c := range r.spec.Base.ClusteringColumns() {
		o, err := ordinal(c.Name)
		if err != nil {
			return err
		}
		r.clusteringOrds = append(r.clusteringOrds, o)
	}
	r.validated = true
	return nil
}

// Fetch reads the next batch of at most limit postings, strictly after the
// given index position, or from the start when after is nil.
func (r *Resolver) Fetch(ctx context.Context, after *kv.Position, limit uint64) (*Batch, error) {
	if err := r.init(); err != nil {
		return nil, err
	}
	prev := r.state
	r.state = FetchingPostingList
	cmd := &kv.ReadCommand{
		Table:   r.spec.Index.Backing,
		Slice:   kv.PartitionSlice{Ranges: r.spec.Slice},
		Limit:   limit,
		After:   after,
		Timeout: r.spec.Timeout,
	}
	if log.ExpensiveLogEnabled(ctx, 2) {
		log.VEventf(ctx, 2, "reading %d postings of %s after %v", limit, r.spec.Index.Name, after)
	}
	res, err := r.proxy.Read(ctx, cmd, r.spec.Ranges)
	if err != nil {
		r.state = prev
		return nil, errors.Wrapf(err, "reading index %s", r.spec.Index.Name)
	}
	b := &Batch{
		Kind:      r.Kind(),
		Keys:      make([]PrimaryKey, 0, len(res.Rows)),
		Rows:      int64(len(res.Rows)),
		BytesRead: res.BytesRead,
	}
	for i := range res.Rows {
		k, err := r.primaryKey(&res.Rows[i])
		if err != nil {
			r.state = prev
			return nil, err
		}
		b.Keys = append(b.Keys, k)
	}
	if res.MoreData {
		b.Next = res.Last
		r.state = PostingListReady
	} else {
		r.state = Exhausted
	}
	return b, nil
}

func (r *Resolver) primaryKey(row *kv.Row) (PrimaryKey, error) {
	var k PrimaryKey
	k.PartitionValues = make(types.Datums, len(r.partitionOrds))
	for i, o := range r.partitionOrds {
		k.PartitionValues[i] = row.Values[o]
	}
	if len(r.clusteringOrds) > 0 {
		k.Clustering = make(types.Datums, len(r.clusteringOrds))
		for i, o := range r.clusteringOrds {
			k.Clustering[i] = row.Values[o]
		}
	}
	key, err := r.spec.Base.EncodePartitionKey(k.PartitionValues)
	if err != nil {
		return PrimaryKey{}, errors.Mark(
			errors.Wrapf(err, "posting in index %s", r.spec.Index.Name), catalog.ErrIndexSchemaMismatch)
	}
	k.Partition = dht.Decorate(r.partitioner, key)
	return k, nil
}

// BatchSize returns the number of postings to read in the batch at
// position batchIdx of a round trip that still needs `need` rows. The first
// batch asks for what is needed, the second for ten times as much, and
// later batches for maxBatch.
func BatchSize(batchIdx int, need, maxBatch uint64) uint64 {
	if need == 0 || need >= maxBatch {
		return maxBatch
	}
	switch batchIdx {
	case 0:
		return need
	case 1:
		second := need * 10
		switch {
		case second < maxBatch/10:
			return maxBatch / 10
		case second > maxBatch:
			return maxBatch
		default:
			return second
		}
	default:
		return maxBatch
	}
}
