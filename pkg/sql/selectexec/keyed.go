// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package selectexec

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/marusama/semaphore"
	"github.com/ringdb/ringdb/pkg/dht"
	"github.com/ringdb/ringdb/pkg/kv"
	"github.com/ringdb/ringdb/pkg/sql/indexresolver"
	"github.com/ringdb/ringdb/pkg/sql/pagination"
	"github.com/ringdb/ringdb/pkg/sql/restrictions"
	"github.com/ringdb/ringdb/pkg/util/ctxgroup"
	"github.com/ringdb/ringdb/pkg/util/log"
)

var staleLogEvery = log.Every(10 * time.Second)

// keyedScan is the progress of an index-backed round trip.
type keyedScan struct {
	plan     *IndexedPlan
	resolver *indexresolver.Resolver
	filter   *restrictions.BoundFilter

	// start is the index position the current batch was read after, nil
	// for the first batch of the index.
	start *kv.Position
	// limit is the size of the current batch.
	limit uint64
	// skip, when set, is the base position up to which the rows of the
	// current batch were handed out by a previous round trip.
	skip *kv.Position
}

// runKeyed answers the statement through a global index: batches of
// postings are read from the index and the base rows they point at are
// fetched by key. A round trip that fills up in the middle of a batch
// hands out a Both state; the next round trip reads the same batch again
// and skips what was already returned.
func (x *execution) runKeyed(ctx context.Context, p *IndexedPlan) error {
	idx := p.Binding.Index
	s := keyedScan{plan: p}
	var err error
	switch x.state.Kind {
	case pagination.None:
	case pagination.IndexPhase, pagination.Both:
		if s.start, err = positionFromCursor(idx.Backing, x.state.Index, x.partitioner); err != nil {
			return err
		}
		if x.state.Kind == pagination.Both {
			if s.skip, err = positionFromCursor(x.ps.table, x.state.Base, x.partitioner); err != nil {
				return err
			}
			s.limit = x.state.BatchLimit
			x.lastPartition, x.havePartition = s.skip.Partition, true
			x.partitionRows = s.skip.RowsInPartition
		}
	default:
		return errors.Mark(errors.Newf("%s paging state for a scan of index %s", x.state.Kind, idx.Name),
			pagination.ErrInvalidPagingState)
	}

	ranges, err := x.builder.IndexRanges(idx, x.opts.Values)
	if err != nil {
		return err
	}
	slice, err := x.builder.IndexSlice(idx, x.opts.Values)
	if err != nil {
		return err
	}
	if s.filter, err = p.Filter.Bind(x.opts.Values); err != nil {
		return err
	}
	s.resolver = indexresolver.New(indexresolver.Spec{
		Base:    x.ps.table,
		Index:   idx,
		Ranges:  ranges,
		Slice:   slice,
		Timeout: x.timeout,
	}, x.proxy, x.partitioner)

	maxBatch := uint64(x.cfg.IndexBatchSize)
	for batchIdx := 0; ; batchIdx++ {
		if batchIdx > 0 || s.limit == 0 {
			s.limit = indexresolver.BatchSize(batchIdx, x.stillNeeded(), maxBatch)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := s.resolver.Fetch(ctx, s.start, s.limit)
		if err != nil {
			return err
		}
		x.account(b.Rows, b.BytesRead, true /* indexAssisted */)
		var done bool
		switch b.Kind {
		case indexresolver.PostingRows:
			done, err = x.consumeRows(ctx, &s, b)
		case indexresolver.PostingPartitions:
			done, err = x.consumePartitions(ctx, &s, b)
		default:
			err = errors.AssertionFailedf("unknown posting kind %d", b.Kind)
		}
		if err != nil || done || b.Next == nil {
			return err
		}
		s.start, s.skip = b.Next, nil
	}
}

// consumeRows hands out the base rows of a batch of row postings in
// posting order. It returns whether the round trip is complete.
func (x *execution) consumeRows(
	ctx context.Context, s *keyedScan, b *indexresolver.Batch,
) (bool, error) {
	table := x.ps.table
	keys := b.Keys
	if s.skip != nil {
		skip := indexresolver.PrimaryKey{Partition: s.skip.Partition, Clustering: s.skip.Clustering}
		i := sort.Search(len(keys), func(i int) bool {
			return keys[i].Compare(table, &skip) > 0
		})
		keys = keys[i:]
	}
	slots, err := x.fetchRows(ctx, keys)
	if err != nil {
		return false, err
	}
	var stale int64
	defer func() { x.recordStale(ctx, s.plan, stale) }()
	for i, row := range slots {
		if row == nil {
			stale++
			continue
		}
		if !s.filter.Matches(row.Values) || !x.admit(row.Partition) {
			continue
		}
		x.rows = append(x.rows, *row)
		if !x.full() {
			continue
		}
		last := &kv.Position{Partition: row.Partition, Clustering: row.Clustering, RowsInPartition: x.partitionRows}
		switch {
		case i < len(slots)-1:
			return true, x.emitBoth(s.plan, s.start, last, s.limit)
		case b.Next == nil:
		case x.ppl > 0:
			// The count of the last partition carries over to the next batch.
			return true, x.emitBoth(s.plan, b.Next, last, s.limit)
		default:
			c, err := cursorFromPosition(s.plan.Binding.Backing, b.Next)
			if err != nil {
				return true, err
			}
			x.emit(pagination.IndexPhase, c, nil, 0)
		}
		return true, nil
	}
	return false, nil
}

// consumePartitions hands out the base partitions of a batch of partition
// postings with a single read over their ranges.
func (x *execution) consumePartitions(
	ctx context.Context, s *keyedScan, b *indexresolver.Batch,
) (bool, error) {
	if len(b.Keys) == 0 {
		return false, nil
	}
	ranges := make(dht.PartitionRanges, len(b.Keys))
	for i := range b.Keys {
		ranges[i] = dht.SingleKeyRange(b.Keys[i].Partition)
	}
	ranges, _ = dht.MergeRanges(ranges)
	cmd := &kv.ReadCommand{
		Table: x.ps.table,
		Slice: kv.PartitionSlice{Filter: asKVFilter(s.filter)},
		Limit: x.stillNeeded(),
		After: s.skip,
	}
	res, err := x.read(ctx, cmd, ranges, true /* indexAssisted */)
	if err != nil {
		return false, err
	}
	x.rows = append(x.rows, res.Rows...)
	if !x.full() {
		return false, nil
	}
	switch {
	case res.MoreData:
		return true, x.emitBoth(s.plan, s.start, res.Last, s.limit)
	case b.Next != nil:
		c, err := cursorFromPosition(s.plan.Binding.Backing, b.Next)
		if err != nil {
			return true, err
		}
		x.emit(pagination.IndexPhase, c, nil, 0)
	}
	return true, nil
}

func (x *execution) emitBoth(p *IndexedPlan, index, base *kv.Position, batchLimit uint64) error {
	ic, err := cursorFromPosition(p.Binding.Backing, index)
	if err != nil {
		return err
	}
	bc, err := cursorFromPosition(x.ps.table, base)
	if err != nil {
		return err
	}
	x.emit(pagination.Both, ic, bc, batchLimit)
	return nil
}

// fetchRows reads the base rows of the keys, at most
// KeyedFetchConcurrency at a time. Rows land in the slot of their key; a
// nil slot is a key without a base row.
func (x *execution) fetchRows(
	ctx context.Context, keys []indexresolver.PrimaryKey,
) ([]*kv.Row, error) {
	slots := make([]*kv.Row, len(keys))
	if len(keys) == 0 {
		return slots, nil
	}
	sem := semaphore.New(x.cfg.KeyedFetchConcurrency)
	g := ctxgroup.WithContext(ctx)
	for i := range keys {
		// A failed fetch keeps its slot, so Acquire only returns once the
		// group is canceled and no further fetch starts.
		if err := sem.Acquire(g.Context(), 1); err != nil {
			if werr := g.Wait(); werr != nil {
				return nil, werr
			}
			return nil, err
		}
		i := i
		g.GoCtx(func(ctx context.Context) error {
			row, err := x.readRow(ctx, &keys[i])
			if err != nil {
				return err
			}
			slots[i] = row
			sem.Release(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slots, nil
}

func (x *execution) readRow(ctx context.Context, k *indexresolver.PrimaryKey) (*kv.Row, error) {
	cmd := &kv.ReadCommand{
		Table: x.ps.table,
		Slice: kv.PartitionSlice{Ranges: []kv.ClusteringRange{{Prefix: k.Clustering}}},
		Limit: 1,
	}
	res, err := x.read(ctx, cmd, dht.PartitionRanges{dht.SingleKeyRange(k.Partition)}, true /* indexAssisted */)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return &res.Rows[0], nil
}

// recordStale accounts for postings whose base row is gone. The index
// catches up with the base table eventually, so they are not an error.
func (x *execution) recordStale(ctx context.Context, p *IndexedPlan, n int64) {
	if n == 0 {
		return
	}
	x.stats.RecordStalePostings(n)
	x.mu.Lock()
	x.mu.stats.StalePostings += n
	x.mu.Unlock()
	if staleLogEvery.ShouldLog() {
		log.Infof(ctx, "skipped %d entries of index %s without a base row", n, p.Binding.Index.Name)
	}
}
