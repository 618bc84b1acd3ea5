// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memproxy

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"
	"github.com/ringdb/ringdb/pkg/dht"
	"github.com/ringdb/ringdb/pkg/kv"
	"github.com/ringdb/ringdb/pkg/sql/catalog"
)

// Read implements kv.Proxy.
func (s *Store) Read(
	ctx context.Context, cmd *kv.ReadCommand, ranges dht.PartitionRanges,
) (*kv.ReadResult, error) {
	s.reads.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		cur := s.maxInFlight.Load()
		if n <= cur || s.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}
	if s.knobs.BeforeRead != nil {
		if err := s.knobs.BeforeRead(ctx, cmd); err != nil {
			return nil, err
		}
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	td, ok := s.mu.tables[cmd.Table.ID]
	if !ok {
		// Nothing was ever written to the table.
		return &kv.ReadResult{}, nil
	}
	merged, _ := dht.MergeRanges(append(dht.PartitionRanges(nil), ranges...))
	if cmd.After != nil {
		merged = merged.TrimBefore(cmd.After.Partition.Position())
	}
	r := reader{cmd: cmd, table: td.desc, res: &kv.ReadResult{}}
	for _, rg := range merged {
		td.partitions.AscendGreaterOrEqual(&partition{key: dht.DecoratedKey{
			Token: rg.Start.Token, Key: rg.Start.Key,
		}}, func(i btree.Item) bool {
			p := i.(*partition)
			if !rg.Contains(p.key.Position()) {
				return false
			}
			return r.readPartition(p)
		})
		if r.done {
			break
		}
	}
	return r.res, nil
}

// wait applies the configured read latency.
func (s *Store) wait(ctx context.Context) error {
	if s.knobs.ReadLatency <= 0 {
		return contextErr(ctx)
	}
	t := time.NewTimer(s.knobs.ReadLatency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return contextErr(ctx)
	}
}

// contextErr translates a context error into the proxy's error vocabulary:
// an expired deadline is a retryable read timeout.
func contextErr(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(kv.ErrReadTimeout, "waiting for replicas")
	}
	return err
}

type reader struct {
	cmd   *kv.ReadCommand
	table *catalog.TableDescriptor
	res   *kv.ReadResult
	done  bool
}

// readPartition appends the selected rows of p. It returns false once the
// read is complete.
func (r *reader) readPartition(p *partition) bool {
	var count uint64
	var after *rowItem
	if a := r.cmd.After; a != nil && a.Partition.Equal(p.key) {
		if len(a.Clustering) == 0 {
			return true
		}
		count = a.RowsInPartition
		after = &rowItem{table: r.table, ck: a.Clustering}
	}
	slice := &r.cmd.Slice
	visit := func(i btree.Item) bool {
		row := i.(*rowItem)
		if after != nil {
			c := r.table.CompareClustering(row.ck, after.ck)
			if (!slice.Reversed && c <= 0) || (slice.Reversed && c >= 0) {
				return true
			}
		}
		out := kv.Row{Partition: p.key, Clustering: row.ck, Values: row.values}
		r.res.BytesRead += out.Size()
		if !slice.Selects(row.ck) {
			return true
		}
		if slice.Filter != nil && !slice.Filter.Matches(row.values) {
			return true
		}
		if slice.PerPartitionLimit > 0 && count >= slice.PerPartitionLimit {
			return false
		}
		if r.cmd.Limit > 0 && uint64(len(r.res.Rows)) >= r.cmd.Limit {
			r.res.MoreData = true
			r.done = true
			return false
		}
		r.res.Rows = append(r.res.Rows, out)
		count++
		r.res.Last = &kv.Position{Partition: p.key, Clustering: row.ck, RowsInPartition: count}
		return true
	}
	if slice.Reversed {
		if after != nil {
			p.rows.DescendLessOrEqual(after, visit)
		} else {
			p.rows.Descend(visit)
		}
	} else {
		if after != nil {
			p.rows.AscendGreaterOrEqual(after, visit)
		} else {
			p.rows.Ascend(visit)
		}
	}
	return !r.done
}
