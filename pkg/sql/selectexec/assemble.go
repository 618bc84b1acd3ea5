// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package selectexec

import (
	"context"
	"sort"

	"github.com/ringdb/ringdb/pkg/kv"
	"github.com/ringdb/ringdb/pkg/sql/pagination"
	"github.com/ringdb/ringdb/pkg/sql/types"
	"github.com/ringdb/ringdb/pkg/util/log"
)

// assemble turns the rows gathered by the round trip into the result set:
// rows of several partitions are merged in clustering order, truncated to
// the global limit and projected.
func (x *execution) assemble(ctx context.Context) (*ResultSet, error) {
	ps := x.ps
	rows := x.rows
	if ps.postOrder {
		x.mergeByClustering(rows)
		if x.remaining != pagination.NoLimit && uint64(len(rows)) > x.remaining {
			rows = rows[:x.remaining]
		}
	}

	rs := &ResultSet{
		Columns: ps.columns,
		Rows:    make([]ResultRow, len(rows)),
	}
	if len(ps.desc.GroupBy) > 0 {
		rs.GroupByCells = make([]types.Datums, len(rows))
	}
	for i := range rows {
		vals := make(types.Datums, len(ps.projection))
		for j, ord := range ps.projection {
			vals[j] = rows[i].Values[ord]
		}
		rs.Rows[i] = ResultRow{
			Values:     vals,
			Partition:  rows[i].Partition,
			Clustering: rows[i].Clustering,
		}
		if rs.GroupByCells != nil {
			cells := make(types.Datums, len(ps.desc.GroupBy))
			for j, g := range ps.desc.GroupBy {
				cells[j] = vals[g]
			}
			rs.GroupByCells[i] = cells
		}
	}

	var err error
	if rs.PagingState, err = pagination.Encode(x.next); err != nil {
		return nil, err
	}
	x.mu.Lock()
	rs.Stats = x.mu.stats
	rs.ConsumedCapacity = x.mu.capacity.Units()
	x.mu.Unlock()
	x.stats.RecordCapacity(rs.ConsumedCapacity)

	if log.ExpensiveLogEnabled(ctx, 2) {
		log.VEventf(ctx, 2, "returning %d rows after %d reads, paging state %v", len(rs.Rows), rs.Stats.Reads, x.next)
	}
	return rs, nil
}

// mergeByClustering orders rows of several partitions by the leading
// clustering columns named in ORDER BY. Rows that compare equal keep their
// ring order.
func (x *execution) mergeByClustering(rows []kv.Row) {
	table, n := x.ps.table, x.ps.orderLen
	sort.SliceStable(rows, func(i, j int) bool {
		c := table.CompareClustering(rows[i].Clustering[:n], rows[j].Clustering[:n])
		if x.ps.reversed {
			c = -c
		}
		return c < 0
	})
}
