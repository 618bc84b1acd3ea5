// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package selectexec

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/kv"
	"github.com/ringdb/ringdb/pkg/sql/pagination"
	"github.com/ringdb/ringdb/pkg/sql/restrictions"
)

// runDirect answers the statement with a single ranged read of the base
// table, resuming after the base cursor of the paging state.
func (x *execution) runDirect(
	ctx context.Context, filter *restrictions.Filter, indexAssisted bool,
) error {
	if k := x.state.Kind; k != pagination.None && k != pagination.BasePhase {
		return errors.Mark(errors.Newf("%s paging state for a scan of %s", k, x.ps.table.QualifiedName()),
			pagination.ErrInvalidPagingState)
	}
	table := x.ps.table
	ranges, err := x.builder.RangesFor(x.opts.Values)
	if err != nil {
		return err
	}
	slice, err := x.builder.SliceFor(x.opts.Values)
	if err != nil {
		return err
	}
	bf, err := filter.Bind(x.opts.Values)
	if err != nil {
		return err
	}
	after, err := positionFromCursor(table, x.state.Base, x.partitioner)
	if err != nil {
		return err
	}
	cmd := &kv.ReadCommand{
		Table: table,
		Slice: kv.PartitionSlice{
			Ranges:            slice,
			Reversed:          x.ps.reversed,
			PerPartitionLimit: x.ppl,
			Filter:            asKVFilter(bf),
		},
		Limit: x.need,
		After: after,
	}
	if x.ps.postOrder {
		// Every partition contributes at most the limit; the merge picks the
		// rows that are handed out.
		cmd.Limit = 0
		if x.remaining != pagination.NoLimit && (x.ppl == 0 || x.remaining < x.ppl) {
			cmd.Slice.PerPartitionLimit = x.remaining
		}
	}
	res, err := x.read(ctx, cmd, ranges, indexAssisted)
	if err != nil {
		return err
	}
	x.rows = res.Rows
	if res.MoreData && !x.ps.postOrder {
		c, err := cursorFromPosition(table, res.Last)
		if err != nil {
			return err
		}
		x.emit(pagination.BasePhase, nil, c, 0)
	}
	return nil
}
