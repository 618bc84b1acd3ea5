// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package restrictions

import (
	"github.com/ringdb/ringdb/pkg/sql/catalog"
	"github.com/ringdb/ringdb/pkg/sql/types"
)

type filterPred struct {
	col    *catalog.ColumnDescriptor
	ord    int
	op     Op
	values []Term
}

// Filter is a conjunction of predicates evaluated against full table rows.
// It is immutable and must be bound to the statement values before use.
type Filter struct {
	preds []filterPred
}

// NewFilter compiles the restrictions against the table.
func NewFilter(table *catalog.TableDescriptor, rs Restrictions) (*Filter, error) {
	f := &Filter{preds: make([]filterPred, 0, len(rs))}
	for _, r := range rs {
		col, err := table.FindColumnByName(r.Column)
		if err != nil {
			return nil, err
		}
		f.preds = append(f.preds, filterPred{
			col:    col,
			ord:    table.ColumnOrdinal(col.ID),
			op:     r.Op,
			values: r.Values,
		})
	}
	return f, nil
}

// Empty returns whether the filter accepts every row.
func (f *Filter) Empty() bool {
	return f == nil || len(f.preds) == 0
}

type boundPred struct {
	ord    int
	op     Op
	values types.Datums
}

// BoundFilter is a Filter whose placeholders have been resolved. A nil
// BoundFilter accepts every row.
type BoundFilter struct {
	preds []boundPred
}

// Bind resolves the placeholders of the filter. Bound values are
// type-checked against their columns.
func (f *Filter) Bind(values types.Datums) (*BoundFilter, error) {
	if f.Empty() {
		return nil, nil
	}
	bf := &BoundFilter{preds: make([]boundPred, len(f.preds))}
	for i, p := range f.preds {
		vals, err := BindTerms(p.values, values)
		if err != nil {
			return nil, err
		}
		for _, d := range vals {
			if err := checkValue(p.col, d); err != nil {
				return nil, err
			}
		}
		bf.preds[i] = boundPred{ord: p.ord, op: p.op, values: vals}
	}
	return bf, nil
}

// Matches returns whether the row, laid out in table column order,
// satisfies every predicate. A NULL column value never matches.
func (f *BoundFilter) Matches(row types.Datums) bool {
	if f == nil {
		return true
	}
	for _, p := range f.preds {
		if p.ord >= len(row) {
			return false
		}
		v := row[p.ord]
		if types.IsNull(v) || !p.matches(v) {
			return false
		}
	}
	return true
}

func (p boundPred) matches(v types.Datum) bool {
	switch p.op {
	case IN:
		for _, x := range p.values {
			if v.Compare(x) == 0 {
				return true
			}
		}
		return false
	case EQ:
		return v.Compare(p.values[0]) == 0
	case LT:
		return v.Compare(p.values[0]) < 0
	case LE:
		return v.Compare(p.values[0]) <= 0
	case GT:
		return v.Compare(p.values[0]) > 0
	case GE:
		return v.Compare(p.values[0]) >= 0
	default:
		return false
	}
}
