// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package restrictions

import (
	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/sql/catalog"
	"github.com/ringdb/ringdb/pkg/sql/types"
)

var (
	// ErrUnsupportedRestriction is returned for predicates the engine cannot
	// evaluate efficiently, or at all.
	ErrUnsupportedRestriction = errors.New("unsupported restriction")
	// ErrInvalidValue is returned when a constant or bound value does not
	// fit the restricted column.
	ErrInvalidValue = errors.New("invalid value")
)

// Bound is one end of a clustering range.
type Bound struct {
	Value     Term
	Inclusive bool
}

// ClusteringSlice is the part of the restrictions that selects a
// contiguous slice of rows within a partition: an equality prefix on the
// leading clustering columns, followed by either an IN list or a range on
// the next column.
type ClusteringSlice struct {
	Prefix []Term
	In     []Term
	Lower  *Bound
	Upper  *Bound
}

// Empty returns whether the slice selects whole partitions.
func (s ClusteringSlice) Empty() bool {
	return len(s.Prefix) == 0 && s.In == nil && s.Lower == nil && s.Upper == nil
}

// HasRange returns whether the column after the prefix has a range bound.
func (s ClusteringSlice) HasRange() bool {
	return s.Lower != nil || s.Upper != nil
}

// Analysis is the classification of a WHERE clause against a table.
type Analysis struct {
	Table *catalog.TableDescriptor
	// All is the full conjunction in input order.
	All Restrictions
	// PartitionKey holds, when every partition key column is restricted by
	// = or IN, the candidate values of each column in key order. It is nil
	// otherwise.
	PartitionKey [][]Term
	// Clustering is only set when PartitionKey is.
	Clustering ClusteringSlice
	// Residual holds the restrictions that must be evaluated against each
	// row, in input order.
	Residual Restrictions
}

// PartitionKeyFull returns whether the restrictions address a finite set of
// partitions.
func (a *Analysis) PartitionKeyFull() bool {
	return a.PartitionKey != nil
}

// IsPrimaryKeyQuery returns whether the query can be answered by reading
// the base table without filtering rows.
func (a *Analysis) IsPrimaryKeyQuery() bool {
	return len(a.Residual) == 0
}

// SinglePartition returns whether the restrictions address exactly one
// partition.
func (a *Analysis) SinglePartition() bool {
	if a.PartitionKey == nil {
		return false
	}
	for _, vals := range a.PartitionKey {
		if len(vals) != 1 {
			return false
		}
	}
	return true
}

// EqualityOn returns the position in All of an equality restriction on the
// column, or -1.
func (a *Analysis) EqualityOn(column string) int {
	for i, r := range a.All {
		if r.Column == column && r.Op == EQ {
			return i
		}
	}
	return -1
}

// ResidualEqualityOn returns whether an equality restriction on the column
// is left to the residual filter, that is not consumed by the primary key.
func (a *Analysis) ResidualEqualityOn(column string) bool {
	for _, r := range a.Residual {
		if r.Column == column && r.Op == EQ {
			return true
		}
	}
	return false
}

func unsupported(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrUnsupportedRestriction)
}

// Analyze classifies the restrictions. It fails for unknown columns,
// constants of the wrong type and combinations of predicates on a key
// column that cannot be turned into a lookup.
func Analyze(table *catalog.TableDescriptor, all Restrictions) (*Analysis, error) {
	a := &Analysis{Table: table, All: all}
	byColumn := make(map[string][]int, len(all))
	for i, r := range all {
		col, err := table.FindColumnByName(r.Column)
		if err != nil {
			return nil, err
		}
		if err := checkShape(col, r); err != nil {
			return nil, err
		}
		byColumn[r.Column] = append(byColumn[r.Column], i)
	}
	consumed := make([]bool, len(all))

	// Partition key: every column by a single = or IN, or it is left to the
	// residual filter.
	pk := make([][]Term, 0, len(table.PartitionKeyColumns()))
	for _, col := range table.PartitionKeyColumns() {
		idxs := byColumn[col.Name]
		if len(idxs) == 1 && (all[idxs[0]].Op == EQ || all[idxs[0]].Op == IN) {
			pk = append(pk, all[idxs[0]].Values)
			continue
		}
		for _, i := range idxs {
			if all[i].Op == EQ || all[i].Op == IN {
				return nil, unsupported("partition key column %s cannot be restricted by more than one relation if it includes an equality", col.Name)
			}
		}
		pk = nil
		break
	}
	if pk != nil {
		a.PartitionKey = pk
		for _, col := range table.PartitionKeyColumns() {
			consumed[byColumn[col.Name][0]] = true
		}
		if err := a.analyzeClustering(byColumn, consumed); err != nil {
			return nil, err
		}
	}

	for i, r := range all {
		if !consumed[i] {
			a.Residual = append(a.Residual, r)
		}
	}
	return a, nil
}

func (a *Analysis) analyzeClustering(byColumn map[string][]int, consumed []bool) error {
	for _, col := range a.Table.ClusteringColumns() {
		idxs := byColumn[col.Name]
		if len(idxs) == 0 {
			return nil
		}
		if len(idxs) == 1 {
			r := a.All[idxs[0]]
			switch r.Op {
			case EQ:
				a.Clustering.Prefix = append(a.Clustering.Prefix, r.Values[0])
				consumed[idxs[0]] = true
				continue
			case IN:
				a.Clustering.In = r.Values
				consumed[idxs[0]] = true
				return nil
			}
		}
		var lower, upper *Bound
		for _, i := range idxs {
			r := a.All[i]
			switch {
			case r.Op.isLowerBound() && lower == nil:
				lower = &Bound{Value: r.Values[0], Inclusive: r.Op == GE}
			case r.Op.isUpperBound() && upper == nil:
				upper = &Bound{Value: r.Values[0], Inclusive: r.Op == LE}
			case r.Op == EQ || r.Op == IN:
				return unsupported("clustering column %s cannot be restricted by both an equality and another relation", col.Name)
			default:
				return unsupported("more than one %s bound on clustering column %s", boundName(r.Op), col.Name)
			}
		}
		a.Clustering.Lower, a.Clustering.Upper = lower, upper
		for _, i := range idxs {
			consumed[i] = true
		}
		return nil
	}
	return nil
}

func boundName(op Op) string {
	if op.isLowerBound() {
		return "lower"
	}
	return "upper"
}

// checkShape verifies the operator arity and the types of constants.
func checkShape(col *catalog.ColumnDescriptor, r Restriction) error {
	if r.Op == IN {
		if len(r.Values) == 0 {
			return unsupported("empty IN list on column %s", col.Name)
		}
	} else if len(r.Values) != 1 {
		return errors.AssertionFailedf("%s expects one value, got %d", r.Op, len(r.Values))
	}
	for _, v := range r.Values {
		c, ok := v.(Constant)
		if !ok {
			continue
		}
		if err := checkValue(col, c.Datum); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(col *catalog.ColumnDescriptor, d types.Datum) error {
	if d == nil || types.IsNull(d) {
		return errors.Mark(errors.Newf("invalid null value in condition for column %s", col.Name), ErrInvalidValue)
	}
	if err := types.CheckType(col.Type, d); err != nil {
		return errors.Mark(errors.Wrapf(err, "column %s", col.Name), ErrInvalidValue)
	}
	return nil
}

// CheckBoundValues type-checks values bound to the terms of a restriction
// on the named column.
func CheckBoundValues(table *catalog.TableDescriptor, column string, vals types.Datums) error {
	col, err := table.FindColumnByName(column)
	if err != nil {
		return err
	}
	for _, d := range vals {
		if err := checkValue(col, d); err != nil {
			return err
		}
	}
	return nil
}
