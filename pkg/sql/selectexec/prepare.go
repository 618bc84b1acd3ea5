// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package selectexec

import (
	"context"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/sql/catalog"
	"github.com/ringdb/ringdb/pkg/sql/restrictions"
	"github.com/ringdb/ringdb/pkg/sql/types"
	"github.com/ringdb/ringdb/pkg/util/log"
)

// Plan is the access path of a prepared statement: a *PrimaryKeyPlan or an
// *IndexedPlan.
type Plan interface {
	fmt.Stringer
	plan()
}

// PrimaryKeyPlan reads the base table by its primary key restrictions.
type PrimaryKeyPlan struct {
	// Filter is set for ALLOW FILTERING statements whose restrictions do
	// not all map to the primary key.
	Filter *restrictions.Filter
}

// IndexBinding is the secondary index serving a statement.
type IndexBinding struct {
	Index    *catalog.IndexDescriptor
	Locality catalog.IndexLocality
	// Restrictions are the restrictions answered by the index lookup.
	Restrictions restrictions.Restrictions
	Backing      *catalog.TableDescriptor
}

// IndexedPlan reads the base table guided by a secondary index. Base rows
// are checked against Filter.
type IndexedPlan struct {
	Binding IndexBinding
	Filter  *restrictions.Filter
}

func (*PrimaryKeyPlan) plan() {}
func (*IndexedPlan) plan()    {}

func (p *PrimaryKeyPlan) String() string {
	if p.Filter.Empty() {
		return "primary key"
	}
	return "primary key with filtering"
}

func (p *IndexedPlan) String() string {
	return fmt.Sprintf("%s index %s", p.Binding.Locality, p.Binding.Index.Name)
}

// PreparedSelect is a statement resolved against the schema. It is
// immutable and may be executed concurrently.
type PreparedSelect struct {
	desc     Descriptor
	table    *catalog.TableDescriptor
	analysis *restrictions.Analysis
	plan     Plan

	columns    []catalog.ColumnDescriptor
	projection []int

	// reversed reads rows of a partition in reverse clustering order.
	reversed bool
	// postOrder is set when rows of several partitions have to be merged in
	// the order of the first orderLen clustering columns.
	postOrder bool
	orderLen  int

	fingerprint uint64
}

// Prepare resolves the statement against the schema and picks its access
// path.
func Prepare(
	ctx context.Context, schema catalog.SchemaService, d Descriptor,
) (*PreparedSelect, error) {
	table, err := schema.Table(ctx, d.Keyspace, d.Table)
	if err != nil {
		return nil, err
	}
	ps := &PreparedSelect{desc: d.clone(), table: table}
	if err := ps.resolveProjection(); err != nil {
		return nil, err
	}
	if n := ps.desc.numPlaceholders(); n != ps.desc.BoundValues {
		return nil, errors.WithHint(
			errors.Wrapf(ErrBindCount, "statement has %d placeholders, %d values declared", n, ps.desc.BoundValues),
			"placeholders are numbered from $1 without gaps")
	}
	for _, l := range []struct {
		term restrictions.Term
		what string
	}{{ps.desc.Limit, "LIMIT"}, {ps.desc.PerPartitionLimit, "PER PARTITION LIMIT"}} {
		if c, ok := l.term.(restrictions.Constant); ok {
			if _, err := checkLimit(c.Datum, l.what); err != nil {
				return nil, err
			}
		}
	}
	for _, g := range ps.desc.GroupBy {
		if g < 0 || g >= len(ps.projection) {
			return nil, errors.Mark(
				errors.Newf("GROUP BY cell %d out of range, the projection has %d columns", g, len(ps.projection)),
				ErrInvalidGroupBy)
		}
	}
	if ps.analysis, err = restrictions.Analyze(table, ps.desc.Where); err != nil {
		return nil, err
	}
	if err := ps.choosePlan(); err != nil {
		return nil, err
	}
	if err := ps.resolveOrdering(); err != nil {
		return nil, err
	}
	ps.fingerprint = ps.computeFingerprint()
	log.VEventf(ctx, 2, "prepared %s: %s", &ps.desc, ps.plan)
	return ps, nil
}

func (ps *PreparedSelect) resolveProjection() error {
	if len(ps.desc.Projection) == 0 {
		ps.columns = append([]catalog.ColumnDescriptor(nil), ps.table.Columns...)
		ps.projection = make([]int, len(ps.columns))
		for i := range ps.projection {
			ps.projection[i] = i
		}
		return nil
	}
	for _, name := range ps.desc.Projection {
		col, err := ps.table.FindColumnByName(name)
		if err != nil {
			return err
		}
		ps.columns = append(ps.columns, *col)
		ps.projection = append(ps.projection, ps.table.ColumnOrdinal(col.ID))
	}
	return nil
}

// choosePlan picks the access path. Restrictions answered by the primary
// key win over any index; otherwise exactly one index with an equality on
// its target must qualify, unless the statement allows filtering.
func (ps *PreparedSelect) choosePlan() error {
	a := ps.analysis
	if a.IsPrimaryKeyQuery() {
		ps.plan = &PrimaryKeyPlan{}
		return nil
	}
	var candidates []*catalog.IndexDescriptor
	for i := range ps.table.Indexes {
		idx := &ps.table.Indexes[i]
		// Restrictions consumed by the primary key never select an index.
		if !a.ResidualEqualityOn(idx.Target) {
			continue
		}
		if idx.Locality == catalog.LocalIndex && !a.PartitionKeyFull() {
			continue
		}
		candidates = append(candidates, idx)
	}
	switch len(candidates) {
	case 0:
		if !ps.desc.AllowFiltering {
			return errors.WithHint(
				errors.Mark(errors.Newf("cannot execute %s without filtering", a.Residual), ErrUnsupportedRestriction),
				"use ALLOW FILTERING or create a secondary index on a restricted column")
		}
		f, err := restrictions.NewFilter(ps.table, a.Residual)
		if err != nil {
			return err
		}
		ps.plan = &PrimaryKeyPlan{Filter: f}
		return nil
	case 1:
		idx := candidates[0]
		eq := a.EqualityOn(idx.Target)
		// A global index lookup yields candidate keys only: base rows are
		// checked against every restriction, including the indexed one. A
		// local index lookup is a scan of the restricted partitions.
		rs := a.All
		if idx.Locality == catalog.LocalIndex {
			rs = a.Residual
		}
		f, err := restrictions.NewFilter(ps.table, rs)
		if err != nil {
			return err
		}
		ps.plan = &IndexedPlan{
			Binding: IndexBinding{
				Index:        idx,
				Locality:     idx.Locality,
				Restrictions: restrictions.Restrictions{a.All[eq]},
				Backing:      idx.Backing,
			},
			Filter: f,
		}
		return nil
	default:
		names := make([]string, len(candidates))
		for i, idx := range candidates {
			names[i] = idx.Name
		}
		return errors.WithHintf(
			errors.Mark(errors.Newf("restrictions on %s can be served by indexes %s",
				ps.table.QualifiedName(), strings.Join(names, ", ")), ErrAmbiguousIndex),
			"drop one of the indexes or restrict a single indexed column by equality")
	}
}

// resolveOrdering checks that ORDER BY follows the clustering columns in
// declared order, or all of them reversed.
func (ps *PreparedSelect) resolveOrdering() error {
	order := ps.desc.OrderBy
	if len(order) == 0 {
		return nil
	}
	if _, ok := ps.plan.(*IndexedPlan); ok {
		return errors.WithHint(
			unsupportedOrdering("ORDER BY is not supported with secondary indexes"),
			"sort the rows on the client")
	}
	if !ps.analysis.PartitionKeyFull() {
		return unsupportedOrdering("ORDER BY is only supported when the partition key is restricted by = or IN")
	}
	ck := ps.table.ClusteringColumns()
	for i, o := range order {
		col, err := ps.table.FindColumnByName(o.Column)
		if err != nil {
			return err
		}
		if col.Kind != catalog.ClusteringColumn {
			return unsupportedOrdering("ORDER BY on %s, which is not a clustering column", o.Column)
		}
		if i >= len(ck) || ck[i].Name != o.Column {
			return errors.WithHintf(
				unsupportedOrdering("ORDER BY must list clustering columns in declared order"),
				"the clustering columns of %s are %s", ps.table.QualifiedName(), columnNames(ck))
		}
		rev := o.Descending != (ck[i].Direction == catalog.Descending)
		if i == 0 {
			ps.reversed = rev
		} else if rev != ps.reversed {
			return unsupportedOrdering("ORDER BY %s mixes clustering and reversed clustering order", o)
		}
	}
	ps.orderLen = len(order)
	ps.postOrder = !ps.analysis.SinglePartition()
	return nil
}

func columnNames(cols []catalog.ColumnDescriptor) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return "(" + strings.Join(names, ", ") + ")"
}

// computeFingerprint hashes the shape of the statement: the table, the
// access path and the clauses. Bound values are not part of it, so paging
// states carry over between executions with different values.
func (ps *PreparedSelect) computeFingerprint() uint64 {
	h := xxhash.New()
	fmt.Fprintf(h, "%s|%s|%s|", ps.table.ID, ps.plan, &ps.desc)
	for _, c := range ps.columns {
		fmt.Fprintf(h, "%d,", c.ID)
	}
	return h.Sum64()
}

// checkLimit validates the value of a limit clause.
func checkLimit(d types.Datum, what string) (uint64, error) {
	if d == nil {
		d = types.DNull
	}
	v, ok := d.(types.DInt)
	if !ok || v <= 0 {
		return 0, errors.WithHint(
			errors.Mark(errors.Newf("%s must be a strictly positive integer, got %s", what, d), ErrInvalidLimit),
			"omit the clause to read without a limit")
	}
	return uint64(v), nil
}

// Table returns the table the statement reads.
func (ps *PreparedSelect) Table() *catalog.TableDescriptor { return ps.table }

// Plan returns the access path.
func (ps *PreparedSelect) Plan() Plan { return ps.plan }

// Columns returns the result columns.
func (ps *PreparedSelect) Columns() []catalog.ColumnDescriptor { return ps.columns }

// Reversed returns whether partitions are read in reverse clustering order.
func (ps *PreparedSelect) Reversed() bool { return ps.reversed }

// Fingerprint identifies the shape of the statement in paging states.
func (ps *PreparedSelect) Fingerprint() uint64 { return ps.fingerprint }

// BoundValues returns the number of values the statement expects.
func (ps *PreparedSelect) BoundValues() int { return ps.desc.BoundValues }

func (ps *PreparedSelect) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nplan: %s", &ps.desc, ps.plan)
	if ip, ok := ps.plan.(*IndexedPlan); ok {
		fmt.Fprintf(&b, "\nindex restrictions: %s", ip.Binding.Restrictions)
	}
	if ps.reversed {
		b.WriteString("\nreversed")
	}
	if ps.postOrder {
		fmt.Fprintf(&b, "\nmerge by %d clustering columns", ps.orderLen)
	}
	return b.String()
}
