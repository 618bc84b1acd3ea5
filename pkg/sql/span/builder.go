// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package span turns the restrictions of a query into the partition ranges
// and clustering slices read from the base table or from the table backing
// a secondary index.
package span

import (
	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/dht"
	"github.com/ringdb/ringdb/pkg/kv"
	"github.com/ringdb/ringdb/pkg/sql/catalog"
	"github.com/ringdb/ringdb/pkg/sql/restrictions"
	"github.com/ringdb/ringdb/pkg/sql/types"
)

// ErrTooManyKeys is returned when IN lists on the partition key expand to
// more partition keys than allowed.
var ErrTooManyKeys = errors.New("too many partition keys")

// Builder computes the ranges of one statement. It is immutable once made
// and may be shared by concurrent executions.
type Builder struct {
	analysis    *restrictions.Analysis
	partitioner dht.Partitioner
	maxKeys     int
}

// MakeBuilder returns a Builder for the analyzed restrictions. maxKeys bounds
// the number of partition keys a statement may address; zero means no bound.
func MakeBuilder(a *restrictions.Analysis, p dht.Partitioner, maxKeys int) Builder {
	return Builder{analysis: a, partitioner: p, maxKeys: maxKeys}
}

func (b *Builder) table() *catalog.TableDescriptor {
	return b.analysis.Table
}

// PartitionKeys returns the partition keys addressed by the restrictions:
// the cartesian product of the values of each partition key column, in
// restriction order. It returns nil when the partition key is not fully
// restricted.
func (b *Builder) PartitionKeys(values types.Datums) ([]types.Datums, error) {
	if !b.analysis.PartitionKeyFull() {
		return nil, nil
	}
	cols := b.table().PartitionKeyColumns()
	perCol := make([]types.Datums, len(cols))
	n := 1
	for i, terms := range b.analysis.PartitionKey {
		vals, err := b.bind(cols[i].Name, terms, values)
		if err != nil {
			return nil, err
		}
		perCol[i] = vals
		n *= len(vals)
		if b.maxKeys > 0 && n > b.maxKeys {
			return nil, errors.WithHintf(
				errors.Mark(errors.Newf("IN restrictions on the partition key of %s select more than %d partitions",
					b.table().QualifiedName(), b.maxKeys), ErrTooManyKeys),
				"raise max_partition_key_combinations or split the query")
		}
	}
	keys := []types.Datums{nil}
	for _, vals := range perCol {
		next := make([]types.Datums, 0, len(keys)*len(vals))
		for _, k := range keys {
			for _, v := range vals {
				key := make(types.Datums, len(k), len(k)+1)
				copy(key, k)
				next = append(next, append(key, v))
			}
		}
		keys = next
	}
	return keys, nil
}

// RangesFor returns the ranges of the base table to read. An unrestricted
// partition key reads the whole ring.
func (b *Builder) RangesFor(values types.Datums) (dht.PartitionRanges, error) {
	keys, err := b.PartitionKeys(values)
	if err != nil {
		return nil, err
	}
	if keys == nil {
		return dht.PartitionRanges{dht.FullRing()}, nil
	}
	ranges := make(dht.PartitionRanges, 0, len(keys))
	for _, k := range keys {
		dk, err := b.decorate(b.table(), k)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, dht.SingleKeyRange(dk))
	}
	ranges, _ = dht.MergeRanges(ranges)
	return ranges, nil
}

// SliceFor returns the clustering ranges selected within each partition. No
// range means whole partitions.
func (b *Builder) SliceFor(values types.Datums) ([]kv.ClusteringRange, error) {
	cs := b.analysis.Clustering
	if cs.Empty() {
		return nil, nil
	}
	cols := b.table().ClusteringColumns()
	prefix := make(types.Datums, len(cs.Prefix))
	for i, term := range cs.Prefix {
		vals, err := b.bind(cols[i].Name, []restrictions.Term{term}, values)
		if err != nil {
			return nil, err
		}
		prefix[i] = vals[0]
	}
	next := len(prefix)
	switch {
	case cs.In != nil:
		vals, err := b.bind(cols[next].Name, cs.In, values)
		if err != nil {
			return nil, err
		}
		out := make([]kv.ClusteringRange, 0, len(vals))
		for _, v := range vals {
			p := make(types.Datums, len(prefix), len(prefix)+1)
			copy(p, prefix)
			out = append(out, kv.ClusteringRange{Prefix: append(p, v)})
		}
		return out, nil
	case cs.HasRange():
		r := kv.ClusteringRange{Prefix: prefix}
		var err error
		if r.Lower, err = b.bound(cols[next].Name, cs.Lower, values); err != nil {
			return nil, err
		}
		if r.Upper, err = b.bound(cols[next].Name, cs.Upper, values); err != nil {
			return nil, err
		}
		return []kv.ClusteringRange{r}, nil
	default:
		return []kv.ClusteringRange{{Prefix: prefix}}, nil
	}
}

func (b *Builder) bound(
	column string, bd *restrictions.Bound, values types.Datums,
) (*kv.ClusteringBound, error) {
	if bd == nil {
		return nil, nil
	}
	vals, err := b.bind(column, []restrictions.Term{bd.Value}, values)
	if err != nil {
		return nil, err
	}
	return &kv.ClusteringBound{Value: vals[0], Inclusive: bd.Inclusive}, nil
}

// IndexRanges returns the partition of the global index backing table that
// holds the postings of the value the indexed column is compared to.
func (b *Builder) IndexRanges(
	idx *catalog.IndexDescriptor, values types.Datums,
) (dht.PartitionRanges, error) {
	v, err := b.IndexedValue(idx, values)
	if err != nil {
		return nil, err
	}
	dk, err := b.decorate(idx.Backing, types.Datums{v})
	if err != nil {
		return nil, err
	}
	return dht.PartitionRanges{dht.SingleKeyRange(dk)}, nil
}

// IndexedValue returns the value the indexed column is compared to.
func (b *Builder) IndexedValue(idx *catalog.IndexDescriptor, values types.Datums) (types.Datum, error) {
	i := b.analysis.EqualityOn(idx.Target)
	if i < 0 {
		return nil, errors.AssertionFailedf("no equality on indexed column %s", idx.Target)
	}
	vals, err := b.bind(idx.Target, b.analysis.All[i].Values, values)
	if err != nil {
		return nil, err
	}
	return vals[0], nil
}

// IndexSlice restricts the postings of a global index to one base
// partition when the restrictions fix the base partition key. It returns
// nil otherwise.
func (b *Builder) IndexSlice(
	idx *catalog.IndexDescriptor, values types.Datums,
) ([]kv.ClusteringRange, error) {
	if idx.Locality != catalog.GlobalIndex || !b.analysis.SinglePartition() {
		return nil, nil
	}
	keys, err := b.PartitionKeys(values)
	if err != nil {
		return nil, err
	}
	dk, err := b.decorate(b.table(), keys[0])
	if err != nil {
		return nil, err
	}
	prefix := types.Datums{types.DInt(dk.Token)}
	for i, c := range b.table().PartitionKeyColumns() {
		if c.Name != idx.Target {
			prefix = append(prefix, keys[0][i])
		}
	}
	return []kv.ClusteringRange{{Prefix: prefix}}, nil
}

func (b *Builder) bind(
	column string, terms []restrictions.Term, values types.Datums,
) (types.Datums, error) {
	vals, err := restrictions.BindTerms(terms, values)
	if err != nil {
		return nil, err
	}
	if err := restrictions.CheckBoundValues(b.table(), column, vals); err != nil {
		return nil, err
	}
	return vals, nil
}

func (b *Builder) decorate(table *catalog.TableDescriptor, key types.Datums) (dht.DecoratedKey, error) {
	enc, err := table.EncodePartitionKey(key)
	if err != nil {
		return dht.DecoratedKey{}, err
	}
	return dht.Decorate(b.partitioner, enc), nil
}
