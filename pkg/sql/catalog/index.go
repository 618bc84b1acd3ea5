// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package catalog

import (
	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/sql/types"
)

// IndexLocality says how the entries of a secondary index are distributed.
type IndexLocality int

const (
	// GlobalIndex entries are partitioned by the indexed value, so entries
	// for one base partition are spread over the ring.
	GlobalIndex IndexLocality = iota
	// LocalIndex entries live next to the base partition they index.
	LocalIndex
)

func (l IndexLocality) String() string {
	if l == LocalIndex {
		return "local"
	}
	return "global"
}

// IndexTokenColumnName is the clustering column of a global index backing
// table that holds the token of the indexed base partition.
const IndexTokenColumnName = "idx_token"

// IndexDescriptor describes a secondary index on a single column. The index
// is stored as a backing table.
type IndexDescriptor struct {
	Name     string
	Target   string
	Locality IndexLocality
	Backing  *TableDescriptor
}

// NewGlobalIndex builds a global index on the target column of base. The
// backing table is partitioned by the indexed value and clustered by the
// base partition token, the base partition key and the base clustering
// key, so a scan of one index partition yields base primary keys in ring
// order.
func NewGlobalIndex(base *TableDescriptor, name, target string) (IndexDescriptor, error) {
	col, err := base.FindColumnByName(target)
	if err != nil {
		return IndexDescriptor{}, err
	}
	if col.Kind == PartitionKeyColumn && len(base.PartitionKeyColumns()) == 1 {
		return IndexDescriptor{}, errors.WithHint(
			errors.Newf("cannot create a secondary index on the partition key %s", target),
			"the column already addresses a single partition")
	}
	cols := []ColumnDescriptor{
		{Name: target, Type: col.Type, Kind: PartitionKeyColumn},
		{Name: IndexTokenColumnName, Type: types.Int, Kind: ClusteringColumn},
	}
	for _, c := range base.PartitionKeyColumns() {
		if c.Name == target {
			continue
		}
		cols = append(cols, ColumnDescriptor{Name: c.Name, Type: c.Type, Kind: ClusteringColumn})
	}
	for _, c := range base.ClusteringColumns() {
		if c.Name == target {
			continue
		}
		cols = append(cols, ColumnDescriptor{Name: c.Name, Type: c.Type, Kind: ClusteringColumn, Direction: c.Direction})
	}
	backing, err := NewTableDescriptor(base.Keyspace, backingTableName(name), cols)
	if err != nil {
		return IndexDescriptor{}, err
	}
	return IndexDescriptor{Name: name, Target: target, Locality: GlobalIndex, Backing: backing}, nil
}

// NewLocalIndex builds a local index on the target column of base. The
// backing table shares the base partition key and is clustered by the
// indexed value followed by the base clustering key.
func NewLocalIndex(base *TableDescriptor, name, target string) (IndexDescriptor, error) {
	col, err := base.FindColumnByName(target)
	if err != nil {
		return IndexDescriptor{}, err
	}
	if col.Kind == PartitionKeyColumn {
		return IndexDescriptor{}, errors.Newf("cannot create a local index on partition key column %s", target)
	}
	var cols []ColumnDescriptor
	for _, c := range base.PartitionKeyColumns() {
		cols = append(cols, ColumnDescriptor{Name: c.Name, Type: c.Type, Kind: PartitionKeyColumn})
	}
	cols = append(cols, ColumnDescriptor{Name: target, Type: col.Type, Kind: ClusteringColumn})
	for _, c := range base.ClusteringColumns() {
		if c.Name == target {
			continue
		}
		cols = append(cols, ColumnDescriptor{Name: c.Name, Type: c.Type, Kind: ClusteringColumn, Direction: c.Direction})
	}
	backing, err := NewTableDescriptor(base.Keyspace, backingTableName(name), cols)
	if err != nil {
		return IndexDescriptor{}, err
	}
	return IndexDescriptor{Name: name, Target: target, Locality: LocalIndex, Backing: backing}, nil
}

func backingTableName(index string) string {
	return index + "_index"
}

// BaseKeyColumns returns, for a global index, the backing clustering
// columns after the token column: these hold the base primary key columns
// other than the target, in base key order.
func (idx *IndexDescriptor) BaseKeyColumns() []ColumnDescriptor {
	cols := idx.Backing.ClusteringColumns()
	if idx.Locality == GlobalIndex {
		return cols[1:]
	}
	return cols
}

// ValidateIndexBacking checks that the backing table of idx still agrees with
// the schema of base. A mismatch is not retryable.
func ValidateIndexBacking(base *TableDescriptor, idx *IndexDescriptor) error {
	if idx.Backing == nil {
		return mismatch(base, idx, "index %s has no backing table", idx.Name)
	}
	target, err := base.FindColumnByName(idx.Target)
	if err != nil {
		return mismatch(base, idx, "indexed column %s no longer exists", idx.Target)
	}
	var want []ColumnDescriptor
	switch idx.Locality {
	case GlobalIndex:
		want = append(want,
			ColumnDescriptor{Name: idx.Target, Type: target.Type, Kind: PartitionKeyColumn},
			ColumnDescriptor{Name: IndexTokenColumnName, Type: types.Int, Kind: ClusteringColumn})
		for _, c := range base.PartitionKeyColumns() {
			if c.Name != idx.Target {
				want = append(want, ColumnDescriptor{Name: c.Name, Type: c.Type, Kind: ClusteringColumn})
			}
		}
	case LocalIndex:
		for _, c := range base.PartitionKeyColumns() {
			want = append(want, ColumnDescriptor{Name: c.Name, Type: c.Type, Kind: PartitionKeyColumn})
		}
		want = append(want, ColumnDescriptor{Name: idx.Target, Type: target.Type, Kind: ClusteringColumn})
	default:
		return errors.AssertionFailedf("unknown index locality %d", idx.Locality)
	}
	for _, c := range base.ClusteringColumns() {
		if c.Name != idx.Target {
			want = append(want, ColumnDescriptor{Name: c.Name, Type: c.Type, Kind: ClusteringColumn})
		}
	}
	got := idx.Backing.Columns[:len(idx.Backing.PartitionKeyColumns())+len(idx.Backing.ClusteringColumns())]
	if len(got) != len(want) {
		return mismatch(base, idx, "backing key has %d columns, expected %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Name != want[i].Name || got[i].Kind != want[i].Kind ||
			got[i].Type.Family() != want[i].Type.Family() {
			return mismatch(base, idx, "backing key column %d is %s %s (%s), expected %s %s (%s)",
				i, got[i].Name, got[i].Type, got[i].Kind, want[i].Name, want[i].Type, want[i].Kind)
		}
	}
	return nil
}

func mismatch(base *TableDescriptor, idx *IndexDescriptor, format string, args ...interface{}) error {
	return errors.WithDetailf(
		errors.Wrapf(ErrIndexSchemaMismatch, "index %s on %s", idx.Name, base.QualifiedName()),
		format, args...)
}
