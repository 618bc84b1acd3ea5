// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package catalog

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/ringdb/ringdb/pkg/sql/types"
)

// MaxColumns bounds the number of columns of a table, exclusive.
const MaxColumns = 256

// ColumnID identifies a column within its table. IDs start at 1.
type ColumnID uint32

// ColumnKind is the role of a column in the primary key.
type ColumnKind int

const (
	// RegularColumn is a column outside of the primary key.
	RegularColumn ColumnKind = iota
	// PartitionKeyColumn is part of the partition key.
	PartitionKeyColumn
	// ClusteringColumn is part of the clustering key.
	ClusteringColumn
)

func (k ColumnKind) String() string {
	switch k {
	case PartitionKeyColumn:
		return "partition key"
	case ClusteringColumn:
		return "clustering"
	default:
		return "regular"
	}
}

// Direction is the sort direction of a clustering column.
type Direction int

const (
	// Ascending sorts smaller values first.
	Ascending Direction = iota
	// Descending sorts larger values first.
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// ColumnDescriptor describes a column.
type ColumnDescriptor struct {
	ID        ColumnID
	Name      string
	Type      *types.T
	Kind      ColumnKind
	Direction Direction
}

// TableDescriptor describes a table. Descriptors handed out by a
// SchemaService must not be modified.
type TableDescriptor struct {
	ID       uuid.UUID
	Keyspace string
	Name     string
	Version  uint64
	// Columns are ordered partition key first, then clustering columns, then
	// regular columns.
	Columns []ColumnDescriptor
	Indexes []IndexDescriptor

	numPartitionKey int
	numClustering   int
}

// NewTableDescriptor builds a table from its columns. The partition key and
// clustering columns keep their relative order; IDs are assigned in the
// resulting column order.
func NewTableDescriptor(keyspace, name string, cols []ColumnDescriptor) (*TableDescriptor, error) {
	desc := &TableDescriptor{
		ID:       uuid.New(),
		Keyspace: keyspace,
		Name:     name,
		Version:  1,
	}
	for _, kind := range []ColumnKind{PartitionKeyColumn, ClusteringColumn, RegularColumn} {
		for _, c := range cols {
			if c.Kind == kind {
				desc.Columns = append(desc.Columns, c)
			}
		}
	}
	for i := range desc.Columns {
		desc.Columns[i].ID = ColumnID(i + 1)
	}
	if err := desc.init(); err != nil {
		return nil, err
	}
	return desc, nil
}

func (desc *TableDescriptor) init() error {
	if len(desc.Columns) >= MaxColumns {
		return errors.Newf("table %s has %d columns, more than the maximum of %d",
			desc.QualifiedName(), len(desc.Columns), MaxColumns-1)
	}
	desc.numPartitionKey, desc.numClustering = 0, 0
	seen := make(map[string]struct{}, len(desc.Columns))
	for i, c := range desc.Columns {
		if c.Name == "" {
			return errors.Newf("column %d of %s has no name", i, desc.QualifiedName())
		}
		if c.Type == nil {
			return errors.Newf("column %s of %s has no type", c.Name, desc.QualifiedName())
		}
		if _, ok := seen[c.Name]; ok {
			return errors.Mark(
				errors.Newf("duplicate column %s in %s", c.Name, desc.QualifiedName()),
				ErrDuplicateObject)
		}
		seen[c.Name] = struct{}{}
		switch c.Kind {
		case PartitionKeyColumn:
			if desc.numClustering > 0 || i != desc.numPartitionKey {
				return errors.AssertionFailedf("partition key columns of %s are not first", desc.QualifiedName())
			}
			desc.numPartitionKey++
		case ClusteringColumn:
			if i != desc.numPartitionKey+desc.numClustering {
				return errors.AssertionFailedf("clustering columns of %s are out of order", desc.QualifiedName())
			}
			desc.numClustering++
		}
	}
	if desc.numPartitionKey == 0 {
		return errors.WithHint(
			errors.Newf("table %s has no partition key", desc.QualifiedName()),
			"declare at least one partition key column")
	}
	return nil
}

// QualifiedName returns "keyspace.name".
func (desc *TableDescriptor) QualifiedName() string {
	return fmt.Sprintf("%s.%s", desc.Keyspace, desc.Name)
}

// PartitionKeyColumns returns the partition key columns in key order.
func (desc *TableDescriptor) PartitionKeyColumns() []ColumnDescriptor {
	return desc.Columns[:desc.numPartitionKey]
}

// ClusteringColumns returns the clustering columns in key order.
func (desc *TableDescriptor) ClusteringColumns() []ColumnDescriptor {
	return desc.Columns[desc.numPartitionKey : desc.numPartitionKey+desc.numClustering]
}

// RegularColumns returns the columns outside the primary key.
func (desc *TableDescriptor) RegularColumns() []ColumnDescriptor {
	return desc.Columns[desc.numPartitionKey+desc.numClustering:]
}

// FindColumnByName finds the column with the given name.
func (desc *TableDescriptor) FindColumnByName(name string) (*ColumnDescriptor, error) {
	for i := range desc.Columns {
		if desc.Columns[i].Name == name {
			return &desc.Columns[i], nil
		}
	}
	return nil, errors.WithHintf(
		errors.Wrapf(ErrUnknownColumn, "column %q of %s", name, desc.QualifiedName()),
		"the table has columns %s", desc.columnNames())
}

// ColumnOrdinal returns the position of the column in Columns.
func (desc *TableDescriptor) ColumnOrdinal(id ColumnID) int {
	return int(id) - 1
}

// FindIndexByName finds the index with the given name.
func (desc *TableDescriptor) FindIndexByName(name string) (*IndexDescriptor, bool) {
	for i := range desc.Indexes {
		if desc.Indexes[i].Name == name {
			return &desc.Indexes[i], true
		}
	}
	return nil, false
}

func (desc *TableDescriptor) columnNames() string {
	names := make([]string, len(desc.Columns))
	for i, c := range desc.Columns {
		names[i] = c.Name
	}
	return fmt.Sprint(names)
}

// ColumnTypes returns the types of the given columns.
func ColumnTypes(cols []ColumnDescriptor) []*types.T {
	ts := make([]*types.T, len(cols))
	for i, c := range cols {
		ts[i] = c.Type
	}
	return ts
}

// EncodePartitionKey serializes the partition key values.
func (desc *TableDescriptor) EncodePartitionKey(vals types.Datums) ([]byte, error) {
	cols := desc.PartitionKeyColumns()
	if len(vals) != len(cols) {
		return nil, errors.AssertionFailedf("expected %d partition key values, got %d", len(cols), len(vals))
	}
	for i, c := range cols {
		if types.IsNull(vals[i]) {
			return nil, errors.Newf("partition key column %s cannot be NULL", c.Name)
		}
		if err := types.CheckType(c.Type, vals[i]); err != nil {
			return nil, err
		}
	}
	return types.EncodeKey(vals)
}

// DecodePartitionKey is the inverse of EncodePartitionKey.
func (desc *TableDescriptor) DecodePartitionKey(key []byte) (types.Datums, error) {
	return types.DecodeKey(ColumnTypes(desc.PartitionKeyColumns()), key)
}

// EncodeClusteringKey serializes a clustering key or prefix.
func (desc *TableDescriptor) EncodeClusteringKey(vals types.Datums) ([]byte, error) {
	if len(vals) > desc.numClustering {
		return nil, errors.AssertionFailedf("expected at most %d clustering values, got %d", desc.numClustering, len(vals))
	}
	return types.EncodeKey(vals)
}

// DecodeClusteringKey decodes a clustering key or prefix of n columns.
func (desc *TableDescriptor) DecodeClusteringKey(key []byte, n int) (types.Datums, error) {
	cols := desc.ClusteringColumns()
	if n > len(cols) {
		return nil, errors.AssertionFailedf("expected at most %d clustering values, got %d", len(cols), n)
	}
	return types.DecodeKey(ColumnTypes(cols[:n]), key)
}

// CompareClustering orders two clustering keys or prefixes by the declared
// column directions. A prefix sorts before the keys it is a prefix of.
func (desc *TableDescriptor) CompareClustering(a, b types.Datums) int {
	cols := desc.ClusteringColumns()
	for i := 0; i < len(a) && i < len(b); i++ {
		c := a[i].Compare(b[i])
		if i < len(cols) && cols[i].Direction == Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// WithIndex returns a copy of the descriptor with the index added and the
// version bumped.
func (desc *TableDescriptor) WithIndex(idx IndexDescriptor) (*TableDescriptor, error) {
	if _, ok := desc.FindIndexByName(idx.Name); ok {
		return nil, errors.Mark(
			errors.Newf("index %s already exists on %s", idx.Name, desc.QualifiedName()),
			ErrDuplicateObject)
	}
	cpy := *desc
	cpy.Indexes = append(append([]IndexDescriptor(nil), desc.Indexes...), idx)
	cpy.Version++
	return &cpy, nil
}
