// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package catalog

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

func makeUsers(t *testing.T) *TableDescriptor {
	t.Helper()
	desc, err := NewTableDescriptor("ks", "users", []ColumnDescriptor{
		{Name: "v", Type: types.String, Kind: RegularColumn},
		{Name: "ck", Type: types.Int, Kind: ClusteringColumn, Direction: Descending},
		{Name: "pk", Type: types.Int, Kind: PartitionKeyColumn},
	})
	require.NoError(t, err)
	return desc
}

func TestNewTableDescriptor(t *testing.T) {
	desc := makeUsers(t)
	require.Equal(t, "ks.users", desc.QualifiedName())
	require.Len(t, desc.PartitionKeyColumns(), 1)
	require.Equal(t, "pk", desc.PartitionKeyColumns()[0].Name)
	require.Equal(t, "ck", desc.ClusteringColumns()[0].Name)
	require.Equal(t, "v", desc.RegularColumns()[0].Name)
	require.Equal(t, ColumnID(3), desc.RegularColumns()[0].ID)
	require.Equal(t, 2, desc.ColumnOrdinal(3))

	_, err := desc.FindColumnByName("nope")
	require.True(t, errors.Is(err, ErrUnknownColumn))

	_, err = NewTableDescriptor("ks", "t", []ColumnDescriptor{{Name: "a", Type: types.Int}})
	require.ErrorContains(t, err, "no partition key")

	_, err = NewTableDescriptor("ks", "t", []ColumnDescriptor{
		{Name: "a", Type: types.Int, Kind: PartitionKeyColumn},
		{Name: "a", Type: types.Int},
	})
	require.True(t, errors.Is(err, ErrDuplicateObject))
}

func TestCompareClustering(t *testing.T) {
	desc := makeUsers(t)
	// ck is descending.
	require.Equal(t, -1, desc.CompareClustering(types.Datums{types.DInt(5)}, types.Datums{types.DInt(3)}))
	require.Equal(t, 1, desc.CompareClustering(types.Datums{types.DInt(1)}, types.Datums{types.DInt(3)}))
	require.Equal(t, -1, desc.CompareClustering(nil, types.Datums{types.DInt(3)}))
	require.Equal(t, 0, desc.CompareClustering(types.Datums{types.DInt(3)}, types.Datums{types.DInt(3)}))
}

func TestKeyRoundTrip(t *testing.T) {
	desc := makeUsers(t)
	key, err := desc.EncodePartitionKey(types.Datums{types.DInt(42)})
	require.NoError(t, err)
	vals, err := desc.DecodePartitionKey(key)
	require.NoError(t, err)
	require.Equal(t, types.Datums{types.DInt(42)}, vals)

	_, err = desc.EncodePartitionKey(types.Datums{types.DNull})
	require.ErrorContains(t, err, "cannot be NULL")
	_, err = desc.EncodePartitionKey(types.Datums{types.DString("x")})
	require.Error(t, err)

	ck, err := desc.EncodeClusteringKey(types.Datums{types.DInt(7)})
	require.NoError(t, err)
	cvals, err := desc.DecodeClusteringKey(ck, 1)
	require.NoError(t, err)
	require.Equal(t, types.Datums{types.DInt(7)}, cvals)
}

func TestIndexes(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	require.NoError(t, r.AddTable(makeUsers(t)))
	require.True(t, errors.Is(r.AddTable(makeUsers(t)), ErrDuplicateObject))

	updated, err := r.CreateIndex("ks", "users", "users_by_v", "v", GlobalIndex)
	require.NoError(t, err)
	require.Equal(t, uint64(2), updated.Version)

	got, err := r.Table(ctx, "ks", "users")
	require.NoError(t, err)
	require.Same(t, updated, got)
	byID, err := r.TableByID(ctx, updated.ID)
	require.NoError(t, err)
	require.Same(t, updated, byID)

	idx, ok := got.FindIndexByName("users_by_v")
	require.True(t, ok)
	require.Equal(t, "users_by_v_index", idx.Backing.Name)
	var names []string
	for _, c := range idx.Backing.Columns {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"v", IndexTokenColumnName, "pk", "ck"}, names)
	require.Equal(t, Descending, idx.Backing.Columns[3].Direction)
	require.NoError(t, ValidateIndexBacking(got, idx))
	require.Len(t, idx.BaseKeyColumns(), 2)

	backing, err := r.Table(ctx, "ks", "users_by_v_index")
	require.NoError(t, err)
	require.Same(t, idx.Backing, backing)

	_, err = r.CreateIndex("ks", "users", "users_by_v", "v", GlobalIndex)
	require.True(t, errors.Is(err, ErrDuplicateObject))
	_, err = r.CreateIndex("ks", "missing", "i", "v", GlobalIndex)
	require.True(t, errors.Is(err, ErrUnknownTable))
	_, err = r.CreateIndex("ks", "users", "by_pk", "pk", GlobalIndex)
	require.Error(t, err)

	local, err := r.CreateIndex("ks", "users", "users_by_v_local", "v", LocalIndex)
	require.NoError(t, err)
	lidx, ok := local.FindIndexByName("users_by_v_local")
	require.True(t, ok)
	require.NoError(t, ValidateIndexBacking(local, lidx))
	require.Equal(t, "pk", lidx.Backing.PartitionKeyColumns()[0].Name)
}

func TestValidateIndexBackingMismatch(t *testing.T) {
	base := makeUsers(t)
	idx, err := NewGlobalIndex(base, "by_v", "v")
	require.NoError(t, err)

	// The base table is recreated with a different type for the indexed
	// column while the index keeps its old backing table.
	changed, err := NewTableDescriptor("ks", "users", []ColumnDescriptor{
		{Name: "pk", Type: types.Int, Kind: PartitionKeyColumn},
		{Name: "ck", Type: types.Int, Kind: ClusteringColumn},
		{Name: "v", Type: types.Int},
	})
	require.NoError(t, err)
	err = ValidateIndexBacking(changed, &idx)
	require.True(t, errors.Is(err, ErrIndexSchemaMismatch))
	require.Contains(t, errors.FlattenDetails(err), "backing key column 0")

	idx.Backing = nil
	require.True(t, errors.Is(ValidateIndexBacking(base, &idx), ErrIndexSchemaMismatch))
}
