// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package selectexec

import (
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/kv/memproxy"
	"github.com/ringdb/ringdb/pkg/sql/catalog"
	"github.com/ringdb/ringdb/pkg/sql/pagination"
	"github.com/ringdb/ringdb/pkg/sql/restrictions"
	"github.com/ringdb/ringdb/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

func makeSchema(t *testing.T) *catalog.Registry {
	e := newTestEnv(memproxy.TestingKnobs{})
	makeScenario(t, e)
	e.createTable(t, "r",
		catalog.ColumnDescriptor{Name: "a", Type: types.Int, Kind: catalog.PartitionKeyColumn},
		catalog.ColumnDescriptor{Name: "b", Type: types.Int, Kind: catalog.PartitionKeyColumn},
		catalog.ColumnDescriptor{Name: "c", Type: types.Int, Kind: catalog.ClusteringColumn},
		catalog.ColumnDescriptor{Name: "v", Type: types.String},
	)
	e.createIndex(t, "r", "r_v", "v", catalog.GlobalIndex)
	e.createIndex(t, "r", "r_c", "c", catalog.GlobalIndex)
	e.createIndex(t, "r", "r_a", "a", catalog.GlobalIndex)
	return e.schema
}

// errorClass names the sentinel an error is marked with.
func errorClass(err error) string {
	for _, c := range []struct {
		ref  error
		name string
	}{
		{ErrAmbiguousIndex, "ambiguous index"},
		{ErrUnsupportedRestriction, "unsupported restriction"},
		{ErrUnsupportedOrdering, "unsupported ordering"},
		{ErrUnknownColumn, "unknown column"},
		{ErrUnknownTable, "unknown table"},
		{ErrBindCount, "bind count"},
		{ErrInvalidLimit, "invalid limit"},
		{ErrInvalidGroupBy, "invalid group by"},
		{restrictions.ErrInvalidValue, "invalid value"},
	} {
		if errors.Is(err, c.ref) {
			return c.name
		}
	}
	return "unclassified"
}

func TestPrepare(t *testing.T) {
	schema := makeSchema(t)
	testCases := []struct {
		name      string
		table     string
		sel       []string
		where     string
		order     string
		limit     string
		group     []int
		filtering bool
		bound     int

		plan     string
		reversed bool
		merge    bool
		err      string
		hint     bool
	}{
		{name: "full scan", table: "t", plan: "primary key"},
		{name: "partition", table: "t", where: "pk = 1 AND ck > 1", plan: "primary key"},
		{name: "global index", table: "t", where: "v = 'x'", plan: "global index by_v"},
		{name: "global index bound", table: "t", where: "v = $1", bound: 1, plan: "global index by_v"},
		{name: "local index", table: "t", where: "pk = 1 AND w = 'p'", plan: "local index by_w"},
		{name: "local index needs partition", table: "t", where: "w = 'p'",
			err: "unsupported restriction", hint: true},
		{name: "filtering", table: "t", where: "w = 'p'", filtering: true,
			plan: "primary key with filtering"},
		{name: "key columns do not select an index", table: "r",
			where: "a = 1 AND b = 2 AND c = 3 AND v = 'x'", plan: "global index r_v"},
		{name: "partition key does not select an index", table: "r",
			where: "a = 1 AND b = 2 AND v = 'x'", plan: "global index r_v"},
		{name: "full primary key", table: "r", where: "a = 1 AND b = 2 AND c = 3", plan: "primary key"},
		{name: "partial partition key selects an index", table: "r", where: "a = 1", plan: "global index r_a"},
		{name: "ambiguous", table: "t", where: "pk = 1 AND v = 'x' AND w = 'p'",
			err: "ambiguous index", hint: true},
		{name: "order single partition", table: "t", where: "pk = 1", order: "ck DESC",
			plan: "primary key", reversed: true},
		{name: "order across partitions", table: "t", where: "pk IN (1, 2)", order: "ck",
			plan: "primary key", merge: true},
		{name: "order needs partition key", table: "t", order: "ck", err: "unsupported ordering"},
		{name: "order on indexed query", table: "t", where: "v = 'x'", order: "ck",
			err: "unsupported ordering", hint: true},
		{name: "order on regular column", table: "t", where: "pk = 1", order: "v",
			err: "unsupported ordering"},
		{name: "order on unknown column", table: "t", where: "pk = 1", order: "nope",
			err: "unknown column", hint: true},
		{name: "unknown table", table: "nope", err: "unknown table", hint: true},
		{name: "unknown restricted column", table: "t", where: "nope = 1", err: "unknown column", hint: true},
		{name: "unknown projected column", table: "t", sel: []string{"nope"}, err: "unknown column", hint: true},
		{name: "wrong value type", table: "t", where: "v = 1", err: "invalid value"},
		{name: "missing bound value", table: "t", where: "v = $1", err: "bind count", hint: true},
		{name: "extra bound value", table: "t", where: "v = 'x'", bound: 1, err: "bind count", hint: true},
		{name: "zero limit", table: "t", limit: "0", err: "invalid limit", hint: true},
		{name: "text limit", table: "t", limit: "'a'", err: "invalid limit", hint: true},
		{name: "bound limit", table: "t", limit: "$1", bound: 1, plan: "primary key"},
		{name: "group by", table: "t", sel: []string{"v", "pk"}, group: []int{0}, plan: "primary key"},
		{name: "group by out of range", table: "t", sel: []string{"pk"}, group: []int{1},
			err: "invalid group by"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := Descriptor{
				Keyspace:       "ks",
				Table:          tc.table,
				Projection:     tc.sel,
				GroupBy:        tc.group,
				AllowFiltering: tc.filtering,
				BoundValues:    tc.bound,
			}
			var err error
			if tc.where != "" {
				d.Where = where(t, tc.where)
			}
			d.OrderBy, err = ParseOrdering(tc.order)
			require.NoError(t, err)
			if tc.limit != "" {
				d.Limit, err = restrictions.ParseTerm(tc.limit)
				require.NoError(t, err)
			}

			ps, err := Prepare(context.Background(), schema, d)
			if tc.err != "" {
				require.Error(t, err)
				require.Equal(t, tc.err, errorClass(err), "%+v", err)
				require.Equal(t, tc.hint, len(errors.GetAllHints(err)) > 0)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.plan, ps.Plan().String())
			require.Equal(t, tc.reversed, ps.Reversed())
			require.Equal(t, tc.merge, strings.Contains(ps.String(), "merge by 1 clustering columns"))
		})
	}
}

func TestFingerprint(t *testing.T) {
	schema := makeSchema(t)
	prep := func(w string, bound int) *PreparedSelect {
		rs, err := restrictions.ParseConjunction(w)
		require.NoError(t, err)
		ps, err := Prepare(context.Background(), schema, Descriptor{
			Keyspace: "ks", Table: "t", Where: rs, BoundValues: bound,
		})
		require.NoError(t, err)
		return ps
	}
	a, b := prep("v = $1", 1), prep("v = $1", 1)
	require.Equal(t, a.Fingerprint(), b.Fingerprint())
	require.NotEqual(t, a.Fingerprint(), prep("v = 'x'", 0).Fingerprint())
	require.NotEqual(t, a.Fingerprint(), prep("w = $1 AND pk = 1", 1).Fingerprint())

	// A token of one statement is rejected by another.
	tok, err := pagination.Encode(&pagination.State{
		Kind:        pagination.IndexPhase,
		Fingerprint: a.Fingerprint(),
		Remaining:   pagination.NoLimit,
		Index:       &pagination.Cursor{PartitionKey: []byte{1}},
	})
	require.NoError(t, err)
	_, err = pagination.Decode(tok, b.Fingerprint())
	require.NoError(t, err)
	_, err = pagination.Decode(tok, prep("v = 'x'", 0).Fingerprint())
	require.True(t, errors.Is(err, pagination.ErrPagingStateMismatch))
}

func TestParseOrdering(t *testing.T) {
	o, err := ParseOrdering("ck1, ck2 DESC, ck3 asc")
	require.NoError(t, err)
	require.Equal(t, []OrderingColumn{{Column: "ck1"}, {Column: "ck2", Descending: true}, {Column: "ck3"}}, o)

	o, err = ParseOrdering(" ")
	require.NoError(t, err)
	require.Nil(t, o)

	_, err = ParseOrdering("ck1 sideways")
	require.True(t, errors.Is(err, restrictions.ErrSyntax))
}
