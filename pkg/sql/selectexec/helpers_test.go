// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package selectexec

import (
	"context"
	"strings"
	"testing"

	"github.com/ringdb/ringdb/pkg/base"
	"github.com/ringdb/ringdb/pkg/dht"
	"github.com/ringdb/ringdb/pkg/kv/memproxy"
	"github.com/ringdb/ringdb/pkg/sql/catalog"
	"github.com/ringdb/ringdb/pkg/sql/restrictions"
	"github.com/ringdb/ringdb/pkg/sql/types"
	"github.com/ringdb/ringdb/pkg/util/metric"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	schema  *catalog.Registry
	store   *memproxy.Store
	metrics *metric.ReadMetrics
	cfg     base.Config
}

func newTestEnv(knobs memproxy.TestingKnobs) *testEnv {
	return &testEnv{
		schema:  catalog.NewRegistry(),
		store:   memproxy.New(dht.Murmur3Partitioner{}, knobs),
		metrics: metric.NewReadMetrics(),
		cfg:     base.DefaultConfig(),
	}
}

func (e *testEnv) executor() *Executor {
	return NewExecutor(e.store, e.store.Partitioner(), e.metrics, e.cfg)
}

func (e *testEnv) createTable(t *testing.T, name string, cols ...catalog.ColumnDescriptor) {
	t.Helper()
	desc, err := catalog.NewTableDescriptor("ks", name, cols)
	require.NoError(t, err)
	require.NoError(t, e.schema.AddTable(desc))
}

func (e *testEnv) createIndex(
	t *testing.T, table, name, target string, locality catalog.IndexLocality,
) {
	t.Helper()
	_, err := e.schema.CreateIndex("ks", table, name, target, locality)
	require.NoError(t, err)
}

func (e *testEnv) table(t *testing.T, name string) *catalog.TableDescriptor {
	t.Helper()
	desc, err := e.schema.Table(context.Background(), "ks", name)
	require.NoError(t, err)
	return desc
}

func (e *testEnv) put(t *testing.T, table string, vals ...types.Datum) {
	t.Helper()
	require.NoError(t, e.store.Put(e.table(t, table), types.Datums(vals)))
}

func (e *testEnv) prepare(t *testing.T, d Descriptor) *PreparedSelect {
	t.Helper()
	d.Keyspace = "ks"
	ps, err := Prepare(context.Background(), e.schema, d)
	require.NoError(t, err)
	return ps
}

// runPages executes the statement until it is exhausted and returns the
// rows of all pages and the number of round trips.
func (e *testEnv) runPages(
	t *testing.T, ps *PreparedSelect, values types.Datums, pageSize int,
) ([]ResultRow, int) {
	t.Helper()
	var rows []ResultRow
	var state []byte
	for pages := 1; ; pages++ {
		rs, err := e.executor().Execute(context.Background(), ps, Options{
			Values:      values,
			PageSize:    pageSize,
			PagingState: state,
		})
		require.NoError(t, err)
		require.False(t, rs.Canceled)
		if pageSize > 0 {
			require.LessOrEqual(t, len(rs.Rows), pageSize)
		}
		rows = append(rows, rs.Rows...)
		if rs.PagingState == nil {
			return rows, pages
		}
		require.Less(t, pages, 100, "paging does not terminate")
		state = rs.PagingState
	}
}

func where(t *testing.T, s string) restrictions.Restrictions {
	t.Helper()
	rs, err := restrictions.ParseConjunction(s)
	require.NoError(t, err)
	return rs
}

func formatRows(rows []ResultRow) string {
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(r.Values.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func i64(v int64) types.Datum  { return types.DInt(v) }
func str(v string) types.Datum { return types.DString(v) }

// makeScenario creates
//
//	t(pk int, ck int, v text, w text), global index by_v on v, local index
//	by_w on w
//	p(pk int, v text), global index p_by_v on v
//
// t holds three partitions of two rows, four of which have v = 'x'. p holds
// six single-row partitions, five of which have v = 'x'.
func makeScenario(t *testing.T, e *testEnv) {
	t.Helper()
	e.createTable(t, "t",
		catalog.ColumnDescriptor{Name: "pk", Type: types.Int, Kind: catalog.PartitionKeyColumn},
		catalog.ColumnDescriptor{Name: "ck", Type: types.Int, Kind: catalog.ClusteringColumn},
		catalog.ColumnDescriptor{Name: "v", Type: types.String},
		catalog.ColumnDescriptor{Name: "w", Type: types.String},
	)
	e.createIndex(t, "t", "by_v", "v", catalog.GlobalIndex)
	e.createIndex(t, "t", "by_w", "w", catalog.LocalIndex)
	for _, r := range []struct {
		pk, ck int64
		v, w   string
	}{
		{1, 1, "x", "p"}, {1, 2, "x", "q"},
		{2, 1, "x", "p"}, {2, 2, "y", "q"},
		{3, 1, "x", "q"}, {3, 2, "y", "p"},
	} {
		e.put(t, "t", i64(r.pk), i64(r.ck), str(r.v), str(r.w))
	}

	e.createTable(t, "p",
		catalog.ColumnDescriptor{Name: "pk", Type: types.Int, Kind: catalog.PartitionKeyColumn},
		catalog.ColumnDescriptor{Name: "v", Type: types.String},
	)
	e.createIndex(t, "p", "p_by_v", "v", catalog.GlobalIndex)
	for pk := int64(1); pk <= 6; pk++ {
		v := "x"
		if pk == 6 {
			v = "y"
		}
		e.put(t, "p", i64(pk), str(v))
	}
}
