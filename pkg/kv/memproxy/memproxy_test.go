// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memproxy

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/dht"
	"github.com/ringdb/ringdb/pkg/kv"
	"github.com/ringdb/ringdb/pkg/sql/catalog"
	"github.com/ringdb/ringdb/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

func row(pk, ck int64, v string) types.Datums {
	return types.Datums{types.DInt(pk), types.DInt(ck), types.DString(v)}
}

// makeTable creates t(pk int, ck int, v text) with a global index on v and
// three partitions of two rows each.
func makeTable(t *testing.T) (*Store, *catalog.TableDescriptor) {
	t.Helper()
	base, err := catalog.NewTableDescriptor("ks", "t", []catalog.ColumnDescriptor{
		{Name: "pk", Type: types.Int, Kind: catalog.PartitionKeyColumn},
		{Name: "ck", Type: types.Int, Kind: catalog.ClusteringColumn},
		{Name: "v", Type: types.String},
	})
	require.NoError(t, err)
	idx, err := catalog.NewGlobalIndex(base, "by_v", "v")
	require.NoError(t, err)
	desc, err := base.WithIndex(idx)
	require.NoError(t, err)

	s := New(dht.Murmur3Partitioner{}, TestingKnobs{})
	for pk := int64(1); pk <= 3; pk++ {
		for ck := int64(1); ck <= 2; ck++ {
			v := "a"
			if ck == 2 {
				v = "b"
			}
			require.NoError(t, s.Put(desc, row(pk, ck, v)))
		}
	}
	return s, desc
}

func readAll(t *testing.T, s *Store, cmd kv.ReadCommand, ranges dht.PartitionRanges) []kv.Row {
	t.Helper()
	var rows []kv.Row
	for {
		res, err := s.Read(context.Background(), &cmd, ranges)
		require.NoError(t, err)
		rows = append(rows, res.Rows...)
		if !res.MoreData {
			return rows
		}
		cmd.After = res.Last
	}
}

func TestReadFullRing(t *testing.T) {
	s, desc := makeTable(t)
	res, err := s.Read(context.Background(), &kv.ReadCommand{Table: desc},
		dht.PartitionRanges{dht.FullRing()})
	require.NoError(t, err)
	require.Len(t, res.Rows, 6)
	require.False(t, res.MoreData)
	require.Greater(t, res.BytesRead, int64(0))
	for i := 1; i < len(res.Rows); i++ {
		prev, cur := res.Rows[i-1], res.Rows[i]
		c := prev.Partition.Compare(cur.Partition)
		require.LessOrEqual(t, c, 0)
		if c == 0 {
			require.Equal(t, -1, desc.CompareClustering(prev.Clustering, cur.Clustering))
		}
	}
}

func TestReadPagesWithLimit(t *testing.T) {
	s, desc := makeTable(t)
	full := readAll(t, s, kv.ReadCommand{Table: desc}, dht.PartitionRanges{dht.FullRing()})
	for _, limit := range []uint64{1, 2, 4, 5} {
		paged := readAll(t, s, kv.ReadCommand{Table: desc, Limit: limit},
			dht.PartitionRanges{dht.FullRing()})
		require.Equal(t, full, paged, "limit %d", limit)
	}
}

func TestReadMoreDataLookahead(t *testing.T) {
	s, desc := makeTable(t)
	res, err := s.Read(context.Background(), &kv.ReadCommand{Table: desc, Limit: 6},
		dht.PartitionRanges{dht.FullRing()})
	require.NoError(t, err)
	require.Len(t, res.Rows, 6)
	require.False(t, res.MoreData)

	res, err = s.Read(context.Background(), &kv.ReadCommand{Table: desc, Limit: 5},
		dht.PartitionRanges{dht.FullRing()})
	require.NoError(t, err)
	require.Len(t, res.Rows, 5)
	require.True(t, res.MoreData)
	require.NotNil(t, res.Last)
}

func TestReadPerPartitionLimitAndReverse(t *testing.T) {
	s, desc := makeTable(t)
	rows := readAll(t, s, kv.ReadCommand{
		Table: desc,
		Limit: 1,
		Slice: kv.PartitionSlice{PerPartitionLimit: 1, Reversed: true},
	}, dht.PartitionRanges{dht.FullRing()})
	require.Len(t, rows, 3)
	for _, r := range rows {
		require.Equal(t, types.DInt(2), r.Clustering[0])
	}
}

func TestReadSingleKeyAndSlice(t *testing.T) {
	s, desc := makeTable(t)
	key, err := desc.EncodePartitionKey(types.Datums{types.DInt(2)})
	require.NoError(t, err)
	dk := dht.Decorate(s.Partitioner(), key)
	res, err := s.Read(context.Background(), &kv.ReadCommand{
		Table: desc,
		Slice: kv.PartitionSlice{Ranges: []kv.ClusteringRange{{
			Lower: &kv.ClusteringBound{Value: types.DInt(2), Inclusive: true},
		}}},
	}, dht.PartitionRanges{dht.SingleKeyRange(dk)})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.Equal(t, row(2, 2, "b"), res.Rows[0].Values)
}

func TestIndexMaintenance(t *testing.T) {
	s, desc := makeTable(t)
	idx := &desc.Indexes[0]
	key, err := idx.Backing.EncodePartitionKey(types.Datums{types.DString("a")})
	require.NoError(t, err)
	ranges := dht.PartitionRanges{dht.SingleKeyRange(dht.Decorate(s.Partitioner(), key))}
	postings := readAll(t, s, kv.ReadCommand{Table: idx.Backing}, ranges)
	require.Len(t, postings, 3)
	for i := 1; i < len(postings); i++ {
		// Postings are ordered by the token of the base partition.
		require.Less(t, postings[i-1].Clustering[0].Compare(postings[i].Clustering[0]), 0)
	}

	// Updating the indexed value moves the posting.
	require.NoError(t, s.Put(desc, row(1, 1, "c")))
	require.Len(t, readAll(t, s, kv.ReadCommand{Table: idx.Backing}, ranges), 2)

	// A base-only delete leaves a stale posting behind.
	require.NoError(t, s.DeleteBaseOnly(desc, row(2, 1, "a")))
	require.Len(t, readAll(t, s, kv.ReadCommand{Table: idx.Backing}, ranges), 2)
	require.Len(t, readAll(t, s, kv.ReadCommand{Table: desc}, dht.PartitionRanges{dht.FullRing()}), 5)

	require.NoError(t, s.Delete(desc, row(3, 1, "a")))
	require.Len(t, readAll(t, s, kv.ReadCommand{Table: idx.Backing}, ranges), 1)
}

func TestLocalIndexNotMaterialized(t *testing.T) {
	s, desc := makeTable(t)
	local, err := catalog.NewLocalIndex(desc, "by_v_local", "v")
	require.NoError(t, err)
	desc, err = desc.WithIndex(local)
	require.NoError(t, err)
	require.NoError(t, s.Put(desc, row(4, 1, "a")))

	require.Empty(t, readAll(t, s, kv.ReadCommand{Table: local.Backing}, dht.PartitionRanges{dht.FullRing()}))
	// The global index still follows the new row.
	global := &desc.Indexes[0]
	key, err := global.Backing.EncodePartitionKey(types.Datums{types.DString("a")})
	require.NoError(t, err)
	ranges := dht.PartitionRanges{dht.SingleKeyRange(dht.Decorate(s.Partitioner(), key))}
	require.Len(t, readAll(t, s, kv.ReadCommand{Table: global.Backing}, ranges), 4)
}

func TestReadKnobs(t *testing.T) {
	s, desc := makeTable(t)
	injected := errors.Wrap(kv.ErrUnavailable, "replica down")
	s.knobs.BeforeRead = func(context.Context, *kv.ReadCommand) error { return injected }
	_, err := s.Read(context.Background(), &kv.ReadCommand{Table: desc},
		dht.PartitionRanges{dht.FullRing()})
	require.True(t, kv.IsRetryable(err))

	s.knobs = TestingKnobs{ReadLatency: time.Minute}
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	_, err = s.Read(ctx, &kv.ReadCommand{Table: desc}, dht.PartitionRanges{dht.FullRing()})
	require.True(t, errors.Is(err, kv.ErrReadTimeout))

	ctx, cancel = context.WithCancel(context.Background())
	cancel()
	_, err = s.Read(ctx, &kv.ReadCommand{Table: desc}, dht.PartitionRanges{dht.FullRing()})
	require.True(t, errors.Is(err, context.Canceled))
	require.False(t, kv.IsRetryable(err))
	require.Equal(t, int64(3), s.Reads())
}
