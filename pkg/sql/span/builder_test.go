// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package span

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/dht"
	"github.com/ringdb/ringdb/pkg/kv"
	"github.com/ringdb/ringdb/pkg/sql/catalog"
	"github.com/ringdb/ringdb/pkg/sql/restrictions"
	"github.com/ringdb/ringdb/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

func makeTable(t *testing.T) *catalog.TableDescriptor {
	t.Helper()
	base, err := catalog.NewTableDescriptor("ks", "t", []catalog.ColumnDescriptor{
		{Name: "pk1", Type: types.Int, Kind: catalog.PartitionKeyColumn},
		{Name: "pk2", Type: types.String, Kind: catalog.PartitionKeyColumn},
		{Name: "ck1", Type: types.Int, Kind: catalog.ClusteringColumn},
		{Name: "ck2", Type: types.Int, Kind: catalog.ClusteringColumn, Direction: catalog.Descending},
		{Name: "v", Type: types.String},
	})
	require.NoError(t, err)
	for _, target := range []string{"v", "pk2"} {
		idx, err := catalog.NewGlobalIndex(base, "by_"+target, target)
		require.NoError(t, err)
		base, err = base.WithIndex(idx)
		require.NoError(t, err)
	}
	return base
}

// parseArgs turns the args of a directive into bound values: integers,
// null, and strings for anything else.
func parseArgs(d *datadriven.TestData) types.Datums {
	var vals types.Datums
	for _, arg := range d.CmdArgs {
		if arg.Key != "args" {
			continue
		}
		for _, v := range arg.Vals {
			if i, err := strconv.ParseInt(v, 10, 64); err == nil {
				vals = append(vals, types.DInt(i))
			} else if v == "null" {
				vals = append(vals, types.DNull)
			} else {
				vals = append(vals, types.DString(v))
			}
		}
	}
	return vals
}

func formatRanges(table *catalog.TableDescriptor, ranges dht.PartitionRanges) string {
	var b strings.Builder
	for _, r := range ranges {
		if !r.Unbounded && r.End.Compare(r.Start.Next()) == 0 {
			key, err := table.DecodePartitionKey(r.Start.Key)
			if err != nil {
				fmt.Fprintf(&b, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(&b, "{%s}\n", key)
			continue
		}
		fmt.Fprintf(&b, "%s\n", r)
	}
	return b.String()
}

func formatSlice(slice []kv.ClusteringRange) string {
	if len(slice) == 0 {
		return "whole partitions\n"
	}
	var b strings.Builder
	for _, r := range slice {
		fmt.Fprintf(&b, "%s\n", r)
	}
	return b.String()
}

func TestBuilder(t *testing.T) {
	table := makeTable(t)
	datadriven.RunTest(t, "testdata/builder", func(t *testing.T, d *datadriven.TestData) string {
		rs, err := restrictions.ParseConjunction(d.Input)
		require.NoError(t, err)
		a, err := restrictions.Analyze(table, rs)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		b := MakeBuilder(a, dht.ByteOrderedPartitioner{}, 4)
		values := parseArgs(d)

		switch d.Cmd {
		case "ranges":
			ranges, err := b.RangesFor(values)
			if err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			return formatRanges(table, ranges)

		case "slice":
			slice, err := b.SliceFor(values)
			if err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			return formatSlice(slice)

		case "index":
			var name string
			d.ScanArgs(t, "name", &name)
			idx, ok := table.FindIndexByName(name)
			require.True(t, ok)
			ranges, err := b.IndexRanges(idx, values)
			if err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			slice, err := b.IndexSlice(idx, values)
			if err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			return formatRanges(idx.Backing, ranges) + formatSlice(slice)

		default:
			return fmt.Sprintf("unknown command %s", d.Cmd)
		}
	})
}

func TestTooManyKeys(t *testing.T) {
	table := makeTable(t)
	rs, err := restrictions.ParseConjunction("pk1 IN (1, 2, 3) AND pk2 IN ('a', 'b')")
	require.NoError(t, err)
	a, err := restrictions.Analyze(table, rs)
	require.NoError(t, err)

	b := MakeBuilder(a, dht.Murmur3Partitioner{}, 5)
	_, err = b.RangesFor(nil)
	require.True(t, errors.Is(err, ErrTooManyKeys))

	b = MakeBuilder(a, dht.Murmur3Partitioner{}, 0)
	keys, err := b.PartitionKeys(nil)
	require.NoError(t, err)
	require.Len(t, keys, 6)
	require.Equal(t, "(1, a)", keys[0].String())
	require.Equal(t, "(3, b)", keys[5].String())

	ranges, err := b.RangesFor(nil)
	require.NoError(t, err)
	require.Len(t, ranges, 6)
	for _, k := range keys {
		enc, err := table.EncodePartitionKey(k)
		require.NoError(t, err)
		require.True(t, ranges.Contains(dht.Decorate(dht.Murmur3Partitioner{}, enc).Position()))
	}
}
