// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package selectexec

import (
	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/dht"
	"github.com/ringdb/ringdb/pkg/kv"
	"github.com/ringdb/ringdb/pkg/sql/catalog"
	"github.com/ringdb/ringdb/pkg/sql/pagination"
)

// startCursor is the cursor of a scan that has not returned anything yet.
var startCursor = pagination.Cursor{}

// cursorFromPosition turns a read position in table into a paging cursor.
// A nil position is the start of the scan.
func cursorFromPosition(table *catalog.TableDescriptor, p *kv.Position) (*pagination.Cursor, error) {
	if p == nil {
		c := startCursor
		return &c, nil
	}
	c := &pagination.Cursor{
		PartitionKey:    append([]byte(nil), p.Partition.Key...),
		RowsInPartition: p.RowsInPartition,
	}
	if len(p.Clustering) > 0 {
		ck, err := table.EncodeClusteringKey(p.Clustering)
		if err != nil {
			return nil, errors.NewAssertionErrorWithWrappedErrf(err, "encoding cursor of %s", table.QualifiedName())
		}
		c.Clustering = ck
	}
	return c, nil
}

// positionFromCursor is the inverse of cursorFromPosition. Cursors that do
// not decode against table are invalid paging states.
func positionFromCursor(
	table *catalog.TableDescriptor, c *pagination.Cursor, p dht.Partitioner,
) (*kv.Position, error) {
	if c == nil || c.IsStart() {
		return nil, nil
	}
	if _, err := table.DecodePartitionKey(c.PartitionKey); err != nil {
		return nil, invalidCursor(err, table)
	}
	pos := &kv.Position{
		Partition:       dht.Decorate(p, c.PartitionKey),
		RowsInPartition: c.RowsInPartition,
	}
	if len(c.Clustering) > 0 {
		ck, err := table.DecodeClusteringKey(c.Clustering, len(table.ClusteringColumns()))
		if err != nil {
			return nil, invalidCursor(err, table)
		}
		pos.Clustering = ck
	}
	return pos, nil
}

func invalidCursor(err error, table *catalog.TableDescriptor) error {
	return errors.Mark(
		errors.Wrapf(err, "paging state cursor does not address %s", table.QualifiedName()),
		pagination.ErrInvalidPagingState)
}
