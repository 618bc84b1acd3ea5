// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package memproxy implements kv.Proxy over in-memory btrees. It backs
// tests and the demo CLI: there is no replication and no durability, and
// rows are only ever loaded through Put.
package memproxy

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"
	"github.com/google/uuid"
	"github.com/ringdb/ringdb/pkg/dht"
	"github.com/ringdb/ringdb/pkg/kv"
	"github.com/ringdb/ringdb/pkg/sql/catalog"
	"github.com/ringdb/ringdb/pkg/sql/types"
	"github.com/ringdb/ringdb/pkg/util/syncutil"
)

const btreeDegree = 16

// TestingKnobs allow tests to inject failures and delays.
type TestingKnobs struct {
	// BeforeRead is called before every read; a non-nil error fails the read.
	BeforeRead func(ctx context.Context, cmd *kv.ReadCommand) error
	// ReadLatency delays every read. The delay honors cancellation.
	ReadLatency time.Duration
}

// partition holds the rows of one partition ordered by clustering key.
type partition struct {
	key  dht.DecoratedKey
	rows *btree.BTree
}

// Less implements btree.Item. Partitions are ordered by ring position.
func (p *partition) Less(than btree.Item) bool {
	return p.key.Compare(than.(*partition).key) < 0
}

type rowItem struct {
	table  *catalog.TableDescriptor
	ck     types.Datums
	values types.Datums
}

// Less implements btree.Item.
func (r *rowItem) Less(than btree.Item) bool {
	return r.table.CompareClustering(r.ck, than.(*rowItem).ck) < 0
}

type tableData struct {
	desc       *catalog.TableDescriptor
	partitions *btree.BTree
}

// Store is an in-memory kv.Proxy.
type Store struct {
	partitioner dht.Partitioner
	knobs       TestingKnobs

	mu struct {
		syncutil.RWMutex
		tables map[uuid.UUID]*tableData
	}

	reads       atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

var _ kv.Proxy = (*Store)(nil)

// New creates an empty store.
func New(partitioner dht.Partitioner, knobs TestingKnobs) *Store {
	s := &Store{partitioner: partitioner, knobs: knobs}
	s.mu.tables = make(map[uuid.UUID]*tableData)
	return s
}

// Partitioner returns the partitioner used to place partition keys.
func (s *Store) Partitioner() dht.Partitioner {
	return s.partitioner
}

// Reads returns the number of reads served so far.
func (s *Store) Reads() int64 {
	return s.reads.Load()
}

// MaxInFlight returns the largest number of concurrent reads observed.
func (s *Store) MaxInFlight() int64 {
	return s.maxInFlight.Load()
}

// ResetCounters zeroes the read counters.
func (s *Store) ResetCounters() {
	s.reads.Store(0)
	s.maxInFlight.Store(0)
}

func (s *Store) tableLocked(desc *catalog.TableDescriptor) *tableData {
	s.mu.AssertHeld()
	td, ok := s.mu.tables[desc.ID]
	if !ok {
		td = &tableData{partitions: btree.New(btreeDegree)}
		s.mu.tables[desc.ID] = td
	}
	// Keep the latest version of the descriptor: it carries the indexes.
	if td.desc == nil || td.desc.Version < desc.Version {
		td.desc = desc
	}
	return td
}

func (s *Store) splitKey(
	desc *catalog.TableDescriptor, values types.Datums,
) (dht.DecoratedKey, types.Datums, error) {
	if len(values) != len(desc.Columns) {
		return dht.DecoratedKey{}, nil, errors.Newf("%s has %d columns, got %d values",
			desc.QualifiedName(), len(desc.Columns), len(values))
	}
	for i, c := range desc.Columns {
		if err := types.CheckType(c.Type, values[i]); err != nil {
			return dht.DecoratedKey{}, nil, errors.Wrapf(err, "column %s", c.Name)
		}
	}
	npk, nck := len(desc.PartitionKeyColumns()), len(desc.ClusteringColumns())
	key, err := desc.EncodePartitionKey(values[:npk])
	if err != nil {
		return dht.DecoratedKey{}, nil, err
	}
	ck := values[npk : npk+nck]
	for i, d := range ck {
		if types.IsNull(d) {
			return dht.DecoratedKey{}, nil, errors.Newf("clustering column %s cannot be NULL",
				desc.ClusteringColumns()[i].Name)
		}
	}
	return dht.Decorate(s.partitioner, key), ck, nil
}

// Put inserts or replaces a row of the table, given in column order, and
// maintains the rows of the table's secondary indexes.
func (s *Store) Put(desc *catalog.TableDescriptor, values types.Datums) error {
	dk, ck, err := s.splitKey(desc, values)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	td := s.tableLocked(desc)
	if old := s.putLocked(td, dk, ck, values); old != nil {
		s.unindexLocked(td.desc, dk, old)
	}
	return s.indexLocked(td.desc, dk, values)
}

func (s *Store) putLocked(
	td *tableData, dk dht.DecoratedKey, ck, values types.Datums,
) (old types.Datums) {
	s.mu.AssertHeld()
	probe := &partition{key: dk}
	var p *partition
	if item := td.partitions.Get(probe); item != nil {
		p = item.(*partition)
	} else {
		p = &partition{key: dk, rows: btree.New(btreeDegree)}
		td.partitions.ReplaceOrInsert(p)
	}
	prev := p.rows.ReplaceOrInsert(&rowItem{table: td.desc, ck: ck, values: values})
	if prev != nil {
		return prev.(*rowItem).values
	}
	return nil
}

func (s *Store) deleteLocked(td *tableData, dk dht.DecoratedKey, ck types.Datums) (old types.Datums) {
	s.mu.AssertHeld()
	item := td.partitions.Get(&partition{key: dk})
	if item == nil {
		return nil
	}
	p := item.(*partition)
	prev := p.rows.Delete(&rowItem{table: td.desc, ck: ck})
	if p.rows.Len() == 0 {
		td.partitions.Delete(p)
	}
	if prev == nil {
		return nil
	}
	return prev.(*rowItem).values
}

// Delete removes a row of the table and its index entries.
func (s *Store) Delete(desc *catalog.TableDescriptor, values types.Datums) error {
	dk, ck, err := s.splitKey(desc, values)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	td := s.tableLocked(desc)
	if old := s.deleteLocked(td, dk, ck); old != nil {
		s.unindexLocked(td.desc, dk, old)
	}
	return nil
}

// DeleteBaseOnly removes a row of the table but leaves its index entries in
// place, as an index that lags behind its base table would.
func (s *Store) DeleteBaseOnly(desc *catalog.TableDescriptor, values types.Datums) error {
	dk, ck, err := s.splitKey(desc, values)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(s.tableLocked(desc), dk, ck)
	return nil
}

// indexRow builds the backing table row of idx for a base row. Only global
// indexes are materialized: local index queries filter the base partitions.
func indexRow(base *catalog.TableDescriptor, idx *catalog.IndexDescriptor, dk dht.DecoratedKey, values types.Datums) (types.Datums, bool) {
	if idx.Locality != catalog.GlobalIndex {
		return nil, false
	}
	target, err := base.FindColumnByName(idx.Target)
	if err != nil {
		return nil, false
	}
	v := values[base.ColumnOrdinal(target.ID)]
	if types.IsNull(v) {
		return nil, false
	}
	row := make(types.Datums, 0, len(idx.Backing.Columns))
	for _, c := range idx.Backing.Columns {
		switch {
		case c.Name == idx.Target:
			row = append(row, v)
		case c.Name == catalog.IndexTokenColumnName && idx.Locality == catalog.GlobalIndex:
			row = append(row, types.DInt(dk.Token))
		default:
			bc, err := base.FindColumnByName(c.Name)
			if err != nil {
				return nil, false
			}
			row = append(row, values[base.ColumnOrdinal(bc.ID)])
		}
	}
	return row, true
}

func (s *Store) indexLocked(base *catalog.TableDescriptor, dk dht.DecoratedKey, values types.Datums) error {
	s.mu.AssertHeld()
	for i := range base.Indexes {
		idx := &base.Indexes[i]
		row, ok := indexRow(base, idx, dk, values)
		if !ok {
			continue
		}
		idk, ick, err := s.splitKey(idx.Backing, row)
		if err != nil {
			return errors.Wrapf(err, "maintaining index %s", idx.Name)
		}
		s.putLocked(s.tableLocked(idx.Backing), idk, ick, row)
	}
	return nil
}

func (s *Store) unindexLocked(base *catalog.TableDescriptor, dk dht.DecoratedKey, values types.Datums) {
	s.mu.AssertHeld()
	for i := range base.Indexes {
		idx := &base.Indexes[i]
		row, ok := indexRow(base, idx, dk, values)
		if !ok {
			continue
		}
		idk, ick, err := s.splitKey(idx.Backing, row)
		if err != nil {
			continue
		}
		s.deleteLocked(s.tableLocked(idx.Backing), idk, ick)
	}
}
