// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/ringdb/ringdb/pkg/util/syncutil"
)

type tableName struct {
	keyspace, name string
}

// Registry is an in-memory SchemaService. Creating an index replaces the
// table descriptor with a new version and registers the backing table.
type Registry struct {
	mu struct {
		syncutil.RWMutex
		byName map[tableName]*TableDescriptor
		byID   map[uuid.UUID]*TableDescriptor
	}
}

var _ SchemaService = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.mu.byName = make(map[tableName]*TableDescriptor)
	r.mu.byID = make(map[uuid.UUID]*TableDescriptor)
	return r
}

// Table implements the SchemaService interface.
func (r *Registry) Table(_ context.Context, keyspace, name string) (*TableDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if desc, ok := r.mu.byName[tableName{keyspace, name}]; ok {
		return desc, nil
	}
	return nil, unknownTable(keyspace, name)
}

// TableByID implements the SchemaService interface.
func (r *Registry) TableByID(_ context.Context, id uuid.UUID) (*TableDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if desc, ok := r.mu.byID[id]; ok {
		return desc, nil
	}
	return nil, errors.Wrapf(ErrUnknownTable, "id %s", id)
}

// AddTable registers a new table.
func (r *Registry) AddTable(desc *TableDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addTableLocked(desc)
}

func (r *Registry) addTableLocked(desc *TableDescriptor) error {
	r.mu.AssertHeld()
	key := tableName{desc.Keyspace, desc.Name}
	if _, ok := r.mu.byName[key]; ok {
		return errors.Mark(errors.Newf("table %s already exists", desc.QualifiedName()), ErrDuplicateObject)
	}
	r.mu.byName[key] = desc
	r.mu.byID[desc.ID] = desc
	return nil
}

// CreateIndex adds a secondary index on the target column of a table and
// returns the new table descriptor.
func (r *Registry) CreateIndex(
	keyspace, table, name, target string, locality IndexLocality,
) (*TableDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	base, ok := r.mu.byName[tableName{keyspace, table}]
	if !ok {
		return nil, unknownTable(keyspace, table)
	}
	var idx IndexDescriptor
	var err error
	switch locality {
	case GlobalIndex:
		idx, err = NewGlobalIndex(base, name, target)
	case LocalIndex:
		idx, err = NewLocalIndex(base, name, target)
	default:
		err = errors.AssertionFailedf("unknown index locality %d", locality)
	}
	if err != nil {
		return nil, err
	}
	updated, err := base.WithIndex(idx)
	if err != nil {
		return nil, err
	}
	if err := r.addTableLocked(idx.Backing); err != nil {
		return nil, err
	}
	r.mu.byName[tableName{keyspace, table}] = updated
	r.mu.byID[updated.ID] = updated
	return updated, nil
}
