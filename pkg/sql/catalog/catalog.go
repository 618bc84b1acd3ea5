// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package catalog holds the table, column and index descriptors consumed by
// the query engine, the interface of the service that resolves them, and an
// in-memory implementation of that service.
package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

var (
	// ErrUnknownTable is returned when a table cannot be resolved.
	ErrUnknownTable = errors.New("unknown table")
	// ErrUnknownColumn is returned when a column does not exist in a table.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrIndexSchemaMismatch is returned when the table backing an index does
	// not agree with the schema of the indexed table.
	ErrIndexSchemaMismatch = errors.New("index schema mismatch")
	// ErrDuplicateObject is returned when a table or index already exists.
	ErrDuplicateObject = errors.New("duplicate object")
)

// SchemaService resolves table descriptors. Returned descriptors are
// immutable and may be shared between goroutines.
type SchemaService interface {
	// Table resolves a table by keyspace and name.
	Table(ctx context.Context, keyspace, name string) (*TableDescriptor, error)
	// TableByID resolves a table by ID.
	TableByID(ctx context.Context, id uuid.UUID) (*TableDescriptor, error)
}

func unknownTable(keyspace, name string) error {
	return errors.WithHint(
		errors.Wrapf(ErrUnknownTable, "%s.%s", keyspace, name),
		"check the keyspace and table name",
	)
}
