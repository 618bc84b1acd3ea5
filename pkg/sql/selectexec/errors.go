// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package selectexec

import (
	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/sql/catalog"
	"github.com/ringdb/ringdb/pkg/sql/restrictions"
)

// Errors returned while preparing a statement. None of them is retryable.
var (
	ErrUnsupportedRestriction = restrictions.ErrUnsupportedRestriction
	ErrUnknownColumn          = catalog.ErrUnknownColumn
	ErrUnknownTable           = catalog.ErrUnknownTable

	// ErrAmbiguousIndex is returned when more than one secondary index could
	// serve the restrictions.
	ErrAmbiguousIndex = errors.New("ambiguous index")
	// ErrBindCount is returned when the number of bound values does not
	// match the placeholders of the statement.
	ErrBindCount = errors.New("wrong number of bound values")
	// ErrUnsupportedOrdering is returned for ORDER BY clauses that do not
	// follow the clustering order.
	ErrUnsupportedOrdering = errors.New("unsupported ordering")
	// ErrInvalidLimit is returned for limits that are not strictly positive
	// integers.
	ErrInvalidLimit = errors.New("invalid limit")
	// ErrInvalidGroupBy is returned for GROUP BY cells outside of the
	// projection.
	ErrInvalidGroupBy = errors.New("invalid group by")
)

func unsupportedOrdering(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrUnsupportedOrdering)
}
