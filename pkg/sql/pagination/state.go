// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package pagination defines the continuation token handed to clients
// between the pages of a SELECT. A token records how far the scan of the
// base table and, for queries served by a global index, the scan of the
// index have progressed.
package pagination

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind tags the phases a State carries a cursor for.
type Kind uint8

const (
	// None is the state of a query that has not started.
	None Kind = iota
	// IndexPhase resumes an index-backed query at the next index batch.
	IndexPhase
	// BasePhase resumes a direct scan of the base table.
	BasePhase
	// Both resumes an index-backed query in the middle of an index batch:
	// the batch starting at the index cursor is read again and base rows up
	// to the base cursor are skipped.
	Both
	numKinds
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case IndexPhase:
		return "index"
	case BasePhase:
		return "base"
	case Both:
		return "both"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// NoLimit is the Remaining value of a query without a global limit.
const NoLimit = math.MaxUint64

// Cursor is a position in the scan of one table.
type Cursor struct {
	// PartitionKey is the encoded partition key of the last row handed out.
	// An empty key is the start of the scan.
	PartitionKey []byte
	// Clustering is the encoded clustering key of the last row. When empty,
	// the partition has been consumed.
	Clustering []byte
	// RowsInPartition counts the rows of the partition returned so far.
	RowsInPartition uint64
}

// IsStart returns whether the cursor points at the start of the scan.
func (c *Cursor) IsStart() bool {
	return len(c.PartitionKey) == 0
}

func (c *Cursor) String() string {
	if c == nil {
		return "<nil>"
	}
	if c.IsStart() {
		return "start"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "key=%x", c.PartitionKey)
	if len(c.Clustering) > 0 {
		fmt.Fprintf(&b, " ck=%x", c.Clustering)
	}
	if c.RowsInPartition > 0 {
		fmt.Fprintf(&b, " rows=%d", c.RowsInPartition)
	}
	return b.String()
}

// State is the decoded form of a continuation token.
type State struct {
	Kind Kind
	// Fingerprint identifies the shape of the statement the state was
	// produced by.
	Fingerprint uint64
	// Remaining is the number of rows the global limit still allows.
	Remaining uint64
	// Index is the index cursor. In the Both kind it is the start of the
	// batch in progress.
	Index *Cursor
	// Base is the base table cursor.
	Base *Cursor
	// BatchLimit is the size of the index batch in progress, set in the
	// Both kind only.
	BatchLimit uint64
}

func (s *State) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s fingerprint=%x", s.Kind, s.Fingerprint)
	if s.Remaining != NoLimit {
		fmt.Fprintf(&b, " remaining=%d", s.Remaining)
	}
	if s.Index != nil {
		fmt.Fprintf(&b, " index={%s}", s.Index)
	}
	if s.Base != nil {
		fmt.Fprintf(&b, " base={%s}", s.Base)
	}
	if s.BatchLimit > 0 {
		fmt.Fprintf(&b, " batch=%d", s.BatchLimit)
	}
	return b.String()
}

// Validate checks that the cursors present agree with the kind.
func (s *State) Validate() error {
	switch s.Kind {
	case None:
		if s.Index != nil || s.Base != nil {
			return invalidf("%s state carries a cursor", s.Kind)
		}
		return nil
	case IndexPhase:
		if s.Index == nil || s.Index.IsStart() {
			return invalidf("%s state without an index cursor", s.Kind)
		}
		if s.Base != nil {
			return invalidf("%s state carries a base cursor", s.Kind)
		}
	case BasePhase:
		if s.Index != nil {
			return invalidf("%s state carries an index cursor", s.Kind)
		}
	case Both:
		if s.Index == nil {
			return invalidf("%s state without an index cursor", s.Kind)
		}
		if s.BatchLimit == 0 {
			return invalidf("%s state without a batch limit", s.Kind)
		}
	default:
		return invalidf("unknown kind %d", s.Kind)
	}
	if s.Kind != Both && s.BatchLimit != 0 {
		return invalidf("%s state carries a batch limit", s.Kind)
	}
	if s.Kind != IndexPhase && (s.Base == nil || s.Base.IsStart()) {
		return invalidf("%s state without a base cursor", s.Kind)
	}
	if s.Remaining == 0 {
		return invalidf("state of an exhausted limit")
	}
	return nil
}

var (
	// ErrInvalidPagingState is returned for tokens that cannot be decoded.
	ErrInvalidPagingState = errors.New("invalid paging state")
	// ErrPagingStateMismatch is returned for tokens produced by another
	// statement.
	ErrPagingStateMismatch = errors.New("paging state does not match the statement")
)

func invalidf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidPagingState)
}
