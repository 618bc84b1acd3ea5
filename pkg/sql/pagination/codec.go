// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package pagination

import (
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	magic   = 0xa7
	version = 1
)

// Field numbers of the encoded state.
const (
	fieldKind        protowire.Number = 1
	fieldFingerprint protowire.Number = 2
	fieldRemaining   protowire.Number = 3
	fieldIndex       protowire.Number = 4
	fieldBase        protowire.Number = 5
	fieldBatchLimit  protowire.Number = 6
)

// Field numbers of an encoded cursor.
const (
	cursorKey        protowire.Number = 1
	cursorClustering protowire.Number = 2
	cursorRows       protowire.Number = 3
)

// Encode serializes the state. A None state encodes to nil: the query is
// exhausted.
func Encode(s *State) ([]byte, error) {
	if s == nil || s.Kind == None {
		return nil, nil
	}
	if err := s.Validate(); err != nil {
		return nil, errors.NewAssertionErrorWithWrappedErrf(err, "encoding paging state")
	}
	b := []byte{magic, version}
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.Kind))
	b = protowire.AppendTag(b, fieldFingerprint, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, s.Fingerprint)
	if s.Remaining != NoLimit {
		b = protowire.AppendTag(b, fieldRemaining, protowire.VarintType)
		b = protowire.AppendVarint(b, s.Remaining)
	}
	if s.Index != nil {
		b = protowire.AppendTag(b, fieldIndex, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeCursor(s.Index))
	}
	if s.Base != nil {
		b = protowire.AppendTag(b, fieldBase, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeCursor(s.Base))
	}
	if s.BatchLimit > 0 {
		b = protowire.AppendTag(b, fieldBatchLimit, protowire.VarintType)
		b = protowire.AppendVarint(b, s.BatchLimit)
	}
	return b, nil
}

func encodeCursor(c *Cursor) []byte {
	var b []byte
	if len(c.PartitionKey) > 0 {
		b = protowire.AppendTag(b, cursorKey, protowire.BytesType)
		b = protowire.AppendBytes(b, c.PartitionKey)
	}
	if len(c.Clustering) > 0 {
		b = protowire.AppendTag(b, cursorClustering, protowire.BytesType)
		b = protowire.AppendBytes(b, c.Clustering)
	}
	if c.RowsInPartition > 0 {
		b = protowire.AppendTag(b, cursorRows, protowire.VarintType)
		b = protowire.AppendVarint(b, c.RowsInPartition)
	}
	return b
}

// Decode parses a token produced by Encode and checks it against the
// fingerprint of the executing statement. An empty token decodes to a None
// state.
func Decode(b []byte, fingerprint uint64) (*State, error) {
	if len(b) == 0 {
		return &State{Kind: None, Fingerprint: fingerprint, Remaining: NoLimit}, nil
	}
	if len(b) < 2 || b[0] != magic {
		return nil, invalidf("bad header")
	}
	if b[1] != version {
		return nil, errors.WithHint(invalidf("unsupported version %d", b[1]),
			"the token was produced by another server version; restart the query")
	}
	s := &State{Remaining: NoLimit}
	var sawKind, sawFingerprint bool
	b = b[2:]
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, wireErr(n)
		}
		b = b[n:]
		switch {
		case num == fieldKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, wireErr(n)
			}
			if v >= uint64(numKinds) {
				return nil, invalidf("unknown kind %d", v)
			}
			s.Kind, sawKind, b = Kind(v), true, b[n:]
		case num == fieldFingerprint && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, wireErr(n)
			}
			s.Fingerprint, sawFingerprint, b = v, true, b[n:]
		case num == fieldRemaining && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, wireErr(n)
			}
			s.Remaining, b = v, b[n:]
		case num == fieldBatchLimit && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, wireErr(n)
			}
			s.BatchLimit, b = v, b[n:]
		case (num == fieldIndex || num == fieldBase) && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, wireErr(n)
			}
			c, err := decodeCursor(v)
			if err != nil {
				return nil, err
			}
			if num == fieldIndex {
				s.Index = c
			} else {
				s.Base = c
			}
			b = b[n:]
		default:
			return nil, invalidf("unexpected field %d of type %d", num, typ)
		}
	}
	if !sawKind || !sawFingerprint {
		return nil, invalidf("missing kind or fingerprint")
	}
	if s.Kind == None {
		return nil, invalidf("encoded %s state", s.Kind)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Fingerprint != fingerprint {
		return nil, errors.WithDetailf(ErrPagingStateMismatch,
			"token fingerprint %x, statement fingerprint %x", s.Fingerprint, fingerprint)
	}
	return s, nil
}

func decodeCursor(b []byte) (*Cursor, error) {
	c := &Cursor{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, wireErr(n)
		}
		b = b[n:]
		switch {
		case (num == cursorKey || num == cursorClustering) && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, wireErr(n)
			}
			v = append([]byte(nil), v...)
			if num == cursorKey {
				c.PartitionKey = v
			} else {
				c.Clustering = v
			}
			b = b[n:]
		case num == cursorRows && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, wireErr(n)
			}
			c.RowsInPartition, b = v, b[n:]
		default:
			return nil, invalidf("unexpected cursor field %d of type %d", num, typ)
		}
	}
	return c, nil
}

func wireErr(n int) error {
	return errors.Mark(errors.Wrap(protowire.ParseError(n), "decoding paging state"), ErrInvalidPagingState)
}
