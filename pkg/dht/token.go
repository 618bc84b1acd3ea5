// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package dht describes the token ring over which partitions are
// distributed: tokens, the partitioner that maps partition keys to tokens,
// positions on the ring and half-open ranges of positions.
package dht

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/spaolacci/murmur3"
)

// Token is a position on the ring. Tokens are ordered as signed integers.
type Token int64

const (
	// MinToken sorts before every token a partitioner produces. It is only
	// used as a range bound.
	MinToken Token = math.MinInt64
	// MaxToken is the largest token.
	MaxToken Token = math.MaxInt64
)

// Partitioner maps serialized partition keys to tokens.
type Partitioner interface {
	// Name identifies the partitioner.
	Name() string
	// Token returns the token of the given partition key.
	Token(key []byte) Token
}

// Decorate pairs a partition key with its token.
func Decorate(p Partitioner, key []byte) DecoratedKey {
	return DecoratedKey{Token: p.Token(key), Key: key}
}

// Murmur3Partitioner hashes partition keys with the 64 bit murmur3 hash.
type Murmur3Partitioner struct{}

var _ Partitioner = Murmur3Partitioner{}

// Name implements the Partitioner interface.
func (Murmur3Partitioner) Name() string {
	return "Murmur3Partitioner"
}

// Token implements the Partitioner interface.
func (Murmur3Partitioner) Token(key []byte) Token {
	t := Token(int64(murmur3.Sum64(key)))
	if t == MinToken {
		// MinToken is reserved for range bounds.
		return MaxToken
	}
	return t
}

// ByteOrderedPartitioner derives tokens from the leading bytes of the key, so
// that ring order follows key order. It makes placement predictable and is
// meant for tests and tools; real data would cluster on a few tokens.
type ByteOrderedPartitioner struct{}

var _ Partitioner = ByteOrderedPartitioner{}

// Name implements the Partitioner interface.
func (ByteOrderedPartitioner) Name() string {
	return "ByteOrderedPartitioner"
}

// Token implements the Partitioner interface.
func (ByteOrderedPartitioner) Token(key []byte) Token {
	var buf [8]byte
	copy(buf[:], key)
	t := Token(int64(binary.BigEndian.Uint64(buf[:]) ^ (1 << 63)))
	if t == MinToken {
		return MinToken + 1
	}
	return t
}

// DecoratedKey is a partition key together with its token. Decorated keys
// are ordered by token, then by key bytes.
type DecoratedKey struct {
	Token Token
	Key   []byte
}

// Position returns the ring position of the key.
func (k DecoratedKey) Position() RingPosition {
	return RingPosition{Token: k.Token, Key: k.Key}
}

// Compare returns -1, 0 or 1 if k is less than, equal to or greater than o.
func (k DecoratedKey) Compare(o DecoratedKey) int {
	return k.Position().Compare(o.Position())
}

// Equal returns whether both keys designate the same partition.
func (k DecoratedKey) Equal(o DecoratedKey) bool {
	return k.Compare(o) == 0
}

func (k DecoratedKey) String() string {
	return fmt.Sprintf("%d:%x", k.Token, k.Key)
}

// RingPosition is a point of the ring. A position with an empty key sorts
// before every partition key of the same token and stands for the token
// boundary itself.
type RingPosition struct {
	Token Token
	Key   []byte
}

// Compare returns -1, 0 or 1 if p is less than, equal to or greater than o.
func (p RingPosition) Compare(o RingPosition) int {
	switch {
	case p.Token < o.Token:
		return -1
	case p.Token > o.Token:
		return 1
	}
	return bytes.Compare(p.Key, o.Key)
}

// IsTokenBound returns whether the position is the boundary of its token
// rather than a partition key.
func (p RingPosition) IsTokenBound() bool {
	return len(p.Key) == 0
}

// Next returns the smallest position strictly greater than p.
func (p RingPosition) Next() RingPosition {
	next := make([]byte, len(p.Key)+1)
	copy(next, p.Key)
	return RingPosition{Token: p.Token, Key: next}
}

func (p RingPosition) String() string {
	if p.IsTokenBound() {
		if p.Token == MinToken {
			return "min"
		}
		return fmt.Sprintf("%d", p.Token)
	}
	return fmt.Sprintf("%d:%x", p.Token, p.Key)
}
