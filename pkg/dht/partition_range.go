// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package dht

import (
	"fmt"
	"strings"
)

// PartitionRange is the half-open range [Start, End) of ring positions. An
// unbounded range extends to the end of the ring and ignores End.
type PartitionRange struct {
	Start     RingPosition
	End       RingPosition
	Unbounded bool
}

// FullRing returns the range covering every partition.
func FullRing() PartitionRange {
	return PartitionRange{Start: RingPosition{Token: MinToken}, Unbounded: true}
}

// SingleKeyRange returns the range covering exactly one partition.
func SingleKeyRange(k DecoratedKey) PartitionRange {
	start := k.Position()
	return PartitionRange{Start: start, End: start.Next()}
}

// Contains returns whether the position lies in the range.
func (r PartitionRange) Contains(p RingPosition) bool {
	if r.Start.Compare(p) > 0 {
		return false
	}
	return r.Unbounded || p.Compare(r.End) < 0
}

// Empty returns whether the range contains no position.
func (r PartitionRange) Empty() bool {
	return !r.Unbounded && r.Start.Compare(r.End) >= 0
}

// compareEnd orders range ends with an unbounded end sorting last.
func (r PartitionRange) compareEnd(o PartitionRange) int {
	switch {
	case r.Unbounded && o.Unbounded:
		return 0
	case r.Unbounded:
		return 1
	case o.Unbounded:
		return -1
	}
	return r.End.Compare(o.End)
}

// endsBefore returns whether every position of r precedes p.
func (r PartitionRange) endsBefore(p RingPosition) bool {
	return !r.Unbounded && r.End.Compare(p) <= 0
}

func (r PartitionRange) String() string {
	if r.Unbounded {
		return fmt.Sprintf("[%s, max)", r.Start)
	}
	return fmt.Sprintf("[%s, %s)", r.Start, r.End)
}

// PartitionRanges is an ordered list of ranges. It implements
// sort.Interface.
type PartitionRanges []PartitionRange

func (rs PartitionRanges) Len() int      { return len(rs) }
func (rs PartitionRanges) Swap(i, j int) { rs[i], rs[j] = rs[j], rs[i] }
func (rs PartitionRanges) Less(i, j int) bool {
	if c := rs[i].Start.Compare(rs[j].Start); c != 0 {
		return c < 0
	}
	return rs[i].compareEnd(rs[j]) < 0
}

// Contains returns whether any of the ranges contains the position.
func (rs PartitionRanges) Contains(p RingPosition) bool {
	for _, r := range rs {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

// TrimBefore returns the ranges restricted to positions at or after p. The
// input must be sorted and non-overlapping; it is not modified.
func (rs PartitionRanges) TrimBefore(p RingPosition) PartitionRanges {
	out := make(PartitionRanges, 0, len(rs))
	for _, r := range rs {
		if r.endsBefore(p) {
			continue
		}
		if r.Start.Compare(p) < 0 {
			r.Start = p
		}
		out = append(out, r)
	}
	return out
}

// TrimAfter returns the ranges restricted to positions strictly before p.
// The input must be sorted and non-overlapping; it is not modified.
func (rs PartitionRanges) TrimAfter(p RingPosition) PartitionRanges {
	out := make(PartitionRanges, 0, len(rs))
	for _, r := range rs {
		if r.Start.Compare(p) >= 0 {
			break
		}
		if r.Unbounded || r.End.Compare(p) > 0 {
			r.End = p
			r.Unbounded = false
		}
		out = append(out, r)
	}
	return out
}

func (rs PartitionRanges) String() string {
	var b strings.Builder
	for i, r := range rs {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(r.String())
	}
	return b.String()
}
