// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package dht

import "sort"

// MergeRanges sorts the incoming ranges and merges overlapping ranges.
// Returns true iff all of the ranges are distinct. Note that even if it
// returns true, adjacent ranges might have been merged (i.e. [a, b) is
// distinct from [b,c), but the two are still merged). Empty ranges are
// dropped.
//
// The input ranges are not safe for re-use.
func MergeRanges(ranges PartitionRanges) (PartitionRanges, bool) {
	r := ranges[:0]
	for _, cur := range ranges {
		if !cur.Empty() {
			r = append(r, cur)
		}
	}
	if len(r) == 0 {
		return r, true
	}

	// Sort first on the start position and second on the end position.
	sort.Sort(r)

	// We build up the resulting slice of merged ranges in place. This is safe
	// because "out" grows by at most 1 element on each iteration, staying
	// abreast or behind the iteration over "r".
	out := r[:1]
	distinct := true

	for _, cur := range r[1:] {
		prev := &out[len(out)-1]
		if prev.Unbounded {
			// prev extends to the end of the ring and swallows cur.
			distinct = false
			continue
		}
		if c := cur.Start.Compare(prev.End); c > 0 {
			out = append(out, cur) // [a,b) + [c,any) = [a,b), [c,any)
		} else {
			if c < 0 {
				distinct = false // cur.Start is contained in prev
			}
			if cur.compareEnd(*prev) > 0 {
				prev.End = cur.End // [a,c) + [b,d) = [a,d)
				prev.Unbounded = cur.Unbounded
			}
		}
	}
	return out, distinct
}
