// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kv

import (
	"fmt"
	"strings"

	"github.com/ringdb/ringdb/pkg/sql/types"
)

// ClusteringBound bounds the clustering column that follows the prefix of a
// ClusteringRange.
type ClusteringBound struct {
	Value     types.Datum
	Inclusive bool
}

// ClusteringRange selects the rows whose clustering key starts with Prefix
// and, when bounds are set, whose next clustering column lies between Lower
// and Upper. Bounds compare values, independently of the column direction.
type ClusteringRange struct {
	Prefix types.Datums
	Lower  *ClusteringBound
	Upper  *ClusteringBound
}

// Contains returns whether the clustering key lies in the range.
func (r *ClusteringRange) Contains(ck types.Datums) bool {
	if len(ck) < len(r.Prefix) {
		return false
	}
	for i, d := range r.Prefix {
		if ck[i].Compare(d) != 0 {
			return false
		}
	}
	if r.Lower == nil && r.Upper == nil {
		return true
	}
	if len(ck) <= len(r.Prefix) {
		return false
	}
	v := ck[len(r.Prefix)]
	if types.IsNull(v) {
		return false
	}
	if r.Lower != nil {
		c := v.Compare(r.Lower.Value)
		if c < 0 || (c == 0 && !r.Lower.Inclusive) {
			return false
		}
	}
	if r.Upper != nil {
		c := v.Compare(r.Upper.Value)
		if c > 0 || (c == 0 && !r.Upper.Inclusive) {
			return false
		}
	}
	return true
}

// IsEmpty returns whether the bounds exclude every value.
func (r *ClusteringRange) IsEmpty() bool {
	if r.Lower == nil || r.Upper == nil {
		return false
	}
	c := r.Lower.Value.Compare(r.Upper.Value)
	return c > 0 || (c == 0 && !(r.Lower.Inclusive && r.Upper.Inclusive))
}

func (r ClusteringRange) String() string {
	var b strings.Builder
	b.WriteString(r.Prefix.String())
	if r.Lower != nil || r.Upper != nil {
		b.WriteByte(' ')
		if r.Lower == nil {
			b.WriteString("(-inf")
		} else if r.Lower.Inclusive {
			fmt.Fprintf(&b, "[%s", r.Lower.Value)
		} else {
			fmt.Fprintf(&b, "(%s", r.Lower.Value)
		}
		b.WriteString(", ")
		if r.Upper == nil {
			b.WriteString("+inf)")
		} else if r.Upper.Inclusive {
			fmt.Fprintf(&b, "%s]", r.Upper.Value)
		} else {
			fmt.Fprintf(&b, "%s)", r.Upper.Value)
		}
	}
	return b.String()
}
