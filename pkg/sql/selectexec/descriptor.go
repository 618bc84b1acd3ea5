// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package selectexec

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/sql/restrictions"
)

// OrderingColumn is one term of an ORDER BY clause.
type OrderingColumn struct {
	Column     string
	Descending bool
}

func (o OrderingColumn) String() string {
	if o.Descending {
		return o.Column + " DESC"
	}
	return o.Column + " ASC"
}

// ParseOrdering parses an ORDER BY clause of the form "a, b DESC".
func ParseOrdering(s string) ([]OrderingColumn, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []OrderingColumn
	for _, term := range strings.Split(s, ",") {
		fields := strings.Fields(term)
		switch {
		case len(fields) == 1:
			out = append(out, OrderingColumn{Column: fields[0]})
		case len(fields) == 2 && strings.EqualFold(fields[1], "asc"):
			out = append(out, OrderingColumn{Column: fields[0]})
		case len(fields) == 2 && strings.EqualFold(fields[1], "desc"):
			out = append(out, OrderingColumn{Column: fields[0], Descending: true})
		default:
			return nil, errors.Mark(errors.Newf("invalid ORDER BY term %q", strings.TrimSpace(term)),
				restrictions.ErrSyntax)
		}
	}
	return out, nil
}

// Descriptor describes a SELECT against a single table.
type Descriptor struct {
	Keyspace string
	Table    string
	// Projection lists the output columns. An empty projection selects
	// every column in table order.
	Projection []string
	Where      restrictions.Restrictions
	OrderBy    []OrderingColumn
	// Limit and PerPartitionLimit are nil when the statement has none.
	Limit             restrictions.Term
	PerPartitionLimit restrictions.Term
	// GroupBy holds positions in the projection whose values are handed
	// back with every row.
	GroupBy        []int
	AllowFiltering bool
	// BoundValues is the number of values the statement is executed with.
	BoundValues int
}

// numPlaceholders returns one more than the largest placeholder index of
// the restrictions and limits.
func (d *Descriptor) numPlaceholders() int {
	n := d.Where.NumPlaceholders()
	for _, t := range []restrictions.Term{d.Limit, d.PerPartitionLimit} {
		if p, ok := t.(restrictions.Placeholder); ok && p.Idx+1 > n {
			n = p.Idx + 1
		}
	}
	return n
}

func (d *Descriptor) clone() Descriptor {
	cpy := *d
	cpy.Projection = append([]string(nil), d.Projection...)
	cpy.Where = append(restrictions.Restrictions(nil), d.Where...)
	cpy.OrderBy = append([]OrderingColumn(nil), d.OrderBy...)
	cpy.GroupBy = append([]int(nil), d.GroupBy...)
	return cpy
}

// String renders the statement. Constants are included, bound values are
// not.
func (d *Descriptor) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(d.Projection) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(d.Projection, ", "))
	}
	fmt.Fprintf(&b, " FROM %s.%s", d.Keyspace, d.Table)
	if len(d.Where) > 0 {
		fmt.Fprintf(&b, " WHERE %s", d.Where)
	}
	if len(d.GroupBy) > 0 {
		cells := make([]string, len(d.GroupBy))
		for i, g := range d.GroupBy {
			cells[i] = fmt.Sprint(g)
		}
		fmt.Fprintf(&b, " GROUP BY @%s", strings.Join(cells, ", @"))
	}
	if len(d.OrderBy) > 0 {
		terms := make([]string, len(d.OrderBy))
		for i, o := range d.OrderBy {
			terms[i] = o.String()
		}
		fmt.Fprintf(&b, " ORDER BY %s", strings.Join(terms, ", "))
	}
	if d.PerPartitionLimit != nil {
		fmt.Fprintf(&b, " PER PARTITION LIMIT %s", d.PerPartitionLimit)
	}
	if d.Limit != nil {
		fmt.Fprintf(&b, " LIMIT %s", d.Limit)
	}
	if d.AllowFiltering {
		b.WriteString(" ALLOW FILTERING")
	}
	return b.String()
}
