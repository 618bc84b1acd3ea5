// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package restrictions models the WHERE clause of a SELECT as a conjunction
// of single-column predicates, and classifies those predicates into
// partition key lookups, a clustering slice and a residual row filter.
package restrictions

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/sql/types"
)

// Op is a comparison operator.
type Op int

const (
	// EQ is "=".
	EQ Op = iota
	// LT is "<".
	LT
	// LE is "<=".
	LE
	// GT is ">".
	GT
	// GE is ">=".
	GE
	// IN is "IN (...)".
	IN
)

func (o Op) String() string {
	switch o {
	case EQ:
		return "="
	case LT:
		return "<"
	case LE:
		return "<="
	case GT:
		return ">"
	case GE:
		return ">="
	case IN:
		return "IN"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// isLowerBound returns whether the operator bounds values from below.
func (o Op) isLowerBound() bool { return o == GT || o == GE }

// isUpperBound returns whether the operator bounds values from above.
func (o Op) isUpperBound() bool { return o == LT || o == LE }

// Term is the right hand side of a predicate: a constant or a placeholder
// bound at execution time.
type Term interface {
	// Resolve returns the value of the term given the bound values.
	Resolve(values types.Datums) (types.Datum, error)
	fmt.Stringer
}

// Constant is a literal value.
type Constant struct {
	Datum types.Datum
}

// Placeholder refers to the bound value at position Idx.
type Placeholder struct {
	Idx int
}

// Resolve implements the Term interface.
func (c Constant) Resolve(types.Datums) (types.Datum, error) {
	return c.Datum, nil
}

func (c Constant) String() string {
	if s, ok := c.Datum.(types.DString); ok {
		return fmt.Sprintf("'%s'", string(s))
	}
	return c.Datum.String()
}

// Resolve implements the Term interface.
func (p Placeholder) Resolve(values types.Datums) (types.Datum, error) {
	if p.Idx < 0 || p.Idx >= len(values) {
		return nil, errors.AssertionFailedf("placeholder $%d out of range, %d values bound", p.Idx+1, len(values))
	}
	return values[p.Idx], nil
}

func (p Placeholder) String() string {
	return fmt.Sprintf("$%d", p.Idx+1)
}

// Const is shorthand for a Constant term.
func Const(d types.Datum) Term {
	return Constant{Datum: d}
}

// Param is shorthand for a Placeholder term; idx is 0-based.
func Param(idx int) Term {
	return Placeholder{Idx: idx}
}

// Restriction is a single-column predicate "column op values". Every
// operator but IN has exactly one value.
type Restriction struct {
	Column string
	Op     Op
	Values []Term
}

// Eq builds "column = value".
func Eq(column string, value Term) Restriction {
	return Restriction{Column: column, Op: EQ, Values: []Term{value}}
}

// Cmp builds "column op value" for a single-valued operator.
func Cmp(column string, op Op, value Term) Restriction {
	return Restriction{Column: column, Op: op, Values: []Term{value}}
}

// In builds "column IN (values...)".
func In(column string, values ...Term) Restriction {
	return Restriction{Column: column, Op: IN, Values: values}
}

func (r Restriction) String() string {
	if r.Op == IN {
		vals := make([]string, len(r.Values))
		for i, v := range r.Values {
			vals[i] = v.String()
		}
		return fmt.Sprintf("%s IN (%s)", r.Column, strings.Join(vals, ", "))
	}
	if len(r.Values) != 1 {
		return fmt.Sprintf("%s %s <%d values>", r.Column, r.Op, len(r.Values))
	}
	return fmt.Sprintf("%s %s %s", r.Column, r.Op, r.Values[0])
}

// Restrictions is a conjunction of predicates.
type Restrictions []Restriction

func (rs Restrictions) String() string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return strings.Join(parts, " AND ")
}

// NumPlaceholders returns one more than the largest placeholder index used,
// or zero when there is none.
func (rs Restrictions) NumPlaceholders() int {
	n := 0
	for _, r := range rs {
		for _, v := range r.Values {
			if p, ok := v.(Placeholder); ok && p.Idx+1 > n {
				n = p.Idx + 1
			}
		}
	}
	return n
}

// Without returns the restrictions other than the one at index i.
func (rs Restrictions) Without(i int) Restrictions {
	out := make(Restrictions, 0, len(rs)-1)
	out = append(out, rs[:i]...)
	return append(out, rs[i+1:]...)
}

// BindTerms resolves the terms against the bound values.
func BindTerms(terms []Term, values types.Datums) (types.Datums, error) {
	out := make(types.Datums, len(terms))
	for i, t := range terms {
		d, err := t.Resolve(values)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
