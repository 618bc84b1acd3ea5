// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package types

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Datum is a typed value. Datums of the same family are totally ordered;
// NULL sorts before every other value.
type Datum interface {
	// ResolvedType returns the type of the datum.
	ResolvedType() *T
	// Compare returns -1, 0 or 1 if the receiver is less than, equal to or
	// greater than other. Comparing datums of different families is an
	// assertion failure.
	Compare(other Datum) int
	// Size returns the approximate in-memory size of the datum, used for
	// read accounting.
	Size() int64
	fmt.Stringer
}

type (
	// DInt is the Int datum.
	DInt int64
	// DFloat is the Float datum.
	DFloat float64
	// DBool is the Bool datum.
	DBool bool
	// DString is the String datum.
	DString string
	// DBytes is the Bytes datum. The string holds the raw bytes.
	DBytes string
	dNull  struct{}
)

// DNull is the NULL datum.
var DNull Datum = dNull{}

// IsNull returns whether d is NULL.
func IsNull(d Datum) bool {
	_, ok := d.(dNull)
	return ok || d == nil
}

// compareNulls handles the comparisons involving NULL. ok is false when
// neither side is NULL.
func compareNulls(d, other Datum) (c int, ok bool) {
	dn, on := IsNull(d), IsNull(other)
	switch {
	case dn && on:
		return 0, true
	case dn:
		return -1, true
	case on:
		return 1, true
	}
	return 0, false
}

func mismatch(d, other Datum) error {
	return errors.AssertionFailedf("cannot compare %s with %s",
		d.ResolvedType(), other.ResolvedType())
}

// ResolvedType implements the Datum interface.
func (DInt) ResolvedType() *T { return Int }

// Compare implements the Datum interface.
func (d DInt) Compare(other Datum) int {
	if c, ok := compareNulls(d, other); ok {
		return c
	}
	o, ok := other.(DInt)
	if !ok {
		panic(mismatch(d, other))
	}
	switch {
	case d < o:
		return -1
	case d > o:
		return 1
	}
	return 0
}

// Size implements the Datum interface.
func (DInt) Size() int64 { return 8 }

func (d DInt) String() string { return strconv.FormatInt(int64(d), 10) }

// ResolvedType implements the Datum interface.
func (DFloat) ResolvedType() *T { return Float }

// Compare implements the Datum interface.
func (d DFloat) Compare(other Datum) int {
	if c, ok := compareNulls(d, other); ok {
		return c
	}
	o, ok := other.(DFloat)
	if !ok {
		panic(mismatch(d, other))
	}
	switch {
	case d < o:
		return -1
	case d > o:
		return 1
	}
	return 0
}

// Size implements the Datum interface.
func (DFloat) Size() int64 { return 8 }

func (d DFloat) String() string { return strconv.FormatFloat(float64(d), 'g', -1, 64) }

// ResolvedType implements the Datum interface.
func (DBool) ResolvedType() *T { return Bool }

// Compare implements the Datum interface.
func (d DBool) Compare(other Datum) int {
	if c, ok := compareNulls(d, other); ok {
		return c
	}
	o, ok := other.(DBool)
	if !ok {
		panic(mismatch(d, other))
	}
	switch {
	case !bool(d) && bool(o):
		return -1
	case bool(d) && !bool(o):
		return 1
	}
	return 0
}

// Size implements the Datum interface.
func (DBool) Size() int64 { return 1 }

func (d DBool) String() string { return strconv.FormatBool(bool(d)) }

// ResolvedType implements the Datum interface.
func (DString) ResolvedType() *T { return String }

// Compare implements the Datum interface.
func (d DString) Compare(other Datum) int {
	if c, ok := compareNulls(d, other); ok {
		return c
	}
	o, ok := other.(DString)
	if !ok {
		panic(mismatch(d, other))
	}
	return bytes.Compare([]byte(d), []byte(o))
}

// Size implements the Datum interface.
func (d DString) Size() int64 { return int64(len(d)) }

func (d DString) String() string { return string(d) }

// ResolvedType implements the Datum interface.
func (DBytes) ResolvedType() *T { return Bytes }

// Compare implements the Datum interface.
func (d DBytes) Compare(other Datum) int {
	if c, ok := compareNulls(d, other); ok {
		return c
	}
	o, ok := other.(DBytes)
	if !ok {
		panic(mismatch(d, other))
	}
	return bytes.Compare([]byte(d), []byte(o))
}

// Size implements the Datum interface.
func (d DBytes) Size() int64 { return int64(len(d)) }

func (d DBytes) String() string { return fmt.Sprintf("0x%x", string(d)) }

// ResolvedType implements the Datum interface.
func (dNull) ResolvedType() *T { return Unknown }

// Compare implements the Datum interface.
func (d dNull) Compare(other Datum) int {
	c, _ := compareNulls(d, other)
	return c
}

// Size implements the Datum interface.
func (dNull) Size() int64 { return 0 }

func (dNull) String() string { return "NULL" }

// Datums is a row of datums.
type Datums []Datum

// Compare compares two rows column by column. A row that is a prefix of the
// other sorts first.
func (ds Datums) Compare(other Datums) int {
	for i := 0; i < len(ds) && i < len(other); i++ {
		if c := ds[i].Compare(other[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(ds) < len(other):
		return -1
	case len(ds) > len(other):
		return 1
	}
	return 0
}

// Size returns the approximate size of the row.
func (ds Datums) Size() int64 {
	var n int64
	for _, d := range ds {
		n += d.Size()
	}
	return n
}

func (ds Datums) String() string {
	var b bytes.Buffer
	b.WriteByte('(')
	for i, d := range ds {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.String())
	}
	b.WriteByte(')')
	return b.String()
}
