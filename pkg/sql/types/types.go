// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package types defines the column types and the typed values (datums) the
// query engine operates on.
package types

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Family groups types that share a representation.
type Family int

const (
	// UnknownFamily is the family of the NULL datum.
	UnknownFamily Family = iota
	// IntFamily holds 64 bit signed integers.
	IntFamily
	// FloatFamily holds 64 bit floating point numbers.
	FloatFamily
	// BoolFamily holds booleans.
	BoolFamily
	// StringFamily holds UTF-8 strings.
	StringFamily
	// BytesFamily holds arbitrary byte strings.
	BytesFamily
)

// T is a column type.
type T struct {
	family Family
	name   string
}

var (
	// Unknown is the type of NULL.
	Unknown = &T{family: UnknownFamily, name: "unknown"}
	// Int is the 64 bit integer type.
	Int = &T{family: IntFamily, name: "int"}
	// Float is the 64 bit floating point type.
	Float = &T{family: FloatFamily, name: "float"}
	// Bool is the boolean type.
	Bool = &T{family: BoolFamily, name: "bool"}
	// String is the text type.
	String = &T{family: StringFamily, name: "text"}
	// Bytes is the blob type.
	Bytes = &T{family: BytesFamily, name: "blob"}
)

// Family returns the family of the type.
func (t *T) Family() Family {
	return t.family
}

// Name returns the canonical name of the type.
func (t *T) Name() string {
	return t.name
}

func (t *T) String() string {
	return t.name
}

// Equivalent returns whether values of both types can be compared.
func (t *T) Equivalent(o *T) bool {
	return t.family == o.family || t.family == UnknownFamily || o.family == UnknownFamily
}

var typesByName = map[string]*T{
	"int":     Int,
	"bigint":  Int,
	"float":   Float,
	"double":  Float,
	"bool":    Bool,
	"boolean": Bool,
	"text":    String,
	"varchar": String,
	"string":  String,
	"blob":    Bytes,
	"bytes":   Bytes,
}

// OfName resolves a type name such as "bigint" or "text".
func OfName(name string) (*T, error) {
	if t, ok := typesByName[strings.ToLower(name)]; ok {
		return t, nil
	}
	return nil, errors.Newf("unknown type %q", name)
}
