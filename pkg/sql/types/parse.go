// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package types

import (
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
)

// ParseDatum converts a value decoded from a fixture (YAML or JSON) to a
// datum of type t. A nil value yields NULL.
func ParseDatum(t *T, v interface{}) (Datum, error) {
	if v == nil {
		return DNull, nil
	}
	switch t.Family() {
	case IntFamily:
		switch x := v.(type) {
		case int:
			return DInt(x), nil
		case int64:
			return DInt(x), nil
		case float64:
			if x != math.Trunc(x) {
				break
			}
			return DInt(int64(x)), nil
		case string:
			i, err := strconv.ParseInt(x, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %q as %s", x, t)
			}
			return DInt(i), nil
		}
	case FloatFamily:
		switch x := v.(type) {
		case int:
			return DFloat(x), nil
		case int64:
			return DFloat(x), nil
		case float64:
			return DFloat(x), nil
		case string:
			f, err := strconv.ParseFloat(x, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %q as %s", x, t)
			}
			return DFloat(f), nil
		}
	case BoolFamily:
		switch x := v.(type) {
		case bool:
			return DBool(x), nil
		case string:
			b, err := strconv.ParseBool(x)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %q as %s", x, t)
			}
			return DBool(b), nil
		}
	case StringFamily:
		if x, ok := v.(string); ok {
			return DString(x), nil
		}
	case BytesFamily:
		switch x := v.(type) {
		case string:
			return DBytes(x), nil
		case []byte:
			return DBytes(x), nil
		}
	}
	return nil, errors.Newf("cannot use %v (%T) as %s", v, v, t)
}

// CheckType verifies that d can be stored in a column of type t. NULL is
// accepted for every type.
func CheckType(t *T, d Datum) error {
	if IsNull(d) || d.ResolvedType().Family() == t.Family() {
		return nil
	}
	return errors.Newf("value %s of type %s does not match column type %s",
		d, d.ResolvedType(), t)
}
