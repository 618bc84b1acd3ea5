// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package types

import (
	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/util/encoding"
)

// EncodeKeyDatum appends the order-preserving key encoding of d to b.
func EncodeKeyDatum(b []byte, d Datum) ([]byte, error) {
	if IsNull(d) {
		return encoding.EncodeNullAscending(b), nil
	}
	switch t := d.(type) {
	case DInt:
		return encoding.EncodeInt64Ascending(b, int64(t)), nil
	case DFloat:
		return encoding.EncodeFloatAscending(b, float64(t)), nil
	case DBool:
		return encoding.EncodeBoolAscending(b, bool(t)), nil
	case DString:
		return encoding.EncodeStringAscending(b, string(t)), nil
	case DBytes:
		return encoding.EncodeStringAscending(b, string(t)), nil
	default:
		return nil, errors.AssertionFailedf("unable to encode datum of type %T", d)
	}
}

// EncodeKey encodes a tuple of datums. Encoded tuples compare bytewise the
// way Datums.Compare orders the tuples.
func EncodeKey(ds Datums) ([]byte, error) {
	var b []byte
	for _, d := range ds {
		var err error
		if b, err = EncodeKeyDatum(b, d); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// DecodeKeyDatum decodes a datum of type t from the front of b and returns
// the remaining bytes.
func DecodeKeyDatum(t *T, b []byte) (Datum, []byte, error) {
	if encoding.PeekType(b) == encoding.Null {
		return DNull, b[1:], nil
	}
	switch t.Family() {
	case IntFamily:
		rest, v, err := encoding.DecodeInt64Ascending(b)
		return DInt(v), rest, err
	case FloatFamily:
		rest, v, err := encoding.DecodeFloatAscending(b)
		return DFloat(v), rest, err
	case BoolFamily:
		rest, v, err := encoding.DecodeBoolAscending(b)
		return DBool(v), rest, err
	case StringFamily:
		rest, v, err := encoding.DecodeBytesAscending(b, nil)
		return DString(v), rest, err
	case BytesFamily:
		rest, v, err := encoding.DecodeBytesAscending(b, nil)
		return DBytes(v), rest, err
	default:
		return nil, nil, errors.AssertionFailedf("unable to decode datum of type %s", t)
	}
}

// DecodeKey decodes a tuple of the given types. Trailing bytes are an
// error.
func DecodeKey(ts []*T, b []byte) (Datums, error) {
	ds := make(Datums, len(ts))
	for i, t := range ts {
		d, rest, err := DecodeKeyDatum(t, b)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding column %d", i)
		}
		ds[i] = d
		b = rest
	}
	if len(b) != 0 {
		return nil, errors.Newf("%d trailing bytes after key", len(b))
	}
	return ds, nil
}
