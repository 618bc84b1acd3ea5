// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package encoding implements an order-preserving binary encoding of the
// scalar values used in partition and clustering keys. The encoded form of
// a tuple of values sorts, bytewise, the same way as the tuple itself.
package encoding

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

// Value markers. bytesMarker precedes an escaped, terminated byte string.
const (
	encodedNull byte = 0x00
	bytesMarker byte = 0x12
	intMarker   byte = 0x20
	floatMarker byte = 0x28
	falseMarker byte = 0x30
	trueMarker  byte = 0x31
	escape      byte = 0x00
	escapedTerm byte = 0x01
	escaped00   byte = 0xff
)

const signBitFlip = uint64(1) << 63

// Type represents the type of a value encoded by this package.
type Type int

const (
	// Unknown is returned for an empty or malformed input.
	Unknown Type = iota
	// Null is an encoded NULL.
	Null
	// Int is an encoded int64.
	Int
	// Float is an encoded float64.
	Float
	// Bytes is an encoded byte string.
	Bytes
	// True is an encoded boolean true.
	True
	// False is an encoded boolean false.
	False
)

// PeekType peeks at the type of the value encoded at the start of b.
func PeekType(b []byte) Type {
	if len(b) == 0 {
		return Unknown
	}
	switch b[0] {
	case encodedNull:
		return Null
	case bytesMarker:
		return Bytes
	case intMarker:
		return Int
	case floatMarker:
		return Float
	case trueMarker:
		return True
	case falseMarker:
		return False
	default:
		return Unknown
	}
}

// EncodeNullAscending encodes a NULL value. NULL sorts before all other
// values.
func EncodeNullAscending(b []byte) []byte {
	return append(b, encodedNull)
}

// EncodeInt64Ascending encodes the int64 value using a big-endian 8 byte
// representation with the sign bit flipped, so that negative values sort
// before positive ones.
func EncodeInt64Ascending(b []byte, v int64) []byte {
	b = append(b, intMarker)
	return binary.BigEndian.AppendUint64(b, uint64(v)^signBitFlip)
}

// DecodeInt64Ascending decodes a value encoded by EncodeInt64Ascending.
func DecodeInt64Ascending(b []byte) ([]byte, int64, error) {
	if len(b) < 9 || b[0] != intMarker {
		return nil, 0, errors.Errorf("did not find int marker in %x", b)
	}
	v := binary.BigEndian.Uint64(b[1:9]) ^ signBitFlip
	return b[9:], int64(v), nil
}

// EncodeFloatAscending encodes a float64 so that the encoding sorts in
// numeric order. Negative values have all their bits inverted and positive
// values only their sign bit.
func EncodeFloatAscending(b []byte, f float64) []byte {
	if f == 0 {
		// Normalize -0 so that it encodes like +0.
		f = 0
	}
	u := math.Float64bits(f)
	b = append(b, floatMarker)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], u)
	if f < 0 {
		onesComplement(buf[:])
	} else {
		buf[0] ^= 0x80
	}
	return append(b, buf[:]...)
}

// DecodeFloatAscending decodes a value encoded by EncodeFloatAscending.
func DecodeFloatAscending(b []byte) ([]byte, float64, error) {
	if len(b) < 9 || b[0] != floatMarker {
		return nil, 0, errors.Errorf("did not find float marker in %x", b)
	}
	var buf [8]byte
	copy(buf[:], b[1:9])
	if buf[0]&0x80 == 0 {
		onesComplement(buf[:])
	} else {
		buf[0] ^= 0x80
	}
	return b[9:], math.Float64frombits(binary.BigEndian.Uint64(buf[:])), nil
}

// EncodeBoolAscending encodes a boolean; false sorts before true.
func EncodeBoolAscending(b []byte, v bool) []byte {
	if v {
		return append(b, trueMarker)
	}
	return append(b, falseMarker)
}

// DecodeBoolAscending decodes a value encoded by EncodeBoolAscending.
func DecodeBoolAscending(b []byte) ([]byte, bool, error) {
	switch PeekType(b) {
	case True:
		return b[1:], true, nil
	case False:
		return b[1:], false, nil
	default:
		return nil, false, errors.Errorf("did not find bool marker in %x", b)
	}
}

// EncodeBytesAscending encodes the []byte value using an escape-based
// encoding. The encoded value is terminated with the sequence
// "\x00\x01" which is guaranteed to not occur elsewhere in the
// encoded value. The encoded bytes are append to the supplied buffer
// and the resulting buffer is returned.
func EncodeBytesAscending(b []byte, data []byte) []byte {
	b = append(b, bytesMarker)
	for {
		// IndexByte is implemented by the go runtime in assembly and is
		// much faster than looping over the bytes in the slice.
		i := bytes.IndexByte(data, escape)
		if i == -1 {
			break
		}
		b = append(b, data[:i]...)
		b = append(b, escape, escaped00)
		data = data[i+1:]
	}
	b = append(b, data...)
	return append(b, escape, escapedTerm)
}

// EncodeStringAscending encodes the string value using an escape-based
// encoding. See EncodeBytesAscending for details.
func EncodeStringAscending(b []byte, s string) []byte {
	return EncodeBytesAscending(b, []byte(s))
}

// DecodeBytesAscending decodes a []byte value from the input buffer
// which was encoded using EncodeBytesAscending. The decoded bytes
// are appended to r. The remainder of the input buffer and the
// decoded []byte are returned.
func DecodeBytesAscending(b []byte, r []byte) ([]byte, []byte, error) {
	if PeekType(b) != Bytes {
		return nil, nil, errors.Errorf("did not find marker %#x in buffer %#x", bytesMarker, b)
	}
	b = b[1:]
	for {
		i := bytes.IndexByte(b, escape)
		if i == -1 {
			return nil, nil, errors.Errorf("did not find terminator %#x in buffer %#x", escape, b)
		}
		if i+1 >= len(b) {
			return nil, nil, errors.Errorf("malformed escape in buffer %#x", b)
		}
		v := b[i+1]
		if v == escapedTerm {
			if r == nil {
				r = b[:i]
			} else {
				r = append(r, b[:i]...)
			}
			return b[i+2:], r, nil
		}
		if v != escaped00 {
			return nil, nil, errors.Errorf("unknown escape sequence: %#x %#x", escape, v)
		}
		r = append(r, b[:i]...)
		r = append(r, 0x00)
		b = b[i+2:]
	}
}
