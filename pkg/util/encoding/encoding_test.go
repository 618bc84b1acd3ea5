// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package encoding

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeBytes(t *testing.T) {
	testCases := []struct {
		value   []byte
		encoded []byte
	}{
		{[]byte{0, 1, 'a'}, []byte{0x12, 0x00, 0xff, 1, 'a', 0x00, 0x01}},
		{[]byte{0, 'a'}, []byte{0x12, 0x00, 0xff, 'a', 0x00, 0x01}},
		{[]byte{0, 0xff, 'a'}, []byte{0x12, 0x00, 0xff, 0xff, 'a', 0x00, 0x01}},
		{[]byte{'a'}, []byte{0x12, 'a', 0x00, 0x01}},
		{[]byte{'b'}, []byte{0x12, 'b', 0x00, 0x01}},
		{[]byte{'b', 0}, []byte{0x12, 'b', 0x00, 0xff, 0x00, 0x01}},
		{[]byte{'b', 0, 0}, []byte{0x12, 'b', 0x00, 0xff, 0x00, 0xff, 0x00, 0x01}},
		{[]byte{'b', 0, 0, 'a'}, []byte{0x12, 'b', 0x00, 0xff, 0x00, 0xff, 'a', 0x00, 0x01}},
		{[]byte{'b', 0xff}, []byte{0x12, 'b', 0xff, 0x00, 0x01}},
		{[]byte("hello"), []byte{0x12, 'h', 'e', 'l', 'l', 'o', 0x00, 0x01}},
	}
	for i, c := range testCases {
		enc := EncodeBytesAscending(nil, c.value)
		require.Equal(t, c.encoded, enc, "case %d", i)
		if i > 0 {
			require.Negative(t, bytes.Compare(testCases[i-1].encoded, enc), "case %d", i)
		}
		remainder, dec, err := DecodeBytesAscending(append(enc, 'x'), nil)
		require.NoError(t, err)
		require.Equal(t, c.value, dec)
		require.Equal(t, []byte{'x'}, remainder)
	}
}

func TestDecodeBytesMalformed(t *testing.T) {
	for _, b := range [][]byte{
		nil,
		{0x20},
		{0x12, 'a'},
		{0x12, 'a', 0x00},
		{0x12, 'a', 0x00, 0x07},
	} {
		_, _, err := DecodeBytesAscending(b, nil)
		require.Error(t, err, "%x", b)
	}
}

func TestEncodeDecodeInt64(t *testing.T) {
	values := []int64{math.MinInt64, -1 << 40, -129, -1, 0, 1, 127, 1 << 40, math.MaxInt64}
	var last []byte
	for _, v := range values {
		enc := EncodeInt64Ascending(nil, v)
		require.Equal(t, Int, PeekType(enc))
		if last != nil {
			require.Negative(t, bytes.Compare(last, enc), "%d", v)
		}
		last = enc
		rest, dec, err := DecodeInt64Ascending(enc)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.Equal(t, v, dec)
	}
	_, _, err := DecodeInt64Ascending([]byte{0x20, 1})
	require.Error(t, err)
}

func TestEncodeDecodeFloat(t *testing.T) {
	values := []float64{math.Inf(-1), -1e10, -1.5, -math.SmallestNonzeroFloat64, 0, math.SmallestNonzeroFloat64, 1.5, 1e10, math.Inf(1)}
	var last []byte
	for _, v := range values {
		enc := EncodeFloatAscending(nil, v)
		if last != nil {
			require.Negative(t, bytes.Compare(last, enc), "%v", v)
		}
		last = enc
		rest, dec, err := DecodeFloatAscending(enc)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.Equal(t, v, dec)
	}
	require.Equal(t, EncodeFloatAscending(nil, 0), EncodeFloatAscending(nil, math.Copysign(0, -1)))
}

func TestEncodeDecodeBoolAndNull(t *testing.T) {
	f := EncodeBoolAscending(nil, false)
	tr := EncodeBoolAscending(nil, true)
	n := EncodeNullAscending(nil)
	require.Negative(t, bytes.Compare(n, f))
	require.Negative(t, bytes.Compare(f, tr))
	require.Equal(t, Null, PeekType(n))

	_, v, err := DecodeBoolAscending(tr)
	require.NoError(t, err)
	require.True(t, v)
	_, v, err = DecodeBoolAscending(f)
	require.NoError(t, err)
	require.False(t, v)
	_, _, err = DecodeBoolAscending(n)
	require.Error(t, err)
}
