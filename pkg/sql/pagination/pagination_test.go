// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package pagination

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/kr/pretty"
	"github.com/stretchr/testify/require"
)

func parseKind(t *testing.T, s string) Kind {
	for k := None; k < numKinds; k++ {
		if k.String() == s {
			return k
		}
	}
	t.Fatalf("unknown kind %q", s)
	return None
}

// parseCursor parses "start" or the (key, clustering, rows) triple, with
// keys in hex and "-" for an empty clustering key.
func parseCursor(t *testing.T, vals []string) *Cursor {
	if len(vals) == 1 && vals[0] == "start" {
		return &Cursor{}
	}
	require.Len(t, vals, 3)
	c := &Cursor{}
	var err error
	c.PartitionKey, err = hex.DecodeString(vals[0])
	require.NoError(t, err)
	if vals[1] != "-" {
		c.Clustering, err = hex.DecodeString(vals[1])
		require.NoError(t, err)
	}
	c.RowsInPartition, err = strconv.ParseUint(vals[2], 10, 64)
	require.NoError(t, err)
	return c
}

func TestCodec(t *testing.T) {
	datadriven.RunTest(t, "testdata/codec", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "encode":
			var kind string
			s := &State{Remaining: NoLimit}
			d.ScanArgs(t, "kind", &kind)
			s.Kind = parseKind(t, kind)
			d.ScanArgs(t, "fingerprint", &s.Fingerprint)
			d.MaybeScanArgs(t, "remaining", &s.Remaining)
			d.MaybeScanArgs(t, "batch", &s.BatchLimit)
			var vals []string
			if d.MaybeScanArgs(t, "index", &vals) {
				s.Index = parseCursor(t, vals)
			}
			if d.MaybeScanArgs(t, "base", &vals) {
				s.Base = parseCursor(t, vals)
			}
			b, err := Encode(s)
			if err != nil {
				return fmt.Sprintf("error: assertion failure=%t", errors.HasAssertionFailure(err))
			}
			decoded, err := Decode(b, s.Fingerprint)
			require.NoError(t, err)
			if diff := pretty.Diff(s, decoded); len(diff) > 0 {
				t.Fatalf("round trip mismatch:\n%s", strings.Join(diff, "\n"))
			}
			return fmt.Sprintf("% x\n%s", b, decoded)

		case "decode":
			var fp uint64
			d.ScanArgs(t, "fingerprint", &fp)
			b, err := hex.DecodeString(strings.Join(strings.Fields(d.Input), ""))
			require.NoError(t, err)
			s, err := Decode(b, fp)
			if err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			return s.String()

		default:
			return fmt.Sprintf("unknown command %s", d.Cmd)
		}
	})
}

func TestDecodeErrorsAreMarked(t *testing.T) {
	s := &State{
		Kind:        BasePhase,
		Fingerprint: 1,
		Remaining:   NoLimit,
		Base:        &Cursor{PartitionKey: []byte("k")},
	}
	b, err := Encode(s)
	require.NoError(t, err)

	_, err = Decode(b, 2)
	require.True(t, errors.Is(err, ErrPagingStateMismatch))
	require.False(t, errors.Is(err, ErrInvalidPagingState))

	for i := 1; i < len(b); i++ {
		_, err := Decode(b[:i], 1)
		require.True(t, errors.Is(err, ErrInvalidPagingState), "prefix %d: %v", i, err)
	}
}

func TestValidate(t *testing.T) {
	key := &Cursor{PartitionKey: []byte{1}}
	testCases := []struct {
		name  string
		state State
		ok    bool
	}{
		{"none", State{Remaining: NoLimit}, true},
		{"none with cursor", State{Remaining: NoLimit, Base: key}, false},
		{"base", State{Kind: BasePhase, Remaining: 3, Base: key}, true},
		{"base without cursor", State{Kind: BasePhase, Remaining: 3}, false},
		{"base with start cursor", State{Kind: BasePhase, Remaining: 3, Base: &Cursor{}}, false},
		{"index", State{Kind: IndexPhase, Remaining: NoLimit, Index: key}, true},
		{"index at start", State{Kind: IndexPhase, Remaining: NoLimit, Index: &Cursor{}}, false},
		{"index with base", State{Kind: IndexPhase, Remaining: NoLimit, Index: key, Base: key}, false},
		{"both", State{Kind: Both, Remaining: 1, Index: &Cursor{}, Base: key, BatchLimit: 2}, true},
		{"both without batch", State{Kind: Both, Remaining: 1, Index: key, Base: key}, false},
		{"batch outside both", State{Kind: BasePhase, Remaining: 1, Base: key, BatchLimit: 2}, false},
		{"exhausted limit", State{Kind: BasePhase, Base: key}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.state.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.True(t, errors.Is(err, ErrInvalidPagingState), "%v", err)
			}
		})
	}
}
