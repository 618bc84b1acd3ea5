// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/base"
	"github.com/ringdb/ringdb/pkg/kv"
	"github.com/ringdb/ringdb/pkg/kv/memproxy"
	"github.com/stretchr/testify/require"
)

const usersFixture = "testdata/users.yaml"

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	cmd := newRootCmd(&out, &logs)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// section returns the output of the named query.
func section(t *testing.T, out, name string) string {
	t.Helper()
	start := strings.Index(out, "-- "+name+"\n")
	if start < 0 {
		start = strings.Index(out, "-- "+name+":")
	}
	require.GreaterOrEqual(t, start, 0, "no output for %s in:\n%s", name, out)
	rest := out[start+1:]
	if end := strings.Index(rest, "\n-- "); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func TestRun(t *testing.T) {
	out, err := runCLI(t, "run", usersFixture)
	require.NoError(t, err)

	byCity := section(t, out, "by_city")
	require.Contains(t, byCity, "global index users_by_city")
	require.Contains(t, byCity, "(3 rows,")
	require.Contains(t, byCity, "stale postings")

	require.Contains(t, section(t, out, "by_city_limited"), "(2 rows, 2 pages,")
	require.Contains(t, section(t, out, "partition_desc"), "(3 rows, 1 pages,")

	local := section(t, out, "local_score")
	require.Contains(t, local, "local index users_by_score")
	require.Contains(t, local, "(1 rows,")

	filtered := section(t, out, "filtered")
	require.Contains(t, filtered, "primary key with filtering")
	require.Contains(t, filtered, "(4 rows,")

	require.Contains(t, section(t, out, "not_indexed"), "without filtering")
}

func TestRunSingleQuery(t *testing.T) {
	out, err := runCLI(t, "run", "--query", "partition_desc", "--rows", "1", usersFixture)
	require.NoError(t, err)
	require.Contains(t, out, "(3 rows, 3 pages,")
	require.NotContains(t, out, "by_city")

	_, err = runCLI(t, "run", "--query", "nope", usersFixture)
	require.ErrorContains(t, err, `no query named "nope"`)
}

func TestPlan(t *testing.T) {
	out, err := runCLI(t, "plan", usersFixture)
	require.NoError(t, err)
	require.Contains(t, section(t, out, "by_city"), "plan: global index users_by_city")
	require.Contains(t, section(t, out, "partition_desc"), "reversed")
	require.Contains(t, section(t, out, "not_indexed"), "error:")
}

func TestMetrics(t *testing.T) {
	out, err := runCLI(t, "run", "--metrics", "--query", "by_city", usersFixture)
	require.NoError(t, err)
	require.Contains(t, out, "sql_select_rows_read")
	require.Contains(t, out, "sql_select_stale_index_postings")
}

func TestConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_page_size: 1\n"), 0644))

	out, err := runCLI(t, "run", "--config", path, "--query", "partition_desc", usersFixture)
	require.NoError(t, err)
	require.Contains(t, out, "(3 rows, 3 pages,")

	// Flags win over the file.
	out, err = runCLI(t, "run", "--config", path, "--page-size", "2", "--query", "partition_desc", usersFixture)
	require.NoError(t, err)
	require.Contains(t, out, "(3 rows, 2 pages,")

	require.NoError(t, os.WriteFile(path, []byte("default_page_size: 0\n"), 0644))
	_, err = runCLI(t, "run", "--config", path, usersFixture)
	require.ErrorContains(t, err, "invalid configuration")
}

func TestRetry(t *testing.T) {
	var failures atomic.Int32
	failures.Store(2)
	knobs := memproxy.TestingKnobs{
		BeforeRead: func(ctx context.Context, cmd *kv.ReadCommand) error {
			if failures.Add(-1) >= 0 {
				return errors.Wrap(kv.ErrUnavailable, "injected")
			}
			return nil
		},
	}
	opts := &optsT{
		cfg:         base.DefaultConfig(),
		query:       "partition_desc",
		maxRetries:  3,
		retryPeriod: time.Millisecond,
	}
	var out bytes.Buffer
	require.NoError(t, opts.runWithKnobs(context.Background(), usersFixture, &out, knobs))
	require.Contains(t, out.String(), "(3 rows, 1 pages,")
	require.Contains(t, out.String(), "2 retries")

	// Errors that are not retryable fail the query at once.
	var calls atomic.Int32
	knobs.BeforeRead = func(ctx context.Context, cmd *kv.ReadCommand) error {
		calls.Add(1)
		return errors.New("boom")
	}
	out.Reset()
	err := opts.runWithKnobs(context.Background(), usersFixture, &out, knobs)
	require.ErrorContains(t, err, "boom")
	require.Equal(t, int32(1), calls.Load())
}

func TestFixtureErrors(t *testing.T) {
	for _, tc := range []struct {
		doc string
		err string
	}{
		{doc: "tables: []\n", err: "no keyspace"},
		{doc: "keyspace: k\nbogus: 1\n", err: "bogus"},
	} {
		_, err := parseFixture(strings.NewReader(tc.doc))
		require.ErrorContains(t, err, tc.err)
	}

	fx, err := parseFixture(strings.NewReader(`
keyspace: k
tables:
  - name: t
    columns:
      - {name: a, type: int, kind: partition}
    rows:
      - [1, 2]
`))
	require.NoError(t, err)
	opts := &optsT{}
	e, err := opts.setupFixture(context.Background(), fx, memproxy.TestingKnobs{})
	require.Nil(t, e)
	require.ErrorContains(t, err, "expected 1 values, got 2")
}
