// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/ringdb/ringdb/pkg/dht"
	"github.com/ringdb/ringdb/pkg/kv"
	"github.com/ringdb/ringdb/pkg/kv/memproxy"
	"github.com/ringdb/ringdb/pkg/sql/catalog"
	"github.com/ringdb/ringdb/pkg/sql/selectexec"
	"github.com/ringdb/ringdb/pkg/util/log"
	"github.com/ringdb/ringdb/pkg/util/metric"
)

// maxPages stops a query whose paging does not terminate.
const maxPages = 10000

// env is a loaded fixture.
type env struct {
	fx      *fixture
	schema  *catalog.Registry
	store   *memproxy.Store
	metrics *metric.ReadMetrics
}

func (opts *optsT) setup(ctx context.Context, path string, knobs memproxy.TestingKnobs) (*env, error) {
	fx, err := readFixture(path)
	if err != nil {
		return nil, err
	}
	e, err := opts.setupFixture(ctx, fx, knobs)
	return e, errors.Wrapf(err, "loading %s", path)
}

func (opts *optsT) setupFixture(
	ctx context.Context, fx *fixture, knobs memproxy.TestingKnobs,
) (*env, error) {
	e := &env{
		fx:      fx,
		schema:  catalog.NewRegistry(),
		store:   memproxy.New(dht.Murmur3Partitioner{}, knobs),
		metrics: metric.NewReadMetrics(),
	}
	if err := fx.load(ctx, e.schema, e.store); err != nil {
		return nil, err
	}
	return e, nil
}

// queries returns the queries selected by --query.
func (opts *optsT) queries(fx *fixture) ([]queryFixture, error) {
	if opts.query == "" {
		return fx.Queries, nil
	}
	for _, q := range fx.Queries {
		if q.Name == opts.query {
			return []queryFixture{q}, nil
		}
	}
	return nil, errors.Newf("no query named %q", opts.query)
}

func (e *env) prepare(ctx context.Context, q *queryFixture) (*selectexec.PreparedSelect, error) {
	d, err := q.descriptor(e.fx.Keyspace)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", q.Name)
	}
	ps, err := selectexec.Prepare(ctx, e.schema, d)
	return ps, errors.Wrapf(err, "query %s", q.Name)
}

func (opts *optsT) plan(ctx context.Context, path string, w io.Writer) error {
	e, err := opts.setup(ctx, path, memproxy.TestingKnobs{})
	if err != nil {
		return err
	}
	qs, err := opts.queries(e.fx)
	if err != nil {
		return err
	}
	for i := range qs {
		fmt.Fprintf(w, "-- %s\n", qs[i].Name)
		ps, err := e.prepare(ctx, &qs[i])
		if err != nil {
			fmt.Fprintf(w, "error: %v\n\n", err)
			continue
		}
		fmt.Fprintf(w, "%s\n\n", ps)
	}
	return nil
}

func (opts *optsT) run(ctx context.Context, path string, w io.Writer) error {
	return opts.runWithKnobs(ctx, path, w, memproxy.TestingKnobs{})
}

func (opts *optsT) runWithKnobs(
	ctx context.Context, path string, w io.Writer, knobs memproxy.TestingKnobs,
) error {
	e, err := opts.setup(ctx, path, knobs)
	if err != nil {
		return err
	}
	qs, err := opts.queries(e.fx)
	if err != nil {
		return err
	}
	exec := selectexec.NewExecutor(e.store, e.store.Partitioner(), e.metrics, opts.cfg)
	for i := range qs {
		if err := opts.runQuery(ctx, e, exec, &qs[i], w); err != nil {
			return err
		}
	}
	if opts.metrics {
		reg := metric.NewRegistry()
		if err := reg.AddMetricStruct(e.metrics); err != nil {
			return err
		}
		return reg.PrintAsText(w)
	}
	return nil
}

// querySummary totals the round trips of one query.
type querySummary struct {
	rows, pages, retries int
	stats                selectexec.ExecStats
	capacity             float64
}

func (opts *optsT) runQuery(
	ctx context.Context, e *env, exec *selectexec.Executor, q *queryFixture, w io.Writer,
) error {
	ps, err := e.prepare(ctx, q)
	if err != nil {
		// A statement the engine rejects does not stop the other queries.
		fmt.Fprintf(w, "-- %s\nerror: %v\n\n", q.Name, err)
		return nil
	}
	vals, err := q.values()
	if err != nil {
		return errors.Wrapf(err, "query %s", q.Name)
	}
	pageSize := q.PageSize
	if opts.pageSize != 0 {
		pageSize = opts.pageSize
	}

	fmt.Fprintf(w, "-- %s: %s\n", q.Name, ps.Plan())
	table := newTable(w, ps.Columns(), len(q.GroupBy) > 0)
	var sum querySummary
	var state []byte
	for {
		if sum.pages >= maxPages {
			return errors.AssertionFailedf("query %s: paging did not terminate after %d pages", q.Name, sum.pages)
		}
		rs, retries, err := opts.executeWithRetry(ctx, exec, ps, selectexec.Options{
			Values:      vals,
			PageSize:    pageSize,
			PagingState: state,
			Quorum:      opts.quorum,
		})
		sum.retries += retries
		if err != nil {
			return errors.Wrapf(err, "query %s page %d", q.Name, sum.pages+1)
		}
		if rs.Canceled {
			return errors.Wrapf(ctx.Err(), "query %s", q.Name)
		}
		sum.pages++
		sum.rows += len(rs.Rows)
		sum.capacity += rs.ConsumedCapacity
		sum.stats.Reads += rs.Stats.Reads
		sum.stats.RowsRead += rs.Stats.RowsRead
		sum.stats.IndexRowsRead += rs.Stats.IndexRowsRead
		sum.stats.BytesRead += rs.Stats.BytesRead
		sum.stats.StalePostings += rs.Stats.StalePostings
		for j, r := range rs.Rows {
			cells := make([]string, 0, len(r.Values)+1)
			cells = append(cells, fmt.Sprint(sum.pages))
			for _, d := range r.Values {
				cells = append(cells, d.String())
			}
			if rs.GroupByCells != nil {
				cells = append(cells, rs.GroupByCells[j].String())
			}
			table.Append(cells)
		}
		if rs.PagingState == nil {
			break
		}
		state = rs.PagingState
	}
	table.Render()
	fmt.Fprintln(w, sum)
	fmt.Fprintln(w)
	return nil
}

func (s querySummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(%d rows, %d pages, %d reads, %s read, %.2f RCU",
		s.rows, s.pages, s.stats.Reads, humanize.IBytes(uint64(s.stats.BytesRead)), s.capacity)
	if s.stats.IndexRowsRead > 0 {
		fmt.Fprintf(&b, ", %d index rows", s.stats.IndexRowsRead)
	}
	if s.stats.StalePostings > 0 {
		fmt.Fprintf(&b, ", %d stale postings", s.stats.StalePostings)
	}
	if s.retries > 0 {
		fmt.Fprintf(&b, ", %d retries", s.retries)
	}
	b.WriteString(")")
	return b.String()
}

func newTable(w io.Writer, cols []catalog.ColumnDescriptor, grouped bool) *tablewriter.Table {
	header := make([]string, 0, len(cols)+2)
	header = append(header, "page")
	for _, c := range cols {
		header = append(header, c.Name)
	}
	if grouped {
		header = append(header, "group")
	}
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	return t
}

// executeWithRetry runs one round trip, retrying it with the same paging
// state while it fails with a retryable error.
func (opts *optsT) executeWithRetry(
	ctx context.Context, exec *selectexec.Executor, ps *selectexec.PreparedSelect, o selectexec.Options,
) (*selectexec.ResultSet, int, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.retryPeriod
	b.MaxElapsedTime = 0
	var rs *selectexec.ResultSet
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		var err error
		rs, err = exec.Execute(ctx, ps, o)
		if err == nil {
			return nil
		}
		if !kv.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		log.Warningf(ctx, "attempt %d failed: %v", attempts, err)
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, opts.maxRetries), ctx))
	return rs, attempts - 1, err
}
