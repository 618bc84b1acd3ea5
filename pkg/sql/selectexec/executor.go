// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package selectexec

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/google/uuid"
	"github.com/ringdb/ringdb/pkg/base"
	"github.com/ringdb/ringdb/pkg/dht"
	"github.com/ringdb/ringdb/pkg/kv"
	"github.com/ringdb/ringdb/pkg/sql/catalog"
	"github.com/ringdb/ringdb/pkg/sql/pagination"
	"github.com/ringdb/ringdb/pkg/sql/restrictions"
	"github.com/ringdb/ringdb/pkg/sql/span"
	"github.com/ringdb/ringdb/pkg/sql/types"
	"github.com/ringdb/ringdb/pkg/util/log"
	"github.com/ringdb/ringdb/pkg/util/metric"
	"github.com/ringdb/ringdb/pkg/util/syncutil"
)

// Stats receives the read accounting of executions. It is implemented by
// metric.ReadMetrics.
type Stats interface {
	RecordRead(rows, bytes int64, indexAssisted bool)
	RecordStalePostings(n int64)
	RecordCapacity(units float64)
}

var _ Stats = (*metric.ReadMetrics)(nil)

type noopStats struct{}

func (noopStats) RecordRead(int64, int64, bool) {}
func (noopStats) RecordStalePostings(int64)     {}
func (noopStats) RecordCapacity(float64)        {}

// Options are the per-round-trip inputs of an execution.
type Options struct {
	Values types.Datums
	// PageSize bounds the rows of the round trip. Zero uses the configured
	// default and a negative size disables paging.
	PageSize int
	// PagingState is the token returned by the previous round trip, if any.
	PagingState []byte
	// Timeout overrides the configured read timeout when positive.
	Timeout time.Duration
	// Quorum charges the reads as quorum reads.
	Quorum bool
}

// ResultRow is one row of a result set.
type ResultRow struct {
	// Values are aligned with the result columns.
	Values     types.Datums
	Partition  dht.DecoratedKey
	Clustering types.Datums
}

// ExecStats accounts for the reads of one round trip.
type ExecStats struct {
	Reads         int64
	RowsRead      int64
	IndexRowsRead int64
	BytesRead     int64
	StalePostings int64
}

// ResultSet is the outcome of one round trip.
type ResultSet struct {
	Columns []catalog.ColumnDescriptor
	Rows    []ResultRow
	// GroupByCells holds, per row, the values of the GROUP BY cells.
	GroupByCells []types.Datums
	// PagingState resumes the statement. It is nil once the statement is
	// exhausted.
	PagingState []byte
	// Canceled is set when the caller canceled the round trip. No rows and
	// no paging state are returned then.
	Canceled bool
	// ConsumedCapacity is the read capacity consumed, in read units.
	ConsumedCapacity float64
	Stats            ExecStats
}

// Executor runs prepared statements against a proxy.
type Executor struct {
	proxy       kv.Proxy
	partitioner dht.Partitioner
	stats       Stats
	cfg         base.Config
}

// NewExecutor creates an executor. A nil stats sink discards the
// accounting.
func NewExecutor(
	proxy kv.Proxy, partitioner dht.Partitioner, stats Stats, cfg base.Config,
) *Executor {
	if stats == nil {
		stats = noopStats{}
	}
	return &Executor{proxy: proxy, partitioner: partitioner, stats: stats, cfg: cfg}
}

// Execute runs the statement against proxy with the default configuration.
// Proxies exposing their partitioner are addressed with it.
func (ps *PreparedSelect) Execute(
	ctx context.Context, proxy kv.Proxy, opts Options,
) (*ResultSet, error) {
	var p dht.Partitioner = dht.Murmur3Partitioner{}
	if pp, ok := proxy.(interface{ Partitioner() dht.Partitioner }); ok {
		p = pp.Partitioner()
	}
	return NewExecutor(proxy, p, nil, base.DefaultConfig()).Execute(ctx, ps, opts)
}

// Execute runs one round trip of the statement.
//
// A round trip canceled by the caller returns a result set with Canceled
// set and no error. A round trip that runs out of time fails with an error
// marked kv.ErrReadTimeout. After any error, the paging state passed in
// remains valid and the round trip may be retried with it.
func (e *Executor) Execute(
	ctx context.Context, ps *PreparedSelect, opts Options,
) (*ResultSet, error) {
	if len(opts.Values) != ps.desc.BoundValues {
		return nil, errors.Wrapf(ErrBindCount, "expected %d bound values, got %d",
			ps.desc.BoundValues, len(opts.Values))
	}
	state, err := pagination.Decode(opts.PagingState, ps.fingerprint)
	if err != nil {
		return nil, err
	}
	x, err := e.newExecution(ps, opts, state)
	if err != nil {
		return nil, err
	}

	ctx = logtags.AddTag(ctx, "query", uuid.New().String()[:8])
	parent := ctx
	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}
	log.VEventf(ctx, 2, "executing %s: %s", ps.plan, state)

	if err := x.run(ctx); err != nil {
		if errors.Is(parent.Err(), context.Canceled) {
			log.VEventf(ctx, 2, "canceled after %d rows", len(x.rows))
			return &ResultSet{Columns: ps.columns, Canceled: true}, nil
		}
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, kv.ErrReadTimeout) {
			err = errors.WithSecondaryError(
				errors.Wrapf(kv.ErrReadTimeout, "reading %s", ps.table.QualifiedName()), err)
		}
		return nil, err
	}
	return x.assemble(ctx)
}

// execution is the state of one round trip.
type execution struct {
	*Executor
	ps      *PreparedSelect
	opts    Options
	state   *pagination.State
	builder span.Builder
	timeout time.Duration

	ppl uint64
	// remaining is what the global limit allows, pagination.NoLimit when
	// the statement has none.
	remaining uint64
	// need is the number of rows of this round trip, zero when unbounded.
	need uint64

	rows []kv.Row
	next *pagination.State

	// Per-partition accounting of the rows handed out.
	lastPartition dht.DecoratedKey
	havePartition bool
	partitionRows uint64

	mu struct {
		syncutil.Mutex
		stats    ExecStats
		capacity metric.ReadCapacityCounter
	}
}

func (e *Executor) newExecution(
	ps *PreparedSelect, opts Options, state *pagination.State,
) (*execution, error) {
	x := &execution{
		Executor:  e,
		ps:        ps,
		opts:      opts,
		state:     state,
		builder:   span.MakeBuilder(ps.analysis, e.partitioner, e.cfg.MaxPartitionKeyCombinations),
		timeout:   e.cfg.ReadTimeout,
		remaining: state.Remaining,
	}
	x.mu.capacity.Quorum = opts.Quorum
	if opts.Timeout > 0 {
		x.timeout = opts.Timeout
	}
	var err error
	if x.ppl, err = resolveLimit(ps.desc.PerPartitionLimit, opts.Values, "PER PARTITION LIMIT"); err != nil {
		return nil, err
	}
	if state.Kind == pagination.None {
		limit, err := resolveLimit(ps.desc.Limit, opts.Values, "LIMIT")
		if err != nil {
			return nil, err
		}
		if limit > 0 {
			x.remaining = limit
		}
	}
	if x.remaining != pagination.NoLimit {
		x.need = x.remaining
	}
	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = e.cfg.DefaultPageSize
	}
	if pageSize > 0 && !ps.postOrder && (x.need == 0 || uint64(pageSize) < x.need) {
		x.need = uint64(pageSize)
	}
	return x, nil
}

func resolveLimit(t restrictions.Term, values types.Datums, what string) (uint64, error) {
	if t == nil {
		return 0, nil
	}
	d, err := t.Resolve(values)
	if err != nil {
		return 0, err
	}
	return checkLimit(d, what)
}

func (x *execution) run(ctx context.Context) error {
	switch p := x.ps.plan.(type) {
	case *PrimaryKeyPlan:
		return x.runDirect(ctx, p.Filter, false /* indexAssisted */)
	case *IndexedPlan:
		if p.Binding.Locality == catalog.LocalIndex {
			return x.runDirect(ctx, p.Filter, true /* indexAssisted */)
		}
		return x.runKeyed(ctx, p)
	default:
		return errors.AssertionFailedf("unknown plan %T", p)
	}
}

// read issues one read and accounts for it.
func (x *execution) read(
	ctx context.Context, cmd *kv.ReadCommand, ranges dht.PartitionRanges, indexAssisted bool,
) (*kv.ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmd.Timeout = x.timeout
	res, err := x.proxy.Read(ctx, cmd, ranges)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", cmd.Table.QualifiedName())
	}
	x.account(int64(len(res.Rows)), res.BytesRead, indexAssisted)
	return res, nil
}

func (x *execution) account(rows, bytes int64, indexAssisted bool) {
	x.stats.RecordRead(rows, bytes, indexAssisted)
	x.mu.Lock()
	defer x.mu.Unlock()
	x.mu.stats.Reads++
	x.mu.stats.RowsRead += rows
	if indexAssisted {
		x.mu.stats.IndexRowsRead += rows
	}
	x.mu.stats.BytesRead += bytes
	x.mu.capacity.Add(bytes)
}

// full returns whether the round trip has all the rows it may return.
func (x *execution) full() bool {
	return x.need > 0 && uint64(len(x.rows)) >= x.need
}

// stillNeeded returns the rows missing to fill the round trip, zero when
// unbounded.
func (x *execution) stillNeeded() uint64 {
	if x.need == 0 {
		return 0
	}
	return x.need - uint64(len(x.rows))
}

// admit accounts for a row of partition p against the per-partition limit
// and returns whether the row may be handed out.
func (x *execution) admit(p dht.DecoratedKey) bool {
	if !x.havePartition || !x.lastPartition.Equal(p) {
		x.lastPartition, x.havePartition, x.partitionRows = p, true, 0
	}
	if x.ppl > 0 && x.partitionRows >= x.ppl {
		return false
	}
	x.partitionRows++
	return true
}

// emit records the paging state to hand out with the rows gathered so far.
// Nothing is recorded once the global limit is exhausted.
func (x *execution) emit(kind pagination.Kind, index, base *pagination.Cursor, batchLimit uint64) {
	remaining := x.remaining
	if remaining != pagination.NoLimit {
		remaining -= uint64(len(x.rows))
		if remaining == 0 {
			return
		}
	}
	x.next = &pagination.State{
		Kind:        kind,
		Fingerprint: x.ps.fingerprint,
		Remaining:   remaining,
		Index:       index,
		Base:        base,
		BatchLimit:  batchLimit,
	}
}

func asKVFilter(f *restrictions.BoundFilter) kv.Filter {
	if f == nil {
		return nil
	}
	return f
}
