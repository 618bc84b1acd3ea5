// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package metric

import (
	"math"
	"sync/atomic"

	"github.com/VividCortex/ewma"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ringdb/ringdb/pkg/util/syncutil"
)

// Metadata holds the name and help text of a metric.
type Metadata struct {
	Name string
	Help string
}

func (m Metadata) opts() prometheus.Opts {
	return prometheus.Opts{Name: m.Name, Help: m.Help}
}

// Counter is a monotonically increasing integer counter. The current value is
// kept locally so that it can be read without going through a scrape.
type Counter struct {
	prometheus.Counter
	count atomic.Int64
}

// NewCounter creates a counter.
func NewCounter(metadata Metadata) *Counter {
	return &Counter{Counter: prometheus.NewCounter(prometheus.CounterOpts(metadata.opts()))}
}

// Inc increments the counter by the given amount.
func (c *Counter) Inc(v int64) {
	if v <= 0 {
		return
	}
	c.count.Add(v)
	c.Counter.Add(float64(v))
}

// Count returns the current value of the counter.
func (c *Counter) Count() int64 {
	return c.count.Load()
}

// CounterFloat64 is a monotonically increasing counter of fractional values.
type CounterFloat64 struct {
	prometheus.Counter
	bits atomic.Uint64
}

// NewCounterFloat64 creates a float counter.
func NewCounterFloat64(metadata Metadata) *CounterFloat64 {
	return &CounterFloat64{Counter: prometheus.NewCounter(prometheus.CounterOpts(metadata.opts()))}
}

// Inc increments the counter by the given amount.
func (c *CounterFloat64) Inc(v float64) {
	if v <= 0 {
		return
	}
	for {
		old := c.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + v)
		if c.bits.CompareAndSwap(old, next) {
			break
		}
	}
	c.Counter.Add(v)
}

// Count returns the current value of the counter.
func (c *CounterFloat64) Count() float64 {
	return math.Float64frombits(c.bits.Load())
}

// MovingAverage is an exponentially weighted moving average exported as a
// gauge.
type MovingAverage struct {
	prometheus.GaugeFunc
	mu struct {
		syncutil.Mutex
		avg ewma.MovingAverage
	}
}

// NewMovingAverage creates a moving average over roughly the last thirty
// samples.
func NewMovingAverage(metadata Metadata) *MovingAverage {
	m := &MovingAverage{}
	m.mu.avg = ewma.NewMovingAverage()
	m.GaugeFunc = prometheus.NewGaugeFunc(prometheus.GaugeOpts(metadata.opts()), m.Value)
	return m
}

// Add adds a sample.
func (m *MovingAverage) Add(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mu.avg.Add(v)
}

// Value returns the current average.
func (m *MovingAverage) Value() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mu.avg.Value()
}
