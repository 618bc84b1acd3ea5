// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package metric

import (
	"io"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Struct can be implemented by the types of members of a metric
// container so that the members get automatically registered.
type Struct interface {
	MetricStruct()
}

// A Registry is a list of metrics. It provides a simple way of iterating over
// them and exporting them in the Prometheus text format.
type Registry struct {
	reg *prometheus.Registry
}

// NewRegistry creates a new Registry.
func NewRegistry() *Registry {
	return &Registry{reg: prometheus.NewRegistry()}
}

// AddMetric adds the passed-in metric to the registry.
func (r *Registry) AddMetric(c prometheus.Collector) error {
	return errors.Wrap(r.reg.Register(c), "registering metric")
}

// AddMetricStruct examines all fields of metricStruct and adds
// all collectors to the registry.
func (r *Registry) AddMetricStruct(metricStruct Struct) error {
	v := reflect.ValueOf(metricStruct)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		if !t.Field(i).IsExported() {
			continue
		}
		c, ok := v.Field(i).Interface().(prometheus.Collector)
		if !ok || v.Field(i).IsNil() {
			continue
		}
		if err := r.AddMetric(c); err != nil {
			return errors.Wrapf(err, "field %s", t.Field(i).Name)
		}
	}
	return nil
}

// Gatherer exposes the underlying Prometheus gatherer, for use with an HTTP
// handler.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// PrintAsText writes the current value of all registered metrics in the
// Prometheus text exposition format.
func (r *Registry) PrintAsText(w io.Writer) error {
	families, err := r.reg.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrapf(err, "writing %s", mf.GetName())
		}
	}
	return nil
}
