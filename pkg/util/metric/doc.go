// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

/*
Package metric provides the read-path metrics of the query engine. Metrics
are backed by Prometheus collectors and can be scraped through a Registry.

# Adding a new metric

Describe the metric with a Metadata value and construct it with one of the
constructors in this package:

	var metaRowsRead = metric.Metadata{
		Name: "sql_select_rows_read",
		Help: "Number of base table rows read by SELECT queries",
	}

	rowsRead := metric.NewCounter(metaRowsRead)

Then register the struct holding it:

	reg := metric.NewRegistry()
	reg.AddMetricStruct(readMetrics)

AddMetricStruct registers every exported field that implements
prometheus.Collector.
*/
package metric
