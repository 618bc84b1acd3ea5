// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/kv/memproxy"
	"github.com/ringdb/ringdb/pkg/sql/catalog"
	"github.com/ringdb/ringdb/pkg/sql/restrictions"
	"github.com/ringdb/ringdb/pkg/sql/selectexec"
	"github.com/ringdb/ringdb/pkg/sql/types"
	"gopkg.in/yaml.v3"
)

// fixture is a schema, its data and the queries run against it.
type fixture struct {
	Keyspace string         `yaml:"keyspace"`
	Tables   []tableFixture `yaml:"tables"`
	Queries  []queryFixture `yaml:"queries"`
}

type columnFixture struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	// Kind is "partition", "clustering" or empty for regular columns.
	Kind string `yaml:"kind"`
	// Order is "asc" or "desc" for clustering columns.
	Order string `yaml:"order"`
}

type indexFixture struct {
	Name     string `yaml:"name"`
	Column   string `yaml:"column"`
	Locality string `yaml:"locality"`
}

type tableFixture struct {
	Name    string          `yaml:"name"`
	Columns []columnFixture `yaml:"columns"`
	Indexes []indexFixture  `yaml:"indexes"`
	Rows    [][]interface{} `yaml:"rows"`
	// Stale lists rows whose base row is removed while their index
	// postings are kept.
	Stale [][]interface{} `yaml:"stale"`
}

type queryFixture struct {
	Name           string        `yaml:"name"`
	Table          string        `yaml:"table"`
	Select         []string      `yaml:"select"`
	Where          string        `yaml:"where"`
	OrderBy        string        `yaml:"order_by"`
	Limit          string        `yaml:"limit"`
	PerPartition   string        `yaml:"per_partition_limit"`
	GroupBy        []int         `yaml:"group_by"`
	AllowFiltering bool          `yaml:"allow_filtering"`
	Values         []interface{} `yaml:"values"`
	PageSize       int           `yaml:"page_size"`
}

func readFixture(path string) (*fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening fixture")
	}
	defer f.Close()
	return parseFixture(f)
}

func parseFixture(r io.Reader) (*fixture, error) {
	var fx fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, errors.Wrap(err, "parsing fixture")
	}
	if fx.Keyspace == "" {
		return nil, errors.New("fixture has no keyspace")
	}
	return &fx, nil
}

func (c columnFixture) descriptor() (catalog.ColumnDescriptor, error) {
	t, err := types.OfName(c.Type)
	if err != nil {
		return catalog.ColumnDescriptor{}, errors.Wrapf(err, "column %s", c.Name)
	}
	col := catalog.ColumnDescriptor{Name: c.Name, Type: t}
	switch strings.ToLower(c.Kind) {
	case "partition":
		col.Kind = catalog.PartitionKeyColumn
	case "clustering":
		col.Kind = catalog.ClusteringColumn
	case "", "regular":
	default:
		return col, errors.Newf("column %s: unknown kind %q", c.Name, c.Kind)
	}
	switch strings.ToLower(c.Order) {
	case "desc":
		col.Direction = catalog.Descending
	case "", "asc":
	default:
		return col, errors.Newf("column %s: unknown order %q", c.Name, c.Order)
	}
	return col, nil
}

func parseLocality(s string) (catalog.IndexLocality, error) {
	switch strings.ToLower(s) {
	case "", "global":
		return catalog.GlobalIndex, nil
	case "local":
		return catalog.LocalIndex, nil
	}
	return 0, errors.Newf("unknown index locality %q", s)
}

// load creates the tables and indexes of the fixture in schema and writes
// the rows to store. Indexes are created before any row is written so that
// every row is indexed.
func (fx *fixture) load(ctx context.Context, schema *catalog.Registry, store *memproxy.Store) error {
	for _, tf := range fx.Tables {
		cols := make([]catalog.ColumnDescriptor, len(tf.Columns))
		for i, c := range tf.Columns {
			var err error
			if cols[i], err = c.descriptor(); err != nil {
				return errors.Wrapf(err, "table %s", tf.Name)
			}
		}
		desc, err := catalog.NewTableDescriptor(fx.Keyspace, tf.Name, cols)
		if err != nil {
			return err
		}
		if err := schema.AddTable(desc); err != nil {
			return err
		}
		for _, idx := range tf.Indexes {
			loc, err := parseLocality(idx.Locality)
			if err != nil {
				return errors.Wrapf(err, "index %s", idx.Name)
			}
			if _, err := schema.CreateIndex(fx.Keyspace, tf.Name, idx.Name, idx.Column, loc); err != nil {
				return err
			}
		}
		desc, err = schema.Table(ctx, fx.Keyspace, tf.Name)
		if err != nil {
			return err
		}
		for i, raw := range tf.Rows {
			row, err := parseRow(desc, raw)
			if err != nil {
				return errors.Wrapf(err, "table %s row %d", tf.Name, i+1)
			}
			if err := store.Put(desc, row); err != nil {
				return errors.Wrapf(err, "table %s row %d", tf.Name, i+1)
			}
		}
		for i, raw := range tf.Stale {
			row, err := parseRow(desc, raw)
			if err != nil {
				return errors.Wrapf(err, "table %s stale row %d", tf.Name, i+1)
			}
			if err := store.DeleteBaseOnly(desc, row); err != nil {
				return errors.Wrapf(err, "table %s stale row %d", tf.Name, i+1)
			}
		}
	}
	return nil
}

func parseRow(desc *catalog.TableDescriptor, raw []interface{}) (types.Datums, error) {
	if len(raw) != len(desc.Columns) {
		return nil, errors.Newf("expected %d values, got %d", len(desc.Columns), len(raw))
	}
	row := make(types.Datums, len(raw))
	for i, v := range raw {
		var err error
		if row[i], err = types.ParseDatum(desc.Columns[i].Type, v); err != nil {
			return nil, errors.Wrapf(err, "column %s", desc.Columns[i].Name)
		}
	}
	return row, nil
}

// descriptor builds the statement of the query.
func (q *queryFixture) descriptor(keyspace string) (selectexec.Descriptor, error) {
	d := selectexec.Descriptor{
		Keyspace:       keyspace,
		Table:          q.Table,
		Projection:     q.Select,
		GroupBy:        q.GroupBy,
		AllowFiltering: q.AllowFiltering,
		BoundValues:    len(q.Values),
	}
	var err error
	if q.Where != "" {
		if d.Where, err = restrictions.ParseConjunction(q.Where); err != nil {
			return d, errors.Wrap(err, "WHERE")
		}
	}
	if d.OrderBy, err = selectexec.ParseOrdering(q.OrderBy); err != nil {
		return d, err
	}
	if q.Limit != "" {
		if d.Limit, err = restrictions.ParseTerm(q.Limit); err != nil {
			return d, errors.Wrap(err, "LIMIT")
		}
	}
	if q.PerPartition != "" {
		if d.PerPartitionLimit, err = restrictions.ParseTerm(q.PerPartition); err != nil {
			return d, errors.Wrap(err, "PER PARTITION LIMIT")
		}
	}
	return d, nil
}

// values converts the bound values of the query. Their types follow the
// YAML scalars.
func (q *queryFixture) values() (types.Datums, error) {
	out := make(types.Datums, len(q.Values))
	for i, v := range q.Values {
		switch x := v.(type) {
		case nil:
			out[i] = types.DNull
		case int:
			out[i] = types.DInt(x)
		case int64:
			out[i] = types.DInt(x)
		case float64:
			out[i] = types.DFloat(x)
		case bool:
			out[i] = types.DBool(x)
		case string:
			out[i] = types.DString(x)
		default:
			return nil, errors.Newf("value $%d: unsupported %T", i+1, v)
		}
	}
	return out, nil
}
