// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package base

import (
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config is the configuration of the SELECT executor.
type Config struct {
	// DefaultPageSize is used when a request does not carry a page size.
	DefaultPageSize int `yaml:"default_page_size" validate:"gte=1"`
	// IndexBatchSize is the largest number of index entries read at once.
	IndexBatchSize int `yaml:"index_batch_size" validate:"gte=1"`
	// KeyedFetchConcurrency bounds the in-flight base table point reads of an
	// index-backed query.
	KeyedFetchConcurrency int `yaml:"keyed_fetch_concurrency" validate:"gte=1,lte=1024"`
	// MaxPartitionKeyCombinations bounds the number of partition keys a
	// query may address through IN restrictions.
	MaxPartitionKeyCombinations int `yaml:"max_partition_key_combinations" validate:"gte=1"`
	// ReadTimeout is the deadline of one round trip. Zero disables it.
	ReadTimeout time.Duration `yaml:"read_timeout" validate:"gte=0"`
}

// DefaultConfig returns a Config populated with the defaults.
func DefaultConfig() Config {
	return Config{
		DefaultPageSize:             DefaultPageSize,
		IndexBatchSize:              DefaultIndexBatchSize,
		KeyedFetchConcurrency:       DefaultKeyedFetchConcurrency,
		MaxPartitionKeyCombinations: DefaultMaxPartitionKeyCombinations,
		ReadTimeout:                 DefaultReadTimeout,
	}
}

var validate = validator.New()

// Validate checks that all settings are within bounds.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.WithHint(
			errors.Wrap(err, "invalid configuration"),
			"check the values in the configuration file and on the command line",
		)
	}
	return nil
}

// LoadConfig reads a YAML document on top of the defaults. Unknown keys are
// rejected. An empty document yields the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "parsing configuration")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// AddFlags registers command line overrides for every setting.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.DefaultPageSize, "page-size", c.DefaultPageSize,
		"rows returned per round trip when the request does not set a page size")
	fs.IntVar(&c.IndexBatchSize, "index-batch-size", c.IndexBatchSize,
		"maximum number of index entries read at once")
	fs.IntVar(&c.KeyedFetchConcurrency, "keyed-fetch-concurrency", c.KeyedFetchConcurrency,
		"maximum number of concurrent base table point reads")
	fs.IntVar(&c.MaxPartitionKeyCombinations, "max-partition-keys", c.MaxPartitionKeyCombinations,
		"maximum number of partition keys addressed by IN restrictions")
	fs.DurationVar(&c.ReadTimeout, "read-timeout", c.ReadTimeout,
		"deadline of one round trip; 0 disables it")
}
