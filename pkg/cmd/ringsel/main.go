// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// ringsel loads a fixture into an in-memory store and runs its SELECT
// queries page by page.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/base"
	"github.com/ringdb/ringdb/pkg/util/log"
	"github.com/spf13/cobra"
)

type optsT struct {
	configFile  string
	cfg         base.Config
	query       string
	pageSize    int
	quorum      bool
	metrics     bool
	verbosity   int
	maxRetries  uint64
	retryPeriod time.Duration
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &optsT{cfg: base.DefaultConfig()}
	rootCmd := &cobra.Command{
		Use:           "ringsel",
		Short:         "run SELECT queries of a fixture against an in-memory store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.SetOutput(stderr, true /* pretty */)
			log.SetVerbosity(log.Level(opts.verbosity))
			return opts.loadConfig(cmd)
		},
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "YAML file with executor settings; flags override it")
	pf.StringVar(&opts.query, "query", "", "only consider the query with this name")
	pf.IntVarP(&opts.verbosity, "verbosity", "v", 0, "log verbosity")
	opts.cfg.AddFlags(pf)

	runCmd := &cobra.Command{
		Use:   "run <fixture.yaml>",
		Short: "execute the queries and print every page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.Context(), args[0], stdout)
		},
		Example: `ringsel run --query by_city --page-size 2 fixture.yaml`,
	}
	runCmd.Flags().IntVar(&opts.pageSize, "rows", 0, "rows per page of every query; overrides the fixture")
	runCmd.Flags().BoolVar(&opts.quorum, "quorum", false, "charge reads as quorum reads")
	runCmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print the read metrics after the queries")
	runCmd.Flags().Uint64Var(&opts.maxRetries, "max-retries", 5, "retries of a round trip failing with a retryable error")
	runCmd.Flags().DurationVar(&opts.retryPeriod, "retry-backoff", 100*time.Millisecond, "initial backoff between retries")

	planCmd := &cobra.Command{
		Use:   "plan <fixture.yaml>",
		Short: "prepare the queries and print their access paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.plan(cmd.Context(), args[0], stdout)
		},
	}

	rootCmd.AddCommand(runCmd, planCmd)
	return rootCmd
}

// loadConfig reads the configuration file, if any, and applies the flags
// set on the command line on top of it.
func (opts *optsT) loadConfig(cmd *cobra.Command) error {
	if opts.configFile == "" {
		return opts.cfg.Validate()
	}
	f, err := os.Open(opts.configFile)
	if err != nil {
		return errors.Wrap(err, "opening configuration")
	}
	defer f.Close()
	cfg, err := base.LoadConfig(f)
	if err != nil {
		return err
	}
	// opts.cfg holds the defaults overridden by the flags; keep only the
	// flags given explicitly.
	flags := cmd.Flags()
	for _, name := range []string{"page-size", "index-batch-size", "keyed-fetch-concurrency", "max-partition-keys", "read-timeout"} {
		if flags.Changed(name) {
			applyFlag(&cfg, &opts.cfg, name)
		}
	}
	opts.cfg = cfg
	return opts.cfg.Validate()
}

func applyFlag(dst, src *base.Config, name string) {
	switch name {
	case "page-size":
		dst.DefaultPageSize = src.DefaultPageSize
	case "index-batch-size":
		dst.IndexBatchSize = src.IndexBatchSize
	case "keyed-fetch-concurrency":
		dst.KeyedFetchConcurrency = src.KeyedFetchConcurrency
	case "max-partition-keys":
		dst.MaxPartitionKeyCombinations = src.MaxPartitionKeyCombinations
	case "read-timeout":
		dst.ReadTimeout = src.ReadTimeout
	}
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		for _, h := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "HINT: %s\n", h)
		}
		os.Exit(1)
	}
}
