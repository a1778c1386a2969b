/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloudwego/slabvec/cache/mempool"
)

var (
	runConfig     string
	runHost       string
	runRefill     int
	runIterations int
	runSeed       int64
	runLimit      int
	runMetrics    bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().StringVarP(&runConfig, "config", "c", "", "TOML workload file")
	cmd.Flags().StringVar(&runHost, "host", "", "Host allocator: heap, mcache, arena or mmap")
	cmd.Flags().IntVar(&runRefill, "refill", 0, "Blocks carved per refill")
	cmd.Flags().IntVarP(&runIterations, "iterations", "n", 0, "Pool operations to perform")
	cmd.Flags().Int64Var(&runSeed, "seed", 0, "Random seed")
	cmd.Flags().IntVar(&runLimit, "limit", 0, "Byte budget for the host, 0 for none")
	cmd.Flags().BoolVar(&runMetrics, "metrics", false, "Print host metrics when done")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a workload and report pool statistics",
		Long: `The run command replays a random allocate/free workload on a pool,
then appends samples to a vector drawing from the same pool.

Example:
  slabbench run --config bench.toml
  slabbench run --host arena --limit 1048576 --metrics`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := DefaultConfig()
	if runConfig != "" {
		c, err := LoadConfig(runConfig)
		if err != nil {
			return err
		}
		cfg = c
	}
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = runHost
	}
	if flags.Changed("refill") {
		cfg.RefillBlocks = runRefill
	}
	if flags.Changed("iterations") {
		cfg.Iterations = runIterations
	}
	if flags.Changed("seed") {
		cfg.Seed = runSeed
	}
	if flags.Changed("limit") {
		cfg.Limit = runLimit
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	host, err := newHost(cfg, reg)
	if err != nil {
		return err
	}
	logger.Info("starting workload",
		zap.String("host", cfg.Host),
		zap.Int("iterations", cfg.Iterations),
		zap.Int("refillBlocks", cfg.RefillBlocks))

	p := mempool.NewPool(&mempool.Option{Host: host, RefillBlocks: cfg.RefillBlocks, Logger: logger})
	defer p.Release()
	r, err := runWorkload(cfg, p, logger)
	if r != nil {
		printReport(cmd.OutOrStdout(), r)
	}
	if err != nil {
		return err
	}

	if runMetrics {
		mfs, err := reg.Gather()
		if err != nil {
			return err
		}
		for _, mf := range mfs {
			if _, err := expfmt.MetricFamilyToText(cmd.OutOrStdout(), mf); err != nil {
				return err
			}
		}
	}
	return nil
}
