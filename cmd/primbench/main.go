// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command primbench times the naive and scratch-tiled variants of the
// map, matmul, stencil and transpose primitives and verifies each result
// against a host reference.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	guda "github.com/LynnColeArt/guda-primitives"
	"github.com/LynnColeArt/guda-primitives/harness"
	"github.com/LynnColeArt/guda-primitives/kernels"
)

type options struct {
	iterations int
	warmup     int
	workers    int
	seed       uint64
	logDir     string
	verbose    bool
	noVerify   bool
	counters   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "primbench",
		Short:        "Benchmark tiled data-parallel primitives on the CPU device",
		Version:      version(),
		SilenceUsage: true,
	}
	bindDriverFlags(root.PersistentFlags(), opts)

	root.AddCommand(
		newMapCmd(opts),
		newMatMulCmd(opts),
		newStencilCmd(opts),
		newTransposeCmd(opts),
	)
	return root
}

func bindDriverFlags(flags *pflag.FlagSet, opts *options) {
	flags.IntVar(&opts.iterations, "iterations", 20, "timed launches per variant")
	flags.IntVar(&opts.warmup, "warmup", 1, "untimed launches per variant")
	flags.IntVar(&opts.workers, "workers", runtime.NumCPU(), "workgroups executing concurrently")
	flags.Uint64Var(&opts.seed, "seed", 1, "seed for input data")
	flags.StringVar(&opts.logDir, "json", "", "directory for the JSON session log")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&opts.noVerify, "no-verify", false, "skip result verification")
	flags.BoolVar(&opts.counters, "counters", false, "sample hardware counters (Linux perf events)")
}

func version() string {
	if v, _ := guda.Version(); v != "" {
		return v
	}
	return "(devel)"
}

// session bundles what every subcommand needs
type session struct {
	opts   *options
	ctx    *guda.Context
	log    *harness.SessionLog
	logger *slog.Logger
}

func newSession(opts *options, name string) (*session, error) {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	log, err := harness.NewSessionLog(opts.logDir, name)
	if err != nil {
		return nil, err
	}
	ctx := guda.NewContext(guda.WithWorkers(opts.workers))
	logger.Debug("device", "device", ctx.Device().String(), "cpu", guda.CPUInfo(), "workers", ctx.Workers())
	return &session{opts: opts, ctx: ctx, log: log, logger: logger}, nil
}

// run prints the banner, times every workload and prints the summary
func (s *session) run(suite *harness.Suite, shape string, bytes int64) error {
	defer suite.Close()

	fmt.Println("=================================================")
	fmt.Println(harness.Describe(suite, shape))
	fmt.Printf("-- data size: %.3f GB\n", float64(bytes)/(1<<30))
	fmt.Println("=================================================")

	if s.opts.noVerify {
		for i := range suite.Workloads {
			suite.Workloads[i].Verify = nil
		}
	}

	driver := harness.Driver{
		Iterations: s.opts.iterations,
		Warmup:     s.opts.warmup,
		Counters:   s.opts.counters,
	}
	results, err := suite.Run(driver, s.log)
	for _, m := range results {
		fmt.Printf("\n%s\n", m)
	}
	if err != nil {
		s.logger.Error("launch failed", "suite", suite.Name, "err", err)
		return err
	}

	fmt.Println()
	harness.PrintSummary(os.Stdout, results)
	if path := s.log.Path(); path != "" {
		s.logger.Info("session saved", "path", path)
	}

	failed := lo.Filter(results, func(m harness.Measurement, _ int) bool { return m.Status == "fail" })
	if len(failed) > 0 {
		names := lo.Map(failed, func(m harness.Measurement, _ int) string { return m.Name })
		return fmt.Errorf("%d variant(s) failed verification: %v", len(failed), names)
	}
	return nil
}

func newMapCmd(opts *options) *cobra.Command {
	var (
		n   int
		cfg = kernels.DefaultMapConfig()
	)
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Elementwise map out[i] = in[i] + 1 (float32)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts, "map")
			if err != nil {
				return err
			}
			suite, err := harness.MapSuite[float32](s.ctx, harness.NewRand(opts.seed), n, cfg)
			if err != nil {
				return err
			}
			return s.run(suite, fmt.Sprintf("in[%d] -> out[%d]", n, n), 2*4*int64(n))
		},
	}
	cmd.Flags().IntVar(&n, "n", 1<<22, "number of elements")
	cmd.Flags().IntVar(&cfg.GroupSize, "group", cfg.GroupSize, "workgroup size")
	cmd.Flags().IntVar(&cfg.WorkPerItem, "work", cfg.WorkPerItem, "elements per work-item (work intensive variant)")
	return cmd
}

func newMatMulCmd(opts *options) *cobra.Command {
	var (
		d   = kernels.MatMulDims{M: 1024 + 1, N: 1024 + 11, K: 1024 + 111}
		cfg = kernels.DefaultTileConfig()
	)
	cmd := &cobra.Command{
		Use:   "matmul",
		Short: "Matrix multiplication C[M,N] = A[M,K] * B[K,N] (int64)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts, "matmul")
			if err != nil {
				return err
			}
			suite, err := harness.MatMulSuite[int64](s.ctx, harness.NewRand(opts.seed), d, cfg, harness.Exact())
			if err != nil {
				return err
			}
			shape := fmt.Sprintf("A[%d,%d] * B[%d,%d] = C[%d,%d]", d.M, d.K, d.K, d.N, d.M, d.N)
			return s.run(suite, shape, 8*int64(d.M*d.N+d.M*d.K+d.K*d.N))
		},
	}
	cmd.Flags().IntVar(&d.M, "m", d.M, "rows of A and C")
	cmd.Flags().IntVar(&d.N, "n", d.N, "columns of B and C")
	cmd.Flags().IntVar(&d.K, "k", d.K, "columns of A, rows of B")
	cmd.Flags().IntVar(&cfg.GroupSize, "tile", cfg.GroupSize, "square workgroup edge")
	return cmd
}

func newStencilCmd(opts *options) *cobra.Command {
	var (
		d   = kernels.StencilDims{N: 1024, KSize: 3}
		cfg = kernels.DefaultTileConfig()
	)
	cmd := &cobra.Command{
		Use:   "stencil",
		Short: "2D convolution with zero padding (int64)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts, "stencil")
			if err != nil {
				return err
			}
			suite, err := harness.StencilSuite[int64](s.ctx, harness.NewRand(opts.seed), d, cfg)
			if err != nil {
				return err
			}
			shape := fmt.Sprintf("in[%d,%d] with kernel[%d,%d] -> out[%d,%d]", d.N, d.N, d.KSize, d.KSize, d.N, d.N)
			return s.run(suite, shape, 8*int64(d.N*d.N))
		},
	}
	cmd.Flags().IntVar(&d.N, "n", d.N, "matrix edge")
	cmd.Flags().IntVar(&d.KSize, "ksize", d.KSize, "odd kernel edge")
	cmd.Flags().IntVar(&cfg.GroupSize, "tile", cfg.GroupSize, "square workgroup edge")
	return cmd
}

func newTransposeCmd(opts *options) *cobra.Command {
	var (
		d   = kernels.TransposeDims{M: 2048, N: 2048}
		cfg = kernels.DefaultTransposeConfig()
	)
	cmd := &cobra.Command{
		Use:   "transpose",
		Short: "Matrix transpose in[M,N] -> out[N,M] (float32)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts, "transpose")
			if err != nil {
				return err
			}
			suite, err := harness.TransposeSuite[float32](s.ctx, harness.NewRand(opts.seed), d, cfg)
			if err != nil {
				return err
			}
			shape := fmt.Sprintf("in[%d,%d] -> out[%d,%d]", d.M, d.N, d.N, d.M)
			return s.run(suite, shape, 2*4*int64(d.M*d.N))
		},
	}
	cmd.Flags().IntVar(&d.M, "m", d.M, "rows of the input")
	cmd.Flags().IntVar(&d.N, "n", d.N, "columns of the input")
	cmd.Flags().IntVar(&cfg.Tile, "tile", cfg.Tile, "tile edge")
	cmd.Flags().IntVar(&cfg.WorkPerItem, "work", cfg.WorkPerItem, "rows per work-item")
	return cmd
}
