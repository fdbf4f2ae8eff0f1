// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/diagsel/bnb"
	"github.com/katalvlaran/diagsel/config"
	"github.com/katalvlaran/diagsel/cover"
	"github.com/katalvlaran/diagsel/diffindex"
	"github.com/katalvlaran/diagsel/oracle"
)

// solveFlags mirror config.Settings; only flags set on the command line
// override the file.
type solveFlags struct {
	strategy          string
	branching         string
	fadeoff           float64
	restart           float64
	restartDecay      float64
	maxRestarts       int
	skip              int
	workers           int
	seed              int64
	solveType         string
	timeLimit         time.Duration
	oracleConcurrency int
	metricsFile       string
}

func newSolveCmd(g *globals) *cobra.Command {
	f := &solveFlags{}
	cmd := &cobra.Command{
		Use:   "solve <instance>",
		Short: "Find the minimum-cost differentiating test set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, g, f, args[0])
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.strategy, "strategy", "", "recursive, stack, stack-skip or parallel (default: derived)")
	fl.StringVar(&f.branching, "branching", "static", "branching order: static or dynamic")
	fl.Float64Var(&f.fadeoff, "fadeoff", 0.8, "probability of drifting past each ranked test")
	fl.Float64Var(&f.restart, "restart", 0, "initial random-restart probability (recursive)")
	fl.Float64Var(&f.restartDecay, "restart-decay", 0.9, "restart probability decay")
	fl.IntVar(&f.maxRestarts, "max-restarts", bnb.DefaultMaxRestarts, "restart cap per run")
	fl.IntVar(&f.skip, "skip", 5, "stack-skip width (0 disables)")
	fl.IntVar(&f.workers, "workers", 1, "parallel workers")
	fl.Int64Var(&f.seed, "seed", 0, "RNG seed")
	fl.StringVar(&f.solveType, "solve-type", config.SolveFloat, "oracle: float (LP) or int (pseudo-boolean)")
	fl.DurationVar(&f.timeLimit, "time-limit", 0, "wall-clock limit (0 = none)")
	fl.IntVar(&f.oracleConcurrency, "oracle-concurrency", 0, "max concurrent oracle calls (0 = unlimited)")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")

	return cmd
}

// apply copies explicitly set flags onto s.
func (f *solveFlags) apply(cmd *cobra.Command, s *config.Settings) {
	fl := cmd.Flags()
	set := func(name string, fn func()) {
		if fl.Changed(name) {
			fn()
		}
	}
	set("strategy", func() { s.Strategy = f.strategy })
	set("branching", func() { s.Branching = f.branching })
	set("fadeoff", func() { s.Fadeoff = f.fadeoff })
	set("restart", func() { s.Restart = f.restart })
	set("restart-decay", func() { s.RestartDecay = f.restartDecay })
	set("max-restarts", func() { s.MaxRestarts = f.maxRestarts })
	set("skip", func() { s.Skip = f.skip })
	set("workers", func() { s.Workers = f.workers })
	set("seed", func() { s.Seed = f.seed })
	set("solve-type", func() { s.SolveType = f.solveType })
	set("time-limit", func() { s.TimeLimit = f.timeLimit })
	set("oracle-concurrency", func() { s.OracleConcurrency = f.oracleConcurrency })
}

func runSolve(cmd *cobra.Command, g *globals, f *solveFlags, path string) error {
	start := time.Now()
	s, err := g.settings()
	if err != nil {
		return err
	}
	f.apply(cmd, &s)
	log, err := g.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	opts, err := s.EngineOptions(log)
	if err != nil {
		return err
	}

	inst, err := cover.ParseFile(path)
	if err != nil {
		return err
	}
	idx := diffindex.Build(inst)
	orc, err := s.Oracle(inst, idx)
	if err != nil {
		return err
	}
	counting := oracle.NewCounting(orc)

	e, err := bnb.NewEngine(inst, counting, append(opts, bnb.WithIndex(idx))...)
	if err != nil {
		return err
	}
	res, err := e.Solve(cmd.Context())
	if f.metricsFile != "" {
		if werr := prometheus.WriteToTextfile(f.metricsFile, prometheus.DefaultGatherer); werr != nil {
			log.Warn("diagsel: metrics not written", "file", f.metricsFile, "err", werr)
		}
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Nodes: %d Oracle calls: %d Restarts: %d\n", res.Stats.Nodes, counting.Calls(), res.Stats.Restarts)
	elapsed := time.Since(start).Seconds()
	name := filepath.Base(path)
	if !res.Feasible {
		fmt.Fprintf(out, "Instance: %s Time: %.2f Result: -- Solution: FAIL\n", name, elapsed)

		return errNoCover
	}
	fmt.Fprintf(out, "Instance: %s Time: %.2f Result: %d Solution: OPT\n", name, elapsed, res.Cost)

	return nil
}
