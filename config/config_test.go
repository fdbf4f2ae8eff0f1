// SPDX-License-Identifier: MIT

package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/diagsel/bnb"
	"github.com/katalvlaran/diagsel/config"
	"github.com/katalvlaran/diagsel/cover"
	"github.com/katalvlaran/diagsel/diffindex"
	"github.com/katalvlaran/diagsel/oracle"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diagsel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestDefault_IsValidStackSkip(t *testing.T) {
	s := config.Default()
	require.NoError(t, s.Validate())
	require.Equal(t, 0.8, s.Fadeoff)
	require.Equal(t, 5, s.Skip)

	strategy, err := s.Resolve()
	require.NoError(t, err)
	require.Equal(t, bnb.StackSkip, strategy)
}

func TestResolve_LegacySwitches(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Settings)
		want   bnb.Strategy
	}{
		{"no stack", func(s *config.Settings) { s.UseStack = false }, bnb.Recursive},
		{"workers", func(s *config.Settings) { s.Workers = 4 }, bnb.Parallel},
		{"no skip", func(s *config.Settings) { s.Skip = 0 }, bnb.Stack},
		{"explicit wins", func(s *config.Settings) { s.UseStack = false; s.Strategy = "parallel" }, bnb.Parallel},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := config.Default()
			tc.mutate(&s)
			got, err := s.Resolve()
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeFile(t, `
strategy: recursive
branching: dynamic
restart: 0.25
workers: 2
time_limit: 1m30s
solve_type: int
`)
	s, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "recursive", s.Strategy)
	require.Equal(t, "dynamic", s.Branching)
	require.Equal(t, 0.25, s.Restart)
	require.Equal(t, 90*time.Second, s.TimeLimit)
	require.Equal(t, 0.8, s.Fadeoff, "untouched keys keep defaults")
	require.Equal(t, config.SolveInt, s.SolveType)

	out, err := s.Marshal()
	require.NoError(t, err)
	back, err := config.Load(writeFile(t, string(out)))
	require.NoError(t, err)
	require.Equal(t, s, back)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = config.Load(writeFile(t, "fadeoff: [1, 2]"))
	require.Error(t, err)

	bad := []string{
		"fadeoff: 1.5",
		"restart: -1",
		"restart_decay: 2",
		"skip: -1",
		"workers: 0",
		"max_restarts: -3",
		"branching: greedy",
		"strategy: bfs",
		"solve_type: mixed",
		"oracle_concurrency: -1",
		"time_limit: -1s",
	}
	for _, body := range bad {
		_, err = config.Load(writeFile(t, body))
		require.ErrorIsf(t, err, config.ErrInvalid, body)
	}
}

func TestEngineOptions_DriveEngine(t *testing.T) {
	inst, err := cover.New([]float64{5, 1}, [][]int{{0, 1, 0}, {0, 0, 1}})
	require.NoError(t, err)
	idx := diffindex.Build(inst)

	for _, solveType := range []string{config.SolveFloat, config.SolveInt} {
		s := config.Default()
		s.SolveType = solveType
		s.OracleConcurrency = 1
		s.Seed = 3

		orc, err := s.Oracle(inst, idx)
		require.NoError(t, err)
		opts, err := s.EngineOptions(nil)
		require.NoError(t, err)
		e, err := bnb.NewEngine(inst, orc, append(opts, bnb.WithIndex(idx))...)
		require.NoError(t, err)
		require.Equal(t, bnb.StackSkip, e.Options().Strategy)
		require.Equal(t, 0.8, e.Options().Fadeoff)

		res, err := e.Solve(context.Background())
		require.NoError(t, err)
		require.True(t, res.Feasible)
		require.Equal(t, 6, res.Cost)
	}
}

func TestOracle_RejectsFractionalCostsForInt(t *testing.T) {
	inst, err := cover.New([]float64{1.5}, [][]int{{0, 1}})
	require.NoError(t, err)
	s := config.Default()
	s.SolveType = config.SolveInt
	_, err = s.Oracle(inst, diffindex.Build(inst))
	require.ErrorIs(t, err, oracle.ErrNonIntegralCost)
}
