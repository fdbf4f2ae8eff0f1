// SPDX-License-Identifier: MIT

// Package bnb_test holds helpers shared by the engine tests: seeded random
// instances, an exhaustive reference solver and the strategy grid.
package bnb_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/diagsel/bnb"
	"github.com/katalvlaran/diagsel/cover"
	"github.com/katalvlaran/diagsel/diffindex"
	"github.com/katalvlaran/diagsel/heuristic"
	"github.com/katalvlaran/diagsel/oracle"
)

const (
	// seedDet keeps every randomized knob reproducible.
	seedDet = int64(7)

	// randomRuns is the number of random instances per grid test.
	randomRuns = 30

	// midSizeRuns is the number of mid-size instances per grid entry (-short: midSizeShort).
	midSizeRuns  = 40
	midSizeShort = 8
)

// quietLogger discards output so test logs stay readable.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// config is one named strategy setup.
type config struct {
	name string
	opts []bnb.Option
}

// strategyGrid covers every traversal and the knobs that change its order.
func strategyGrid() []config {
	return []config{
		{"recursive", []bnb.Option{bnb.WithStrategy(bnb.Recursive)}},
		{"recursive/restart", []bnb.Option{
			bnb.WithStrategy(bnb.Recursive),
			bnb.WithRestart(0.3, 0.9),
			bnb.WithFadeoff(0.8),
			bnb.WithSeed(seedDet),
		}},
		{"stack/static", []bnb.Option{bnb.WithStrategy(bnb.Stack)}},
		{"stack/dynamic", []bnb.Option{
			bnb.WithStrategy(bnb.Stack),
			bnb.WithMode(heuristic.Dynamic),
			bnb.WithFadeoff(0.5),
			bnb.WithSeed(seedDet),
		}},
		{"skip/0", []bnb.Option{bnb.WithStrategy(bnb.StackSkip), bnb.WithSkip(0)}},
		{"skip/1", []bnb.Option{bnb.WithStrategy(bnb.StackSkip), bnb.WithSkip(1)}},
		{"skip/2", []bnb.Option{bnb.WithStrategy(bnb.StackSkip), bnb.WithSkip(2), bnb.WithMode(heuristic.Dynamic)}},
		{"skip/5", []bnb.Option{bnb.WithStrategy(bnb.StackSkip), bnb.WithSkip(5)}},
		{"parallel/1", []bnb.Option{bnb.WithStrategy(bnb.Parallel), bnb.WithWorkers(1)}},
		{"parallel/4", []bnb.Option{
			bnb.WithStrategy(bnb.Parallel),
			bnb.WithWorkers(4),
			bnb.WithMode(heuristic.Dynamic),
			bnb.WithFadeoff(0.3),
			bnb.WithSeed(seedDet),
		}},
	}
}

// randomInstance draws 3..8 tests over 3..6 diseases with integer costs 1..9.
// Roughly one in six draws has an undifferentiable pair.
func randomInstance(t *testing.T, rng *rand.Rand) *cover.Instance {
	t.Helper()
	var (
		numTests    = 3 + rng.Intn(6)
		numDiseases = 3 + rng.Intn(4)
		costs       = make([]float64, numTests)
		rows        = make([][]int, numTests)
	)
	for i := range rows {
		costs[i] = float64(1 + rng.Intn(9))
		rows[i] = make([]int, numDiseases)
		for d := range rows[i] {
			rows[i][d] = rng.Intn(2)
		}
	}
	inst, err := cover.New(costs, rows)
	require.NoError(t, err)

	return inst
}

// midSizeInstance draws 8..13 tests over 5..10 diseases with quarter-step
// costs in [0.25, 7]. About a quarter of the tests repeat an earlier outcome
// row, which yields duplicated and nested constraints in the relaxation.
func midSizeInstance(t *testing.T, rng *rand.Rand) *cover.Instance {
	t.Helper()
	var (
		numTests    = 8 + rng.Intn(6)
		numDiseases = 5 + rng.Intn(6)
		costs       = make([]float64, numTests)
		rows        = make([][]int, numTests)
	)
	for i := range rows {
		costs[i] = 0.25 * float64(1+rng.Intn(28))
		rows[i] = make([]int, numDiseases)
		if i > 0 && rng.Intn(4) == 0 {
			copy(rows[i], rows[rng.Intn(i)])
			continue
		}
		for d := range rows[i] {
			rows[i][d] = rng.Intn(2)
		}
	}
	inst, err := cover.New(costs, rows)
	require.NoError(t, err)

	return inst
}

// bruteForce enumerates every subset of tests and returns the cheapest cover.
func bruteForce(t *testing.T, inst *cover.Instance) (float64, bool) {
	t.Helper()
	var (
		idx   = diffindex.Build(inst)
		n     = inst.NumTests()
		best  = math.Inf(1)
		found bool
	)
	for mask := 0; mask < 1<<n; mask++ {
		var tests []int
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				tests = append(tests, i)
			}
		}
		if ok, _ := idx.Covers(tests); !ok {
			continue
		}
		c, err := inst.CostOf(tests)
		require.NoError(t, err)
		if c < best {
			best, found = c, true
		}
	}

	return best, found
}

// lpEngine builds an engine over the LP oracle, sharing one index.
func lpEngine(t *testing.T, inst *cover.Instance, opts ...bnb.Option) *bnb.Engine {
	t.Helper()
	idx := diffindex.Build(inst)
	opts = append([]bnb.Option{bnb.WithIndex(idx), bnb.WithLogger(quietLogger())}, opts...)
	e, err := bnb.NewEngine(inst, oracle.NewLP(inst, idx), opts...)
	require.NoError(t, err)

	return e
}

// integralEngine builds an engine over the pseudo-boolean oracle.
func integralEngine(t *testing.T, inst *cover.Instance, opts ...bnb.Option) *bnb.Engine {
	t.Helper()
	idx := diffindex.Build(inst)
	orc, err := oracle.NewIntegral(inst, idx)
	require.NoError(t, err)
	opts = append([]bnb.Option{bnb.WithIndex(idx), bnb.WithLogger(quietLogger())}, opts...)
	e, err := bnb.NewEngine(inst, orc, opts...)
	require.NoError(t, err)

	return e
}

// requireCover asserts the covering invariant and the reported cost of res.
func requireCover(t *testing.T, inst *cover.Instance, res bnb.Result) {
	t.Helper()
	ok, p := diffindex.Build(inst).Covers(res.Tests)
	require.Truef(t, ok, "pair %v not differentiated by %v", p, res.Tests)
	c, err := inst.CostOf(res.Tests)
	require.NoError(t, err)
	require.InDelta(t, res.Objective, c, 1e-9)
	require.Equal(t, int(math.Ceil(c-1e-9)), res.Cost)
}

// solve runs e with a background context.
func solve(t *testing.T, e *bnb.Engine) bnb.Result {
	t.Helper()
	res, err := e.Solve(context.Background())
	require.NoError(t, err)
	require.True(t, res.Proven)
	require.NotEmpty(t, res.RunID)

	return res
}
