// SPDX-License-Identifier: MIT

package oracle_test

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/diagsel/cover"
	"github.com/katalvlaran/diagsel/diffindex"
	"github.com/katalvlaran/diagsel/oracle"
)

const epsTiny = 1e-9

// triangle: three diseases, each test isolates one disease, unit costs.
// Relaxed optimum is 1.5 (all halves); any cover needs two tests.
func triangle(t *testing.T) (*cover.Instance, *diffindex.Index) {
	t.Helper()
	inst, err := cover.New([]float64{1, 1, 1}, [][]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	require.NoError(t, err)

	return inst, diffindex.Build(inst)
}

func TestLP_RootRelaxationIsFractional(t *testing.T) {
	inst, idx := triangle(t)
	o := oracle.NewLP(inst, idx)

	res, ok, err := o.Solve(context.Background(), oracle.Query{Assignment: cover.NewAssignment(3)})
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, res.Integral)
	require.InDelta(t, 1.5, res.Objective, 1e-7)
	require.LessOrEqual(t, res.Objective, 1.5, "reported value must stay a lower bound")
	for _, v := range res.Usage {
		require.InDelta(t, 0.5, v, 1e-7)
	}
}

func TestLP_FixedTestsAndRemaining(t *testing.T) {
	inst, idx := triangle(t)
	o := oracle.NewLP(inst, idx)
	ctx := context.Background()

	a := cover.NewAssignment(3).Include(0)
	res, ok, err := o.Solve(ctx, oracle.Query{Assignment: a})
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, res.Integral)
	require.Equal(t, 2.0, res.Objective)
	require.Equal(t, 1.0, res.Usage[0])

	// Passing the incrementally maintained set yields the same answer.
	rem := idx.Without(idx.AllPairs(), 0)
	res2, ok, err := o.Solve(ctx, oracle.Query{Assignment: a, Remaining: rem})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, res.Objective, res2.Objective)

	// Everything covered by included tests: no solver call needed.
	full := cover.NewAssignment(3).Include(0).Include(1)
	res, ok, err = o.Solve(ctx, oracle.Query{Assignment: full})
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, res.Integral)
	require.Equal(t, []int{0, 1}, res.Used())

	// Excluding both tests that split (0,1) is infeasible, not an error.
	_, ok, err = o.Solve(ctx, oracle.Query{Assignment: cover.NewAssignment(3).Exclude(0, 1)})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLP_TwoTestsRequired(t *testing.T) {
	// Test 0 (cost 5) splits (0,1),(1,2); test 1 (cost 1) splits (0,2),(1,2).
	inst, err := cover.New([]float64{5, 1}, [][]int{{0, 1, 0}, {0, 0, 1}})
	require.NoError(t, err)
	o := oracle.NewLP(inst, diffindex.Build(inst))

	res, ok, err := o.Solve(context.Background(), oracle.Query{Assignment: cover.NewAssignment(2)})
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, res.Integral)
	require.Equal(t, 6.0, res.Objective)
}

func TestLP_ShapeAndContext(t *testing.T) {
	inst, idx := triangle(t)
	o := oracle.NewLP(inst, idx, oracle.WithIntegralityTol(1e-6))

	_, _, err := o.Solve(context.Background(), oracle.Query{Assignment: cover.NewAssignment(5)})
	require.ErrorIs(t, err, oracle.ErrShape)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = o.Solve(ctx, oracle.Query{Assignment: cover.NewAssignment(3)})
	require.ErrorIs(t, err, context.Canceled)

	require.Panics(t, func() { oracle.WithIntegralityTol(-1) })
}

func TestLP_DegenerateRowsAgreeWithIntegral(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 60; i++ {
		var (
			numTests    = 8 + rng.Intn(6)
			numDiseases = 5 + rng.Intn(6)
			costs       = make([]float64, numTests)
			rows        = make([][]int, numTests)
		)
		for j := range rows {
			costs[j] = float64(1 + rng.Intn(28))
			rows[j] = make([]int, numDiseases)
			if j > 0 && rng.Intn(4) == 0 {
				copy(rows[j], rows[rng.Intn(j)])
				continue
			}
			for d := range rows[j] {
				rows[j][d] = rng.Intn(2)
			}
		}
		inst, err := cover.New(costs, rows)
		require.NoError(t, err)
		idx := diffindex.Build(inst)
		relaxed := oracle.NewLP(inst, idx)
		exact, err := oracle.NewIntegral(inst, idx)
		require.NoError(t, err)

		a := cover.NewAssignment(numTests)
		for j := 0; j < numTests; j++ {
			switch rng.Intn(5) {
			case 0:
				a = a.Include(j)
			case 1:
				a = a.Exclude(j)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		lpRes, lpOK, err := relaxed.Solve(ctx, oracle.Query{Assignment: a})
		cancel()
		require.NoErrorf(t, err, "instance %d\n%v", i, inst)

		ipRes, ipOK, err := exact.Solve(context.Background(), oracle.Query{Assignment: a})
		require.NoError(t, err)
		require.Equalf(t, ipOK, lpOK, "instance %d", i)
		if !ipOK {
			continue
		}
		require.LessOrEqualf(t, lpRes.Objective, ipRes.Objective+epsTiny, "instance %d", i)
		if lpRes.Integral {
			require.InDeltaf(t, ipRes.Objective, lpRes.Objective, epsTiny, "instance %d", i)
			covered, _ := idx.Covers(lpRes.Used())
			require.True(t, covered)
		}
	}
}

func TestIntegral_Optimum(t *testing.T) {
	inst, idx := triangle(t)
	o, err := oracle.NewIntegral(inst, idx)
	require.NoError(t, err)
	ctx := context.Background()

	res, ok, err := o.Solve(ctx, oracle.Query{Assignment: cover.NewAssignment(3)})
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, res.Integral)
	require.Equal(t, 2.0, res.Objective)
	covered, _ := idx.Covers(res.Used())
	require.True(t, covered)

	_, ok, err = o.Solve(ctx, oracle.Query{Assignment: cover.NewAssignment(3).Exclude(1, 2)})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIntegral_RejectsFractionalCosts(t *testing.T) {
	inst, err := cover.New([]float64{1.5, 2}, [][]int{{0, 1}, {1, 0}})
	require.NoError(t, err)
	_, err = oracle.NewIntegral(inst, diffindex.Build(inst))
	require.ErrorIs(t, err, oracle.ErrNonIntegralCost)
}

func TestSerialize_NoOverlap(t *testing.T) {
	var (
		active  atomic.Int32
		maxSeen atomic.Int32
	)
	slow := oracle.Func(func(ctx context.Context, q oracle.Query) (oracle.Result, bool, error) {
		n := active.Add(1)
		for {
			m := maxSeen.Load()
			if n <= m || maxSeen.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		active.Add(-1)

		return oracle.Result{Integral: true}, true, nil
	})
	counting := oracle.NewCounting(slow)
	o := oracle.Serialize(counting)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := o.Solve(context.Background(), oracle.Query{})
			require.NoError(t, err)
			require.True(t, ok)
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), maxSeen.Load())
	require.Equal(t, int64(8), counting.Calls())
}

func TestLimit_HonoursContext(t *testing.T) {
	var (
		started = make(chan struct{})
		block   = make(chan struct{})
	)
	o := oracle.Limit(oracle.Func(func(ctx context.Context, q oracle.Query) (oracle.Result, bool, error) {
		close(started)
		<-block

		return oracle.Result{}, true, nil
	}), 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = o.Solve(context.Background(), oracle.Query{})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err := o.Solve(ctx, oracle.Query{})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(block)
	<-done
}
