// SPDX-License-Identifier: MIT

// Runnable examples for the engine. Each prints the optimal cost and the
// chosen tests with a stable // Output: block.
//
// Contents:
//  1. Example_stackLP          (LP oracle, explicit stack)
//  2. Example_parallelPanel    (LP oracle, 4 workers, dynamic branching)
//  3. Example_integralOracle   (pseudo-boolean oracle)
package bnb_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/katalvlaran/diagsel/bnb"
	"github.com/katalvlaran/diagsel/cover"
	"github.com/katalvlaran/diagsel/diffindex"
	"github.com/katalvlaran/diagsel/heuristic"
	"github.com/katalvlaran/diagsel/oracle"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// Test 0 (cost 5) splits (0,1) and (1,2); test 1 (cost 1) splits (0,2) and
// (1,2). Neither covers alone, so the optimum pays for both.
func Example_stackLP() {
	inst, err := cover.New([]float64{5, 1}, [][]int{{0, 1, 0}, {0, 0, 1}})
	if err != nil {
		fmt.Println(err)
		return
	}
	idx := diffindex.Build(inst)

	e, err := bnb.NewEngine(inst, oracle.NewLP(inst, idx),
		bnb.WithIndex(idx),
		bnb.WithStrategy(bnb.Stack),
		bnb.WithLogger(discard),
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	res, err := e.Solve(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("cost:", res.Cost, "tests:", res.Tests)
	// Output:
	// cost: 6 tests: [0 1]
}

// Four tests, each isolating one disease: any three identify every disease,
// so the optimum drops the most expensive one.
func Example_parallelPanel() {
	inst, err := cover.New([]float64{3, 1, 2, 4}, [][]int{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	idx := diffindex.Build(inst)

	e, err := bnb.NewEngine(inst, oracle.NewLP(inst, idx),
		bnb.WithIndex(idx),
		bnb.WithStrategy(bnb.Parallel),
		bnb.WithWorkers(4),
		bnb.WithMode(heuristic.Dynamic),
		bnb.WithLogger(discard),
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	res, err := e.Solve(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("cost:", res.Cost, "tests:", res.Tests, "proven:", res.Proven)
	// Output:
	// cost: 6 tests: [0 1 2] proven: true
}

func Example_integralOracle() {
	inst, err := cover.New([]float64{1, 1, 1}, [][]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	if err != nil {
		fmt.Println(err)
		return
	}
	idx := diffindex.Build(inst)
	orc, err := oracle.NewIntegral(inst, idx)
	if err != nil {
		fmt.Println(err)
		return
	}

	e, err := bnb.NewEngine(inst, orc, bnb.WithIndex(idx), bnb.WithLogger(discard))
	if err != nil {
		fmt.Println(err)
		return
	}
	res, err := e.Solve(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("cost:", res.Cost, "nodes:", res.Stats.Nodes)
	// Output:
	// cost: 2 nodes: 1
}
