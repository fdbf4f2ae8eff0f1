// SPDX-License-Identifier: MIT

// Package diagsel picks the cheapest set of diagnostic tests that tells every
// pair of candidate diseases apart.
//
// 🚀 What is diagsel?
//
//	An exact minimum-cost covering solver for differential diagnosis:
//		• Instances: a cost per test and a 0/1 outcome per (test, disease)
//		• Differentiation index: which tests split which disease pairs (roaring bitmaps)
//		• Relaxation oracles: LP (gonum simplex) and exact 0/1 (gophersat)
//		• Branch-and-bound: recursive, explicit stack, stack-skip, parallel best-first
//		• Branching heuristic: static or dynamic pairs-per-cost ranking with fadeoff
//
// Under the hood, everything is organized as flat subpackages:
//
//	cover/        Instance, Pair, Assignment and the text instance format
//	diffindex/    test ↔ pair index and remaining-pair bookkeeping
//	oracle/       Oracle interface, LP and Integral oracles, concurrency fences
//	heuristic/    branching order and fadeoff pick
//	bnb/          Engine, strategies, Incumbent, metrics
//	config/       YAML settings and their mapping to engine options
//	cmd/diagsel   command-line front end
//
// Quick example:
//
//	inst, _ := cover.New([]float64{5, 1}, [][]int{{0, 1, 0}, {0, 0, 1}})
//	idx := diffindex.Build(inst)
//	e, _ := bnb.NewEngine(inst, oracle.NewLP(inst, idx), bnb.WithIndex(idx))
//	res, _ := e.Solve(context.Background())
//	fmt.Println(res.Cost, res.Tests) // 6 [0 1]
package diagsel
