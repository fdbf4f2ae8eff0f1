// SPDX-License-Identifier: MIT

// Package oracle defines the relaxation oracle consumed by the branch-and-bound
// search and ships two implementations of it:
//
//   - LP:       continuous relaxation solved with gonum's simplex method.
//   - Integral: exact 0/1 optimum via pseudo-boolean minimization (gophersat).
//
// Both encode the same covering program for a partial assignment:
//
//	minimize   Σ_t cost[t]·x[t]
//	subject to Σ_{t splits p} x[t] ≥ 1      for every disease pair p
//	           x[t] = 1 (included), x[t] = 0 (excluded), 0 ≤ x[t] ≤ 1 otherwise.
//
// Contract:
//   - Solve returns feasible=false (and a nil error) iff the fixed exclusions leave
//     some pair without any usable test.
//   - Result.Integral is true iff every x[t] of the returned optimum is 0 or 1.
//   - Each call is independent; implementations here are safe for concurrent use.
//     Use Limit/Serialize to fence an implementation that is not.
package oracle

import (
	"context"
	"errors"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"

	"github.com/katalvlaran/diagsel/cover"
	"github.com/katalvlaran/diagsel/diffindex"
)

// Sentinel errors returned by oracles.
var (
	// ErrSolver wraps an internal failure of the underlying solver.
	ErrSolver = errors.New("oracle: solver failure")

	// ErrNonIntegralCost indicates the Integral oracle received a fractional cost.
	ErrNonIntegralCost = errors.New("oracle: integral oracle requires integer costs")

	// ErrShape indicates an assignment that does not match the instance size.
	ErrShape = errors.New("oracle: assignment size does not match instance")
)

// Query is one oracle request.
type Query struct {
	// Assignment fixes tests to included/excluded; free tests are decision variables.
	Assignment cover.Assignment

	// Remaining optionally carries the pairs not yet split by an included test.
	// When nil it is derived from Assignment. Oracles never mutate it.
	Remaining *roaring.Bitmap
}

// Result is the optimum of one relaxation. It is produced fresh per call.
type Result struct {
	// Objective is the optimal total cost, including the cost of included tests.
	Objective float64

	// Usage[t] is the value of x[t] in the optimum (0 or 1 for fixed tests).
	Usage []float64

	// Integral reports whether every Usage entry is exactly 0 or 1.
	Integral bool
}

// Used returns the tests whose usage is 1 (meaningful for integral results).
func (r Result) Used() []int {
	var out []int
	for t, v := range r.Usage {
		if v == 1 {
			out = append(out, t)
		}
	}

	return out
}

// Oracle answers relaxation queries.
type Oracle interface {
	Solve(ctx context.Context, q Query) (Result, bool, error)
}

// Func adapts a plain function to the Oracle interface.
type Func func(ctx context.Context, q Query) (Result, bool, error)

// Solve implements Oracle.
func (f Func) Solve(ctx context.Context, q Query) (Result, bool, error) { return f(ctx, q) }

// reduced is the residual program left after fixing tests and dropping covered pairs.
type reduced struct {
	fixedCost float64
	usage     []float64 // len numTests; included tests already 1
	cols      []int     // free tests that split at least one remaining pair
	rows      [][]int   // per undominated remaining constraint: column indices into cols
}

// presolve removes everything the fixed part of the assignment already decides.
//
// Behavior:
//   - included tests contribute their cost and usage 1;
//   - a remaining pair whose every splitting test is excluded ⇒ infeasible;
//   - free tests that split no remaining pair are pinned to 0;
//   - a constraint row that contains another row is dropped (identical rows
//     keep one copy).
func presolve(inst *cover.Instance, idx *diffindex.Index, q Query) (reduced, bool, error) {
	var a = q.Assignment
	if a.Len() != inst.NumTests() {
		return reduced{}, false, ErrShape
	}
	rem := q.Remaining
	if rem == nil {
		rem = idx.Remaining(a)
	}

	r := reduced{usage: make([]float64, inst.NumTests())}
	for _, t := range a.IncludedTests() {
		r.fixedCost += inst.Cost(t)
		r.usage[t] = 1
	}

	var (
		colOf = make([]int, inst.NumTests())
		rows  [][]int
	)
	for t := range colOf {
		colOf[t] = -1
	}

	it := rem.Iterator()
	for it.HasNext() {
		p := it.Next()
		var row []int
		tests := idx.PairTests(p).Iterator()
		for tests.HasNext() {
			t := int(tests.Next())
			if !a.IsFree(t) {
				continue
			}
			if colOf[t] < 0 {
				colOf[t] = len(r.cols)
				r.cols = append(r.cols, t)
			}
			row = append(row, colOf[t])
		}
		if len(row) == 0 {
			return reduced{}, false, nil
		}
		rows = append(rows, row)
	}
	r.rows = undominated(rows, len(r.cols))

	return r, true, nil
}

// undominated keeps the rows that contain no other kept row. Shorter rows are
// visited first, so a kept row is never a strict superset of a later one.
// Output order is by length, ties in input order.
func undominated(rows [][]int, numCols int) [][]int {
	slices.SortStableFunc(rows, func(x, y []int) int { return len(x) - len(y) })

	var (
		kept = rows[:0]
		sets []*bitset.BitSet
	)
	for _, row := range rows {
		set := bitset.New(uint(numCols))
		for _, c := range row {
			set.Set(uint(c))
		}
		dominated := false
		for _, k := range sets {
			if set.IsSuperSet(k) {
				dominated = true
				break
			}
		}
		if dominated {
			continue
		}
		kept = append(kept, row)
		sets = append(sets, set)
	}

	return kept
}

// coveredBy reports whether usage sets some column of every row to 1.
func (r reduced) coveredBy(usage []float64) bool {
	for _, row := range r.rows {
		hit := false
		for _, j := range row {
			if usage[r.cols[j]] == 1 {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	return true
}

// trivial is the result when no constraint is left: every free test stays at 0.
func (r reduced) trivial() Result {
	return Result{Objective: r.fixedCost, Usage: r.usage, Integral: true}
}
