// SPDX-License-Identifier: MIT

// Package oracle - continuous relaxation via gonum's simplex.
//
// Standard form handed to lp.Simplex (x, s ≥ 0):
//
//	minimize   cᵀx
//	subject to C·x − s = b,   b[i] = 1 + step·(i+1)
//
// where C is the 0/1 cover matrix of the residual program (one row per
// undominated remaining constraint, one column per useful free test) and s are
// surplus variables. The −I block keeps the system at full row rank. The upper
// bounds x ≤ 1 are implied: with positive costs, lowering any x[t] > 1 to 1
// keeps every constraint satisfied and strictly reduces the objective.
//
// Covering programs with an all-ones rhs are heavily degenerate and make the
// simplex cycle or fail in Bland's rule. The distinct rhs entries break the
// ties. Every b[i] lies in [1, 1+span], so the perturbed optimum z' satisfies
// z ≤ z' ≤ (1+span)·z and z'/(1+span) is reported as a lower bound on z.

package oracle

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/katalvlaran/diagsel/cover"
	"github.com/katalvlaran/diagsel/diffindex"
)

// DefaultIntegralityTol is the distance from 0/1 under which a value counts as integral.
const DefaultIntegralityTol = 1e-7

const (
	// perturbStep is the rhs increment between consecutive rows.
	perturbStep = 1e-9

	// perturbSpan caps the total rhs perturbation on large programs.
	perturbSpan = 1e-7
)

// simplex is swapped in tests to simulate a solver that never returns.
var simplex = lp.Simplex

// LP is the continuous relaxation oracle.
type LP struct {
	inst *cover.Instance
	idx  *diffindex.Index
	tol  float64
}

// LPOption configures an LP oracle.
type LPOption func(*LP)

// WithIntegralityTol overrides DefaultIntegralityTol. It panics on a negative value.
func WithIntegralityTol(tol float64) LPOption {
	if tol < 0 || math.IsNaN(tol) {
		panic("oracle: integrality tolerance must be non-negative")
	}

	return func(o *LP) { o.tol = tol }
}

// NewLP returns an LP oracle for inst. idx must be the index built from inst.
func NewLP(inst *cover.Instance, idx *diffindex.Index, opts ...LPOption) *LP {
	o := &LP{inst: inst, idx: idx, tol: DefaultIntegralityTol}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Solve implements Oracle. The simplex runs on its own goroutine so that a
// cancelled ctx returns promptly; the abandoned call finishes in the background.
func (o *LP) Solve(ctx context.Context, q Query) (Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, false, err
	}
	r, ok, err := presolve(o.inst, o.idx, q)
	if err != nil || !ok {
		return Result{}, ok, err
	}
	if len(r.rows) == 0 {
		return r.trivial(), true, nil
	}

	var (
		m    = len(r.rows)
		n    = len(r.cols)
		step = perturbStep
	)
	if step*float64(m) > perturbSpan {
		step = perturbSpan / float64(m)
	}
	span := step * float64(m)

	c := make([]float64, n+m)
	for j, t := range r.cols {
		c[j] = o.inst.Cost(t)
	}
	A := mat.NewDense(m, n+m, nil)
	b := make([]float64, m)
	for i, row := range r.rows {
		for _, j := range row {
			A.Set(i, j, 1)
		}
		A.Set(i, n+i, -1)
		b[i] = 1 + step*float64(i+1)
	}

	type answer struct {
		z   float64
		x   []float64
		err error
	}
	var (
		run  = simplex
		done = make(chan answer, 1)
	)
	go func() {
		z, x, err := run(c, A, b, 0, nil)
		done <- answer{z: z, x: x, err: err}
	}()

	var ans answer
	select {
	case <-ctx.Done():
		return Result{}, false, ctx.Err()
	case ans = <-done:
	}
	if ans.err != nil {
		if errors.Is(ans.err, lp.ErrInfeasible) {
			return Result{}, false, nil
		}

		return Result{}, false, fmt.Errorf("%w: simplex on %d×%d: %v", ErrSolver, m, n+m, ans.err)
	}

	// Perturbed values drift from their vertex by about span.
	var (
		snap     = o.tol + 2*span
		integral = true
	)
	for j, t := range r.cols {
		v := ans.x[j]
		switch {
		case math.Abs(v) <= snap:
			v = 0
		case math.Abs(v-1) <= snap:
			v = 1
		default:
			integral = false
		}
		r.usage[t] = v
	}
	if integral && !r.coveredBy(r.usage) {
		integral = false
	}

	res := Result{Objective: r.fixedCost + ans.z/(1+span), Usage: r.usage, Integral: integral}
	if integral {
		// Exact objective for 0/1 optima keeps incumbents free of simplex noise.
		res.Objective = r.fixedCost
		for _, t := range r.cols {
			if r.usage[t] == 1 {
				res.Objective += o.inst.Cost(t)
			}
		}
	}

	return res, true, nil
}
