// SPDX-License-Identifier: MIT

// Package oracle - exact 0/1 oracle via pseudo-boolean minimization.
//
// Each residual constraint becomes the clause ∨_{t splits p} x[t]; the cost
// function is Σ cost[t]·x[t] over the useful free tests. gophersat minimizes
// integer weights, so costs must be integer valued.

package oracle

import (
	"context"
	"fmt"
	"math"

	"github.com/crillab/gophersat/solver"

	"github.com/katalvlaran/diagsel/cover"
	"github.com/katalvlaran/diagsel/diffindex"
)

// Integral is an oracle whose answers are always 0/1 optima.
type Integral struct {
	inst    *cover.Instance
	idx     *diffindex.Index
	weights []int
}

// NewIntegral returns an Integral oracle for inst.
//
// Errors: ErrNonIntegralCost if some cost is not an integer (or overflows int).
func NewIntegral(inst *cover.Instance, idx *diffindex.Index) (*Integral, error) {
	w := make([]int, inst.NumTests())
	for t := range w {
		c := inst.Cost(t)
		if c != math.Trunc(c) || c > math.MaxInt32 {
			return nil, fmt.Errorf("%w: test %d cost %v", ErrNonIntegralCost, t, c)
		}
		w[t] = int(c)
	}

	return &Integral{inst: inst, idx: idx, weights: w}, nil
}

// Solve implements Oracle.
func (o *Integral) Solve(ctx context.Context, q Query) (Result, bool, error) {
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

	// Variables are 1-based literals over the useful free tests.
	constrs := make([]solver.PBConstr, 0, len(r.rows))
	for _, row := range r.rows {
		lits := make([]int, len(row))
		for i, j := range row {
			lits[i] = j + 1
		}
		constrs = append(constrs, solver.AtLeast(lits, 1))
	}
	pb := solver.ParsePBConstrs(constrs)

	var (
		costLits = make([]solver.Lit, len(r.cols))
		weights  = make([]int, len(r.cols))
	)
	for j, t := range r.cols {
		costLits[j] = solver.IntToLit(int32(j + 1))
		weights[j] = o.weights[t]
	}
	pb.SetCostFunc(costLits, weights)

	s := solver.New(pb)
	best := s.Minimize()
	if best < 0 {
		return Result{}, false, nil
	}

	model := s.Model()
	if len(model) < len(r.cols) {
		return Result{}, false, fmt.Errorf("%w: model has %d variables, want %d", ErrSolver, len(model), len(r.cols))
	}
	res := Result{Objective: r.fixedCost, Usage: r.usage, Integral: true}
	for j, t := range r.cols {
		if model[j] {
			r.usage[t] = 1
			res.Objective += o.inst.Cost(t)
		}
	}

	return res, true, nil
}
