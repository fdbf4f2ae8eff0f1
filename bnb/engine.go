// SPDX-License-Identifier: MIT

package bnb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/katalvlaran/diagsel/cover"
	"github.com/katalvlaran/diagsel/diffindex"
	"github.com/katalvlaran/diagsel/heuristic"
	"github.com/katalvlaran/diagsel/oracle"
)

// Engine runs branch-and-bound over one instance. It holds no per-run state;
// concurrent Solve calls on the same Engine are independent.
type Engine struct {
	inst   *cover.Instance
	idx    *diffindex.Index
	orc    oracle.Oracle
	ranker *heuristic.Ranker
	opts   Options
}

// Result is the outcome of one Solve call.
type Result struct {
	// Feasible is false when no integral cover exists (or none was found
	// before the run was interrupted).
	Feasible bool

	// Proven is true iff the search completed; only then is Cost optimal.
	Proven bool

	// Cost is Objective rounded up to the next integer.
	Cost      int
	Objective float64
	Tests     []int

	Stats   Stats
	RunID   string
	Elapsed time.Duration
}

// NewEngine prepares a search over inst using orc as the relaxation oracle.
// The differentiation index is built here unless WithIndex supplies one.
//
// Errors: ErrNilInstance, ErrNilOracle, ErrBadOptions.
func NewEngine(inst *cover.Instance, orc oracle.Oracle, opts ...Option) (*Engine, error) {
	if inst == nil {
		return nil, ErrNilInstance
	}
	if orc == nil {
		return nil, ErrNilOracle
	}
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	idx := o.Index
	if idx == nil {
		idx = diffindex.Build(inst)
	} else if idx.NumTests() != inst.NumTests() || idx.NumDiseases() != inst.NumDiseases() {
		return nil, fmt.Errorf("%w: index is %dx%d, instance is %dx%d", ErrBadOptions,
			idx.NumTests(), idx.NumDiseases(), inst.NumTests(), inst.NumDiseases())
	}

	return &Engine{
		inst:   inst,
		idx:    idx,
		orc:    orc,
		ranker: heuristic.NewRanker(idx, inst.Costs(), o.Mode),
		opts:   o,
	}, nil
}

// Index returns the differentiation index used by the engine.
func (e *Engine) Index() *diffindex.Index { return e.idx }

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Solve runs the configured strategy to completion.
//
// A nil error means the search finished: Result.Proven is true and Feasible
// tells whether a cover exists. On cancellation (ctx or TimeLimit) the Result
// carries the incumbent so far with Proven=false; on ErrOracle or
// ErrBranchExhausted it must not be reported as final.
func (e *Engine) Solve(ctx context.Context) (Result, error) {
	r := e.newRun()
	start := time.Now()
	r.log.Info("bnb: search started",
		"tests", e.inst.NumTests(),
		"diseases", e.inst.NumDiseases(),
		"pairs", e.idx.NumPairs(),
		"mode", e.opts.Mode.String(),
	)

	if stuck := e.idx.Undifferentiable(); len(stuck) > 0 {
		r.log.Info("bnb: instance infeasible", "pair", stuck[0].String(), "undifferentiable", len(stuck))
		return r.finish(start, nil), nil
	}

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.opts.TimeLimit > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.opts.TimeLimit)
	}
	defer cancel()

	var err error
	switch e.opts.Strategy {
	case Recursive:
		err = r.recursive(runCtx, r.root(), r.rng)
	case Stack, StackSkip:
		err = r.stack(runCtx)
	case Parallel:
		err = r.parallel(runCtx)
	}

	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil && e.opts.TimeLimit > 0 {
		err = fmt.Errorf("%w after %v", ErrTimeLimit, e.opts.TimeLimit)
	}
	res := r.finish(start, err)
	switch {
	case err == nil:
		r.log.Info("bnb: search finished",
			"feasible", res.Feasible,
			"cost", res.Cost,
			"nodes", res.Stats.Nodes,
			"elapsed", res.Elapsed,
		)
	case errors.Is(err, ErrTimeLimit) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		r.log.Warn("bnb: search interrupted", "err", err, "incumbent", r.inc.Value(), "nodes", res.Stats.Nodes)
	}

	return res, err
}

// run is the mutable state of one Solve call.
type run struct {
	e        *Engine
	id       string
	strategy string
	log      *slog.Logger
	rng      *rand.Rand
	progress *rate.Sometimes

	inc   Incumbent
	stats counters

	hookMu   sync.Mutex
	reported float64

	restartP float64 // recursive only; single goroutine
}

func (e *Engine) newRun() *run {
	id := uuid.NewString()
	r := &run{
		e:        e,
		id:       id,
		strategy: e.opts.Strategy.String(),
		log:      e.opts.Logger.With("run", id, "strategy", e.opts.Strategy.String()),
		rng:      rngFromSeed(e.opts.Seed),
		reported: math.Inf(1),
		restartP: e.opts.Restart,
	}
	if e.opts.ProgressEvery > 0 {
		r.progress = &rate.Sometimes{Interval: e.opts.ProgressEvery}
	}

	return r
}

func (r *run) finish(start time.Time, err error) Result {
	res := Result{
		Feasible: r.inc.Set(),
		Proven:   err == nil,
		Tests:    r.inc.Tests(),
		Stats:    r.stats.snapshot(),
		RunID:    r.id,
		Elapsed:  time.Since(start),
	}
	if res.Feasible {
		res.Objective = r.inc.Value()
		res.Cost = int(math.Ceil(res.Objective - r.e.opts.Eps))
	}
	result := "infeasible"
	switch {
	case err != nil:
		result = "error"
	case res.Feasible:
		result = "optimal"
	}
	runsTotal.WithLabelValues(r.strategy, result).Inc()

	return res
}

// node is a search-tree node: a partial assignment plus the pairs its
// included tests leave undifferentiated. rem is shared and never mutated.
type node struct {
	a     cover.Assignment
	rem   *roaring.Bitmap
	bound float64 // relaxation objective once evaluated
}

func (n node) depth() int { return n.a.Fixed() }

func (r *run) root() node {
	return node{a: cover.NewAssignment(r.e.inst.NumTests()), rem: r.e.idx.AllPairs()}
}

// child fixes test t; an excluded child shares the parent's remaining set.
func (r *run) child(n node, t int, include bool) node {
	c := node{a: n.a.With(t, include), rem: n.rem}
	if include {
		c.rem = r.e.idx.Without(n.rem, t)
	}

	return c
}

type verdict struct {
	outcome string
	res     oracle.Result
}

// decide relaxes n and classifies it: infeasible, bound (pruned), accepted
// (integral, installed or tied with the incumbent), or branched.
func (r *run) decide(ctx context.Context, n node) (verdict, error) {
	if err := ctx.Err(); err != nil {
		return verdict{}, err
	}
	start := time.Now()
	res, ok, err := r.e.orc.Solve(ctx, oracle.Query{Assignment: n.a, Remaining: n.rem})
	oracleDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return verdict{}, ctxErr
		}
		oracleErrors.Inc()

		return verdict{}, fmt.Errorf("%w at depth %d: %w", ErrOracle, n.depth(), err)
	}

	v := verdict{res: res}
	switch {
	case !ok:
		v.outcome = outcomeInfeasible
	case res.Integral:
		installed, err := r.offer(res)
		if err != nil {
			return verdict{}, err
		}
		v.outcome = outcomeBound
		if installed {
			v.outcome = outcomeAccepted
		}
	case res.Objective < r.inc.Value()-r.e.opts.Eps:
		v.outcome = outcomeBranched
	default:
		v.outcome = outcomeBound
	}
	r.stats.node(r.strategy, v.outcome, n.depth())
	if r.progress != nil {
		r.progress.Do(func() {
			r.log.Info("bnb: progress",
				"nodes", r.stats.nodes.Load(),
				"incumbent", r.inc.Value(),
				"depth", n.depth(),
			)
		})
	}

	return v, nil
}

// offer installs an integral optimum after checking it is a real cover.
func (r *run) offer(res oracle.Result) (bool, error) {
	tests := res.Used()
	if ok, p := r.e.idx.Covers(tests); !ok {
		return false, fmt.Errorf("%w: integral result leaves pair %v undifferentiated", ErrOracle, p)
	}
	if !r.inc.Offer(res.Objective, tests) {
		return false, nil
	}
	r.stats.updates.Add(1)
	incumbentUpdates.Inc()

	r.hookMu.Lock()
	defer r.hookMu.Unlock()
	if res.Objective <= r.reported {
		r.reported = res.Objective
		r.log.Debug("bnb: incumbent improved", "objective", res.Objective, "tests", tests)
		if r.e.opts.OnIncumbent != nil {
			r.e.opts.OnIncumbent(res.Objective, append([]int(nil), tests...))
		}
	}

	return true, nil
}

// pick chooses the branching test of n.
func (r *run) pick(n node, rng *rand.Rand) (int, error) {
	t, err := r.e.ranker.Pick(n.a, n.rem, rng, r.e.opts.Fadeoff)
	if errors.Is(err, heuristic.ErrNoFreeTests) {
		return -1, fmt.Errorf("%w (depth %d, objective %v)", ErrBranchExhausted, n.depth(), n.bound)
	}

	return t, err
}
