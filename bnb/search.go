// SPDX-License-Identifier: MIT

// Package bnb - single-goroutine traversals.
//
// Recursive, Stack and StackSkip share decide() and differ only in how the
// children of a branched node are scheduled:
//
//   - Recursive: exclude child, then include child, by direct recursion.
//     A random restart re-runs the whole search from the root with a derived
//     RNG stream and then abandons the current branch; the nested search is
//     complete on its own, so the run stays exact.
//   - Stack:     the same order over an explicit LIFO.
//   - StackSkip: for the top-k ranked free tests r0..r(k-1), k = min(Skip, free),
//     child i excludes r0..r(i-1) and includes ri; one more child excludes all
//     k. These partition the subtree, so the search stays exhaustive.

package bnb

import (
	"context"
	"fmt"
	"math/rand"
)

// recursive explores the subtree rooted at n.
func (r *run) recursive(ctx context.Context, n node, rng *rand.Rand) error {
	v, err := r.decide(ctx, n)
	if err != nil || v.outcome != outcomeBranched {
		return err
	}
	n.bound = v.res.Objective

	if r.restartDue(rng) {
		restarts := r.stats.restarts.Load()
		r.log.Debug("bnb: random restart", "restart", restarts, "depth", n.depth(), "p", r.restartP)

		return r.recursive(ctx, r.root(), deriveRNG(rng, uint64(restarts)))
	}

	t, err := r.pick(n, rng)
	if err != nil {
		return err
	}
	if err = r.recursive(ctx, r.child(n, t, false), rng); err != nil {
		return err
	}

	return r.recursive(ctx, r.child(n, t, true), rng)
}

// restartDue draws the restart coin and decays its probability when it fires.
func (r *run) restartDue(rng *rand.Rand) bool {
	if r.restartP <= 0 || r.stats.restarts.Load() >= int64(r.e.opts.MaxRestarts) {
		return false
	}
	if rng.Float64() >= r.restartP {
		return false
	}
	r.restartP *= r.e.opts.RestartDecay
	r.stats.restarts.Add(1)
	restartsTotal.Inc()

	return true
}

// stack runs Stack and StackSkip.
func (r *run) stack(ctx context.Context) error {
	var (
		pending = []node{r.root()}
		n       node
	)
	for len(pending) > 0 {
		n = pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		v, err := r.decide(ctx, n)
		if err != nil {
			return err
		}
		if v.outcome != outcomeBranched {
			continue
		}
		n.bound = v.res.Objective

		if r.e.opts.Strategy == StackSkip && r.e.opts.Skip > 0 {
			pending, err = r.pushSkip(pending, n)
		} else {
			pending, err = r.pushBinary(pending, n)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// pushBinary pushes the include child, then the exclude child (popped first).
func (r *run) pushBinary(pending []node, n node) ([]node, error) {
	t, err := r.pick(n, r.rng)
	if err != nil {
		return pending, err
	}

	return append(pending, r.child(n, t, true), r.child(n, t, false)), nil
}

// pushSkip pushes up to Skip+1 children; the all-excluded child is popped first.
func (r *run) pushSkip(pending []node, n node) ([]node, error) {
	ranked := r.e.ranker.Order(n.a, n.rem)
	if len(ranked) == 0 {
		return pending, fmt.Errorf("%w (depth %d, objective %v)", ErrBranchExhausted, n.depth(), n.bound)
	}
	k := min(r.e.opts.Skip, len(ranked))

	for i := k - 1; i >= 0; i-- {
		c := node{
			a:   n.a.Exclude(ranked[:i]...).Include(ranked[i]),
			rem: r.e.idx.Without(n.rem, ranked[i]),
		}
		pending = append(pending, c)
	}

	return append(pending, node{a: n.a.Exclude(ranked[:k]...), rem: n.rem}), nil
}
