// SPDX-License-Identifier: MIT

// Package bnb - parallel best-first traversal.
//
// The root is relaxed on the calling goroutine. Every branched node is pushed
// onto the frontier keyed by its relaxation objective. Each worker pops the
// best node, re-checks its bound against the incumbent, picks the branching
// test, relaxes both children outside any lock and pushes the branched ones.
// An oracle failure in any worker cancels the errgroup context, which closes
// the frontier so idle workers wake up and return.

package bnb

import (
	"context"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

func (r *run) parallel(ctx context.Context) error {
	root := r.root()
	v, err := r.decide(ctx, root)
	if err != nil || v.outcome != outcomeBranched {
		return err
	}
	root.bound = v.res.Objective

	f := newFrontier(&r.stats)
	f.push(root)

	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, f.close)
	defer stop()

	for w := 0; w < r.e.opts.Workers; w++ {
		rng := deriveRNG(r.rng, uint64(w))
		g.Go(func() error { return r.work(gctx, f, rng) })
	}
	err = g.Wait()
	frontierSize.Set(0)
	if err != nil {
		return err
	}
	if !f.isDrained() {
		// Closed by cancellation with nodes still queued.
		r.log.Debug("bnb: frontier abandoned", "queued", f.size())

		return ctx.Err()
	}

	return nil
}

// work drains the frontier until it is drained or closed.
func (r *run) work(ctx context.Context, f *frontier, rng *rand.Rand) error {
	for {
		n, ok := f.pop()
		if !ok {
			return nil
		}
		err := r.expand(ctx, f, n, rng)
		f.done()
		if err != nil {
			return err
		}
	}
}

// expand branches n and pushes its branched children.
func (r *run) expand(ctx context.Context, f *frontier, n node, rng *rand.Rand) error {
	if n.bound >= r.inc.Value()-r.e.opts.Eps {
		// Superseded while queued.
		return nil
	}
	t, err := r.pick(n, rng)
	if err != nil {
		return err
	}
	for _, include := range [2]bool{false, true} {
		c := r.child(n, t, include)
		v, err := r.decide(ctx, c)
		if err != nil {
			return err
		}
		if v.outcome == outcomeBranched {
			c.bound = v.res.Objective
			f.push(c)
		}
	}

	return nil
}
