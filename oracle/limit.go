// SPDX-License-Identifier: MIT

package oracle

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// limited fences an oracle behind a weighted semaphore.
type limited struct {
	inner Oracle
	sem   *semaphore.Weighted
}

// Limit returns an Oracle that lets at most n calls into o run at once.
// Waiting callers give up when their context is cancelled. n < 1 is treated as 1.
func Limit(o Oracle, n int64) Oracle {
	if n < 1 {
		n = 1
	}

	return &limited{inner: o, sem: semaphore.NewWeighted(n)}
}

// Serialize is Limit(o, 1): the boundary for oracles that are not thread-safe.
func Serialize(o Oracle) Oracle { return Limit(o, 1) }

func (l *limited) Solve(ctx context.Context, q Query) (Result, bool, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return Result{}, false, err
	}
	defer l.sem.Release(1)

	return l.inner.Solve(ctx, q)
}

// Counting wraps an Oracle and counts its invocations.
type Counting struct {
	inner Oracle
	calls atomic.Int64
}

// NewCounting wraps o.
func NewCounting(o Oracle) *Counting { return &Counting{inner: o} }

// Solve implements Oracle.
func (c *Counting) Solve(ctx context.Context, q Query) (Result, bool, error) {
	c.calls.Add(1)

	return c.inner.Solve(ctx, q)
}

// Calls returns the number of Solve invocations so far.
func (c *Counting) Calls() int64 { return c.calls.Load() }
