// SPDX-License-Identifier: MIT

package bnb

import (
	"math"
	"sync/atomic"
)

// incumbentState is an immutable snapshot; a new one is allocated per update.
type incumbentState struct {
	value float64
	tests []int
}

// Incumbent is the best integral cover found so far.
//
// Reads are a single atomic load. Offer is a compare-and-swap loop, so two
// goroutines can never both install a value worse than the one the other saw,
// and the stored value never increases.
type Incumbent struct {
	cur atomic.Pointer[incumbentState]
}

// Value returns the best objective so far, or +Inf if none was set.
func (in *Incumbent) Value() float64 {
	if s := in.cur.Load(); s != nil {
		return s.value
	}

	return math.Inf(1)
}

// Set reports whether any solution was installed.
func (in *Incumbent) Set() bool { return in.cur.Load() != nil }

// Tests returns a copy of the best cover's tests (nil if unset).
func (in *Incumbent) Tests() []int {
	s := in.cur.Load()
	if s == nil {
		return nil
	}
	out := make([]int, len(s.tests))
	copy(out, s.tests)

	return out
}

// Offer installs (value, tests) when no incumbent exists or value ≤ current.
// It returns true if the offer was installed. tests is copied.
func (in *Incumbent) Offer(value float64, tests []int) bool {
	next := &incumbentState{value: value, tests: append([]int(nil), tests...)}
	for {
		old := in.cur.Load()
		if old != nil && value > old.value {
			return false
		}
		if in.cur.CompareAndSwap(old, next) {
			return true
		}
	}
}
