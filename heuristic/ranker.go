// SPDX-License-Identifier: MIT

// Package heuristic orders undecided tests for branching.
//
// Score of a free test t at a node = |remaining ∩ pairs(t)| / cost[t], i.e. how
// many still-undifferentiated disease pairs t would split per unit of cost.
// Free tests are ranked by descending score, ties broken by ascending index.
//
// Modes:
//   - Static:  one ranking against the empty assignment, reused for the whole tree.
//   - Dynamic: re-ranked at every branching decision from the node's remaining
//     pair set. The set is maintained incrementally by the search, so a re-rank
//     costs one AndCardinality per free test instead of a rescan of all pairs.
//
// Fadeoff:
//
//	Pick walks the ranking from the top; at every successor, with probability
//	fadeoff, the choice drifts to that successor. fadeoff=0 is deterministic.
package heuristic

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/katalvlaran/diagsel/cover"
	"github.com/katalvlaran/diagsel/diffindex"
)

// ErrNoFreeTests indicates a branching request on a node with every test fixed.
var ErrNoFreeTests = errors.New("heuristic: no free tests to branch on")

// Mode selects when the ranking is computed.
type Mode int

const (
	// Static ranks once against the empty assignment.
	Static Mode = iota

	// Dynamic re-ranks from the current node before each branching decision.
	Dynamic
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == Dynamic {
		return "dynamic"
	}

	return "static"
}

// ParseMode maps "static"/"dynamic" (case-insensitive) to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "static":
		return Static, nil
	case "dynamic":
		return Dynamic, nil
	default:
		return Static, fmt.Errorf("heuristic: unknown branching mode %q", s)
	}
}

// Ranker produces branching orders. It is read-only after construction and
// safe for concurrent use.
type Ranker struct {
	idx    *diffindex.Index
	costs  []float64
	mode   Mode
	static []int // full static ranking (all tests)
}

// NewRanker builds a ranker; the static ranking is computed eagerly in both modes.
//
// Complexity: O(T log T + Σ|pairs(t)|).
func NewRanker(idx *diffindex.Index, costs []float64, mode Mode) *Ranker {
	r := &Ranker{idx: idx, costs: costs, mode: mode}
	all := make([]int, len(costs))
	for t := range all {
		all[t] = t
	}
	r.static = r.rank(all, idx.AllPairs())

	return r
}

// Mode returns the ranker's mode.
func (r *Ranker) Mode() Mode { return r.mode }

// Static returns a copy of the static ranking over all tests.
func (r *Ranker) Static() []int {
	out := make([]int, len(r.static))
	copy(out, r.static)

	return out
}

// Order returns the free tests of a, best first.
// remaining is the node's undifferentiated pair set; it is only consulted in
// Dynamic mode and may be nil (then it is derived from a).
func (r *Ranker) Order(a cover.Assignment, remaining *roaring.Bitmap) []int {
	if r.mode == Static {
		out := make([]int, 0, a.Len()-a.Fixed())
		for _, t := range r.static {
			if a.IsFree(t) {
				out = append(out, t)
			}
		}

		return out
	}
	if remaining == nil {
		remaining = r.idx.Remaining(a)
	}

	return r.rank(a.FreeTests(), remaining)
}

// Pick returns the test to branch on, applying the fadeoff drift with rng.
//
// Errors: ErrNoFreeTests if every test of a is fixed.
func (r *Ranker) Pick(a cover.Assignment, remaining *roaring.Bitmap, rng *rand.Rand, fadeoff float64) (int, error) {
	tests := r.Order(a, remaining)
	if len(tests) == 0 {
		return -1, ErrNoFreeTests
	}

	return Fadeoff(tests, rng, fadeoff), nil
}

// Fadeoff walks ranked from the top and, at each successor, replaces the choice
// by that successor with probability p. ranked must be non-empty.
func Fadeoff(ranked []int, rng *rand.Rand, p float64) int {
	var choice = ranked[0]
	if p <= 0 || rng == nil {
		return choice
	}
	for i := 1; i < len(ranked); i++ {
		if rng.Float64() < p {
			choice = ranked[i]
		}
	}

	return choice
}

// rank sorts tests by descending gain/cost, ties by index.
func (r *Ranker) rank(tests []int, remaining *roaring.Bitmap) []int {
	score := make([]float64, len(r.costs))
	for _, t := range tests {
		score[t] = float64(r.idx.Gain(remaining, t)) / r.costs[t]
	}
	out := make([]int, len(tests))
	copy(out, tests)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if score[a] != score[b] {
			return score[a] > score[b]
		}

		return a < b
	})

	return out
}
