// SPDX-License-Identifier: MIT

// Package diffindex - remaining (not yet differentiated) pair sets.
//
// Along a search branch the set of pairs still to differentiate only shrinks
// when a test is included. Without derives a child's set from its parent's in
// O(|pairs(t)|) instead of rescanning every pair; the parent bitmap is never
// mutated, so an excluded child can share it verbatim.

package diffindex

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/katalvlaran/diagsel/cover"
)

// Remaining returns the pairs not differentiated by any test included in a.
//
// Complexity: O(P + Σ_{t included} |pairs(t)|).
func (x *Index) Remaining(a cover.Assignment) *roaring.Bitmap {
	rem := x.all.Clone()
	for _, t := range a.IncludedTests() {
		rem.AndNot(x.byTest[t])
	}

	return rem
}

// Without returns rem minus the pairs split by test t, leaving rem untouched.
func (x *Index) Without(rem *roaring.Bitmap, t int) *roaring.Bitmap {
	return roaring.AndNot(rem, x.byTest[t])
}

// Gain returns how many pairs of rem test t would newly differentiate.
func (x *Index) Gain(rem *roaring.Bitmap, t int) uint64 {
	return rem.AndCardinality(x.byTest[t])
}

// Stranded reports the first pair of rem that no test outside the excluded
// set of a can split, i.e. a pair that makes the assignment infeasible.
func (x *Index) Stranded(a cover.Assignment, rem *roaring.Bitmap) (cover.Pair, bool) {
	it := rem.Iterator()
	for it.HasNext() {
		p := it.Next()
		if !x.coverable(a, p) {
			return x.Pair(p), true
		}
	}

	return cover.Pair{}, false
}

func (x *Index) coverable(a cover.Assignment, p uint32) bool {
	it := x.byPair[p].Iterator()
	for it.HasNext() {
		if a.Get(int(it.Next())) != cover.Excluded {
			return true
		}
	}

	return false
}

// Covers checks the covering invariant for a set of tests: every pair must be
// differentiated by at least one of them. On failure it returns the first
// uncovered pair.
func (x *Index) Covers(tests []int) (bool, cover.Pair) {
	rem := x.all.Clone()
	for _, t := range tests {
		rem.AndNot(x.byTest[t])
	}
	if rem.IsEmpty() {
		return true, cover.Pair{}
	}

	return false, x.Pair(rem.Minimum())
}
