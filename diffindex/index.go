// SPDX-License-Identifier: MIT

// Package diffindex precomputes which disease pairs each test differentiates
// and, in reverse, which tests differentiate each pair.
//
// Both mappings are stored as roaring bitmaps keyed by dense identifiers:
// pair sets use cover.PairID, test sets use the test index. The index is built
// once per instance and is immutable afterwards, so it can be shared freely by
// concurrent search workers.
//
// Complexity:
//   - Build: O(T·D²) worst case; each test walks only the diseases whose outcome
//     differs from the current one (bitset NextSet over the row or its complement).
//   - Memory: O(Σ_t |pairs(t)|) compressed.
package diffindex

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/katalvlaran/diagsel/cover"
)

// Index is the differentiation index of one instance.
type Index struct {
	numTests    int
	numDiseases int
	byTest      []*roaring.Bitmap // test → pair ids it differentiates
	byPair      []*roaring.Bitmap // pair id → tests that differentiate it
	all         *roaring.Bitmap   // every pair id
}

// Build derives both mappings from inst.
//
// Invariant: pair p is in byTest[t] iff t is in byPair[p] iff the outcome of t
// differs between the two diseases of p.
func Build(inst *cover.Instance) *Index {
	var (
		nt = inst.NumTests()
		nd = inst.NumDiseases()
		np = cover.NumPairs(nd)
	)
	x := &Index{
		numTests:    nt,
		numDiseases: nd,
		byTest:      make([]*roaring.Bitmap, nt),
		byPair:      make([]*roaring.Bitmap, np),
		all:         roaring.New(),
	}
	if np > 0 {
		x.all.AddRange(0, uint64(np))
	}

	var (
		p  uint32
		pi int
	)
	for pi = 0; pi < np; pi++ {
		x.byPair[pi] = roaring.New()
	}

	var (
		t      int
		d1     uint
		d2     uint
		ok     bool
		source = make([]uint32, 0, np)
	)
	for t = 0; t < nt; t++ {
		row := inst.Row(t)
		neg := row.Complement()
		source = source[:0]
		for d1 = 0; d1 < uint(nd); d1++ {
			// Diseases after d1 whose outcome differs from d1's.
			differ := row
			if row.Test(d1) {
				differ = neg
			}
			for d2, ok = differ.NextSet(d1 + 1); ok && d2 < uint(nd); d2, ok = differ.NextSet(d2 + 1) {
				p = cover.PairID(cover.Pair{D1: int(d1), D2: int(d2)}, nd)
				source = append(source, p)
				x.byPair[p].Add(uint32(t))
			}
		}
		bm := roaring.BitmapOf(source...)
		bm.RunOptimize()
		x.byTest[t] = bm
	}

	return x
}

// NumTests returns the number of tests indexed.
func (x *Index) NumTests() int { return x.numTests }

// NumDiseases returns the number of diseases indexed.
func (x *Index) NumDiseases() int { return x.numDiseases }

// NumPairs returns the number of disease pairs.
func (x *Index) NumPairs() int { return len(x.byPair) }

// TestPairs returns the pair-id set of test t. The bitmap is shared; do not mutate it.
func (x *Index) TestPairs(t int) *roaring.Bitmap { return x.byTest[t] }

// PairTests returns the test set of pair id p. The bitmap is shared; do not mutate it.
func (x *Index) PairTests(p uint32) *roaring.Bitmap { return x.byPair[p] }

// AllPairs returns a fresh bitmap holding every pair id.
func (x *Index) AllPairs() *roaring.Bitmap { return x.all.Clone() }

// Pair decodes a pair id.
func (x *Index) Pair(p uint32) cover.Pair { return cover.PairAt(p, x.numDiseases) }

// ID encodes a canonical pair.
func (x *Index) ID(p cover.Pair) uint32 { return cover.PairID(p, x.numDiseases) }

// Differentiates returns the pairs split by test t, in id order.
func (x *Index) Differentiates(t int) []cover.Pair {
	ids := x.byTest[t].ToArray()
	out := make([]cover.Pair, len(ids))
	for i, id := range ids {
		out[i] = x.Pair(id)
	}

	return out
}

// DifferentiatedBy returns the tests that split p, ascending.
func (x *Index) DifferentiatedBy(p cover.Pair) []int {
	ids := x.byPair[x.ID(p)].ToArray()
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}

	return out
}

// Undifferentiable lists the pairs no test can split. A non-empty result
// means the instance has no cover at all.
func (x *Index) Undifferentiable() []cover.Pair {
	var out []cover.Pair
	for p, tests := range x.byPair {
		if tests.IsEmpty() {
			out = append(out, x.Pair(uint32(p)))
		}
	}

	return out
}

// Equal reports whether x and y hold identical mappings.
func (x *Index) Equal(y *Index) bool {
	if x.numTests != y.numTests || x.numDiseases != y.numDiseases {
		return false
	}
	for t := range x.byTest {
		if !x.byTest[t].Equals(y.byTest[t]) {
			return false
		}
	}
	for p := range x.byPair {
		if !x.byPair[p].Equals(y.byPair[p]) {
			return false
		}
	}

	return true
}
