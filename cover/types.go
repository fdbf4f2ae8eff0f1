// SPDX-License-Identifier: MIT

// Package cover defines the problem data model for minimum-cost test selection:
// tests with costs and 0/1 outcome vectors over diseases, unordered disease
// pairs, and partial assignments of tests to {included, excluded}.
//
// A subset of tests is a cover when every disease pair is differentiated by at
// least one test in the subset, i.e. some test in the subset has different
// outcomes for the two diseases of the pair.
//
// Errors:
//
//	ErrEmptyInstance     - zero tests or zero diseases.
//	ErrDimensionMismatch - cost/outcome shapes disagree.
//	ErrBadCost           - a cost is not a positive finite number.
//	ErrBadEntry          - an outcome entry is not 0 or 1.
//	ErrSyntax            - malformed instance text.
//	ErrTestOutOfRange    - a test index is outside [0, numTests).
//	ErrTooManyDiseases   - more than MaxDiseases diseases.
package cover

import (
	"errors"
	"fmt"
)

// Sentinel errors for instance construction and parsing.
var (
	// ErrEmptyInstance indicates an instance without tests or without diseases.
	ErrEmptyInstance = errors.New("cover: instance has no tests or no diseases")

	// ErrDimensionMismatch indicates the cost vector and outcome matrix disagree in shape.
	ErrDimensionMismatch = errors.New("cover: dimension mismatch")

	// ErrBadCost indicates a non-positive, NaN or infinite test cost.
	ErrBadCost = errors.New("cover: test cost must be positive and finite")

	// ErrBadEntry indicates an outcome entry other than 0 or 1.
	ErrBadEntry = errors.New("cover: outcome entry must be 0 or 1")

	// ErrSyntax indicates malformed instance text.
	ErrSyntax = errors.New("cover: syntax error")

	// ErrTestOutOfRange indicates a test index outside [0, numTests).
	ErrTestOutOfRange = errors.New("cover: test index out of range")

	// ErrTooManyDiseases indicates more diseases than pair identifiers can address.
	ErrTooManyDiseases = errors.New("cover: too many diseases")
)

// MaxDiseases is the largest disease count whose pairs all get distinct
// uint32 identifiers from PairID.
const MaxDiseases = 92682

// Pair is an unordered pair of diseases in canonical form (D1 < D2).
type Pair struct {
	D1, D2 int
}

// NewPair returns the canonical pair for diseases a and b (a != b).
func NewPair(a, b int) Pair {
	if a > b {
		a, b = b, a
	}

	return Pair{D1: a, D2: b}
}

// String implements fmt.Stringer.
func (p Pair) String() string { return fmt.Sprintf("(%d,%d)", p.D1, p.D2) }

// NumPairs returns n·(n−1)/2, the number of unordered pairs over n diseases.
func NumPairs(n int) int {
	if n < 2 {
		return 0
	}

	return n * (n - 1) / 2
}

// PairID maps a canonical pair over n diseases to its dense identifier in
// [0, NumPairs(n)). Identifiers enumerate the upper triangle row by row:
// (0,1), (0,2), …, (0,n−1), (1,2), …
//
// n must not exceed MaxDiseases.
//
// Complexity: O(1).
func PairID(p Pair, n int) uint32 {
	// Row d1 starts after d1 full rows of decreasing length (n−1, n−2, …).
	var start = p.D1*(2*n-p.D1-1)/2

	return uint32(start + (p.D2 - p.D1 - 1))
}

// PairAt is the inverse of PairID.
//
// Complexity: O(n) worst case (row scan); used only for reporting.
func PairAt(id uint32, n int) Pair {
	var (
		rest = int(id)
		d1   int
		row  int
	)
	for d1 = 0; d1 < n-1; d1++ {
		row = n - d1 - 1
		if rest < row {
			return Pair{D1: d1, D2: d1 + 1 + rest}
		}
		rest -= row
	}

	return Pair{D1: -1, D2: -1}
}
