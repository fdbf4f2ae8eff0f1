// SPDX-License-Identifier: MIT

// Package cover - Instance storage and validation.
//
// Purpose:
//   - Hold the immutable problem instance: per-test cost and outcome vector.
//   - Store outcome vectors as bitsets (one bit per disease) so that the
//     differentiation index can work with word-level operations.
//   - Reject malformed input with sentinel errors, never panic on user data.
//
// Complexity quicksheet:
//   - New: O(T·D); Outcome: O(1); CostOf: O(k) for k tests.

package cover

import (
	"fmt"
	"math"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Instance is an immutable test-selection problem.
//   - numTests rows, numDiseases columns.
//   - costs[t] > 0 is the cost of test t.
//   - outcomes[t] has bit d set iff test t is positive for disease d.
type Instance struct {
	numTests    int
	numDiseases int
	costs       []float64
	outcomes    []*bitset.BitSet
}

// New validates and copies costs and a [test][disease] 0/1 matrix into an Instance.
//
// Contracts:
//   - len(costs) == len(outcomes) > 0.
//   - every row has the same positive length (numDiseases ≤ MaxDiseases).
//   - every cost is positive and finite; every entry is 0 or 1.
//
// Errors: ErrEmptyInstance, ErrDimensionMismatch, ErrTooManyDiseases,
// ErrBadCost, ErrBadEntry (wrapped with the offending coordinates).
//
// Complexity: O(T·D).
func New(costs []float64, outcomes [][]int) (*Instance, error) {
	if len(costs) == 0 || len(outcomes) == 0 {
		return nil, ErrEmptyInstance
	}
	if len(costs) != len(outcomes) {
		return nil, fmt.Errorf("%w: %d costs vs %d outcome rows", ErrDimensionMismatch, len(costs), len(outcomes))
	}
	var numDiseases = len(outcomes[0])
	if numDiseases == 0 {
		return nil, ErrEmptyInstance
	}
	if numDiseases > MaxDiseases {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyDiseases, numDiseases, MaxDiseases)
	}

	inst := &Instance{
		numTests:    len(costs),
		numDiseases: numDiseases,
		costs:       make([]float64, len(costs)),
		outcomes:    make([]*bitset.BitSet, len(costs)),
	}

	var (
		t, d int
		row  []int
	)
	for t = range costs {
		if math.IsNaN(costs[t]) || math.IsInf(costs[t], 0) || costs[t] <= 0 {
			return nil, fmt.Errorf("%w: test %d cost %v", ErrBadCost, t, costs[t])
		}
		inst.costs[t] = costs[t]

		row = outcomes[t]
		if len(row) != numDiseases {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d", ErrDimensionMismatch, t, len(row), numDiseases)
		}
		bs := bitset.New(uint(numDiseases))
		for d = 0; d < numDiseases; d++ {
			switch row[d] {
			case 0:
			case 1:
				bs.Set(uint(d))
			default:
				return nil, fmt.Errorf("%w: A[%d][%d]=%d", ErrBadEntry, t, d, row[d])
			}
		}
		inst.outcomes[t] = bs
	}

	return inst, nil
}

// NumTests returns the number of tests.
func (in *Instance) NumTests() int { return in.numTests }

// NumDiseases returns the number of diseases.
func (in *Instance) NumDiseases() int { return in.numDiseases }

// NumPairs returns the number of unordered disease pairs.
func (in *Instance) NumPairs() int { return NumPairs(in.numDiseases) }

// Cost returns the cost of test t. It panics on an out-of-range index like a slice access.
func (in *Instance) Cost(t int) float64 { return in.costs[t] }

// Costs returns a copy of the cost vector.
func (in *Instance) Costs() []float64 {
	out := make([]float64, len(in.costs))
	copy(out, in.costs)

	return out
}

// Outcome reports whether test t is positive for disease d.
func (in *Instance) Outcome(t, d int) bool { return in.outcomes[t].Test(uint(d)) }

// Row returns a copy of the outcome bitset of test t.
func (in *Instance) Row(t int) *bitset.BitSet { return in.outcomes[t].Clone() }

// Splits reports whether test t differentiates diseases a and b.
func (in *Instance) Splits(t, a, b int) bool {
	return in.outcomes[t].Test(uint(a)) != in.outcomes[t].Test(uint(b))
}

// CostOf sums the costs of the given tests.
//
// Errors: ErrTestOutOfRange if any index is invalid.
func (in *Instance) CostOf(tests []int) (float64, error) {
	var sum float64
	for _, t := range tests {
		if t < 0 || t >= in.numTests {
			return 0, fmt.Errorf("%w: %d", ErrTestOutOfRange, t)
		}
		sum += in.costs[t]
	}

	return sum, nil
}

// String renders the instance in the same shape as the text format.
func (in *Instance) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Number of tests: %d\n", in.numTests)
	fmt.Fprintf(&b, "Number of diseases: %d\n", in.numDiseases)
	fmt.Fprintf(&b, "Cost of tests: %v\n", in.costs)
	b.WriteString("A:\n")

	var t, d int
	for t = 0; t < in.numTests; t++ {
		b.WriteByte('[')
		for d = 0; d < in.numDiseases; d++ {
			if d > 0 {
				b.WriteString(", ")
			}
			if in.Outcome(t, d) {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		b.WriteString("]\n")
	}

	return b.String()
}
