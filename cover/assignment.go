// SPDX-License-Identifier: MIT

// Package cover - partial assignments of tests.
//
// An Assignment is a value type: every derivation (With/Include/Exclude)
// returns a fresh copy, so a child node never aliases its parent and nodes can
// be handed across goroutines without synchronization.

package cover

// Value is the state of one test inside an Assignment.
type Value int8

const (
	// Free marks a test that is not fixed yet.
	Free Value = iota

	// Included marks a test fixed to 1 (used in the cover).
	Included

	// Excluded marks a test fixed to 0 (not used).
	Excluded
)

// String implements fmt.Stringer.
func (v Value) String() string {
	switch v {
	case Included:
		return "included"
	case Excluded:
		return "excluded"
	default:
		return "free"
	}
}

// Assignment is a partial function Test → {included, excluded}.
// The zero Assignment has no tests; use NewAssignment.
type Assignment struct {
	vals  []Value
	fixed int
}

// NewAssignment returns the empty assignment over n tests (all free).
func NewAssignment(n int) Assignment {
	return Assignment{vals: make([]Value, n)}
}

// Len returns the number of tests the assignment ranges over.
func (a Assignment) Len() int { return len(a.vals) }

// Fixed returns how many tests are fixed.
func (a Assignment) Fixed() int { return a.fixed }

// Get returns the state of test t.
func (a Assignment) Get(t int) Value { return a.vals[t] }

// IsFree reports whether test t is not fixed.
func (a Assignment) IsFree(t int) bool { return a.vals[t] == Free }

// With returns a copy of a with test t fixed to included (true) or excluded (false).
// Re-fixing an already fixed test overwrites it without changing Fixed().
//
// Complexity: O(n) copy.
func (a Assignment) With(t int, include bool) Assignment {
	out := Assignment{vals: make([]Value, len(a.vals)), fixed: a.fixed}
	copy(out.vals, a.vals)
	if out.vals[t] == Free {
		out.fixed++
	}
	if include {
		out.vals[t] = Included
	} else {
		out.vals[t] = Excluded
	}

	return out
}

// Include is shorthand for With(t, true).
func (a Assignment) Include(t int) Assignment { return a.With(t, true) }

// Exclude returns a copy with every listed test fixed to excluded.
func (a Assignment) Exclude(tests ...int) Assignment {
	out := Assignment{vals: make([]Value, len(a.vals)), fixed: a.fixed}
	copy(out.vals, a.vals)
	for _, t := range tests {
		if out.vals[t] == Free {
			out.fixed++
		}
		out.vals[t] = Excluded
	}

	return out
}

// FreeTests returns the free test indices in ascending order.
func (a Assignment) FreeTests() []int {
	out := make([]int, 0, len(a.vals)-a.fixed)
	for t, v := range a.vals {
		if v == Free {
			out = append(out, t)
		}
	}

	return out
}

// IncludedTests returns the included test indices in ascending order.
func (a Assignment) IncludedTests() []int {
	var out []int
	for t, v := range a.vals {
		if v == Included {
			out = append(out, t)
		}
	}

	return out
}

// Map returns the fixed tests as a Test → included mapping.
func (a Assignment) Map() map[int]bool {
	out := make(map[int]bool, a.fixed)
	for t, v := range a.vals {
		if v != Free {
			out[t] = v == Included
		}
	}

	return out
}
