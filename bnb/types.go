// SPDX-License-Identifier: MIT

// Package bnb defines the configuration surface of the branch-and-bound search.
//
// Options:
//
//	– Strategy:      traversal (Recursive, Stack, StackSkip, Parallel).
//	– Mode:          heuristic.Static or heuristic.Dynamic branching order.
//	– Fadeoff:       probability of drifting past each better-ranked test when picking.
//	– Restart:       initial random-restart probability (Recursive only).
//	– RestartDecay:  factor applied to Restart after each restart.
//	– MaxRestarts:   hard cap on restarts per run.
//	– Skip:          children per StackSkip expansion minus one (0 ⇒ binary).
//	– Workers:       goroutines draining the Parallel frontier.
//	– Seed:          RNG seed (0 ⇒ fixed default stream).
//	– Eps:           tolerance for bound comparisons and the final round-up.
//	– TimeLimit:     wall-clock budget (0 ⇒ unlimited).
//	– Logger:        structured logger (nil ⇒ slog.Default()).
//	– ProgressEvery: minimum interval between progress log lines.
//	– OnIncumbent:   hook called after every incumbent improvement.
//	– Index:         prebuilt differentiation index shared with the oracle.
//
// Errors (sentinel):
//
//	– ErrNilInstance / ErrNilOracle for missing collaborators.
//	– ErrBadOptions  for out-of-range option values.
//	– ErrBranchExhausted when a fractional node has no free test left.
//	– ErrOracle      wraps a failing oracle call; the run is aborted.
//	– ErrTimeLimit   when TimeLimit elapses before the search completes.
package bnb

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/katalvlaran/diagsel/diffindex"
	"github.com/katalvlaran/diagsel/heuristic"
)

// Sentinel errors returned by the engine.
var (
	// ErrNilInstance indicates NewEngine received a nil instance.
	ErrNilInstance = errors.New("bnb: instance is nil")

	// ErrNilOracle indicates NewEngine received a nil oracle.
	ErrNilOracle = errors.New("bnb: oracle is nil")

	// ErrBadOptions indicates an option outside its documented range.
	ErrBadOptions = errors.New("bnb: invalid options")

	// ErrBranchExhausted indicates a fractional relaxation at a node with every
	// test already fixed. A correct oracle never produces it.
	ErrBranchExhausted = errors.New("bnb: fractional node without free tests")

	// ErrOracle wraps an oracle failure. Results of an aborted run are not final.
	ErrOracle = errors.New("bnb: oracle failure")

	// ErrTimeLimit indicates the configured time limit elapsed.
	ErrTimeLimit = errors.New("bnb: time limit reached")
)

// Strategy selects how the search tree is traversed.
type Strategy int

const (
	// Recursive is depth-first via direct recursion, with optional random restarts.
	Recursive Strategy = iota

	// Stack is depth-first over an explicit LIFO of pending nodes.
	Stack

	// StackSkip is Stack expanding up to Skip+1 children per branching step.
	StackSkip

	// Parallel is best-first over a shared frontier drained by Workers goroutines.
	Parallel
)

var strategyNames = [...]string{"recursive", "stack", "stack-skip", "parallel"}

// String implements fmt.Stringer.
func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return fmt.Sprintf("strategy(%d)", int(s))
	}

	return strategyNames[s]
}

// ParseStrategy maps a strategy name (case-insensitive) to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range strategyNames {
		if n == s {
			return Strategy(i), nil
		}
	}

	return Recursive, fmt.Errorf("%w: unknown strategy %q", ErrBadOptions, name)
}

// Defaults used by DefaultOptions.
const (
	DefaultEps           = 1e-9
	DefaultRestartDecay  = 0.9
	DefaultMaxRestarts   = 16
	DefaultProgressEvery = 5 * time.Second
)

// Options configures an Engine. Build it with DefaultOptions and Option funcs.
type Options struct {
	Strategy      Strategy
	Mode          heuristic.Mode
	Fadeoff       float64
	Restart       float64
	RestartDecay  float64
	MaxRestarts   int
	Skip          int
	Workers       int
	Seed          int64
	Eps           float64
	TimeLimit     time.Duration
	Logger        *slog.Logger
	ProgressEvery time.Duration

	// OnIncumbent receives every improvement in order. In the Parallel strategy
	// it may be called from several goroutines, never concurrently for the
	// same engine run.
	OnIncumbent func(value float64, tests []int)

	// Index, when set, must be built from the engine's instance.
	Index *diffindex.Index
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns deterministic defaults: explicit stack, static order,
// no fadeoff, no restarts, one worker.
func DefaultOptions() Options {
	return Options{
		Strategy:      Stack,
		Mode:          heuristic.Static,
		RestartDecay:  DefaultRestartDecay,
		MaxRestarts:   DefaultMaxRestarts,
		Workers:       1,
		Eps:           DefaultEps,
		ProgressEvery: DefaultProgressEvery,
	}
}

// WithStrategy selects the traversal.
func WithStrategy(s Strategy) Option {
	return func(o *Options) { o.Strategy = s }
}

// WithMode selects static or dynamic branching order.
func WithMode(m heuristic.Mode) Option {
	return func(o *Options) { o.Mode = m }
}

// WithFadeoff sets the branching drift probability in [0,1].
func WithFadeoff(p float64) Option {
	return func(o *Options) { o.Fadeoff = p }
}

// WithRestart sets the initial restart probability and its decay, both in [0,1].
func WithRestart(p, decay float64) Option {
	return func(o *Options) {
		o.Restart = p
		o.RestartDecay = decay
	}
}

// WithMaxRestarts caps restarts per run.
func WithMaxRestarts(n int) Option {
	return func(o *Options) { o.MaxRestarts = n }
}

// WithSkip sets the StackSkip width.
func WithSkip(k int) Option {
	return func(o *Options) { o.Skip = k }
}

// WithWorkers sets the Parallel pool size.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithSeed fixes the RNG seed.
func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}

// WithEps sets the comparison tolerance.
func WithEps(eps float64) Option {
	return func(o *Options) { o.Eps = eps }
}

// WithTimeLimit bounds the wall-clock time of Solve.
func WithTimeLimit(d time.Duration) Option {
	return func(o *Options) { o.TimeLimit = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithProgressEvery sets the minimum interval between progress lines.
func WithProgressEvery(d time.Duration) Option {
	return func(o *Options) { o.ProgressEvery = d }
}

// WithOnIncumbent registers an improvement hook.
func WithOnIncumbent(fn func(value float64, tests []int)) Option {
	return func(o *Options) { o.OnIncumbent = fn }
}

// WithIndex reuses an index already built for the oracle.
func WithIndex(idx *diffindex.Index) Option {
	return func(o *Options) { o.Index = idx }
}

// Validate checks option ranges.
func (o Options) Validate() error {
	switch {
	case o.Strategy < Recursive || o.Strategy > Parallel:
		return fmt.Errorf("%w: strategy %d", ErrBadOptions, int(o.Strategy))
	case o.Mode != heuristic.Static && o.Mode != heuristic.Dynamic:
		return fmt.Errorf("%w: branching mode %d", ErrBadOptions, int(o.Mode))
	case !unit(o.Fadeoff):
		return fmt.Errorf("%w: fadeoff %v not in [0,1]", ErrBadOptions, o.Fadeoff)
	case !unit(o.Restart):
		return fmt.Errorf("%w: restart probability %v not in [0,1]", ErrBadOptions, o.Restart)
	case !unit(o.RestartDecay):
		return fmt.Errorf("%w: restart decay %v not in [0,1]", ErrBadOptions, o.RestartDecay)
	case o.MaxRestarts < 0:
		return fmt.Errorf("%w: max restarts %d", ErrBadOptions, o.MaxRestarts)
	case o.Skip < 0:
		return fmt.Errorf("%w: skip %d", ErrBadOptions, o.Skip)
	case o.Workers < 1:
		return fmt.Errorf("%w: workers %d", ErrBadOptions, o.Workers)
	case o.Eps < 0 || o.Eps >= 0.5:
		return fmt.Errorf("%w: eps %v not in [0,0.5)", ErrBadOptions, o.Eps)
	case o.TimeLimit < 0:
		return fmt.Errorf("%w: time limit %v", ErrBadOptions, o.TimeLimit)
	}

	return nil
}

func unit(p float64) bool { return p >= 0 && p <= 1 }
