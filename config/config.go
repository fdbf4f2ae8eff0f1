// SPDX-License-Identifier: MIT

// Package config holds the solver settings as one explicit value.
//
// Settings round-trip through YAML; Default reproduces the historical solver
// defaults (stack traversal, skip 5, fadeoff 0.8, relaxation oracle). Resolve
// derives the traversal from the legacy switches when Strategy is empty:
//
//	use_stack=false          ⇒ recursive
//	use_stack, workers > 1   ⇒ parallel
//	use_stack, skip > 0      ⇒ stack-skip
//	otherwise                ⇒ stack
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/diagsel/bnb"
	"github.com/katalvlaran/diagsel/cover"
	"github.com/katalvlaran/diagsel/diffindex"
	"github.com/katalvlaran/diagsel/heuristic"
	"github.com/katalvlaran/diagsel/oracle"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid settings")

// Oracle kinds.
const (
	SolveFloat = "float" // LP relaxation + branch-and-bound
	SolveInt   = "int"   // exact pseudo-boolean oracle; the root is already optimal
)

// Settings configures one solver run.
type Settings struct {
	Strategy     string        `yaml:"strategy"`
	UseStack     bool          `yaml:"use_stack"`
	Branching    string        `yaml:"branching"`
	Fadeoff      float64       `yaml:"fadeoff"`
	Restart      float64       `yaml:"restart"`
	RestartDecay float64       `yaml:"restart_decay"`
	MaxRestarts  int           `yaml:"max_restarts"`
	Skip         int           `yaml:"skip"`
	Workers      int           `yaml:"workers"`
	Seed         int64         `yaml:"seed"`
	SolveType    string        `yaml:"solve_type"`
	TimeLimit    time.Duration `yaml:"time_limit"`

	// OracleConcurrency caps simultaneous oracle calls; 0 means unlimited.
	OracleConcurrency int           `yaml:"oracle_concurrency"`
	ProgressEvery     time.Duration `yaml:"progress_every"`
}

// Default returns the historical defaults.
func Default() Settings {
	return Settings{
		UseStack:      true,
		Branching:     heuristic.Static.String(),
		Fadeoff:       0.8,
		Restart:       0,
		RestartDecay:  bnb.DefaultRestartDecay,
		MaxRestarts:   bnb.DefaultMaxRestarts,
		Skip:          5,
		Workers:       1,
		SolveType:     SolveFloat,
		ProgressEvery: bnb.DefaultProgressEvery,
	}
}

// Load overlays the YAML file at path onto Default and validates the result.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err = yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err = s.Validate(); err != nil {
		return s, err
	}

	return s, nil
}

// Marshal renders s as YAML.
func (s Settings) Marshal() ([]byte, error) { return yaml.Marshal(s) }

// Validate checks every range.
func (s Settings) Validate() error {
	if s.Strategy != "" {
		if _, err := bnb.ParseStrategy(s.Strategy); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	if _, err := heuristic.ParseMode(s.Branching); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch strings.ToLower(s.SolveType) {
	case SolveFloat, SolveInt:
	default:
		return fmt.Errorf("%w: solve_type %q (want %q or %q)", ErrInvalid, s.SolveType, SolveFloat, SolveInt)
	}

	switch {
	case s.Fadeoff < 0 || s.Fadeoff > 1:
		return fmt.Errorf("%w: fadeoff %v not in [0,1]", ErrInvalid, s.Fadeoff)
	case s.Restart < 0 || s.Restart > 1:
		return fmt.Errorf("%w: restart %v not in [0,1]", ErrInvalid, s.Restart)
	case s.RestartDecay < 0 || s.RestartDecay > 1:
		return fmt.Errorf("%w: restart_decay %v not in [0,1]", ErrInvalid, s.RestartDecay)
	case s.MaxRestarts < 0:
		return fmt.Errorf("%w: max_restarts %d", ErrInvalid, s.MaxRestarts)
	case s.Skip < 0:
		return fmt.Errorf("%w: skip %d", ErrInvalid, s.Skip)
	case s.Workers < 1:
		return fmt.Errorf("%w: workers %d", ErrInvalid, s.Workers)
	case s.TimeLimit < 0:
		return fmt.Errorf("%w: time_limit %v", ErrInvalid, s.TimeLimit)
	case s.OracleConcurrency < 0:
		return fmt.Errorf("%w: oracle_concurrency %d", ErrInvalid, s.OracleConcurrency)
	}

	return nil
}

// Resolve returns the traversal, deriving it from the legacy switches when
// Strategy is empty.
func (s Settings) Resolve() (bnb.Strategy, error) {
	if s.Strategy != "" {
		return bnb.ParseStrategy(s.Strategy)
	}
	switch {
	case !s.UseStack:
		return bnb.Recursive, nil
	case s.Workers > 1:
		return bnb.Parallel, nil
	case s.Skip > 0:
		return bnb.StackSkip, nil
	default:
		return bnb.Stack, nil
	}
}

// EngineOptions converts s into engine options.
func (s Settings) EngineOptions(log *slog.Logger) ([]bnb.Option, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	strategy, err := s.Resolve()
	if err != nil {
		return nil, err
	}
	mode, err := heuristic.ParseMode(s.Branching)
	if err != nil {
		return nil, err
	}

	return []bnb.Option{
		bnb.WithStrategy(strategy),
		bnb.WithMode(mode),
		bnb.WithFadeoff(s.Fadeoff),
		bnb.WithRestart(s.Restart, s.RestartDecay),
		bnb.WithMaxRestarts(s.MaxRestarts),
		bnb.WithSkip(s.Skip),
		bnb.WithWorkers(s.Workers),
		bnb.WithSeed(s.Seed),
		bnb.WithTimeLimit(s.TimeLimit),
		bnb.WithProgressEvery(s.ProgressEvery),
		bnb.WithLogger(log),
	}, nil
}

// Oracle builds the oracle selected by SolveType, fenced by OracleConcurrency.
func (s Settings) Oracle(inst *cover.Instance, idx *diffindex.Index) (oracle.Oracle, error) {
	var orc oracle.Oracle
	switch strings.ToLower(s.SolveType) {
	case SolveInt:
		o, err := oracle.NewIntegral(inst, idx)
		if err != nil {
			return nil, err
		}
		orc = o
	case SolveFloat:
		orc = oracle.NewLP(inst, idx)
	default:
		return nil, fmt.Errorf("%w: solve_type %q", ErrInvalid, s.SolveType)
	}
	if s.OracleConcurrency > 0 {
		orc = oracle.Limit(orc, int64(s.OracleConcurrency))
	}

	return orc, nil
}
