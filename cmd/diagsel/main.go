// SPDX-License-Identifier: MIT

// Command diagsel selects a minimum-cost set of diagnostic tests that tells
// every pair of diseases apart.
//
//	diagsel solve [flags] <instance>    run branch-and-bound and print the report line
//	diagsel inspect <instance>          print instance shape and branching order
//	diagsel config [--config file]      print the effective settings as YAML
//
// Exit status: 0 when an optimal cover was found, 2 when no cover exists,
// 1 on any error (including an interrupted search).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/diagsel/config"
)

// errNoCover marks a completed search that proved infeasibility.
var errNoCover = errors.New("no cover exists")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and maps the outcome to an exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errNoCover):
		return 2
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
}

// globals are the flags shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string
	verbosity  int
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "diagsel",
		Short:         "Minimum-cost differential diagnosis test selection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML settings file")
	pf.StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", "text", "log format: text or json")
	pf.IntVarP(&g.verbosity, "verbosity", "v", 0, "0 warn, 1 info, 2+ debug (ignored when --log-level is set)")
	root.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if !cmd.Flags().Changed("log-level") && cmd.Flags().Changed("verbosity") {
			g.logLevel = verbosityLevel(g.verbosity).String()
		}
	}

	root.AddCommand(
		newSolveCmd(g),
		newInspectCmd(g),
		newConfigCmd(g),
	)

	return root
}

// settings loads --config (or the defaults).
func (g *globals) settings() (config.Settings, error) {
	if g.configPath == "" {
		return config.Default(), nil
	}

	return config.Load(g.configPath)
}

// logger builds the slog handler selected by --log-format and --log-level.
func (g *globals) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("bad --log-level %q: %w", g.logLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(g.logFormat) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("bad --log-format %q (want text or json)", g.logFormat)
	}
}

func verbosityLevel(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelWarn
	case v == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

func newConfigCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.settings()
			if err != nil {
				return err
			}
			out, err := s.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)

			return err
		},
	}
}
