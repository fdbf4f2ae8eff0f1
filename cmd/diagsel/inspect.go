// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/diagsel/cover"
	"github.com/katalvlaran/diagsel/diffindex"
	"github.com/katalvlaran/diagsel/heuristic"
)

func newInspectCmd(g *globals) *cobra.Command {
	var maxPairs int
	cmd := &cobra.Command{
		Use:   "inspect <instance>",
		Short: "Print instance shape, undifferentiable pairs and the static branching order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.settings()
			if err != nil {
				return err
			}
			mode, err := heuristic.ParseMode(s.Branching)
			if err != nil {
				return err
			}
			inst, err := cover.ParseFile(args[0])
			if err != nil {
				return err
			}
			idx := diffindex.Build(inst)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tests: %d Diseases: %d Pairs: %d\n", inst.NumTests(), inst.NumDiseases(), idx.NumPairs())
			stuck := idx.Undifferentiable()
			fmt.Fprintf(out, "Undifferentiable: %d", len(stuck))
			for i, p := range stuck {
				if i == maxPairs {
					fmt.Fprint(out, " ...")
					break
				}
				fmt.Fprint(out, " ", p)
			}
			fmt.Fprintln(out)

			r := heuristic.NewRanker(idx, inst.Costs(), mode)
			fmt.Fprintln(out, "Order:")
			for _, t := range r.Static() {
				fmt.Fprintf(out, "  test %d cost %g splits %d\n", t, inst.Cost(t), idx.TestPairs(t).GetCardinality())
			}

			return nil
		},
	}
	cmd.Flags().IntVar(&maxPairs, "max-pairs", 10, "undifferentiable pairs to list")

	return cmd
}
