package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakim54/cii-best-practices-badge/internal/display"
	"github.com/jakim54/cii-best-practices-badge/internal/evidence"
	"github.com/jakim54/cii-best-practices-badge/internal/format"
	"github.com/jakim54/cii-best-practices-badge/internal/wiring"
	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

type detectiveRow struct {
	detective.Descriptor
	Stage int `json:"stage"`
}

func newDetectivesCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "detectives",
		Short: "List registered detectives in tie-break order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, asJSON, err := parseOutput(output)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			rt, err := wiring.Build(cfg, wiring.Options{Source: evidence.NewStub(nil)})
			if err != nil {
				return err
			}

			plan := rt.Plan()
			if asJSON {
				rows := make([]detectiveRow, 0, len(rt.Descriptors()))
				for _, d := range rt.Descriptors() {
					rows = append(rows, detectiveRow{Descriptor: d, Stage: plan.Stage(d.ID)})
				}
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			fmt.Fprintln(cmd.OutOrStdout(), format.Detectives(mode, rt.Descriptors(), plan))
			fmt.Fprintln(cmd.OutOrStdout(), "plan:", display.PlanPath(plan))
			if cycle := rt.Engine.Cycle(); cycle != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "cycle:", cycle)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output: table, markdown or json")
	return cmd
}
