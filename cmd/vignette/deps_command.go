package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vignette/internal/preflight"
)

type depsView struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Detail   string `json:"detail"`
	Optional bool   `json:"optional"`
}

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external tools, model files, and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cfg)

			if asJSON {
				views := make([]depsView, 0, len(results))
				for _, result := range results {
					views = append(views, depsView{
						Name:     result.Name,
						Passed:   result.Passed,
						Detail:   result.Detail,
						Optional: result.Optional,
					})
				}
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failed := 0
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					if result.Optional {
						kind = statusWarn
					} else {
						kind = statusError
						failed++
					}
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			if failed > 0 {
				fmt.Fprintf(out, "\n%d of %d checks failed\n", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit check results as JSON")
	return cmd
}
