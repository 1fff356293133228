package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vignette/internal/analysis"
	"vignette/internal/config"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Run clip analysis on a single video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("inspect %s: %w", path, err)
			}

			analyzer := analysis.New(cfg, logger)
			defer analyzer.Close()

			result := analyzer.Analyze(cmd.Context(), path)
			if result.Empty() {
				return fmt.Errorf("no analyzable video signal in %s", path)
			}

			if asJSON {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Duration:     %s\n", formatFloat(result.Duration))
			fmt.Fprintf(out, "Loop:         %s - %s\n", formatFloat(result.LoopStart), formatFloat(result.LoopEnd))
			fmt.Fprintf(out, "Motion:       %s\n", formatFloat(result.Motion))
			fmt.Fprintf(out, "Confidence:   %s\n", formatFloat(result.Confidence))
			if result.Expression != "" {
				fmt.Fprintf(out, "Expression:   %s (%s)\n", result.Expression, formatFloat(result.ExpressionConfidence))
			}
			fmt.Fprintf(out, "Tags:         %s\n", joinOrDash(result.Tags))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the analysis as JSON")
	return cmd
}
