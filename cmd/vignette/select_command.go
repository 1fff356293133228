package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vignette/internal/assets"
	"vignette/internal/clipstore"
	"vignette/internal/config"
	"vignette/internal/manifest"
	"vignette/internal/selector"
)

func newSelectCommand(ctx *commandContext) *cobra.Command {
	var (
		intent      string
		persona     string
		tone        string
		contextTags []string
		recentIDs   []string
		avoidIDs    []string
		seed        uint64
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Pick a clip for an intent using the weighted selector",
		Long: `Pick a clip for an intent using the weighted selector.

Persona packages outrank shared packages, declared tones and context tags
shift package scores, and analysis metrics weight the final draw. Pass --seed
to make the draw reproducible, --recent to damp clips that just played, and
--avoid to steer away from specific assets.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			return ctx.withStores(func(cfg *config.Config, store *clipstore.Store, registry *assets.Registry) error {
				catalog := manifest.Discover(cfg.Paths.LibraryDirs, logger)
				if catalog.Len() == 0 {
					return fmt.Errorf("no emotion packages found under %s", strings.Join(cfg.Paths.LibraryDirs, ", "))
				}

				sel := selector.New(store, catalog, registry, logger)

				query := selector.Query{
					PersonaID:      persona,
					Intent:         intent,
					Tone:           tone,
					ContextTags:    contextTags,
					RecentAssetIDs: recentIDs,
					AvoidAssetIDs:  avoidIDs,
				}
				if cmd.Flags().Changed("seed") {
					query.Seed = &seed
				}

				selection := sel.SelectClip(cmd.Context(), query)
				if selection == nil {
					return fmt.Errorf("no clip matched intent %q", intent)
				}

				if asJSON {
					return writeJSON(cmd, selection)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Asset:        %s\n", selection.AssetID)
				fmt.Fprintf(out, "Package:      %s (%s)\n", selection.Package.Name, selection.PackageUUID)
				fmt.Fprintf(out, "Intent:       %s (weight %s)\n", selection.Intent, strconv.FormatFloat(selection.IntentWeight, 'f', -1, 64))
				fmt.Fprintf(out, "Path:         %s\n", selection.Path)
				fmt.Fprintf(out, "Duration:     %s\n", formatFloat(selection.Duration))
				fmt.Fprintf(out, "Loop:         %s - %s\n", formatFloat(selection.LoopStart), formatFloat(selection.LoopEnd))
				fmt.Fprintf(out, "Motion:       %s\n", formatFloat(selection.Motion))
				fmt.Fprintf(out, "Confidence:   %s\n", formatFloat(selection.Confidence))
				fmt.Fprintf(out, "Tags:         %s\n", joinOrDash(selection.Tags))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&intent, "intent", "i", "", "Intent to select a clip for (required)")
	cmd.Flags().StringVar(&persona, "persona", "", "Persona whose packages take priority")
	cmd.Flags().StringVar(&tone, "tone", "", "Desired emotional tone")
	cmd.Flags().StringSliceVar(&contextTags, "context", nil, "Context tags (repeatable)")
	cmd.Flags().StringSliceVar(&recentIDs, "recent", nil, "Asset ids to damp as recently played (repeatable)")
	cmd.Flags().StringSliceVar(&avoidIDs, "avoid", nil, "Asset ids to avoid (repeatable)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for a reproducible draw")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the selection as JSON")
	_ = cmd.MarkFlagRequired("intent")

	return cmd
}
