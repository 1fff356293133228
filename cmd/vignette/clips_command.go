package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vignette/internal/assets"
	"vignette/internal/clipstore"
	"vignette/internal/config"
)

type clipView struct {
	AssetID     string         `json:"asset_id"`
	PackageUUID string         `json:"package_uuid"`
	Intent      string         `json:"intent"`
	RelPath     string         `json:"rel_path"`
	Duration    *float64       `json:"duration"`
	Motion      *float64       `json:"motion"`
	Confidence  *float64       `json:"confidence"`
	Tags        []string       `json:"tags"`
	Metadata    map[string]any `json:"metadata"`
}

func newClipsCommand(ctx *commandContext) *cobra.Command {
	var (
		packageUUID string
		intent      string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "clips",
		Short: "List analyzed clips in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, store *clipstore.Store, registry *assets.Registry) error {
				filter := clipstore.Filter{PackageUUID: strings.TrimSpace(packageUUID)}
				if trimmed := strings.TrimSpace(intent); trimmed != "" {
					filter.Intents = []string{trimmed}
				}

				records, err := store.ListClips(cmd.Context(), filter)
				if err != nil {
					return err
				}

				if asJSON {
					views := make([]clipView, 0, len(records))
					for _, record := range records {
						views = append(views, clipView{
							AssetID:     record.AssetID,
							PackageUUID: record.PackageUUID,
							Intent:      record.Intent,
							RelPath:     record.RelPath,
							Duration:    record.Duration,
							Motion:      record.Motion,
							Confidence:  record.Confidence,
							Tags:        record.Tags,
							Metadata:    record.Metadata,
						})
					}
					return writeJSON(cmd, views)
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No clips match the filter")
					return nil
				}

				rows := make([][]string, 0, len(records))
				for _, record := range records {
					rows = append(rows, []string{
						shortID(record.AssetID),
						record.PackageUUID,
						record.Intent,
						record.RelPath,
						formatFloat(record.Duration),
						formatFloat(record.Confidence),
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Asset", "Package", "Intent", "Rel Path", "Duration", "Confidence"},
					rows, 4, 5,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&packageUUID, "package", "p", "", "Show only clips from this package UUID")
	cmd.Flags().StringVarP(&intent, "intent", "i", "", "Show only clips for this intent")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit clips as JSON")
	return cmd
}

// shortID abbreviates a content hash for table display.
func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
