package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"vignette/internal/assets"
	"vignette/internal/clipstore"
	"vignette/internal/config"
	"vignette/internal/manifest"
)

type packageView struct {
	UUID           string   `json:"uuid"`
	Name           string   `json:"name"`
	PersonaIDs     []string `json:"persona_ids"`
	ContextTags    []string `json:"context_tags"`
	SupportedTones []string `json:"supported_tones"`
	Intents        []string `json:"intents"`
	Clips          int      `json:"clips"`
}

func newPackagesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "packages",
		Short: "List discovered emotion packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			return ctx.withStores(func(cfg *config.Config, store *clipstore.Store, registry *assets.Registry) error {
				catalog := manifest.Discover(cfg.Paths.LibraryDirs, logger)

				clipCounts := map[string]int{}
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				for _, stat := range stats {
					clipCounts[stat.PackageUUID] = stat.Clips
				}

				views := make([]packageView, 0, catalog.Len())
				for _, pkg := range catalog.Packages() {
					views = append(views, packageView{
						UUID:           pkg.UUID,
						Name:           pkg.Name,
						PersonaIDs:     pkg.PersonaIDs,
						ContextTags:    pkg.ContextTags,
						SupportedTones: pkg.SupportedTones,
						Intents:        intentNames(pkg),
						Clips:          clipCounts[pkg.UUID],
					})
				}

				if asJSON {
					return writeJSON(cmd, views)
				}

				out := cmd.OutOrStdout()
				if len(views) == 0 {
					fmt.Fprintln(out, "No emotion packages found")
					return nil
				}

				rows := make([][]string, 0, len(views))
				for _, view := range views {
					rows = append(rows, []string{
						view.UUID,
						view.Name,
						joinOrDash(view.PersonaIDs),
						joinOrDash(view.Intents),
						strconv.Itoa(view.Clips),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Package", "Name", "Personas", "Intents", "Clips"}, rows, 4))

				if errs := catalog.Errors(); len(errs) > 0 {
					fmt.Fprintf(out, "%d discovery problem(s):\n", len(errs))
					for _, msg := range errs {
						fmt.Fprintf(out, "  - %s\n", msg)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit packages as JSON")
	return cmd
}

func intentNames(pkg manifest.Package) []string {
	names := make([]string, 0, len(pkg.Intents))
	for name := range pkg.Intents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
