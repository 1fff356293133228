package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vignette/internal/assets"
	"vignette/internal/clipstore"
	"vignette/internal/config"
	"vignette/internal/ingest"
	"vignette/internal/manifest"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var packageUUID string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Scan library roots and refresh the clip database",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			return ctx.withStores(func(cfg *config.Config, store *clipstore.Store, registry *assets.Registry) error {
				svc := ingest.New(cfg, store, registry, nil, logger)
				defer svc.Close()

				started := time.Now()
				if uuid := strings.TrimSpace(packageUUID); uuid != "" {
					if err := svc.SyncPackage(cmd.Context(), uuid); err != nil {
						return err
					}
				} else if err := svc.SyncAll(cmd.Context()); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Sync finished in %s\n", time.Since(started).Round(time.Millisecond))

				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if len(stats) == 0 {
					fmt.Fprintln(out, "No clips in the database")
					return nil
				}

				names := packageNames(cfg)
				rows := make([][]string, 0, len(stats))
				for _, stat := range stats {
					name := names[stat.PackageUUID]
					if name == "" {
						name = "-"
					}
					rows = append(rows, []string{
						stat.PackageUUID,
						name,
						strconv.Itoa(stat.Intents),
						strconv.Itoa(stat.Clips),
					})
				}
				fmt.Fprint(out, renderTable([]string{"Package", "Name", "Intents", "Clips"}, rows, 2, 3))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&packageUUID, "package", "p", "", "Sync only the package with this UUID")
	return cmd
}

func packageNames(cfg *config.Config) map[string]string {
	catalog := manifest.Discover(cfg.Paths.LibraryDirs, nil)
	names := make(map[string]string, catalog.Len())
	for _, pkg := range catalog.Packages() {
		names[pkg.UUID] = pkg.Name
	}
	return names
}
