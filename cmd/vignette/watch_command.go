package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"vignette/internal/assets"
	"vignette/internal/clipstore"
	"vignette/internal/config"
	"vignette/internal/ingest"
	"vignette/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var skipInitial bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch library roots and resync on changes",
		Long: `Watch library roots and resync on changes.

Filesystem events are debounced so a burst of copies collapses into a single
sync pass. The command runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			return ctx.withStores(func(cfg *config.Config, store *clipstore.Store, registry *assets.Registry) error {
				signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer cancel()

				svc := ingest.New(cfg, store, registry, nil, logger)
				defer svc.Close()

				if !skipInitial {
					if err := svc.SyncAll(signalCtx); err != nil {
						return err
					}
				}

				watcher, err := watch.New(cfg, svc.SyncAll, logger)
				if err != nil {
					return err
				}
				if err := watcher.Start(signalCtx); err != nil {
					return err
				}
				defer watcher.Stop()

				fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (ctrl-c to stop)\n", strings.Join(cfg.Paths.LibraryDirs, ", "))
				<-signalCtx.Done()
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&skipInitial, "no-initial-sync", false, "Skip the full sync before watching")
	return cmd
}
