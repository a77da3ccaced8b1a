package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"aquanexa/internal/workflow"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the processing daemon until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureService(); err != nil {
				return err
			}

			// One watcher per data directory; a second instance exits instead
			// of double-claiming files.
			lock := flock.New(filepath.Join(ctx.config.Paths.DataDir, "aquanexa.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire watcher lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another watcher already holds %s", lock.Path())
			}
			defer func() { _ = lock.Unlock() }()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			manager := workflow.NewManager(ctx.config, ctx.catalog, ctx.aggregates, ctx.logger)
			if err := manager.Start(runCtx); err != nil {
				return err
			}

			<-runCtx.Done()
			manager.Stop()
			return nil
		},
	}
}
