package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"aquanexa/internal/ingest"
	"aquanexa/internal/workflow"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var categoryFlag string
	var queueOnly bool

	cmd := &cobra.Command{
		Use:   "ingest <path>...",
		Short: "Register data files and process them through the pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := ctx.ensureService()
			if err != nil {
				return err
			}
			category := ingest.ParseCategory(categoryFlag)

			var manager *workflow.Manager
			if !queueOnly {
				manager = workflow.NewManager(ctx.config, ctx.catalog, ctx.aggregates, ctx.logger)
			}

			for _, path := range args {
				file, err := service.IngestFile(cmd.Context(), path, category)
				if err != nil {
					return fmt.Errorf("ingest %s: %w", path, err)
				}
				if queueOnly {
					fmt.Fprintf(cmd.OutOrStdout(), "queued %s (%s)\n", file.OriginalName, file.ID)
					continue
				}
				if err := manager.ProcessFile(cmd.Context(), file); err != nil {
					return fmt.Errorf("process %s: %w", file.OriginalName, err)
				}
				processed, err := ctx.catalog.GetByID(cmd.Context(), file.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "processed %s: %d records, %d skipped\n",
					processed.OriginalName, processed.RecordCount, processed.SkippedRows)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&categoryFlag, "category", string(ingest.CategoryOther),
		"Data category (fish_data, ocean_data, otolith_image, eDNA_data, other)")
	cmd.Flags().BoolVar(&queueOnly, "queue-only", false, "Register only; leave processing to the watcher")

	return cmd
}
