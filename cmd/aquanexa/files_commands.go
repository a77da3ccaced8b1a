package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"aquanexa/internal/ingest"
)

func newFilesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Inspect the data file catalog",
	}
	cmd.AddCommand(newFilesListCommand(ctx))
	cmd.AddCommand(newFilesShowCommand(ctx))
	cmd.AddCommand(newFilesRetryCommand(ctx))
	return cmd
}

func newFilesListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := ctx.ensureService()
			if err != nil {
				return err
			}

			var statuses []ingest.Status
			if statusFlag != "" {
				status, ok := ingest.ParseStatus(statusFlag)
				if !ok {
					return fmt.Errorf("unknown status %q (known: %v)", statusFlag, ingest.AllStatuses())
				}
				statuses = append(statuses, status)
			}
			files, err := service.ListFiles(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no files in catalog")
				return nil
			}

			rows := make([][]string, 0, len(files))
			for _, file := range files {
				rows = append(rows, []string{
					file.ID,
					file.OriginalName,
					string(file.Category),
					string(file.Status),
					strconv.Itoa(file.RecordCount),
					file.CreatedAt.Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Category", "Status", "Records", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status (pending, completed, failed, ...)")
	return cmd
}

func newFilesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one catalog entry in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := ctx.ensureService()
			if err != nil {
				return err
			}
			file, err := service.FileByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:        %s\n", file.ID)
			fmt.Fprintf(out, "Name:      %s\n", file.OriginalName)
			fmt.Fprintf(out, "Stored:    %s\n", file.StoredPath)
			fmt.Fprintf(out, "Type:      %s\n", file.FileType)
			fmt.Fprintf(out, "Category:  %s\n", file.Category)
			fmt.Fprintf(out, "Size:      %d bytes\n", file.SizeBytes)
			fmt.Fprintf(out, "Status:    %s\n", file.Status)
			if file.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:     %s\n", file.ErrorMessage)
			}
			fmt.Fprintf(out, "Records:   %d (%d skipped)\n", file.RecordCount, file.SkippedRows)
			if file.Quality != nil {
				fmt.Fprintf(out, "Quality:   completeness %d%%, accuracy %d%%, consistency %d%%, validity %d%%, timeliness %d%%\n",
					file.Quality.Completeness, file.Quality.Accuracy, file.Quality.Consistency,
					file.Quality.Validity, file.Quality.Timeliness)
			}
			for _, note := range file.Notes {
				fmt.Fprintf(out, "Note:      %s\n", note)
			}
			return nil
		},
	}
}

func newFilesRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Move failed files back to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := ctx.ensureService()
			if err != nil {
				return err
			}
			count, err := service.RetryFailed(cmd.Context(), args...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "requeued %d file(s)\n", count)
			return nil
		},
	}
}
