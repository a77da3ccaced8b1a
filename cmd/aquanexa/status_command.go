package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pipeline counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := ctx.ensureService()
			if err != nil {
				return err
			}
			report, err := service.Status(cmd.Context())
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Files total", strconv.Itoa(report.Files.Total)},
				{"Pending", strconv.Itoa(report.Files.Pending)},
				{"Processing", strconv.Itoa(report.Files.Processing)},
				{"Completed", strconv.Itoa(report.Files.Completed)},
				{"Failed", strconv.Itoa(report.Files.Failed)},
				{"Aggregates", strconv.Itoa(report.Aggregates)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Metric", "Count"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
