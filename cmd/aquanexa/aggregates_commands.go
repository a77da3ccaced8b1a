package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"aquanexa/internal/export"
	"aquanexa/internal/unify"
)

type aggregateFilterFlags struct {
	location string
	dateFrom string
	dateTo   string
	species  string
	limit    int
}

func (f *aggregateFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.location, "location", "", "Filter by location substring")
	cmd.Flags().StringVar(&f.dateFrom, "from", "", "Earliest date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.dateTo, "to", "", "Latest date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.species, "species", "", "Filter by fish species substring")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Maximum results (0 uses the configured default)")
}

func (f *aggregateFilterFlags) filters() unify.Filters {
	return unify.Filters{
		Location: f.location,
		DateFrom: f.dateFrom,
		DateTo:   f.dateTo,
		Species:  f.species,
		Limit:    f.limit,
	}
}

func newAggregatesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregates",
		Short: "Query and export unified records",
	}
	cmd.AddCommand(newAggregatesListCommand(ctx))
	cmd.AddCommand(newAggregatesExportCommand(ctx))
	return cmd
}

func newAggregatesListCommand(ctx *commandContext) *cobra.Command {
	flags := &aggregateFilterFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List aggregates matching the filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := ctx.ensureService()
			if err != nil {
				return err
			}
			aggregates, err := service.ListAggregates(cmd.Context(), flags.filters())
			if err != nil {
				return err
			}
			if len(aggregates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no matching aggregates")
				return nil
			}

			rows := make([][]string, 0, len(aggregates))
			for _, agg := range aggregates {
				ocean := "-"
				if agg.Ocean != nil && agg.Ocean.Temperature != nil {
					ocean = strconv.FormatFloat(*agg.Ocean.Temperature, 'f', 1, 64) + "°C"
				}
				rows = append(rows, []string{
					agg.Location,
					agg.Date,
					agg.Time,
					strings.Join(agg.SpeciesList(), ", "),
					ocean,
					strconv.Itoa(len(agg.Otoliths)),
					strconv.Itoa(len(agg.EDNA)),
					strconv.Itoa(len(agg.MetadataRefs)),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Location", "Date", "Time", "Species", "Temp", "Otoliths", "eDNA", "Files"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newAggregatesExportCommand(ctx *commandContext) *cobra.Command {
	flags := &aggregateFilterFlags{}
	var formatFlag string
	var outFlag string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export aggregates as CSV or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := ctx.ensureService()
			if err != nil {
				return err
			}
			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outFlag != "" {
				file, err := os.Create(outFlag)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer file.Close()
				out = file
			}

			count, err := service.ExportAggregates(cmd.Context(), out, format, flags.filters())
			if err != nil {
				return err
			}
			if outFlag != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d aggregate(s) to %s\n", count, outFlag)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&formatFlag, "format", "csv", "Export format: csv or json")
	cmd.Flags().StringVar(&outFlag, "out", "", "Write to a file instead of stdout")
	return cmd
}
