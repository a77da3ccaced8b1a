package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"aquanexa/internal/unify"
)

// Format identifies an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv or json)", value)
	}
}

// Write encodes aggregates in the requested format.
func Write(w io.Writer, format Format, aggregates []*unify.Aggregate) error {
	switch format {
	case FormatJSON:
		return JSON(w, aggregates)
	case FormatCSV:
		return CSV(w, aggregates)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// JSON writes the full structured aggregates as an indented JSON array.
func JSON(w io.Writer, aggregates []*unify.Aggregate) error {
	if aggregates == nil {
		aggregates = []*unify.Aggregate{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(aggregates); err != nil {
		return fmt.Errorf("encode aggregates: %w", err)
	}
	return nil
}

// csvHeader is the flattened summary row layout: identity, fish summary,
// current ocean snapshot, per-category counts, and contributing files.
var csvHeader = []string{
	"composite_key",
	"location",
	"date",
	"time",
	"fish_species_count",
	"total_fish_individuals",
	"fish_species_list",
	"ocean_temperature",
	"ocean_salinity",
	"ocean_pH",
	"ocean_depth_m",
	"ocean_obs_count",
	"otolith_count",
	"eDNA_count",
	"contributing_files",
}

// CSV writes one summary row per aggregate. Fields are quoted and escaped by
// the encoder, so embedded delimiters and newlines survive a round trip.
func CSV(w io.Writer, aggregates []*unify.Aggregate) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, agg := range aggregates {
		species := agg.SpeciesList()
		row := []string{
			agg.CompositeKey,
			agg.Location,
			agg.Date,
			agg.Time,
			strconv.Itoa(len(species)),
			formatFloat(agg.TotalFishIndividuals()),
			strings.Join(species, "; "),
			oceanField(agg, func(s *unify.OceanSnapshot) *float64 { return s.Temperature }),
			oceanField(agg, func(s *unify.OceanSnapshot) *float64 { return s.Salinity }),
			oceanField(agg, func(s *unify.OceanSnapshot) *float64 { return s.PH }),
			oceanField(agg, func(s *unify.OceanSnapshot) *float64 { return s.DepthM }),
			strconv.Itoa(len(agg.OceanObservations)),
			strconv.Itoa(len(agg.Otoliths)),
			strconv.Itoa(len(agg.EDNA)),
			strings.Join(agg.ContributingFiles(), "; "),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func oceanField(agg *unify.Aggregate, pick func(*unify.OceanSnapshot) *float64) string {
	if agg.Ocean == nil {
		return ""
	}
	value := pick(agg.Ocean)
	if value == nil {
		return ""
	}
	return formatFloat(*value)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
