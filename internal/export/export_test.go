package export_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"aquanexa/internal/export"
	"aquanexa/internal/standardize"
	"aquanexa/internal/unify"
)

func sampleAggregate() *unify.Aggregate {
	abundance := 12.0
	temperature := 18.5
	ph := 8.1
	return &unify.Aggregate{
		ID:           "agg-1",
		CompositeKey: "Reef A_2024-01-15_09:30",
		Location:     "Reef A",
		Date:         "2024-01-15",
		Time:         "09:30",
		Fish: []unify.FishEntry{
			{FishSample: standardize.FishSample{Species: "Tuna", Abundance: &abundance}, SourceFileID: "f1"},
		},
		Ocean: &unify.OceanSnapshot{
			OceanReading: standardize.OceanReading{Temperature: &temperature, PH: &ph},
			SourceFileID: "f2",
		},
		OceanObservations: []unify.OceanObservation{
			{OceanReading: standardize.OceanReading{Temperature: &temperature}, SourceFileID: "f2"},
		},
		MetadataRefs: []unify.MetadataRef{
			{SourceFileID: "f1", SourceFileName: "fish_survey.csv", Category: "fish_data"},
			{SourceFileID: "f2", SourceFileName: "ocean_readings.csv", Category: "ocean_data"},
		},
	}
}

func TestCSVExport(t *testing.T) {
	var buf bytes.Buffer
	if err := export.CSV(&buf, []*unify.Aggregate{sampleAggregate()}); err != nil {
		t.Fatalf("CSV export: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse exported csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("csv rows = %d, want header plus one", len(records))
	}

	header := records[0]
	row := records[1]
	if len(header) != 15 || len(row) != 15 {
		t.Fatalf("csv width = %d/%d, want 15", len(header), len(row))
	}

	byName := make(map[string]string, len(header))
	for i, name := range header {
		byName[name] = row[i]
	}
	if byName["composite_key"] != "Reef A_2024-01-15_09:30" {
		t.Errorf("composite_key = %q", byName["composite_key"])
	}
	if byName["fish_species_count"] != "1" || byName["total_fish_individuals"] != "12" {
		t.Errorf("fish summary = %q / %q", byName["fish_species_count"], byName["total_fish_individuals"])
	}
	if byName["ocean_temperature"] != "18.5" || byName["ocean_pH"] != "8.1" {
		t.Errorf("ocean snapshot = %q / %q", byName["ocean_temperature"], byName["ocean_pH"])
	}
	if byName["ocean_salinity"] != "" {
		t.Errorf("missing salinity should be empty, got %q", byName["ocean_salinity"])
	}
	if byName["contributing_files"] != "fish_survey.csv; ocean_readings.csv" {
		t.Errorf("contributing_files = %q", byName["contributing_files"])
	}
}

func TestCSVExportQuotesEmbeddedDelimiters(t *testing.T) {
	agg := sampleAggregate()
	agg.Location = `Reef "A", North`
	agg.CompositeKey = agg.Location + "_2024-01-15_09:30"

	var buf bytes.Buffer
	if err := export.CSV(&buf, []*unify.Aggregate{agg}); err != nil {
		t.Fatalf("CSV export: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("exported csv must stay parseable: %v", err)
	}
	if records[1][1] != agg.Location {
		t.Fatalf("location did not survive round trip: %q", records[1][1])
	}
	if !strings.Contains(buf.String(), `"Reef ""A"", North"`) {
		t.Fatalf("expected quoted location in raw output:\n%s", buf.String())
	}
}

func TestJSONExportRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := export.JSON(&buf, []*unify.Aggregate{sampleAggregate()}); err != nil {
		t.Fatalf("JSON export: %v", err)
	}

	var decoded []*unify.Aggregate
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode exported json: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("decoded aggregates = %d, want 1", len(decoded))
	}
	agg := decoded[0]
	if agg.CompositeKey != "Reef A_2024-01-15_09:30" || len(agg.Fish) != 1 || agg.Ocean == nil {
		t.Fatalf("round trip lost data: %+v", agg)
	}
	if agg.Ocean.PH == nil || *agg.Ocean.PH != 8.1 {
		t.Fatalf("pH lost in round trip: %+v", agg.Ocean)
	}
}

func TestJSONExportEmptySet(t *testing.T) {
	var buf bytes.Buffer
	if err := export.JSON(&buf, nil); err != nil {
		t.Fatalf("JSON export: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("empty export = %q, want []", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	if format, err := export.ParseFormat(" CSV "); err != nil || format != export.FormatCSV {
		t.Fatalf("ParseFormat(CSV) = %v, %v", format, err)
	}
	if _, err := export.ParseFormat("xml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
