package extract_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"aquanexa/internal/extract"
	"aquanexa/internal/ingest"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDetectType(t *testing.T) {
	cases := []struct {
		name string
		want ingest.FileType
	}{
		{"survey.csv", ingest.FileTypeCSV},
		{"survey.CSV", ingest.FileTypeCSV},
		{"readings.xlsx", ingest.FileTypeExcel},
		{"legacy.xls", ingest.FileTypeExcel},
		{"samples.json", ingest.FileTypeJSON},
		{"otolith.png", ingest.FileTypeImage},
		{"otolith.JPG", ingest.FileTypeImage},
		{"report.pdf", ingest.FileTypeOther},
		{"noext", ingest.FileTypeOther},
	}
	for _, tc := range cases {
		if got := extract.DetectType(tc.name); got != tc.want {
			t.Fatalf("DetectType(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestForTypeRejectsUnsupported(t *testing.T) {
	if _, err := extract.ForType(ingest.FileTypeOther); err == nil {
		t.Fatal("expected error for unsupported file type")
	}
}

func TestCSVExtract(t *testing.T) {
	path := writeFile(t, "survey.csv", "location,date,time,species\nReef A,2024-01-15,09:30,Tuna\nReef B,2024-01-16,10:00,Cod\n")

	adapter, err := extract.ForType(ingest.FileTypeCSV)
	if err != nil {
		t.Fatalf("ForType failed: %v", err)
	}
	payload, err := adapter.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if payload.Kind != extract.KindTabular {
		t.Fatalf("expected tabular payload, got %q", payload.Kind)
	}
	if len(payload.Headers) != 4 || payload.Headers[3] != "species" {
		t.Fatalf("unexpected headers: %v", payload.Headers)
	}
	if len(payload.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(payload.Rows))
	}
	if payload.Rows[0]["species"] != "Tuna" {
		t.Fatalf("unexpected first row: %v", payload.Rows[0])
	}
}

func TestCSVExtractShortRowsPadded(t *testing.T) {
	path := writeFile(t, "ragged.csv", "location,date,time\nReef A,2024-01-15\n")

	adapter, _ := extract.ForType(ingest.FileTypeCSV)
	payload, err := adapter.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(payload.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(payload.Rows))
	}
	if got := payload.Rows[0]["time"]; got != "" {
		t.Fatalf("expected padded empty time, got %q", got)
	}
}

func TestCSVExtractEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", "")

	adapter, _ := extract.ForType(ingest.FileTypeCSV)
	payload, err := adapter.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if payload.RowCount() != 0 {
		t.Fatalf("expected empty payload, got %d rows", payload.RowCount())
	}
}

func TestJSONExtractArray(t *testing.T) {
	items := []map[string]any{
		{"location": "Reef A", "date": "2024-01-15", "time": "09:30", "temperature": 27.5},
		{"location": "Reef B", "date": "2024-01-16", "time": "10:00", "temperature": 26, "nested": map[string]any{"skip": true}},
	}
	data, err := json.Marshal(items)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	path := writeFile(t, "samples.json", string(data))

	adapter, _ := extract.ForType(ingest.FileTypeJSON)
	payload, err := adapter.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(payload.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(payload.Rows))
	}
	if payload.Rows[0]["temperature"] != "27.5" {
		t.Fatalf("expected stringified float, got %q", payload.Rows[0]["temperature"])
	}
	if _, ok := payload.Rows[1]["nested"]; ok {
		t.Fatal("nested objects should be skipped")
	}
}

func TestJSONExtractSingleObject(t *testing.T) {
	path := writeFile(t, "single.json", `{"location":"Reef A","date":"2024-01-15","time":"09:30"}`)

	adapter, _ := extract.ForType(ingest.FileTypeJSON)
	payload, err := adapter.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(payload.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(payload.Rows))
	}
}

func TestJSONExtractRejectsScalarRoot(t *testing.T) {
	path := writeFile(t, "bad.json", `42`)

	adapter, _ := extract.ForType(ingest.FileTypeJSON)
	if _, err := adapter.Extract(context.Background(), path); err == nil {
		t.Fatal("expected error for scalar JSON root")
	}
}

func TestImageExtractDerivesMorphometrics(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(t.TempDir(), "otolith.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}

	adapter, _ := extract.ForType(ingest.FileTypeImage)
	payload, err := adapter.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if payload.Kind != extract.KindArtifact || payload.Artifact == nil {
		t.Fatalf("expected artifact payload, got %+v", payload)
	}
	art := payload.Artifact
	if art.Width != 100 || art.Height != 50 {
		t.Fatalf("unexpected bounds %dx%d", art.Width, art.Height)
	}
	if art.Features.Area == nil || *art.Features.Area != 3500 {
		t.Fatalf("expected area 3500 (100*50*0.7), got %v", art.Features.Area)
	}
	if art.Features.AspectRatio == nil || *art.Features.AspectRatio != 2 {
		t.Fatalf("expected aspect ratio 2, got %v", art.Features.AspectRatio)
	}
	if art.Features.Volume == nil || *art.Features.Volume != 350 {
		t.Fatalf("expected volume 350, got %v", art.Features.Volume)
	}
}
