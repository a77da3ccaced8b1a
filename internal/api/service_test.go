package api_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aquanexa/internal/api"
	"aquanexa/internal/config"
	"aquanexa/internal/export"
	"aquanexa/internal/ingest"
	"aquanexa/internal/standardize"
	"aquanexa/internal/testsupport"
	"aquanexa/internal/unify"
)

func newService(t *testing.T, opts ...testsupport.ConfigOption) (*api.Service, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	catalog := testsupport.MustOpenCatalog(t, cfg)
	aggregates := testsupport.MustOpenAggregates(t, cfg)
	return api.NewService(cfg, catalog, aggregates, nil), cfg
}

func TestIngestFileRegistersPendingEntry(t *testing.T) {
	service, cfg := newService(t)
	ctx := context.Background()

	source := filepath.Join(t.TempDir(), "fish_survey.csv")
	testsupport.WriteFile(t, source, "Location,Date,Time,Species\nReef A,2024-01-15,09:30,Tuna\n")

	file, err := service.IngestFile(ctx, source, ingest.CategoryFish)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if file.Status != ingest.StatusPending {
		t.Errorf("status = %s, want pending", file.Status)
	}
	if file.FileType != ingest.FileTypeCSV {
		t.Errorf("file type = %s, want csv", file.FileType)
	}
	if !strings.HasPrefix(file.StoredPath, cfg.Paths.UploadDir) {
		t.Errorf("stored path %q not under upload dir", file.StoredPath)
	}
	if _, err := os.Stat(file.StoredPath); err != nil {
		t.Errorf("stored copy missing: %v", err)
	}

	files, err := service.ListFiles(ctx, ingest.StatusPending)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 || files[0].ID != file.ID {
		t.Fatalf("pending listing = %v", files)
	}
}

func TestIngestFileEnforcesSizeCap(t *testing.T) {
	service, _ := newService(t, func(cfg *config.Config) {
		cfg.Limits.MaxCSVMiB = 0
	})

	source := filepath.Join(t.TempDir(), "huge.csv")
	testsupport.WriteFile(t, source, "a,b,c\n")

	if _, err := service.IngestFile(context.Background(), source, ingest.CategoryFish); err == nil {
		t.Fatal("expected size cap rejection")
	}
}

func TestIngestFileRejectsDirectories(t *testing.T) {
	service, _ := newService(t)
	if _, err := service.IngestFile(context.Background(), t.TempDir(), ingest.CategoryFish); err == nil {
		t.Fatal("expected rejection for directory source")
	}
}

func TestFileByIDNotFound(t *testing.T) {
	service, _ := newService(t)
	if _, err := service.FileByID(context.Background(), "missing"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestExportAggregates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	catalog := testsupport.MustOpenCatalog(t, cfg)
	aggregates := testsupport.MustOpenAggregates(t, cfg)
	service := api.NewService(cfg, catalog, aggregates, nil)
	ctx := context.Background()

	file := testsupport.NewDataFile(t, catalog, "fish_survey.csv", ingest.FileTypeCSV, ingest.CategoryFish)
	abundance := 12.0
	if _, err := aggregates.Merge(ctx, file, []standardize.Record{{
		Location: "Reef A",
		Date:     "2024-01-15",
		Time:     "09:30",
		Category: ingest.CategoryFish,
		Fish:     &standardize.FishSample{Species: "Tuna", Abundance: &abundance},
	}}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	var buf bytes.Buffer
	count, err := service.ExportAggregates(ctx, &buf, export.FormatCSV, unify.Filters{})
	if err != nil {
		t.Fatalf("ExportAggregates: %v", err)
	}
	if count != 1 {
		t.Fatalf("exported %d aggregates, want 1", count)
	}
	if !strings.Contains(buf.String(), "Reef A_2024-01-15_09:30") {
		t.Fatalf("export missing composite key:\n%s", buf.String())
	}

	report, err := service.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if report.Aggregates != 1 || report.Files.Total != 1 {
		t.Fatalf("status report = %+v", report)
	}
}
