package ingest_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"aquanexa/internal/ingest"
	"aquanexa/internal/testsupport"
)

func TestNewFileAndGetByID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	file, err := store.NewFile(ctx, "fish_survey.csv", "/tmp/stored.csv", ingest.FileTypeCSV, ingest.CategoryFish, 1024)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if file.ID == "" || file.Status != ingest.StatusPending {
		t.Fatalf("unexpected new file: %+v", file)
	}
	if file.CreatedAt.IsZero() || file.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set")
	}

	loaded, err := store.GetByID(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded == nil || loaded.OriginalName != "fish_survey.csv" || loaded.SizeBytes != 1024 {
		t.Fatalf("loaded = %+v", loaded)
	}

	missing, err := store.GetByID(ctx, "does-not-exist")
	if err != nil {
		t.Fatalf("GetByID missing: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown id")
	}
}

func TestNewFileRequiresName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)

	if _, err := store.NewFile(context.Background(), "", "", ingest.FileTypeCSV, ingest.CategoryFish, 0); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestNewFileConcurrentRegistrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	const uploads = 8
	errs := make(chan error, uploads)
	var wg sync.WaitGroup
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			name := fmt.Sprintf("survey_%d.csv", n)
			_, err := store.NewFile(ctx, name, "/tmp/"+name, ingest.FileTypeCSV, ingest.CategoryFish, 512)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent NewFile: %v", err)
		}
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != uploads {
		t.Fatalf("catalog holds %d files, want %d", len(all), uploads)
	}
}

func TestUpdateRoundTripsNotesAndQuality(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	file := testsupport.NewDataFile(t, store, "ocean.csv", ingest.FileTypeCSV, ingest.CategoryOcean)
	file.Status = ingest.StatusCompleted
	file.RecordCount = 7
	file.SkippedRows = 1
	file.Notes = []string{"standardized 7 records from 8 input rows"}
	file.Quality = &ingest.QualityMetrics{Completeness: 87, Accuracy: 95, Consistency: 90, Validity: 95, Timeliness: 100}
	if err := store.Update(ctx, file); err != nil {
		t.Fatalf("Update: %v", err)
	}

	loaded, err := store.GetByID(ctx, file.ID)
	if err != nil || loaded == nil {
		t.Fatalf("GetByID: %v (%v)", loaded, err)
	}
	if loaded.Status != ingest.StatusCompleted || loaded.RecordCount != 7 || loaded.SkippedRows != 1 {
		t.Fatalf("bookkeeping lost: %+v", loaded)
	}
	if len(loaded.Notes) != 1 || loaded.Notes[0] != file.Notes[0] {
		t.Fatalf("notes = %v", loaded.Notes)
	}
	if loaded.Quality == nil || loaded.Quality.Completeness != 87 {
		t.Fatalf("quality = %+v", loaded.Quality)
	}
}

func TestClaimNextPendingIsOrderedAndExclusive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	first := testsupport.NewDataFile(t, store, "first.csv", ingest.FileTypeCSV, ingest.CategoryFish)
	testsupport.NewDataFile(t, store, "second.csv", ingest.FileTypeCSV, ingest.CategoryFish)

	claimed, err := store.ClaimNextPending(ctx)
	if err != nil {
		t.Fatalf("ClaimNextPending: %v", err)
	}
	if claimed == nil || claimed.ID != first.ID {
		t.Fatalf("claimed = %+v, want oldest pending", claimed)
	}
	if claimed.Status != ingest.StatusExtracting {
		t.Fatalf("claimed status = %s, want extracting", claimed.Status)
	}

	second, err := store.ClaimNextPending(ctx)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if second == nil || second.ID == claimed.ID {
		t.Fatalf("second claim = %+v", second)
	}

	empty, err := store.ClaimNextPending(ctx)
	if err != nil {
		t.Fatalf("empty claim: %v", err)
	}
	if empty != nil {
		t.Fatalf("expected nil on drained queue, got %+v", empty)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	file := testsupport.NewDataFile(t, store, "stuck.csv", ingest.FileTypeCSV, ingest.CategoryFish)
	file.Status = ingest.StatusUnifying
	if err := store.Update(ctx, file); err != nil {
		t.Fatalf("Update: %v", err)
	}
	done := testsupport.NewDataFile(t, store, "done.csv", ingest.FileTypeCSV, ingest.CategoryFish)
	done.Status = ingest.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reset, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing: %v", err)
	}
	if reset != 1 {
		t.Fatalf("reset = %d, want 1", reset)
	}

	after, err := store.GetByID(ctx, file.ID)
	if err != nil || after == nil {
		t.Fatalf("GetByID: %v (%v)", after, err)
	}
	if after.Status != ingest.StatusPending {
		t.Fatalf("status = %s, want pending", after.Status)
	}
}

func TestRetryFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	failed := testsupport.NewDataFile(t, store, "bad.csv", ingest.FileTypeCSV, ingest.CategoryFish)
	failed.SetFailed("extract: boom")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update: %v", err)
	}

	count, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if count != 1 {
		t.Fatalf("retried = %d, want 1", count)
	}

	after, err := store.GetByID(ctx, failed.ID)
	if err != nil || after == nil {
		t.Fatalf("GetByID: %v (%v)", after, err)
	}
	if after.Status != ingest.StatusPending || after.ErrorMessage != "" {
		t.Fatalf("after retry = %s / %q", after.Status, after.ErrorMessage)
	}
}

func TestListAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	testsupport.NewDataFile(t, store, "a.csv", ingest.FileTypeCSV, ingest.CategoryFish)
	failed := testsupport.NewDataFile(t, store, "b.csv", ingest.FileTypeCSV, ingest.CategoryOcean)
	failed.SetFailed("unify: boom")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("list = %d entries, want 2", len(all))
	}

	pending, err := store.List(ctx, ingest.StatusPending)
	if err != nil {
		t.Fatalf("List pending: %v", err)
	}
	if len(pending) != 1 || pending[0].OriginalName != "a.csv" {
		t.Fatalf("pending = %v", pending)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 2 || health.Pending != 1 || health.Failed != 1 {
		t.Fatalf("health = %+v", health)
	}
}
