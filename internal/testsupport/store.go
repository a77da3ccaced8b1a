package testsupport

import (
	"context"
	"testing"

	"aquanexa/internal/config"
	"aquanexa/internal/ingest"
	"aquanexa/internal/unify"
)

// MustOpenCatalog opens an ingest.Store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *ingest.Store {
	t.Helper()

	store, err := ingest.Open(cfg)
	if err != nil {
		t.Fatalf("ingest.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenAggregates opens a unify.Store for tests and registers cleanup.
func MustOpenAggregates(t testing.TB, cfg *config.Config) *unify.Store {
	t.Helper()

	store, err := unify.Open(cfg)
	if err != nil {
		t.Fatalf("unify.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewDataFile registers a pending catalog entry for tests.
func NewDataFile(t testing.TB, store *ingest.Store, name string, fileType ingest.FileType, category ingest.Category) *ingest.DataFile {
	t.Helper()

	file, err := store.NewFile(context.Background(), name, "", fileType, category, 0)
	if err != nil {
		t.Fatalf("store.NewFile: %v", err)
	}
	return file
}
