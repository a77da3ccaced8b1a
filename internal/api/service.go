package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"aquanexa/internal/config"
	"aquanexa/internal/export"
	"aquanexa/internal/extract"
	"aquanexa/internal/ingest"
	"aquanexa/internal/logging"
	"aquanexa/internal/services"
	"aquanexa/internal/unify"
)

// Service is the application surface shared by the CLI commands: file
// ingestion, catalog inspection, and aggregate queries.
type Service struct {
	cfg        *config.Config
	catalog    *ingest.Store
	aggregates *unify.Store
	logger     *slog.Logger
}

// NewService constructs the application service.
func NewService(cfg *config.Config, catalog *ingest.Store, aggregates *unify.Store, logger *slog.Logger) *Service {
	return &Service{
		cfg:        cfg,
		catalog:    catalog,
		aggregates: aggregates,
		logger:     logging.NewComponentLogger(logger, "api"),
	}
}

// IngestFile copies a source file into the upload directory and registers a
// pending catalog entry for it. The file type is detected from the name and
// the per-type size cap enforced before any bytes are copied.
func (s *Service) IngestFile(ctx context.Context, sourcePath string, category ingest.Category) (*ingest.DataFile, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "ingest", "stat", sourcePath+" is a directory", nil)
	}

	originalName := filepath.Base(sourcePath)
	fileType := extract.DetectType(originalName)
	if limit := extract.MaxBytes(s.cfg, fileType); info.Size() > limit {
		return nil, services.Wrap(services.ErrValidation, "ingest", "size-check",
			fmt.Sprintf("%s is %d bytes, cap for %s is %d", originalName, info.Size(), fileType, limit), nil)
	}

	if err := s.cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	storedPath := filepath.Join(s.cfg.Paths.UploadDir, uuid.NewString()+"_"+originalName)
	if err := copyFile(sourcePath, storedPath); err != nil {
		return nil, err
	}

	file, err := s.catalog.NewFile(ctx, originalName, storedPath, fileType, category, info.Size())
	if err != nil {
		_ = os.Remove(storedPath)
		return nil, err
	}

	s.logger.Info("file registered",
		logging.String(logging.FieldFileID, file.ID),
		logging.String(logging.FieldFileName, file.OriginalName),
		logging.String(logging.FieldCategory, string(file.Category)),
		logging.Int64("size_bytes", file.SizeBytes),
	)
	return file, nil
}

// ListFiles returns catalog entries, optionally filtered by status.
func (s *Service) ListFiles(ctx context.Context, statuses ...ingest.Status) ([]*ingest.DataFile, error) {
	return s.catalog.List(ctx, statuses...)
}

// FileByID fetches one catalog entry.
func (s *Service) FileByID(ctx context.Context, id string) (*ingest.DataFile, error) {
	file, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, services.Wrap(services.ErrNotFound, "api", "file-lookup", "no file with id "+id, nil)
	}
	return file, nil
}

// RetryFailed moves failed files back to pending. With no IDs every failed
// file is retried.
func (s *Service) RetryFailed(ctx context.Context, ids ...string) (int64, error) {
	return s.catalog.RetryFailed(ctx, ids...)
}

// ListAggregates returns aggregates matching the filters.
func (s *Service) ListAggregates(ctx context.Context, filters unify.Filters) ([]*unify.Aggregate, error) {
	return s.aggregates.List(ctx, filters)
}

// ExportAggregates writes matching aggregates to w in the requested format.
func (s *Service) ExportAggregates(ctx context.Context, w io.Writer, format export.Format, filters unify.Filters) (int, error) {
	aggregates, err := s.aggregates.List(ctx, filters)
	if err != nil {
		return 0, err
	}
	if err := export.Write(w, format, aggregates); err != nil {
		return 0, err
	}
	return len(aggregates), nil
}

// StatusReport summarizes the catalog and aggregate stores.
type StatusReport struct {
	Files      ingest.HealthSummary
	Aggregates int
}

// Status reports pipeline health counters.
func (s *Service) Status(ctx context.Context) (StatusReport, error) {
	health, err := s.catalog.Health(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	count, err := s.aggregates.Count(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	return StatusReport{Files: health, Aggregates: count}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create upload copy: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("copy upload: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("finalize upload copy: %w", err)
	}
	return nil
}
