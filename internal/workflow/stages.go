package workflow

import (
	"context"
	"fmt"

	"aquanexa/internal/config"
	"aquanexa/internal/extract"
	"aquanexa/internal/ingest"
	"aquanexa/internal/services"
	"aquanexa/internal/stage"
	"aquanexa/internal/standardize"
	"aquanexa/internal/unify"
)

// extractStage reads the stored file and produces a raw payload.
type extractStage struct {
	cfg *config.Config
}

func (s *extractStage) Name() string { return "extract" }

func (s *extractStage) Status() ingest.Status { return ingest.StatusExtracting }

func (s *extractStage) Execute(ctx context.Context, file *ingest.DataFile, state *stage.State) error {
	if limit := extract.MaxBytes(s.cfg, file.FileType); file.SizeBytes > limit {
		return services.Wrap(services.ErrValidation, "extract", "size-check",
			fmt.Sprintf("file is %d bytes, cap for %s is %d", file.SizeBytes, file.FileType, limit), nil)
	}

	adapter, err := extract.ForType(file.FileType)
	if err != nil {
		return err
	}
	payload, err := adapter.Extract(ctx, file.StoredPath)
	if err != nil {
		return err
	}
	state.Payload = payload
	return nil
}

// standardizeStage converts the raw payload into canonical records and writes
// the per-file bookkeeping (counts, notes, quality score).
type standardizeStage struct {
	standardizer *standardize.Standardizer
}

func (s *standardizeStage) Name() string { return "standardize" }

func (s *standardizeStage) Status() ingest.Status { return ingest.StatusStandardizing }

func (s *standardizeStage) Execute(ctx context.Context, file *ingest.DataFile, state *stage.State) error {
	result, err := s.standardizer.Standardize(state.Payload, file.Category)
	if err != nil {
		return err
	}
	state.Result = result
	file.RecordCount = len(result.Records)
	file.SkippedRows = result.Skipped
	file.Notes = append(file.Notes, result.Notes...)
	file.Quality = standardize.QualityMetrics(result)
	return nil
}

// unifyStage folds canonical records into aggregates.
type unifyStage struct {
	aggregates *unify.Store
}

func (s *unifyStage) Name() string { return "unify" }

func (s *unifyStage) Status() ingest.Status { return ingest.StatusUnifying }

func (s *unifyStage) Execute(ctx context.Context, file *ingest.DataFile, state *stage.State) error {
	if state.Result == nil || len(state.Result.Records) == 0 {
		file.Notes = append(file.Notes, "no records to unify")
		return nil
	}
	stats, err := s.aggregates.Merge(ctx, file, state.Result.Records)
	if err != nil {
		return err
	}
	state.Stats = stats
	file.Notes = append(file.Notes,
		fmt.Sprintf("unified into %d new and %d existing aggregates", stats.Created, stats.Merged))
	return nil
}
