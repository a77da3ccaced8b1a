package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"aquanexa/internal/config"
	"aquanexa/internal/ingest"
	"aquanexa/internal/logging"
	"aquanexa/internal/stage"
	"aquanexa/internal/standardize"
	"aquanexa/internal/unify"
)

// Manager coordinates catalog processing with a pool of workers, each driving
// one claimed file through the pipeline stages.
type Manager struct {
	cfg           *config.Config
	catalog       *ingest.Store
	aggregates    *unify.Store
	logger        *slog.Logger
	stages        []stage.Handler
	pollInterval  time.Duration
	retryInterval time.Duration
	workers       int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewManager constructs a workflow manager wired with the standard stages.
func NewManager(cfg *config.Config, catalog *ingest.Store, aggregates *unify.Store, logger *slog.Logger) *Manager {
	workers := cfg.Workflow.Workers
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		cfg:        cfg,
		catalog:    catalog,
		aggregates: aggregates,
		logger:     logging.NewComponentLogger(logger, "workflow"),
		stages: []stage.Handler{
			&extractStage{cfg: cfg},
			&standardizeStage{standardizer: standardize.New(logger)},
			&unifyStage{aggregates: aggregates},
		},
		pollInterval:  time.Duration(cfg.Workflow.PollInterval) * time.Second,
		retryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		workers:       workers,
	}
}

// Start begins background processing. Files stranded in processing states by
// an unclean shutdown are reset to pending first.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}

	reset, err := m.catalog.ResetStuckProcessing(ctx)
	if err != nil {
		return err
	}
	if reset > 0 {
		m.logger.Info("reset stranded files to pending", logging.Int64("count", reset))
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	m.wg.Add(m.workers)
	for i := 0; i < m.workers; i++ {
		go m.runWorker(runCtx, i)
	}
	m.logger.Info("workflow started", logging.Int("workers", m.workers))
	return nil
}

// Stop terminates background processing and waits for workers to drain.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("workflow stopped")
}

// LastError returns the most recent worker-loop error, for diagnostics.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()
	logger := m.logger.With(logging.Int("worker", id))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		file, err := m.catalog.ClaimNextPending(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.setLastError(err)
			logger.Error("failed to claim next file", logging.Error(err))
			if !sleepCtx(ctx, m.retryInterval) {
				return
			}
			continue
		}
		if file == nil {
			if !sleepCtx(ctx, m.pollInterval) {
				return
			}
			continue
		}

		if err := m.processClaimed(ctx, logger, file); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			// Stage failures are recorded on the file; the worker moves on.
			m.setLastError(err)
		}
	}
}

// ProcessFile drives one pending file through the pipeline synchronously,
// claiming it by status transition. Used by the CLI's immediate ingest path.
func (m *Manager) ProcessFile(ctx context.Context, file *ingest.DataFile) error {
	if file == nil {
		return errors.New("file is nil")
	}
	if file.Status != ingest.StatusPending {
		return errors.New("file is not pending")
	}
	file.Status = ingest.StatusExtracting
	if err := m.catalog.Update(ctx, file); err != nil {
		return err
	}
	return m.processClaimed(ctx, m.logger, file)
}

// processClaimed runs every stage against a file already claimed into
// extracting. Failures mark only this file failed; the error is returned for
// callers that surface it directly.
func (m *Manager) processClaimed(ctx context.Context, logger *slog.Logger, file *ingest.DataFile) error {
	logger.Info("processing file",
		logging.String(logging.FieldFileID, file.ID),
		logging.String(logging.FieldFileName, file.OriginalName),
		logging.String(logging.FieldCategory, string(file.Category)),
	)

	state := &stage.State{}
	for _, handler := range m.stages {
		if file.Status != handler.Status() {
			file.Status = handler.Status()
			if err := m.catalog.Update(ctx, file); err != nil {
				return err
			}
		}
		logger.Debug("stage starting",
			logging.String(logging.FieldFileID, file.ID),
			logging.String(logging.FieldStage, handler.Name()),
		)
		if err := handler.Execute(ctx, file, state); err != nil {
			m.markFailed(ctx, logger, file, handler.Name(), err)
			return err
		}
	}

	file.Status = ingest.StatusCompleted
	file.ErrorMessage = ""
	if err := m.catalog.Update(ctx, file); err != nil {
		return err
	}

	logger.Info("file completed",
		logging.String(logging.FieldFileID, file.ID),
		logging.Int("records", file.RecordCount),
		logging.Int("skipped", file.SkippedRows),
		logging.Int("aggregates_created", state.Stats.Created),
		logging.Int("aggregates_merged", state.Stats.Merged),
	)
	return nil
}

func (m *Manager) markFailed(ctx context.Context, logger *slog.Logger, file *ingest.DataFile, stageName string, cause error) {
	file.Status = ingest.StatusFailed
	file.ErrorMessage = stageName + ": " + cause.Error()
	if err := m.catalog.Update(ctx, file); err != nil {
		logger.Error("failed to persist failure state",
			logging.String(logging.FieldFileID, file.ID),
			logging.Error(err),
		)
		return
	}
	logger.Error("file failed",
		logging.String(logging.FieldFileID, file.ID),
		logging.String(logging.FieldFileName, file.OriginalName),
		logging.String(logging.FieldStage, stageName),
		logging.Error(cause),
	)
}

// sleepCtx waits for the duration or context cancellation, reporting whether
// the caller should keep running.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
