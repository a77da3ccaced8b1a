package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"aquanexa/internal/config"
)

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "catalog.db")
	// Pragmas go in the DSN so every pooled connection gets them; applying
	// them with Exec would configure only the one connection serving that
	// call, leaving the rest without a busy timeout under concurrent writers.
	dsn := "file:" + dbPath + "?" + strings.Join([]string{
		"_pragma=journal_mode(WAL)",
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
	}, "&")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the catalog database file path.
func (s *Store) Path() string {
	return s.path
}

// NewFile inserts a pending catalog entry for an uploaded file and returns it.
func (s *Store) NewFile(ctx context.Context, originalName, storedPath string, fileType FileType, category Category, sizeBytes int64) (*DataFile, error) {
	if originalName == "" {
		return nil, errors.New("original name must not be empty")
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO data_files (
            id, original_name, stored_path, file_type, category, size_bytes,
            status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		originalName,
		nullableString(storedPath),
		string(fileType),
		string(category),
		sizeBytes,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert file: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a catalog entry by identifier. Returns nil when not found.
func (s *Store) GetByID(ctx context.Context, id string) (*DataFile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM data_files WHERE id = ?`, id)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// Update persists changes to an existing catalog entry.
func (s *Store) Update(ctx context.Context, file *DataFile) error {
	if file == nil {
		return errors.New("file is nil")
	}
	file.UpdatedAt = time.Now().UTC()

	notesJSON, err := marshalNotes(file.Notes)
	if err != nil {
		return err
	}
	qualityJSON, err := marshalQuality(file.Quality)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE data_files
         SET original_name = ?, stored_path = ?, file_type = ?, category = ?,
             size_bytes = ?, status = ?, error_message = ?, record_count = ?,
             skipped_rows = ?, notes_json = ?, quality_json = ?, updated_at = ?
         WHERE id = ?`,
		file.OriginalName,
		nullableString(file.StoredPath),
		string(file.FileType),
		string(file.Category),
		file.SizeBytes,
		file.Status,
		nullableString(file.ErrorMessage),
		file.RecordCount,
		file.SkippedRows,
		notesJSON,
		qualityJSON,
		file.UpdatedAt.Format(time.RFC3339Nano),
		file.ID,
	)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	return nil
}

// ClaimNextPending atomically flips the oldest pending file to extracting and
// returns it. Returns nil when the queue is empty. The single UPDATE keeps two
// workers from claiming the same file.
func (s *Store) ClaimNextPending(ctx context.Context) (*DataFile, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	row := s.db.QueryRowContext(
		ctx,
		`UPDATE data_files SET status = ?, updated_at = ?
         WHERE id = (SELECT id FROM data_files WHERE status = ? ORDER BY created_at LIMIT 1)
         RETURNING `+fileColumns,
		StatusExtracting,
		now,
		StatusPending,
	)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim pending file: %w", err)
	}
	return file, nil
}

// List returns catalog entries filtered by status set (or all entries when no
// status is provided), newest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*DataFile, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + fileColumns + ` FROM data_files`
	orderClause := ` ORDER BY created_at DESC`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list catalog files: %w", err)
	}
	defer rows.Close()

	var files []*DataFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// ResetStuckProcessing resets files stuck in processing states back to pending.
// Called on watcher startup so an unclean shutdown never strands a file.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE data_files SET status = ?, updated_at = ? WHERE status IN (?, ?, ?)`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusExtracting,
		StatusStandardizing,
		StatusUnifying,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck files: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed files back to pending for reprocessing. With no IDs
// every failed file is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE data_files SET status = ?, error_message = NULL, updated_at = ? WHERE status = ?`,
			StatusPending,
			now,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed files: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusPending, now, StatusFailed)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE data_files SET status = ?, error_message = NULL, updated_at = ?
        WHERE status = ? AND id IN (` + placeholders + `)`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected files: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of files grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM data_files GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates catalog state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusCompleted:
			health.Completed += count
		case StatusFailed:
			health.Failed += count
		default:
			if _, ok := processingStatuses[status]; ok {
				health.Processing += count
			}
		}
	}
	return health, nil
}

const fileColumns = "id, original_name, stored_path, file_type, category, size_bytes, status, error_message, record_count, skipped_rows, notes_json, quality_json, created_at, updated_at"

func scanFile(scanner interface{ Scan(dest ...any) error }) (*DataFile, error) {
	var (
		id           string
		originalName string
		storedPath   sql.NullString
		fileType     string
		category     string
		sizeBytes    int64
		statusStr    string
		errorMessage sql.NullString
		recordCount  int
		skippedRows  int
		notesJSON    sql.NullString
		qualityJSON  sql.NullString
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&id,
		&originalName,
		&storedPath,
		&fileType,
		&category,
		&sizeBytes,
		&statusStr,
		&errorMessage,
		&recordCount,
		&skippedRows,
		&notesJSON,
		&qualityJSON,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	file := &DataFile{
		ID:           id,
		OriginalName: originalName,
		StoredPath:   storedPath.String,
		FileType:     FileType(fileType),
		Category:     Category(category),
		SizeBytes:    sizeBytes,
		Status:       Status(statusStr),
		ErrorMessage: errorMessage.String,
		RecordCount:  recordCount,
		SkippedRows:  skippedRows,
	}

	if notesJSON.Valid && notesJSON.String != "" {
		if err := json.Unmarshal([]byte(notesJSON.String), &file.Notes); err != nil {
			return nil, fmt.Errorf("decode notes: %w", err)
		}
	}
	if qualityJSON.Valid && qualityJSON.String != "" {
		quality := &QualityMetrics{}
		if err := json.Unmarshal([]byte(qualityJSON.String), quality); err != nil {
			return nil, fmt.Errorf("decode quality metrics: %w", err)
		}
		file.Quality = quality
	}

	if created, err := parseTimeString(createdRaw); err == nil {
		file.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		file.UpdatedAt = updated
	}
	return file, nil
}

func marshalNotes(notes []string) (any, error) {
	if len(notes) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return nil, fmt.Errorf("encode notes: %w", err)
	}
	return string(data), nil
}

func marshalQuality(quality *QualityMetrics) (any, error) {
	if quality == nil {
		return nil, nil
	}
	data, err := json.Marshal(quality)
	if err != nil {
		return nil, fmt.Errorf("encode quality metrics: %w", err)
	}
	return string(data), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
