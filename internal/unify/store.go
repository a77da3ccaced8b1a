package unify

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
	"aquanexa/internal/ingest"
	"aquanexa/internal/services"
	"aquanexa/internal/standardize"
)

// Store manages aggregate persistence backed by SQLite.
type Store struct {
	db        *sql.DB
	path      string
	tolerance int
	listLimit int
}

// MergeStats summarizes one merge batch.
type MergeStats struct {
	Created int
	Merged  int
}

// Filters narrows an aggregate listing. Zero values mean "no filter".
type Filters struct {
	Location string // case-insensitive substring
	DateFrom string // inclusive, YYYY-MM-DD
	DateTo   string // inclusive, YYYY-MM-DD
	Species  string // case-insensitive substring over fish species
	Limit    int
}

// Open initializes or connects to the aggregate database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "aggregates.db")
	// Merge transactions read then write; starting them immediate keeps two
	// writers from deadlocking on the lock upgrade. Pragmas go in the DSN so
	// every pooled connection carries the busy timeout; a connection without
	// it fails BEGIN IMMEDIATE instantly when another writer holds the lock.
	dsn := "file:" + dbPath + "?_txlock=immediate&" + strings.Join([]string{
		"_pragma=journal_mode(WAL)",
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
	}, "&")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{
		db:        db,
		path:      dbPath,
		tolerance: cfg.Unify.TimeToleranceMinutes,
		listLimit: cfg.Unify.DefaultListLimit,
	}
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

// Path returns the aggregate database file path.
func (s *Store) Path() string {
	return s.path
}

// Merge folds standardized records from one source file into aggregates.
// Every record resolves and merges inside its own write transaction, so a
// concurrent merge can never observe a resolved-but-unmerged aggregate.
func (s *Store) Merge(ctx context.Context, source *ingest.DataFile, records []standardize.Record) (MergeStats, error) {
	if source == nil {
		return MergeStats{}, errors.New("source file is nil")
	}

	var stats MergeStats
	for i := range records {
		created, err := s.mergeOne(ctx, source, &records[i])
		if err != nil {
			return stats, err
		}
		if created {
			stats.Created++
		} else {
			stats.Merged++
		}
	}
	return stats, nil
}

func (s *Store) mergeOne(ctx context.Context, source *ingest.DataFile, record *standardize.Record) (bool, error) {
	created, err := s.mergeTx(ctx, source, record)
	if errors.Is(err, services.ErrConflict) {
		// A concurrent writer inserted the key first; the retry finds the
		// existing row and merges into it.
		return s.mergeTx(ctx, source, record)
	}
	return created, err
}

func (s *Store) mergeTx(ctx context.Context, source *ingest.DataFile, record *standardize.Record) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin merge tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	key := CompositeKeyFor(record.Location, record.Date, record.Time)
	agg, err := getByKey(ctx, tx, key)
	if err != nil {
		return false, err
	}
	if agg == nil {
		agg, err = s.findWithinTolerance(ctx, tx, record)
		if err != nil {
			return false, err
		}
	}

	now := time.Now().UTC()
	created := agg == nil
	if created {
		agg = &Aggregate{
			ID:           uuid.NewString(),
			CompositeKey: key,
			Location:     record.Location,
			Date:         record.Date,
			Time:         record.Time,
			CreatedAt:    now,
		}
	}

	applyRecord(agg, source, record, now)

	if created {
		err = insertAggregate(ctx, tx, agg)
	} else {
		err = updateAggregate(ctx, tx, agg)
	}
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit merge: %w", err)
	}
	return created, nil
}

// findWithinTolerance scans same-day rows at the same location for one whose
// time is within the tolerance window. Matching is against existing rows only,
// ordered by creation, so the first-arriving aggregate keeps its key and
// clustering stays non-transitive: 10:00 absorbs 10:04, and a later 10:08
// row opens a new aggregate even though it is within tolerance of 10:04.
func (s *Store) findWithinTolerance(ctx context.Context, tx *sql.Tx, record *standardize.Record) (*Aggregate, error) {
	minutes, ok := standardize.MinutesOfDay(record.Time)
	if !ok {
		return nil, nil
	}

	rows, err := tx.QueryContext(
		ctx,
		`SELECT `+aggregateColumns+` FROM aggregates WHERE location = ? AND date = ? ORDER BY created_at`,
		record.Location,
		record.Date,
	)
	if err != nil {
		return nil, fmt.Errorf("tolerance scan: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		candidate, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		candidateMinutes, ok := standardize.MinutesOfDay(candidate.Time)
		if !ok {
			continue
		}
		delta := minutes - candidateMinutes
		if delta < 0 {
			delta = -delta
		}
		if delta <= s.tolerance {
			return candidate, nil
		}
	}
	return nil, rows.Err()
}

// applyRecord mutates the aggregate with one record's payload and provenance.
func applyRecord(agg *Aggregate, source *ingest.DataFile, record *standardize.Record, now time.Time) {
	switch {
	case record.Fish != nil:
		agg.Fish = append(agg.Fish, FishEntry{FishSample: *record.Fish, SourceFileID: source.ID})
	case record.Ocean != nil:
		agg.OceanObservations = append(agg.OceanObservations, OceanObservation{
			OceanReading: *record.Ocean,
			ObservedAt:   now,
			SourceFileID: source.ID,
		})
		agg.Ocean = &OceanSnapshot{
			OceanReading: *record.Ocean,
			LastUpdated:  now,
			SourceFileID: source.ID,
		}
	case record.Otolith != nil:
		agg.Otoliths = append(agg.Otoliths, OtolithEntry{OtolithFeatures: *record.Otolith, SourceFileID: source.ID})
	case record.EDNA != nil:
		agg.EDNA = append(agg.EDNA, EDNAEntry{EDNASample: *record.EDNA, SourceFileID: source.ID})
	case record.Extra != nil:
		agg.Extras = append(agg.Extras, GenericEntry{
			Category:     string(record.Category),
			Fields:       record.Extra,
			SourceFileID: source.ID,
		})
	}

	for _, ref := range agg.MetadataRefs {
		if ref.SourceFileID == source.ID {
			agg.UpdatedAt = now
			return
		}
	}
	agg.MetadataRefs = append(agg.MetadataRefs, MetadataRef{
		SourceFileID:   source.ID,
		SourceFileName: source.OriginalName,
		Category:       string(source.Category),
	})
	agg.UpdatedAt = now
}

// GetByKey fetches one aggregate by composite key. Returns nil when not found.
func (s *Store) GetByKey(ctx context.Context, key string) (*Aggregate, error) {
	return getByKey(ctx, s.db, key)
}

// List returns aggregates matching the filters, sorted by date then time
// ascending. A zero limit falls back to the configured default.
func (s *Store) List(ctx context.Context, filters Filters) ([]*Aggregate, error) {
	var (
		conditions []string
		args       []any
	)
	if filters.Location != "" {
		conditions = append(conditions, `location LIKE ? COLLATE NOCASE`)
		args = append(args, "%"+filters.Location+"%")
	}
	if filters.DateFrom != "" {
		conditions = append(conditions, `date >= ?`)
		args = append(args, filters.DateFrom)
	}
	if filters.DateTo != "" {
		conditions = append(conditions, `date <= ?`)
		args = append(args, filters.DateTo)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = s.listLimit
	}

	query := `SELECT ` + aggregateColumns + ` FROM aggregates`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}
	query += ` ORDER BY date, time`
	// The species filter inspects JSON payloads in Go, so the SQL limit only
	// applies when no species filter narrows the set afterwards.
	if filters.Species == "" {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list aggregates: %w", err)
	}
	defer rows.Close()

	var aggregates []*Aggregate
	for rows.Next() {
		agg, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		if filters.Species != "" && !agg.HasSpecies(filters.Species) {
			continue
		}
		aggregates = append(aggregates, agg)
		if len(aggregates) >= limit {
			break
		}
	}
	return aggregates, rows.Err()
}

// Count returns the total number of aggregates.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM aggregates`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count aggregates: %w", err)
	}
	return count, nil
}

const aggregateColumns = "id, composite_key, location, date, time, fish_json, ocean_json, ocean_observations_json, otolith_json, edna_json, extras_json, metadata_json, created_at, updated_at"

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getByKey(ctx context.Context, q querier, key string) (*Aggregate, error) {
	row := q.QueryRowContext(ctx, `SELECT `+aggregateColumns+` FROM aggregates WHERE composite_key = ?`, key)
	agg, err := scanAggregate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get aggregate: %w", err)
	}
	return agg, nil
}

func insertAggregate(ctx context.Context, tx *sql.Tx, agg *Aggregate) error {
	columns, err := encodeColumns(agg)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO aggregates (`+aggregateColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		agg.ID,
		agg.CompositeKey,
		agg.Location,
		agg.Date,
		agg.Time,
		columns.fish,
		columns.ocean,
		columns.oceanObs,
		columns.otolith,
		columns.edna,
		columns.extras,
		columns.metadata,
		agg.CreatedAt.Format(time.RFC3339Nano),
		agg.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return classifyInsertError(err)
	}
	return nil
}

// classifyInsertError tags a unique-constraint failure on the composite key
// as ErrConflict so the caller can retry the merge against the winning row.
func classifyInsertError(err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return services.Wrap(services.ErrConflict, "unify", "insert", "composite key already exists", err)
	}
	return fmt.Errorf("insert aggregate: %w", err)
}

func updateAggregate(ctx context.Context, tx *sql.Tx, agg *Aggregate) error {
	columns, err := encodeColumns(agg)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(
		ctx,
		`UPDATE aggregates
         SET fish_json = ?, ocean_json = ?, ocean_observations_json = ?,
             otolith_json = ?, edna_json = ?, extras_json = ?, metadata_json = ?,
             updated_at = ?
         WHERE id = ?`,
		columns.fish,
		columns.ocean,
		columns.oceanObs,
		columns.otolith,
		columns.edna,
		columns.extras,
		columns.metadata,
		agg.UpdatedAt.Format(time.RFC3339Nano),
		agg.ID,
	)
	if err != nil {
		return fmt.Errorf("update aggregate: %w", err)
	}
	return nil
}

type encodedColumns struct {
	fish     any
	ocean    any
	oceanObs any
	otolith  any
	edna     any
	extras   any
	metadata any
}

func encodeColumns(agg *Aggregate) (encodedColumns, error) {
	var (
		cols encodedColumns
		err  error
	)
	if cols.fish, err = encodeJSON(agg.Fish); err != nil {
		return cols, err
	}
	if agg.Ocean != nil {
		if cols.ocean, err = encodeJSON(agg.Ocean); err != nil {
			return cols, err
		}
	}
	if cols.oceanObs, err = encodeJSON(agg.OceanObservations); err != nil {
		return cols, err
	}
	if cols.otolith, err = encodeJSON(agg.Otoliths); err != nil {
		return cols, err
	}
	if cols.edna, err = encodeJSON(agg.EDNA); err != nil {
		return cols, err
	}
	if cols.extras, err = encodeJSON(agg.Extras); err != nil {
		return cols, err
	}
	if cols.metadata, err = encodeJSON(agg.MetadataRefs); err != nil {
		return cols, err
	}
	return cols, nil
}

func encodeJSON(value any) (any, error) {
	if isEmptySlice(value) {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode aggregate payload: %w", err)
	}
	return string(data), nil
}

func isEmptySlice(value any) bool {
	switch v := value.(type) {
	case []FishEntry:
		return len(v) == 0
	case []OceanObservation:
		return len(v) == 0
	case []OtolithEntry:
		return len(v) == 0
	case []EDNAEntry:
		return len(v) == 0
	case []GenericEntry:
		return len(v) == 0
	case []MetadataRef:
		return len(v) == 0
	}
	return false
}

func scanAggregate(scanner interface{ Scan(dest ...any) error }) (*Aggregate, error) {
	var (
		id           string
		compositeKey string
		location     string
		date         string
		timeOfDay    string
		fishJSON     sql.NullString
		oceanJSON    sql.NullString
		oceanObsJSON sql.NullString
		otolithJSON  sql.NullString
		ednaJSON     sql.NullString
		extrasJSON   sql.NullString
		metadataJSON sql.NullString
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&id,
		&compositeKey,
		&location,
		&date,
		&timeOfDay,
		&fishJSON,
		&oceanJSON,
		&oceanObsJSON,
		&otolithJSON,
		&ednaJSON,
		&extrasJSON,
		&metadataJSON,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	agg := &Aggregate{
		ID:           id,
		CompositeKey: compositeKey,
		Location:     location,
		Date:         date,
		Time:         timeOfDay,
	}

	if err := decodeJSON(fishJSON, &agg.Fish); err != nil {
		return nil, err
	}
	if oceanJSON.Valid && oceanJSON.String != "" {
		snapshot := &OceanSnapshot{}
		if err := json.Unmarshal([]byte(oceanJSON.String), snapshot); err != nil {
			return nil, fmt.Errorf("decode ocean snapshot: %w", err)
		}
		agg.Ocean = snapshot
	}
	if err := decodeJSON(oceanObsJSON, &agg.OceanObservations); err != nil {
		return nil, err
	}
	if err := decodeJSON(otolithJSON, &agg.Otoliths); err != nil {
		return nil, err
	}
	if err := decodeJSON(ednaJSON, &agg.EDNA); err != nil {
		return nil, err
	}
	if err := decodeJSON(extrasJSON, &agg.Extras); err != nil {
		return nil, err
	}
	if err := decodeJSON(metadataJSON, &agg.MetadataRefs); err != nil {
		return nil, err
	}

	if created, err := parseTimeString(createdRaw); err == nil {
		agg.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		agg.UpdatedAt = updated
	}
	return agg, nil
}

func decodeJSON(column sql.NullString, target any) error {
	if !column.Valid || column.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(column.String), target); err != nil {
		return fmt.Errorf("decode aggregate payload: %w", err)
	}
	return nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
