package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"subgen/internal/logging"
	"subgen/internal/services"
	"subgen/internal/timeline"
)

// Store manages slice job persistence backed by SQLite. One database lives in
// each source file's working directory.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open initializes or connects to the job database inside dir and applies
// migrations.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	dbPath := filepath.Join(dir, "jobs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// synchronous=FULL keeps each status transition durable across a crash.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, logger: logging.NewComponentLogger(logger, "jobstore")}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) applyMigrations(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS slice_jobs (
            slice_index   INTEGER PRIMARY KEY,
            start_ms      INTEGER NOT NULL,
            end_ms        INTEGER NOT NULL,
            status        TEXT NOT NULL,
            payload_json  TEXT,
            error_message TEXT,
            created_at    TEXT NOT NULL,
            updated_at    TEXT NOT NULL
        )`)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Sync reconciles the store with a freshly computed slice plan. Missing
// slices are inserted as pending. When persisted boundaries disagree with the
// plan (changed padding or silence threshold), prior records are invalid and
// the store is reset; Sync reports whether that happened.
func (s *Store) Sync(ctx context.Context, slices []timeline.Slice) (bool, error) {
	existing, err := s.All(ctx)
	if err != nil {
		return false, err
	}

	reset := false
	if len(existing) > 0 && planDiffers(existing, slices) {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM slice_jobs`); err != nil {
			return false, fmt.Errorf("reset job store: %w", err)
		}
		s.logger.Warn("slice plan changed; discarding prior job records",
			logging.String(logging.FieldEventType, "jobstore_reset"),
			logging.Int("prior_records", len(existing)),
			logging.String(logging.FieldErrorHint, "previous run used different segmentation settings"),
		)
		existing = nil
		reset = true
	}

	known := make(map[int]struct{}, len(existing))
	for _, rec := range existing {
		known[rec.SliceIndex] = struct{}{}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, slice := range slices {
		if _, ok := known[slice.Index]; ok {
			continue
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO slice_jobs (slice_index, start_ms, end_ms, status, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?)`,
			slice.Index, slice.StartMS, slice.EndMS, StatusPending, now, now,
		)
		if err != nil {
			return reset, fmt.Errorf("insert slice %d: %w", slice.Index, err)
		}
	}
	return reset, nil
}

func planDiffers(records []Record, slices []timeline.Slice) bool {
	if len(records) > len(slices) {
		return true
	}
	byIndex := make(map[int]timeline.Slice, len(slices))
	for _, slice := range slices {
		byIndex[slice.Index] = slice
	}
	for _, rec := range records {
		slice, ok := byIndex[rec.SliceIndex]
		if !ok || slice.StartMS != rec.StartMS || slice.EndMS != rec.EndMS {
			return true
		}
	}
	return false
}

// Lookup returns the record for a slice index, or a fresh pending record when
// the index is unseen.
func (s *Store) Lookup(ctx context.Context, sliceIndex int) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM slice_jobs WHERE slice_index = ?`, sliceIndex)
	record, err := s.scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		now := time.Now().UTC()
		return Record{SliceIndex: sliceIndex, Status: StatusPending, CreatedAt: now, UpdatedAt: now}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("lookup slice %d: %w", sliceIndex, err)
	}
	return record, nil
}

// MarkExtracted records that the slice's audio bytes are persisted.
func (s *Store) MarkExtracted(ctx context.Context, sliceIndex int) error {
	return s.transition(ctx, sliceIndex, StatusExtracted, nil, "")
}

// MarkTranscribed records the engine payload for a slice.
func (s *Store) MarkTranscribed(ctx context.Context, sliceIndex int, payload []Span) error {
	return s.transition(ctx, sliceIndex, StatusTranscribed, payload, "")
}

// MarkFailed records an unrecoverable engine error for a slice. The record
// remains eligible for retry on the next run.
func (s *Store) MarkFailed(ctx context.Context, sliceIndex int, message string) error {
	return s.transition(ctx, sliceIndex, StatusFailed, nil, message)
}

func (s *Store) transition(ctx context.Context, sliceIndex int, status Status, payload []Span, errorMessage string) error {
	// A transcribed record must always carry a payload, even an empty one
	// for silent slices, or the read path would treat it as corrupt.
	if status == StatusTranscribed && payload == nil {
		payload = []Span{}
	}
	var payloadJSON any
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload for slice %d: %w", sliceIndex, err)
		}
		payloadJSON = string(data)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE slice_jobs
         SET status = ?, payload_json = ?, error_message = ?, updated_at = ?
         WHERE slice_index = ?`,
		status,
		payloadJSON,
		nullableString(errorMessage),
		time.Now().UTC().Format(time.RFC3339Nano),
		sliceIndex,
	)
	if err != nil {
		return fmt.Errorf("mark slice %d %s: %w", sliceIndex, status, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("mark slice %d %s: no such record", sliceIndex, status)
	}
	return nil
}

// All returns every record ordered by slice index.
func (s *Store) All(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM slice_jobs ORDER BY slice_index`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := s.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Stats returns a count of records grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM slice_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
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

const recordColumns = "slice_index, start_ms, end_ms, status, payload_json, error_message, created_at, updated_at"

func (s *Store) scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		sliceIndex   int
		startMS      int64
		endMS        int64
		statusStr    string
		payloadRaw   sql.NullString
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(&sliceIndex, &startMS, &endMS, &statusStr, &payloadRaw, &errorMessage, &createdRaw, &updatedRaw); err != nil {
		return Record{}, err
	}

	record := Record{
		SliceIndex:   sliceIndex,
		StartMS:      startMS,
		EndMS:        endMS,
		ErrorMessage: errorMessage.String,
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		record.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		record.UpdatedAt = updated
	}

	status, ok := ParseStatus(statusStr)
	if !ok {
		s.reportCorrupt(sliceIndex, fmt.Errorf("unknown status %q", statusStr))
		record.Status = StatusPending
		return record, nil
	}
	record.Status = status

	if payloadRaw.Valid && payloadRaw.String != "" {
		var payload []Span
		if err := json.Unmarshal([]byte(payloadRaw.String), &payload); err != nil {
			// Corrupt payload: the slice is re-derived as pending rather
			// than silently skipped.
			s.reportCorrupt(sliceIndex, err)
			record.Status = StatusPending
			record.Payload = nil
			return record, nil
		}
		record.Payload = payload
	} else if record.Status == StatusTranscribed {
		s.reportCorrupt(sliceIndex, errors.New("transcribed record has no payload"))
		record.Status = StatusPending
	}
	return record, nil
}

func (s *Store) reportCorrupt(sliceIndex int, cause error) {
	err := services.Wrap(services.ErrStoreCorrupt, "jobstore", fmt.Sprintf("slice %d", sliceIndex), "record unreadable, treating as pending", cause)
	s.logger.Warn("corrupt job record",
		logging.Int(logging.FieldSliceIndex, sliceIndex),
		logging.Error(err),
		logging.String(logging.FieldEventType, "jobstore_corrupt_record"),
		logging.String(logging.FieldErrorHint, "the slice will be re-extracted and re-transcribed"),
	)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
