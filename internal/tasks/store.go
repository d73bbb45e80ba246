package tasks

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"adforge/internal/config"
	"adforge/internal/jobs"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users then clear the task database.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages task persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the task database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.TaskDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
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

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'adforge tasks clear --all' or delete the database)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

const taskColumns = `id, job_id, prompt, enhanced_prompt, aspect_ratio, platform,
    duration_seconds, provider, status, progress_percent, current_step,
    result_url, error_message, remix_of_id, created_at, updated_at`

// NewTaskParams carries the fields persisted at submission time.
type NewTaskParams struct {
	JobID           string
	Prompt          string
	EnhancedPrompt  string
	AspectRatio     string
	Platform        string
	DurationSeconds int
	Provider        string
	RemixOfID       int64
}

// Create inserts a freshly submitted task in the queued state.
func (s *Store) Create(ctx context.Context, params NewTaskParams) (*Task, error) {
	if strings.TrimSpace(params.JobID) == "" {
		return nil, errors.New("job id required")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO tasks (
            job_id, prompt, enhanced_prompt, aspect_ratio, platform,
            duration_seconds, provider, status, progress_percent,
            remix_of_id, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.JobID,
		params.Prompt,
		nullableString(params.EnhancedPrompt),
		params.AspectRatio,
		params.Platform,
		params.DurationSeconds,
		params.Provider,
		jobs.StatusQueued,
		0.0,
		nullableInt64(params.RemixOfID),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a task by local identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return task, err
}

// GetByJobID fetches a task by backend job identifier.
func (s *Store) GetByJobID(ctx context.Context, jobID string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE job_id = ?`, jobID)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return task, err
}

// List returns tasks newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...jobs.Status) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// ListOpen returns tasks whose mirrored job has not reached a terminal state.
func (s *Store) ListOpen(ctx context.Context) ([]*Task, error) {
	return s.List(ctx, jobs.StatusQueued, jobs.StatusProcessing)
}

// ApplySnapshot reconciles a polled snapshot into the stored task.
// Last-fetched-wins: terminal rows are never overwritten by a stale
// non-terminal snapshot.
func (s *Store) ApplySnapshot(ctx context.Context, snapshot *jobs.Snapshot) error {
	if snapshot == nil || strings.TrimSpace(snapshot.JobID) == "" {
		return errors.New("snapshot with job id required")
	}

	resultURL := ""
	if snapshot.Result != nil {
		resultURL = snapshot.Result.URL
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.execWithRetry(
		ctx,
		`UPDATE tasks SET
            status = ?, progress_percent = ?, current_step = ?,
            result_url = ?, error_message = ?, updated_at = ?
        WHERE job_id = ?
          AND status NOT IN (?, ?, ?)`,
		snapshot.Status,
		snapshot.ProgressPercent,
		nullableString(snapshot.CurrentStep),
		nullableString(resultURL),
		nullableString(snapshot.ErrorMessage),
		timestamp,
		snapshot.JobID,
		jobs.StatusCompleted,
		jobs.StatusFailed,
		jobs.StatusCancelled,
	)
	if err != nil {
		return fmt.Errorf("apply snapshot: %w", err)
	}
	return nil
}

// MarkFailed forces a task into the failed state with a message, used when
// the poller gives up on a job the backend no longer knows.
func (s *Store) MarkFailed(ctx context.Context, jobID, message string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`UPDATE tasks SET status = ?, error_message = ?, updated_at = ?
         WHERE job_id = ? AND status NOT IN (?, ?, ?)`,
		jobs.StatusFailed,
		nullableString(message),
		timestamp,
		jobID,
		jobs.StatusCompleted,
		jobs.StatusFailed,
		jobs.StatusCancelled,
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// Summary aggregates task counts per lifecycle state.
func (s *Store) Summary(ctx context.Context) (*HealthSummary, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("summarize tasks: %w", err)
	}
	defer rows.Close()

	summary := &HealthSummary{}
	for rows.Next() {
		var status jobs.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		summary.Total += count
		switch status {
		case jobs.StatusQueued:
			summary.Queued = count
		case jobs.StatusProcessing:
			summary.Processing = count
		case jobs.StatusCompleted:
			summary.Completed = count
		case jobs.StatusFailed:
			summary.Failed = count
		case jobs.StatusCancelled:
			summary.Cancelled = count
		}
	}
	return summary, rows.Err()
}

// Clear removes terminal tasks; with all set, every task goes.
func (s *Store) Clear(ctx context.Context, all bool) (int64, error) {
	query := `DELETE FROM tasks WHERE status IN (?, ?, ?)`
	args := []any{jobs.StatusCompleted, jobs.StatusFailed, jobs.StatusCancelled}
	if all {
		query = `DELETE FROM tasks`
		args = nil
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear tasks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var (
		task          Task
		enhanced      sql.NullString
		currentStep   sql.NullString
		resultURL     sql.NullString
		errorMessage  sql.NullString
		remixOfID     sql.NullInt64
		createdAtText string
		updatedAtText string
		statusText    string
	)
	err := row.Scan(
		&task.ID,
		&task.JobID,
		&task.Prompt,
		&enhanced,
		&task.AspectRatio,
		&task.Platform,
		&task.DurationSeconds,
		&task.Provider,
		&statusText,
		&task.ProgressPercent,
		&currentStep,
		&resultURL,
		&errorMessage,
		&remixOfID,
		&createdAtText,
		&updatedAtText,
	)
	if err != nil {
		return nil, err
	}

	status, ok := jobs.ParseStatus(statusText)
	if !ok {
		return nil, fmt.Errorf("task %d has unknown status %q", task.ID, statusText)
	}
	task.Status = status
	task.EnhancedPrompt = enhanced.String
	task.CurrentStep = currentStep.String
	task.ResultURL = resultURL.String
	task.ErrorMessage = errorMessage.String
	task.RemixOfID = remixOfID.Int64

	if task.CreatedAt, err = parseTimestamp(createdAtText); err != nil {
		return nil, fmt.Errorf("task %d created_at: %w", task.ID, err)
	}
	if task.UpdatedAt, err = parseTimestamp(updatedAtText); err != nil {
		return nil, fmt.Errorf("task %d updated_at: %w", task.ID, err)
	}
	return &task, nil
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableInt64(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
