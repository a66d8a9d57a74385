// Package history keeps a SQLite ledger of consolidation runs and the
// outcome of every command they executed.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"consolidate/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run statuses.
const (
	StatusRunning     = "running"
	StatusSucceeded   = "succeeded"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is one row of the runs table.
type Run struct {
	ID         string
	Timeline   string
	OutputDir  string
	Handle     int
	DryRun     bool
	Status     string
	ExitStatus *int
	Clips      int
	Sources    int
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Store is the run ledger.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open opens or creates the ledger at dbPath and applies pending
// migrations. Runs left in the running state by a crashed process are
// marked interrupted.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	s := &Store{conn: conn, logger: logger}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := s.markInterruptedRuns(); err != nil && logger != nil {
		logger.Warn("Failed to mark interrupted runs", "error", err)
	}

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if s.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}

		if s.logger != nil {
			s.logger.Debug("Applied migration", "name", name)
		}
	}
	return nil
}

func (s *Store) isMigrationApplied(name string) bool {
	var exists int
	err := s.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}
	var applied int
	err = s.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

func (s *Store) markInterruptedRuns() error {
	_, err := s.conn.Exec(`UPDATE runs SET status = ?, finished_at = ? WHERE status = ?`,
		StatusInterrupted, formatTime(time.Now()), StatusRunning)
	return err
}

// StartRun inserts a new running run and returns its generated ID.
// ID, Status and StartedAt on r are ignored.
func (s *Store) StartRun(ctx context.Context, r Run) (string, error) {
	id := uuid.NewString()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO runs (id, timeline, output_dir, handle, dry_run, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, r.Timeline, r.OutputDir, r.Handle, r.DryRun, StatusRunning, formatTime(time.Now()))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// FinishRun records the final counts and exit status of a run.
func (s *Store) FinishRun(ctx context.Context, id string, exitStatus, clips, sources int) error {
	status := StatusSucceeded
	if exitStatus != 0 {
		status = StatusFailed
	}
	res, err := s.conn.ExecContext(ctx,
		`UPDATE runs SET status = ?, exit_status = ?, clips = ?, sources = ?, finished_at = ? WHERE id = ?`,
		status, exitStatus, clips, sources, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// InterruptRun marks a run cancelled by a signal. The exit status is left
// as given so the ledger agrees with the process exit code.
func (s *Store) InterruptRun(ctx context.Context, id string, exitStatus, clips, sources int) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE runs SET status = ?, exit_status = ?, clips = ?, sources = ?, finished_at = ? WHERE id = ?`,
		StatusInterrupted, exitStatus, clips, sources, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// RecordOutcomes stores every outcome of a run in one transaction. Nothing
// is stored when any outcome is inconsistent.
func (s *Store) RecordOutcomes(ctx context.Context, runID string, outcomes []models.CommandOutcome) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outcomes (run_id, idx, command, args, exit_code, stdout, stderr, succeeded, timed_out, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range outcomes {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("outcome %d: %w", o.Index, err)
		}
		args, err := json.Marshal(o.Args)
		if err != nil {
			return fmt.Errorf("failed to encode args for command %d: %w", o.Index, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, o.Index, o.Command, string(args), o.ExitCode,
			o.Stdout, o.Stderr, o.Succeeded, o.TimedOut, o.Duration.Milliseconds()); err != nil {
			return fmt.Errorf("failed to insert outcome %d: %w", o.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit outcomes: %w", err)
	}
	return nil
}

// RecordConversionFailures stores the sources a run could not convert.
func (s *Store) RecordConversionFailures(ctx context.Context, runID string, failures []models.ConversionFailure) error {
	for _, f := range failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		if _, err := s.conn.ExecContext(ctx,
			`INSERT INTO conversion_failures (run_id, source_path, error) VALUES (?, ?, ?)`,
			runID, f.SourcePath, msg); err != nil {
			return fmt.Errorf("failed to insert conversion failure for %s: %w", f.SourcePath, err)
		}
	}
	return nil
}

// GetRun returns a single run.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.conn.QueryRowContext(ctx, runColumns+` WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.conn.QueryContext(ctx, runColumns+` ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// Outcomes returns the stored outcomes of a run ordered by command index.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]models.CommandOutcome, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT idx, command, args, exit_code, stdout, stderr, succeeded, timed_out, duration_ms
		 FROM outcomes WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []models.CommandOutcome
	for rows.Next() {
		var o models.CommandOutcome
		var args string
		var durationMs int64
		if err := rows.Scan(&o.Index, &o.Command, &args, &o.ExitCode, &o.Stdout, &o.Stderr,
			&o.Succeeded, &o.TimedOut, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		if err := json.Unmarshal([]byte(args), &o.Args); err != nil {
			return nil, fmt.Errorf("failed to decode args of outcome %d: %w", o.Index, err)
		}
		o.Duration = time.Duration(durationMs) * time.Millisecond
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// timeLayout has a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = `SELECT id, timeline, output_dir, handle, dry_run, status, exit_status, clips, sources, started_at, finished_at FROM runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var exitStatus sql.NullInt64
	var startedAt string
	var finishedAt sql.NullString

	if err := row.Scan(&r.ID, &r.Timeline, &r.OutputDir, &r.Handle, &r.DryRun, &r.Status,
		&exitStatus, &r.Clips, &r.Sources, &startedAt, &finishedAt); err != nil {
		return nil, err
	}

	if exitStatus.Valid {
		v := int(exitStatus.Int64)
		r.ExitStatus = &v
	}
	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
	}
	r.StartedAt = t
	if finishedAt.Valid {
		t, err := time.Parse(timeLayout, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid finished_at %q: %w", finishedAt.String, err)
		}
		r.FinishedAt = &t
	}
	return &r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
