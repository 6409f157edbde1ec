// Package calibration persists worker invocation outcomes so the confidence
// evaluator can apply familiarity adjustments. It stores only what confidence
// computation needs; it is not a general decision-history archive.
package calibration

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/calder/delegator/internal/filelock"
	"github.com/calder/delegator/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Invocation is one recorded worker invocation outcome.
type Invocation struct {
	SessionID      string
	TaskID         string
	Worker         string
	Category       models.Category
	Confidence     int // normalized 1-10, 0 for degraded
	Validated      bool
	DegradedReason string
	Duration       time.Duration
}

// Store manages the SQLite calibration database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the calibration database at dbPath.
// Schema initialization is guarded with a cross-process file lock so
// concurrent delegator processes do not race on first creation. The special
// path ":memory:" opens an in-memory database for tests.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create calibration directory: %w", err)
		}

		lock := filelock.New(dbPath + ".lock")
		if err := lock.Lock(); err != nil {
			return nil, err
		}
		defer lock.Unlock()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open calibration database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize calibration schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordInvocation persists one invocation outcome.
func (s *Store) RecordInvocation(ctx context.Context, inv *Invocation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invocations
			(session_id, task_id, worker, category, confidence, validated, degraded_reason, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.SessionID, inv.TaskID, inv.Worker, string(inv.Category),
		inv.Confidence, boolToInt(inv.Validated), inv.DegradedReason,
		inv.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record invocation: %w", err)
	}
	return nil
}

// RunCount returns the number of validated invocations recorded for a
// worker/category pair. Implements confidence.FamiliarityStore.
func (s *Store) RunCount(ctx context.Context, worker string, category models.Category) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM invocations
		WHERE worker = ? AND category = ? AND validated = 1`,
		worker, string(category),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count validated runs: %w", err)
	}
	return count, nil
}

// Prune removes invocation rows older than the retention window.
func (s *Store) Prune(ctx context.Context, keepDays int) (int64, error) {
	if keepDays <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM invocations WHERE recorded_at < datetime('now', ?)`,
		fmt.Sprintf("-%d days", keepDays),
	)
	if err != nil {
		return 0, fmt.Errorf("prune invocations: %w", err)
	}
	return res.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
