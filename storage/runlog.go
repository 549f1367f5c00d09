// Package storage provides SQLite run history for drilldown executions.
//
// Information Hiding:
// - SQLite connection management hidden behind RunLog
// - Schema details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// RunRecord is one completed (or failed) drilldown execution.
type RunRecord struct {
	ID               string
	ComponentID      string
	PathHash         string
	Strategy         string
	PromptTokens     uint32
	CompletionTokens uint32
	EstimatedCost    float64
	DurationMS       int64
	Error            string
	CreatedAt        time.Time
}

// RunLog persists run records to a SQLite database.
type RunLog struct {
	db *sql.DB
}

// OpenRunLog opens or creates a run log database at the given path.
// Creates parent directories if they don't exist.
func OpenRunLog(path string) (*RunLog, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	log := &RunLog{db: db}
	if err := log.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return log, nil
}

// NewRunLogInMemory creates an in-memory run log (useful for testing).
func NewRunLogInMemory() (*RunLog, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	log := &RunLog{db: db}
	if err := log.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return log, nil
}

// Close closes the database connection.
func (l *RunLog) Close() error {
	return l.db.Close()
}

func (l *RunLog) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			component_id TEXT NOT NULL,
			path_hash TEXT NOT NULL,
			strategy TEXT NOT NULL,
			prompt_tokens INTEGER NOT NULL,
			completion_tokens INTEGER NOT NULL,
			estimated_cost REAL NOT NULL,
			duration_ms INTEGER NOT NULL,
			error TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_component
		ON runs(component_id, created_at DESC);
	`

	_, err := l.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Record persists one run. A missing ID or CreatedAt is filled in.
// Returns the record's id.
func (l *RunLog) Record(ctx context.Context, record RunRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	var errText interface{}
	if record.Error != "" {
		errText = record.Error
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, component_id, path_hash, strategy, prompt_tokens, completion_tokens, estimated_cost, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.ComponentID,
		record.PathHash,
		record.Strategy,
		record.PromptTokens,
		record.CompletionTokens,
		record.EstimatedCost,
		record.DurationMS,
		errText,
		record.CreatedAt.Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return record.ID, nil
}

// Recent returns the most recent runs for a component, newest first.
// An empty componentID returns runs across all components.
func (l *RunLog) Recent(ctx context.Context, componentID string, limit int) ([]RunRecord, error) {
	query := `
		SELECT id, component_id, path_hash, strategy, prompt_tokens, completion_tokens, estimated_cost, duration_ms, error, created_at
		FROM runs`
	args := []interface{}{}
	if componentID != "" {
		query += " WHERE component_id = ?"
		args = append(args, componentID)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	records := []RunRecord{} // Start with empty slice, not nil
	for rows.Next() {
		var r RunRecord
		var errText sql.NullString
		var createdAt int64
		err := rows.Scan(
			&r.ID,
			&r.ComponentID,
			&r.PathHash,
			&r.Strategy,
			&r.PromptTokens,
			&r.CompletionTokens,
			&r.EstimatedCost,
			&r.DurationMS,
			&errText,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if errText.Valid {
			r.Error = errText.String
		}
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return records, nil
}

// DeleteComponent removes all run records for a component.
func (l *RunLog) DeleteComponent(ctx context.Context, componentID string) error {
	_, err := l.db.ExecContext(ctx, "DELETE FROM runs WHERE component_id = ?", componentID)
	if err != nil {
		return fmt.Errorf("failed to delete component runs: %w", err)
	}
	return nil
}
