// Package storage provides the SQLite implementation of the RunStore interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kurabe/internal/models"
)

// SQLiteStore implements RunStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		client_url TEXT NOT NULL,
		competitor_url TEXT NOT NULL,
		queries TEXT NOT NULL,
		scores TEXT NOT NULL,
		method TEXT NOT NULL,
		report_path TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveRun inserts a completed run.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *models.Run) error {
	queriesJSON, err := json.Marshal(run.Queries)
	if err != nil {
		return fmt.Errorf("failed to marshal queries: %w", err)
	}
	scoresJSON, err := json.Marshal(run.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, client_url, competitor_url, queries, scores, method, report_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC(), run.ClientURL, run.CompetitorURL,
		string(queriesJSON), string(scoresJSON), run.Method, run.ReportPath)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetRun returns the run with the given id, or ErrNotFound.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*models.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, client_url, competitor_url, queries, scores, method, report_path
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs newest first; limit 0 returns all.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	query := `
		SELECT id, created_at, client_url, competitor_url, queries, scores, method, report_path
		FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// CountRuns returns the total number of stored runs.
func (s *SQLiteStore) CountRuns(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var run models.Run
	var createdAt time.Time
	var queriesJSON, scoresJSON string
	var reportPath sql.NullString

	err := row.Scan(&run.ID, &createdAt, &run.ClientURL, &run.CompetitorURL,
		&queriesJSON, &scoresJSON, &run.Method, &reportPath)
	if err != nil {
		return nil, err
	}

	run.CreatedAt = createdAt.UTC()
	run.ReportPath = reportPath.String
	if err := json.Unmarshal([]byte(queriesJSON), &run.Queries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queries: %w", err)
	}
	if err := json.Unmarshal([]byte(scoresJSON), &run.Scores); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scores: %w", err)
	}
	return &run, nil
}
