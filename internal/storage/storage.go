// Package storage persists a rolling history of served predictions to
// SQLite. The history powers the /history endpoint and operational
// review; the prediction pipeline itself never reads from it.
//
// Rows are rotated oldest-first once the configured maximum is exceeded,
// so the database cannot grow without bound.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flightontime/flightontime/internal/models"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
	id                TEXT PRIMARY KEY,
	flight_key        TEXT NOT NULL,
	airline           TEXT NOT NULL,
	origin            TEXT NOT NULL,
	dest              TEXT NOT NULL,
	prediction        TEXT NOT NULL,
	probability_delay REAL NOT NULL,
	confidence        TEXT NOT NULL,
	created_at        TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
`

// Storage records served predictions in SQLite.
type Storage struct {
	db      *sql.DB
	maxRows int
}

// New opens (or creates) the prediction history database at dsn and
// applies the schema. Use ":memory:" for an ephemeral store in tests.
// maxRows bounds the retained history; zero or negative disables rotation.
func New(dsn string, maxRows int) (*Storage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Storage{db: db, maxRows: maxRows}, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RecordPrediction appends a served prediction and rotates the oldest
// rows past the retention limit.
func (s *Storage) RecordPrediction(ctx context.Context, rec *models.PredictionRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid prediction record: %w", err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions (id, flight_key, airline, origin, dest, prediction, probability_delay, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FlightKey, rec.Airline, rec.Origin, rec.Dest,
		rec.Prediction, rec.ProbabilityDelay, rec.Confidence, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}

	return s.rotate(ctx)
}

// RecentPredictions returns up to limit predictions, newest first.
func (s *Storage) RecentPredictions(ctx context.Context, limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, flight_key, airline, origin, dest, prediction, probability_delay, confidence, created_at
		 FROM predictions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	records := make([]models.PredictionRecord, 0, limit)
	for rows.Next() {
		var rec models.PredictionRecord
		var createdAt time.Time
		if err := rows.Scan(&rec.ID, &rec.FlightKey, &rec.Airline, &rec.Origin, &rec.Dest,
			&rec.Prediction, &rec.ProbabilityDelay, &rec.Confidence, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		rec.CreatedAt = createdAt
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of stored predictions.
func (s *Storage) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM predictions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return n, nil
}

// rotate deletes the oldest rows beyond maxRows.
func (s *Storage) rotate(ctx context.Context) error {
	if s.maxRows <= 0 {
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM predictions WHERE id IN (
			SELECT id FROM predictions ORDER BY created_at DESC, id DESC LIMIT -1 OFFSET ?
		)`, s.maxRows)
	if err != nil {
		return fmt.Errorf("failed to rotate predictions: %w", err)
	}
	return nil
}
