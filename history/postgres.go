// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

const schema = `
CREATE TABLE IF NOT EXISTS scenario_runs (
	id SERIAL PRIMARY KEY,
	run_id TEXT NOT NULL,
	scenario TEXT NOT NULL,
	success BOOLEAN NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL,
	error TEXT
);
CREATE INDEX IF NOT EXISTS idx_scenario_runs_started_at ON scenario_runs(started_at DESC);
`

// PostgresStore records scenario runs in the scenario_runs table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to the database and creates the schema when missing
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Save(ctx context.Context, record Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scenario_runs (run_id, scenario, success, started_at, duration_ms, error) VALUES ($1, $2, $3, $4, $5, $6)`,
		record.RunID, record.Scenario, record.Success, record.StartedAt, record.Duration.Milliseconds(), sql.NullString{String: record.Error, Valid: record.Error != ""},
	)
	if err != nil {
		return fmt.Errorf("failed to save scenario run: %w", err)
	}

	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultMemoryCapacity
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, scenario, success, started_at, duration_ms, error FROM scenario_runs ORDER BY started_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenario runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	records := []Record{}

	for rows.Next() {
		var (
			r        Record
			duration int64
			errMsg   sql.NullString
		)

		if err := rows.Scan(&r.RunID, &r.Scenario, &r.Success, &r.StartedAt, &duration, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan scenario run: %w", err)
		}

		r.Duration = time.Duration(duration) * time.Millisecond
		r.Error = errMsg.String
		records = append(records, r)
	}

	return records, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
