// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package history

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultMemoryCapacity is the number of records kept by the in-memory store
const DefaultMemoryCapacity = 500

// Record is the outcome of one scenario execution
type Record struct {
	RunID     string        `json:"runId"`
	Scenario  string        `json:"scenario"`
	Success   bool          `json:"success"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Store keeps the scenario records
type Store interface {
	Save(ctx context.Context, record Record) error
	// List returns at most limit records, most recent first
	List(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// GetStore returns the postgres store when a DSN is given, the in-memory one otherwise
func GetStore(ctx context.Context, dsn string, log *zap.SugaredLogger) (Store, error) {
	if dsn == "" {
		log.Infow("recording scenario history in memory", "capacity", DefaultMemoryCapacity)

		return NewMemoryStore(DefaultMemoryCapacity), nil
	}

	log.Info("recording scenario history in postgres")

	return NewPostgresStore(ctx, dsn)
}
