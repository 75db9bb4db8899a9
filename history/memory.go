// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package history

import (
	"context"
	"sync"
)

// MemoryStore keeps the most recent records, the oldest being dropped first
type MemoryStore struct {
	mu       sync.RWMutex
	records  []Record
	capacity int
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}

	return &MemoryStore{capacity: capacity}
}

func (s *MemoryStore) Save(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)

	if overflow := len(s.records) - s.capacity; overflow > 0 {
		s.records = append([]Record{}, s.records[overflow:]...)
	}

	return nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}

	out := make([]Record, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[i])
	}

	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
