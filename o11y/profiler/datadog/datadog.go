// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package datadog

import (
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"

	"github.com/DataDog/chaos-seal/o11y/profiler/types"
)

// Sink describes a datadog profiler sink
type Sink struct{}

// New starts the continuous profiler
func New(cfg types.SinkConfig) (Sink, error) {
	opts := []profiler.Option{
		profiler.WithProfileTypes(
			profiler.CPUProfile,
			profiler.HeapProfile,
			profiler.GoroutineProfile,
		),
	}

	if cfg.Service != "" {
		opts = append(opts, profiler.WithService(cfg.Service))
	}

	return Sink{}, profiler.Start(opts...)
}

// Stop the profiler
func (d Sink) Stop() {
	profiler.Stop()
}

// GetSinkName returns the name of the sink
func (d Sink) GetSinkName() string {
	return string(types.SinkDriverDatadog)
}
