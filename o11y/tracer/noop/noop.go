// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package noop

import (
	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/o11y/tracer/types"
)

// Sink leaves the otel global provider untouched, spans being dropped by its default no-op tracer
type Sink struct {
	log *zap.SugaredLogger
}

// New returns a sink logging the sample rate it ignores
func New(log *zap.SugaredLogger, sampleRate float64) Sink {
	log.Debugw("NOOP: tracer started, spans are dropped", "sampleRate", sampleRate)

	return Sink{log: log}
}

//nolint:golint
func (n Sink) Stop() {
	n.log.Debug("NOOP: tracer stopped")
}

// GetSinkName returns the name of the sink
func (n Sink) GetSinkName() string {
	return string(types.SinkDriverNoop)
}
