// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package noop

import (
	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/o11y/profiler/types"
)

// Sink profiles nothing
type Sink struct {
	log     *zap.SugaredLogger
	service string
}

// New returns a sink only logging the service it would have profiled
func New(log *zap.SugaredLogger, service string) Sink {
	log.Debugw("NOOP: profiler started", "service", service)

	return Sink{log: log, service: service}
}

//nolint:golint
func (n Sink) Stop() {
	n.log.Debugw("NOOP: profiler stopped", "service", n.service)
}

// GetSinkName returns the name of the sink
func (n Sink) GetSinkName() string {
	return string(types.SinkDriverNoop)
}
