// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package datadog

import (
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	ddotel "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/opentelemetry"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/DataDog/chaos-seal/o11y"
	"github.com/DataDog/chaos-seal/o11y/tracer/types"
)

// Sink routes otel spans to the datadog agent
type Sink struct {
	provider *ddotel.TracerProvider
}

// New starts the datadog tracer and installs it as the otel global provider
func New(log *zap.SugaredLogger, cfg types.SinkConfig) (*Sink, error) {
	provider := ddotel.NewTracerProvider(
		tracer.WithSampler(tracer.NewRateSampler(cfg.SampleRate)),
		tracer.WithLogger(o11y.DDLogger{Logger: log}),
	)

	otel.SetTracerProvider(provider)

	return &Sink{provider: provider}, nil
}

// Stop flushes and stops the tracer
func (d *Sink) Stop() {
	_ = d.provider.Shutdown()
}

// GetSinkName returns the name of the sink
func (d *Sink) GetSinkName() string {
	return string(types.SinkDriverDatadog)
}
