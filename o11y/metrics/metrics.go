// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package metrics

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/o11y/metrics/datadog"
	"github.com/DataDog/chaos-seal/o11y/metrics/noop"
	"github.com/DataDog/chaos-seal/o11y/metrics/prometheus"
	"github.com/DataDog/chaos-seal/o11y/metrics/types"
	chaostypes "github.com/DataDog/chaos-seal/types"
)

// Sink describes a metric sink, with one method per event emitted by the engine
type Sink interface {
	Close() error
	GetSinkName() string
	MetricPodKilled(pod chaostypes.Pod) error
	MetricPodKillFailed(pod chaostypes.Pod) error
	MetricNodeStopped(node chaostypes.Node) error
	MetricNodeStopFailed(node chaostypes.Node) error
	MetricExecuteFailed(node chaostypes.Node) error
	MetricEmptyFilter() error
	MetricEmptyMatch(source chaostypes.ResourceKind) error
	MetricProbabilityFilterNoPass() error
	MetricScenarioResult(name string, succeed bool) error
	MetricScenarioDuration(name string, duration time.Duration) error
}

// GetSink returns an initiated metrics sink
func GetSink(log *zap.SugaredLogger, driver types.SinkDriver, app types.SinkApp) (Sink, error) {
	switch driver {
	case types.SinkDriverDatadog:
		return datadog.New(app)
	case types.SinkDriverPrometheus:
		return prometheus.New(app)
	case types.SinkDriverNoop:
		return noop.New(log), nil
	default:
		return nil, fmt.Errorf("unsupported metrics sink: %s", driver)
	}
}
