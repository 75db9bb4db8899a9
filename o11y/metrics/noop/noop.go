// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package noop

import (
	"time"

	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/o11y/metrics/types"
	chaostypes "github.com/DataDog/chaos-seal/types"
)

// Sink describes a no-op sink, only logging what would have been sent
type Sink struct {
	log *zap.SugaredLogger
}

// New ...
func New(log *zap.SugaredLogger) Sink {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return Sink{
		log,
	}
}

// Close returns nil
func (n Sink) Close() error {
	return nil
}

// GetSinkName returns the name of the sink
func (n Sink) GetSinkName() string {
	return string(types.SinkDriverNoop)
}

func (n Sink) MetricPodKilled(pod chaostypes.Pod) error {
	n.log.Debugf("NOOP: MetricPodKilled %s/%s", pod.Namespace, pod.Name)

	return nil
}

func (n Sink) MetricPodKillFailed(pod chaostypes.Pod) error {
	n.log.Debugf("NOOP: MetricPodKillFailed %s/%s", pod.Namespace, pod.Name)

	return nil
}

func (n Sink) MetricNodeStopped(node chaostypes.Node) error {
	n.log.Debugf("NOOP: MetricNodeStopped %s", node.ID)

	return nil
}

func (n Sink) MetricNodeStopFailed(node chaostypes.Node) error {
	n.log.Debugf("NOOP: MetricNodeStopFailed %s", node.ID)

	return nil
}

func (n Sink) MetricExecuteFailed(node chaostypes.Node) error {
	n.log.Debugf("NOOP: MetricExecuteFailed %s", node.ID)

	return nil
}

func (n Sink) MetricEmptyFilter() error {
	n.log.Debug("NOOP: MetricEmptyFilter")

	return nil
}

func (n Sink) MetricEmptyMatch(source chaostypes.ResourceKind) error {
	n.log.Debugf("NOOP: MetricEmptyMatch %s", source)

	return nil
}

func (n Sink) MetricProbabilityFilterNoPass() error {
	n.log.Debug("NOOP: MetricProbabilityFilterNoPass")

	return nil
}

func (n Sink) MetricScenarioResult(name string, succeed bool) error {
	n.log.Debugf("NOOP: MetricScenarioResult %s %v", name, succeed)

	return nil
}

func (n Sink) MetricScenarioDuration(name string, duration time.Duration) error {
	n.log.Debugf("NOOP: MetricScenarioDuration %s %s", name, duration)

	return nil
}
