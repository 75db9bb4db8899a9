// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package datadog

import (
	"fmt"
	"os"
	"time"

	"github.com/DataDog/datadog-go/statsd"

	"github.com/DataDog/chaos-seal/o11y/metrics/types"
	"github.com/DataDog/chaos-seal/o11y/tags"
	chaostypes "github.com/DataDog/chaos-seal/types"
)

const (
	metricPrefixEngine = "chaos.seal."
	metricPrefixCLI    = "chaos.sealctl."
)

// Sink describes a Datadog sink (statsd)
type Sink struct {
	client *statsd.Client
	prefix string
}

// New instantiate a new datadog statsd provider
func New(app types.SinkApp) (Sink, error) {
	url := os.Getenv("STATSD_URL")

	instance, err := statsd.New(url, statsd.WithTags([]string{"app:" + string(app)}))
	if err != nil {
		return Sink{}, err
	}

	prefix, err := GetPrefixFromApp(app)
	if err != nil {
		return Sink{}, err
	}

	return Sink{
		client: instance,
		prefix: prefix,
	}, nil
}

// GetPrefixFromApp returns the datadog metrics prefix given the App
func GetPrefixFromApp(app types.SinkApp) (string, error) {
	switch app {
	case types.SinkAppEngine:
		return metricPrefixEngine, nil
	case types.SinkAppCLI:
		return metricPrefixCLI, nil
	default:
		return "", fmt.Errorf("unknown sink app")
	}
}

// Close closes the statsd client
func (d Sink) Close() error {
	return d.client.Close()
}

// GetSinkName returns the name of the sink
func (d Sink) GetSinkName() string {
	return string(types.SinkDriverDatadog)
}

// MetricPodKilled increments the pods.killed metric
func (d Sink) MetricPodKilled(pod chaostypes.Pod) error {
	return d.incr("pods.killed", podTags(pod, true))
}

// MetricPodKillFailed increments the pods.killed metric with a failed status
func (d Sink) MetricPodKillFailed(pod chaostypes.Pod) error {
	return d.incr("pods.killed", podTags(pod, false))
}

// MetricNodeStopped increments the nodes.stopped metric
func (d Sink) MetricNodeStopped(node chaostypes.Node) error {
	return d.incr("nodes.stopped", nodeTags(node, true))
}

// MetricNodeStopFailed increments the nodes.stopped metric with a failed status
func (d Sink) MetricNodeStopFailed(node chaostypes.Node) error {
	return d.incr("nodes.stopped", nodeTags(node, false))
}

// MetricExecuteFailed increments the execute.failed metric
func (d Sink) MetricExecuteFailed(node chaostypes.Node) error {
	return d.incr("execute.failed", []string{tags.FormatTag(tags.NodeKey, node.ID), tags.FormatTag(tags.NameKey, node.Name)})
}

// MetricEmptyFilter increments the filter.empty metric
func (d Sink) MetricEmptyFilter() error {
	return d.incr("filter.empty", []string{})
}

// MetricEmptyMatch increments the match.empty metric
func (d Sink) MetricEmptyMatch(source chaostypes.ResourceKind) error {
	return d.incr("match.empty", []string{tags.FormatTag(tags.SourceKey, string(source))})
}

// MetricProbabilityFilterNoPass increments the filter.probability_not_passed metric
func (d Sink) MetricProbabilityFilterNoPass() error {
	return d.incr("filter.probability_not_passed", []string{})
}

// MetricScenarioResult increments the scenario.runs metric
func (d Sink) MetricScenarioResult(name string, succeed bool) error {
	return d.incr("scenario.runs", []string{tags.FormatTag(tags.ScenarioKey, name), tags.FormatTag(tags.StatusKey, types.BoolToStatus(succeed))})
}

// MetricScenarioDuration sends timing metric for a scenario execution
func (d Sink) MetricScenarioDuration(name string, duration time.Duration) error {
	return d.client.Timing(d.prefix+"scenario.duration", duration, []string{tags.FormatTag(tags.ScenarioKey, name)}, 1)
}

func (d Sink) incr(name string, t []string) error {
	return d.client.Incr(d.prefix+name, t, 1)
}

func podTags(pod chaostypes.Pod, succeed bool) []string {
	return []string{
		tags.FormatTag(tags.StatusKey, types.BoolToStatus(succeed)),
		tags.FormatTag(tags.NamespaceKey, pod.Namespace),
		tags.FormatTag(tags.NameKey, pod.Name),
	}
}

func nodeTags(node chaostypes.Node, succeed bool) []string {
	return []string{
		tags.FormatTag(tags.StatusKey, types.BoolToStatus(succeed)),
		tags.FormatTag(tags.NodeKey, node.ID),
		tags.FormatTag(tags.NameKey, node.Name),
	}
}
