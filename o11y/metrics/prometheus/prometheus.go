// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package prometheus

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DataDog/chaos-seal/o11y/metrics/types"
	chaostypes "github.com/DataDog/chaos-seal/types"
)

const namespace = "seal"

// Sink keeps counters on its own registry, served by Handler
type Sink struct {
	registry             *prom.Registry
	podKills             *prom.CounterVec
	nodesStopped         *prom.CounterVec
	executeFailed        *prom.CounterVec
	emptyFilter          prom.Counter
	probabilityNotPassed prom.Counter
	emptyMatch           *prom.CounterVec
	scenarioRuns         *prom.CounterVec
	scenarioDuration     *prom.HistogramVec
}

// New creates the counters and registers them
func New(app types.SinkApp) (*Sink, error) {
	constLabels := prom.Labels{"app": string(app)}

	s := &Sink{
		registry: prom.NewRegistry(),
		podKills: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace, Name: "pod_kills_total", Help: "Number of pods killed", ConstLabels: constLabels,
		}, []string{"status", "namespace", "name"}),
		nodesStopped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace, Name: "nodes_stopped_total", Help: "Number of nodes stopped", ConstLabels: constLabels,
		}, []string{"status", "uid", "name"}),
		executeFailed: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace, Name: "execute_failed_total", Help: "Number of failed command executions", ConstLabels: constLabels,
		}, []string{"uid", "name"}),
		emptyFilter: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace, Name: "empty_filter_total", Help: "Number of filter pipelines ending empty", ConstLabels: constLabels,
		}),
		probabilityNotPassed: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace, Name: "probability_filter_not_passed_total", Help: "Number of probability gates not passed", ConstLabels: constLabels,
		}),
		emptyMatch: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace, Name: "empty_match_total", Help: "Number of matches returning no item", ConstLabels: constLabels,
		}, []string{"source"}),
		scenarioRuns: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace, Name: "scenario_runs_total", Help: "Number of scenario executions", ConstLabels: constLabels,
		}, []string{"scenario", "status"}),
		scenarioDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace, Name: "scenario_duration_seconds", Help: "Scenario execution duration", ConstLabels: constLabels,
			Buckets: prom.ExponentialBuckets(1, 2, 12),
		}, []string{"scenario"}),
	}

	for _, c := range []prom.Collector{s.podKills, s.nodesStopped, s.executeFailed, s.emptyFilter, s.probabilityNotPassed, s.emptyMatch, s.scenarioRuns, s.scenarioDuration} {
		if err := s.registry.Register(c); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Handler serves the registry in the prometheus exposition format
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (s *Sink) Registry() *prom.Registry {
	return s.registry
}

// Close returns nil
func (s *Sink) Close() error {
	return nil
}

// GetSinkName returns the name of the sink
func (s *Sink) GetSinkName() string {
	return string(types.SinkDriverPrometheus)
}

func (s *Sink) MetricPodKilled(pod chaostypes.Pod) error {
	s.podKills.WithLabelValues(types.StatusSucceed, pod.Namespace, pod.Name).Inc()

	return nil
}

func (s *Sink) MetricPodKillFailed(pod chaostypes.Pod) error {
	s.podKills.WithLabelValues(types.StatusFailed, pod.Namespace, pod.Name).Inc()

	return nil
}

func (s *Sink) MetricNodeStopped(node chaostypes.Node) error {
	s.nodesStopped.WithLabelValues(types.StatusSucceed, node.ID, node.Name).Inc()

	return nil
}

func (s *Sink) MetricNodeStopFailed(node chaostypes.Node) error {
	s.nodesStopped.WithLabelValues(types.StatusFailed, node.ID, node.Name).Inc()

	return nil
}

func (s *Sink) MetricExecuteFailed(node chaostypes.Node) error {
	s.executeFailed.WithLabelValues(node.ID, node.Name).Inc()

	return nil
}

func (s *Sink) MetricEmptyFilter() error {
	s.emptyFilter.Inc()

	return nil
}

func (s *Sink) MetricEmptyMatch(source chaostypes.ResourceKind) error {
	s.emptyMatch.WithLabelValues(string(source)).Inc()

	return nil
}

func (s *Sink) MetricProbabilityFilterNoPass() error {
	s.probabilityNotPassed.Inc()

	return nil
}

func (s *Sink) MetricScenarioResult(name string, succeed bool) error {
	s.scenarioRuns.WithLabelValues(name, types.BoolToStatus(succeed)).Inc()

	return nil
}

func (s *Sink) MetricScenarioDuration(name string, duration time.Duration) error {
	s.scenarioDuration.WithLabelValues(name).Observe(duration.Seconds())

	return nil
}
