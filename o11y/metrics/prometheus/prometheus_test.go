// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package prometheus_test

import (
	"io"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/DataDog/chaos-seal/o11y/metrics/prometheus"
	"github.com/DataDog/chaos-seal/o11y/metrics/types"
	chaostypes "github.com/DataDog/chaos-seal/types"
)

var _ = Describe("Sink", func() {
	It("exposes engine counters", func() {
		sink, err := prometheus.New(types.SinkAppEngine)
		Expect(err).ToNot(HaveOccurred())

		pod := chaostypes.Pod{Name: "nginx-1", Namespace: "default"}
		Expect(sink.MetricPodKilled(pod)).To(Succeed())
		Expect(sink.MetricPodKilled(pod)).To(Succeed())
		Expect(sink.MetricPodKillFailed(pod)).To(Succeed())
		Expect(sink.MetricEmptyMatch(chaostypes.ResourceKindNodes)).To(Succeed())
		Expect(sink.MetricScenarioResult("kill", true)).To(Succeed())

		rec := httptest.NewRecorder()
		sink.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

		body, err := io.ReadAll(rec.Body)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(body)).To(ContainSubstring(`seal_pod_kills_total{app="chaos-seal",name="nginx-1",namespace="default",status="succeed"} 2`))
		Expect(string(body)).To(ContainSubstring(`seal_pod_kills_total{app="chaos-seal",name="nginx-1",namespace="default",status="failed"} 1`))
		Expect(string(body)).To(ContainSubstring(`seal_empty_match_total{app="chaos-seal",source="nodes"} 1`))
		Expect(string(body)).To(ContainSubstring(`seal_scenario_runs_total{app="chaos-seal",scenario="kill",status="succeed"} 1`))
	})

	It("is named after its driver", func() {
		sink, err := prometheus.New(types.SinkAppCLI)
		Expect(err).ToNot(HaveOccurred())
		Expect(sink.GetSinkName()).To(Equal("prometheus"))
	})
})
