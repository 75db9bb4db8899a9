// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package labelrunner_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"github.com/DataDog/chaos-seal/executor"
	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/labelrunner"
	"github.com/DataDog/chaos-seal/o11y/metrics"
	"github.com/DataDog/chaos-seal/scenario"
	"github.com/DataDog/chaos-seal/types"
)

// wednesdayNoon is 2026-10-14 12:00 UTC
var wednesdayNoon = time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)

var _ = Describe("Label runner", func() {
	var (
		ctx    context.Context
		nodes  *inventory.NodesMock
		pods   *inventory.PodsMock
		exec   *executor.ExecutorMock
		sink   *metrics.SinkMock
		random *types.RandMock
		now    time.Time
		runner *labelrunner.Runner
	)

	enabled := func(name string, labels map[string]string) types.Pod {
		l := map[string]string{labelrunner.EnabledLabel: "true"}
		for k, v := range labels {
			l[k] = v
		}

		return types.Pod{Name: name, Namespace: "ns", UID: name, HostIP: "10.0.0.1", Labels: l}
	}

	names := func(pods []types.Pod) []string {
		out := []string{}
		for _, p := range pods {
			out = append(out, p.Name)
		}

		return out
	}

	BeforeEach(func() {
		ctx = context.Background()
		nodes = &inventory.NodesMock{}
		pods = &inventory.PodsMock{}
		exec = &executor.ExecutorMock{}
		sink = metrics.NewSinkMock()
		random = &types.RandMock{}
		now = wednesdayNoon
	})

	JustBeforeEach(func() {
		runner = labelrunner.New(labelrunner.Config{Namespace: "ns", MaxSleep: 10 * time.Second}, scenario.Deps{
			Nodes:    nodes,
			Pods:     pods,
			Executor: exec,
			Metrics:  sink,
			Rand:     random,
			Log:      zaptest.NewLogger(GinkgoT()).Sugar(),
			Now:      func() time.Time { return now },
		}, nil)
	})

	Describe("Filter", func() {
		BeforeEach(func() {
			random.On("Float64").Return(0.5)
		})

		It("keeps only the enabled pods", func() {
			in := []types.Pod{
				enabled("on", nil),
				{Name: "unlabelled", UID: "unlabelled"},
				{Name: "off", UID: "off", Labels: map[string]string{labelrunner.EnabledLabel: "false"}},
			}

			Expect(names(runner.Filter(in))).To(Equal([]string{"on"}))
		})

		DescribeTable("day and time window",
			func(at time.Time, labels map[string]string, kept bool) {
				now = at
				out := runner.Filter([]types.Pod{enabled("p", labels)})
				Expect(out).To(HaveLen(map[bool]int{true: 1, false: 0}[kept]))
			},
			Entry("default window", wednesdayNoon, nil, true),
			Entry("default excludes saturday", wednesdayNoon.AddDate(0, 0, 3), nil, false),
			Entry("days label includes saturday", wednesdayNoon.AddDate(0, 0, 3), map[string]string{labelrunner.DaysLabel: "sat,sun"}, true),
			Entry("invalid day names are ignored", wednesdayNoon, map[string]string{labelrunner.DaysLabel: "wed,funday"}, true),
			Entry("start is inclusive", wednesdayNoon, map[string]string{labelrunner.StartTimeLabel: "12-00-00"}, true),
			Entry("end is exclusive", wednesdayNoon, map[string]string{labelrunner.EndTimeLabel: "12-00-00"}, false),
			Entry("before the default start", wednesdayNoon.Add(-3*time.Hour), nil, false),
			Entry("after the default end", wednesdayNoon.Add(5*time.Hour+30*time.Minute), nil, false),
			Entry("malformed start time", wednesdayNoon, map[string]string{labelrunner.StartTimeLabel: "10:00:00"}, false),
			Entry("out of range end time", wednesdayNoon, map[string]string{labelrunner.EndTimeLabel: "25-00-00"}, false),
			Entry("short token", wednesdayNoon, map[string]string{labelrunner.StartTimeLabel: "1-000-00"}, false),
		)

		DescribeTable("kill probability",
			func(probability string, kept bool) {
				out := runner.Filter([]types.Pod{enabled("p", map[string]string{labelrunner.KillProbabilityLabel: probability})})
				Expect(out).To(HaveLen(map[bool]int{true: 1, false: 0}[kept]))
			},
			Entry("above the draw", "0.7", true),
			Entry("equal to the draw", "0.5", true),
			Entry("below the draw", "0.2", false),
			Entry("not a number", "often", false),
			Entry("greater than one", "1.5", false),
		)

		It("draws once per eligible pod", func() {
			runner.Filter([]types.Pod{enabled("a", nil), enabled("b", nil), {Name: "c"}})
			random.AssertNumberOfCalls(GinkgoT(), "Float64", 2)
		})
	})

	Describe("RunOnce", func() {
		BeforeEach(func() {
			random.On("Float64").Return(0.0)
			nodes.On("GetNodeByIP", "10.0.0.1").Return(types.Node{IP: "10.0.0.1"}, true)
			nodes.On("GetNodeByIP", mock.Anything).Return(types.Node{}, false)
		})

		It("kills the eligible pods with the signal of their labels", func() {
			soft := enabled("soft", nil)
			hard := enabled("hard", map[string]string{labelrunner.ForceKillLabel: "true"})
			orphan := enabled("orphan", nil)
			orphan.HostIP = "10.0.0.9"

			pods.On("FindPods", mock.Anything, "ns", "", "").Return([]types.Pod{soft, hard, orphan}, nil)
			exec.On("KillPod", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

			Expect(runner.RunOnce(ctx)).To(Succeed())

			exec.AssertCalled(GinkgoT(), "KillPod", mock.Anything, soft, nodes, types.SignalTerm)
			exec.AssertCalled(GinkgoT(), "KillPod", mock.Anything, hard, nodes, types.SignalKill)
			exec.AssertNumberOfCalls(GinkgoT(), "KillPod", 2)
			sink.AssertNumberOfCalls(GinkgoT(), "MetricPodKilled", 2)
		})

		It("keeps going when a kill fails", func() {
			a, b := enabled("a", nil), enabled("b", nil)

			pods.On("FindPods", mock.Anything, "ns", "", "").Return([]types.Pod{a, b}, nil)
			exec.On("KillPod", mock.Anything, a, mock.Anything, mock.Anything).Return(errors.New("boom"))
			exec.On("KillPod", mock.Anything, b, mock.Anything, mock.Anything).Return(nil)

			Expect(runner.RunOnce(ctx)).To(Succeed())

			sink.AssertCalled(GinkgoT(), "MetricPodKillFailed", a)
			sink.AssertCalled(GinkgoT(), "MetricPodKilled", b)
		})

		It("fails when the pods can't be listed", func() {
			pods.On("FindPods", mock.Anything, "ns", "", "").Return(nil, errors.New("api down"))

			Expect(runner.RunOnce(ctx)).ToNot(Succeed())
		})
	})

	Describe("Run", func() {
		It("stops once the context is done", func() {
			random.On("Float64").Return(0.5)
			pods.On("FindPods", mock.Anything, "ns", "", "").Return([]types.Pod{}, nil)
			nodes.On("Sync", mock.Anything).Return(nil)

			ctx, cancel := context.WithCancel(ctx)
			done := make(chan error)

			go func() {
				done <- runner.Run(ctx)
			}()

			time.Sleep(50 * time.Millisecond)
			cancel()

			Eventually(done, time.Second).Should(Receive(BeNil()))
		})
	})
})
