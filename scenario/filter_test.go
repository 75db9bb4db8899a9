// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package scenario_test

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/DataDog/chaos-seal/o11y/metrics"
	"github.com/DataDog/chaos-seal/policy"
	"github.com/DataDog/chaos-seal/scenario"
	"github.com/DataDog/chaos-seal/types"
)

var _ = Describe("Filtering", func() {
	var (
		random *types.RandMock
		sink   *metrics.SinkMock
		env    map[string]string
		now    time.Time
		deps   scenario.Deps
		pods   []types.Pod
	)

	BeforeEach(func() {
		random = &types.RandMock{}
		sink = metrics.NewSinkMock()
		env = map[string]string{}
		now = wednesdayNoon
		pods = []types.Pod{}

		for i := 0; i < 10; i++ {
			pods = append(pods, types.Pod{UID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("web-%d", i), State: "Running"})
		}

		pods[9].State = "Pending"
	})

	JustBeforeEach(func() {
		deps = scenario.Deps{
			Rand:    random,
			Metrics: sink,
			Log:     zaptest.NewLogger(GinkgoT()).Sugar(),
			Now:     func() time.Time { return now },
			Getenv:  func(key string) string { return env[key] },
		}
	})

	It("applies the filters in order", func() {
		random.On("Perm", 9).Return([]int{8, 3, 0, 1, 2, 4, 5, 6, 7})

		filtered := scenario.FilterItems(deps, []policy.Filter{
			{Property: &policy.MatchCriterion{Name: "state", Value: "Running"}},
			{RandomSample: &policy.RandomSample{Size: policy.Int(2)}},
		}, pods)

		Expect(filtered).To(Equal([]types.Pod{pods[8], pods[3]}))
	})

	It("stops at the first filter leaving nothing", func() {
		filtered := scenario.FilterItems(deps, []policy.Filter{
			{Property: &policy.MatchCriterion{Name: "state", Value: "Terminating"}},
			{RandomSample: &policy.RandomSample{Size: policy.Int(2)}},
			{Probability: &policy.Probability{ProbabilityPassAll: policy.Float(1)}},
		}, pods)

		Expect(filtered).To(BeEmpty())
		random.AssertNotCalled(GinkgoT(), "Perm", mock.Anything)
		random.AssertNotCalled(GinkgoT(), "Float64")
		sink.AssertNumberOfCalls(GinkgoT(), "MetricEmptyFilter", 1)
	})

	It("never keeps the engine's own pod", func() {
		env[types.PodNameEnv] = "web-4"

		Expect(scenario.FilterItems(deps, nil, pods)).ToNot(ContainElement(pods[4]))
	})

	It("never keeps the engine's own node", func() {
		env[types.HostIPEnv] = "10.0.0.2"
		nodes := []types.Node{{ID: "n1", IP: "10.0.0.1"}, {ID: "n2", IP: "10.0.0.2"}}

		Expect(scenario.FilterItems(deps, nil, nodes)).To(Equal(nodes[:1]))
	})

	Describe("randomSample", func() {
		DescribeTable("keeps exactly the requested number of items",
			func(sample policy.RandomSample, perm []int, expected int) {
				random.On("Perm", len(pods)).Return(perm).Maybe()

				filtered := scenario.FilterItems(deps, []policy.Filter{{RandomSample: &sample}}, pods)
				Expect(filtered).To(HaveLen(expected))
			},
			Entry("size", policy.RandomSample{Size: policy.Int(3)}, []int{9, 8, 7, 6, 5, 4, 3, 2, 1, 0}, 3),
			Entry("size above the count", policy.RandomSample{Size: policy.Int(20)}, nil, 10),
			Entry("zero size", policy.RandomSample{Size: policy.Int(0)}, nil, 0),
			Entry("ratio", policy.RandomSample{Ratio: policy.Float(0.5)}, []int{9, 8, 7, 6, 5, 4, 3, 2, 1, 0}, 5),
			Entry("neither size nor ratio", policy.RandomSample{}, nil, 0),
		)

		It("samples without replacement", func() {
			deps.Rand = types.NewRand(7)

			filtered := scenario.FilterItems(deps, []policy.Filter{{RandomSample: &policy.RandomSample{Size: policy.Int(6)}}}, pods)

			keys := map[string]bool{}
			for _, p := range filtered {
				keys[p.Key()] = true
			}

			Expect(keys).To(HaveLen(6))
		})
	})

	Describe("probability", func() {
		It("keeps every item when the draw passes", func() {
			random.On("Float64").Return(0.3).Once()

			filtered := scenario.FilterItems(deps, []policy.Filter{{Probability: &policy.Probability{ProbabilityPassAll: policy.Float(0.5)}}}, pods)
			Expect(filtered).To(Equal(pods))
		})

		It("keeps nothing when the draw fails", func() {
			random.On("Float64").Return(0.7).Once()

			filtered := scenario.FilterItems(deps, []policy.Filter{{Probability: &policy.Probability{ProbabilityPassAll: policy.Float(0.5)}}}, pods)
			Expect(filtered).To(BeEmpty())
			sink.AssertCalled(GinkgoT(), "MetricProbabilityFilterNoPass")
		})

		It("keeps the whole batch or nothing, with the configured frequency", func() {
			deps.Rand = types.NewRand(42)
			deps.Log = zap.NewNop().Sugar()
			filters := []policy.Filter{{Probability: &policy.Probability{ProbabilityPassAll: policy.Float(0.3)}}}
			batch := pods[:2]
			passed := 0

			for i := 0; i < 100000; i++ {
				filtered := scenario.FilterItems(deps, filters, batch)
				if len(filtered) == 0 {
					continue
				}

				Expect(filtered).To(Equal(batch))
				passed++
			}

			Expect(float64(passed) / 100000).To(BeNumerically("~", 0.3, 0.01))
		})
	})

	Describe("dayTime", func() {
		weekdays := []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

		DescribeTable("keeps everything or nothing depending on the time",
			func(at time.Time, dayTime policy.DayTime, kept bool) {
				now = at
				deps.Now = func() time.Time { return now }

				filtered := scenario.FilterItems(deps, []policy.Filter{{DayTime: &dayTime}}, pods)
				if kept {
					Expect(filtered).To(Equal(pods))
				} else {
					Expect(filtered).To(BeEmpty())
				}
			},
			Entry("within the default window", wednesdayNoon, policy.DayTime{OnlyDays: weekdays}, true),
			Entry("on a disallowed day", wednesdayNoon.AddDate(0, 0, 3), policy.DayTime{OnlyDays: weekdays}, false),
			Entry("days are case insensitive", wednesdayNoon, policy.DayTime{OnlyDays: []string{"Wednesday"}}, true),
			Entry("at the start", wednesdayNoon.Add(-2*time.Hour), policy.DayTime{}, true),
			Entry("before the start", wednesdayNoon.Add(-2*time.Hour-time.Second), policy.DayTime{}, false),
			Entry("at the end", wednesdayNoon, policy.DayTime{EndTime: &policy.TimeOfDay{Hour: 12}}, false),
			Entry("just before the end", wednesdayNoon, policy.DayTime{EndTime: &policy.TimeOfDay{Hour: 12, Second: 1}}, true),
			Entry("after the default end", wednesdayNoon.Add(4*time.Hour), policy.DayTime{}, false),
		)
	})
})
