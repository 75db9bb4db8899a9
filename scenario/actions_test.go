// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package scenario_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"github.com/DataDog/chaos-seal/clouddriver"
	"github.com/DataDog/chaos-seal/executor"
	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/o11y/metrics"
	"github.com/DataDog/chaos-seal/policy"
	"github.com/DataDog/chaos-seal/scenario"
	"github.com/DataDog/chaos-seal/types"
)

var _ = Describe("Actions", func() {
	var (
		ctx    context.Context
		nodes  *inventory.NodesMock
		pods   *inventory.PodsMock
		driver *clouddriver.DriverMock
		exec   *executor.ExecutorMock
		sink   *metrics.SinkMock
		slept  []time.Duration
		deps   scenario.Deps
	)

	BeforeEach(func() {
		ctx = context.Background()
		nodes = &inventory.NodesMock{}
		pods = &inventory.PodsMock{}
		driver = &clouddriver.DriverMock{}
		exec = &executor.ExecutorMock{}
		sink = metrics.NewSinkMock()
		slept = nil

		nodes.On("Sync", mock.Anything).Return(nil)
		nodes.On("Driver").Return(driver)

		deps = scenario.Deps{
			Nodes:    nodes,
			Pods:     pods,
			Executor: exec,
			Metrics:  sink,
			Rand:     types.NewRand(1),
			Log:      zaptest.NewLogger(GinkgoT()).Sugar(),
			Now:      func() time.Time { return wednesdayNoon },
			Getenv:   func(string) string { return "" },
			Sleep: func(_ context.Context, d time.Duration) error {
				slept = append(slept, d)
				return nil
			},
		}
	})

	run := func(step policy.Step) scenario.Result {
		action, err := scenario.NewStepAction(step, "test", deps)
		Expect(err).ToNot(HaveOccurred())

		res, err := action.Execute(ctx)
		Expect(err).ToNot(HaveOccurred())

		return res
	}

	Describe("node actions", func() {
		var n1, n2, n3 types.Node

		BeforeEach(func() {
			n1 = types.Node{ID: "n1", IP: "10.0.0.1", Groups: []string{"workers"}, State: types.NodeStateUp}
			n2 = types.Node{ID: "n2", IP: "10.0.0.2", Groups: []string{"workers"}, State: types.NodeStateUp}
			n3 = types.Node{ID: "n3", IP: "10.0.0.3", Groups: []string{"masters"}, State: types.NodeStateUp}
		})

		workers := func(actions ...policy.NodeActionSpec) policy.Step {
			return policy.Step{NodeAction: &policy.NodeAction{
				Matches: []policy.NodeMatch{nodeProperty("groups", "workers")},
				Actions: actions,
			}}
		}

		It("queues a single restart of the nodes it stopped", func() {
			nodes.On("FindNodes", "all").Return([]types.Node{n1, n2, n3}).Once()
			driver.On("Stop", mock.Anything, n1).Return(nil)
			driver.On("Stop", mock.Anything, n2).Return(errors.New("api error"))

			res := run(workers(policy.NodeActionSpec{Stop: &policy.Stop{}}))

			Expect(res.Success).To(BeFalse())
			Expect(res.Cleanup).To(HaveLen(1))
			sink.AssertNumberOfCalls(GinkgoT(), "MetricNodeStopped", 1)
			sink.AssertNumberOfCalls(GinkgoT(), "MetricNodeStopFailed", 1)

			down := n1
			down.State = types.NodeStateDown

			nodes.On("FindNodes", "all").Return([]types.Node{down, n2, n3}).Once()
			driver.On("Start", mock.Anything, down).Return(nil)

			restart, err := res.Cleanup[0].Execute(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(restart.Success).To(BeTrue())
			driver.AssertNumberOfCalls(GinkgoT(), "Start", 1)
		})

		It("doesn't restart when asked not to", func() {
			nodes.On("FindNodes", "all").Return([]types.Node{n1, n2, n3})
			driver.On("Stop", mock.Anything, mock.Anything).Return(nil)

			res := run(workers(policy.NodeActionSpec{Stop: &policy.Stop{AutoRestart: policy.Bool(false)}}))

			Expect(res.Success).To(BeTrue())
			Expect(res.Cleanup).To(BeEmpty())
			driver.AssertNumberOfCalls(GinkgoT(), "Stop", 2)
		})

		It("waits once whatever the number of nodes", func() {
			nodes.On("FindNodes", "all").Return([]types.Node{n1, n2, n3})

			res := run(workers(policy.NodeActionSpec{Wait: &policy.Wait{Seconds: 1.5}}))

			Expect(res.Success).To(BeTrue())
			Expect(slept).To(Equal([]time.Duration{1500 * time.Millisecond}))
		})

		It("fails when a command fails on a node", func() {
			nodes.On("FindNodes", "all").Return([]types.Node{n1, n2, n3})
			exec.On("Execute", mock.Anything, "uptime", []types.Node{n1}).Return(map[string]types.ExecResult{n1.IP: {RetCode: 0}})
			exec.On("Execute", mock.Anything, "uptime", []types.Node{n2}).Return(map[string]types.ExecResult{n2.IP: {RetCode: 1, Stderr: "boom"}})

			res := run(workers(policy.NodeActionSpec{Execute: &policy.Execute{Cmd: "uptime"}}))

			Expect(res.Success).To(BeFalse())
			sink.AssertCalled(GinkgoT(), "MetricExecuteFailed", n2)
		})

		It("succeeds without acting when nothing matches", func() {
			nodes.On("FindNodes", "all").Return([]types.Node{n3})

			res := run(workers(policy.NodeActionSpec{Stop: &policy.Stop{}}))

			Expect(res.Success).To(BeTrue())
			driver.AssertNotCalled(GinkgoT(), "Stop", mock.Anything, mock.Anything)
		})
	})

	Describe("pod actions", func() {
		var web []types.Pod

		BeforeEach(func() {
			web = []types.Pod{
				{UID: "p1", Name: "web-1", Namespace: "default", HostIP: "10.0.0.1", State: "Running"},
				{UID: "p2", Name: "web-2", Namespace: "default", HostIP: "10.0.0.1", State: "Running"},
				{UID: "p3", Name: "web-3", Namespace: "default", HostIP: "10.0.0.2", State: "Running"},
			}

			pods.On("FindPods", mock.Anything, "default", "", "").Return(web, nil)
		})

		inDefault := func(filters []policy.Filter, actions ...policy.PodActionSpec) policy.Step {
			namespace := "default"

			return policy.Step{PodAction: &policy.PodAction{
				Matches: []policy.PodMatch{{Namespace: &namespace}},
				Filters: filters,
				Actions: actions,
			}}
		}

		It("kills the sampled pods", func() {
			exec.On("KillPod", mock.Anything, mock.Anything, mock.Anything, types.SignalKill).Return(nil)

			res := run(inDefault(
				[]policy.Filter{{RandomSample: &policy.RandomSample{Size: policy.Int(2)}}},
				policy.PodActionSpec{Kill: &policy.Kill{}},
			))

			Expect(res.Success).To(BeTrue())
			exec.AssertNumberOfCalls(GinkgoT(), "KillPod", 2)
			sink.AssertNumberOfCalls(GinkgoT(), "MetricPodKilled", 2)
		})

		It("draws the kill probability once per pod", func() {
			random := &types.RandMock{}
			random.On("Float64").Return(0.9).Once()
			random.On("Float64").Return(0.1).Once()
			random.On("Float64").Return(0.5).Once()
			deps.Rand = random

			exec.On("KillPod", mock.Anything, mock.Anything, mock.Anything, types.SignalTerm).Return(nil)

			res := run(inDefault(nil, policy.PodActionSpec{Kill: &policy.Kill{Probability: policy.Float(0.5), Force: policy.Bool(false)}}))

			Expect(res.Success).To(BeTrue())
			exec.AssertNumberOfCalls(GinkgoT(), "KillPod", 2)
			exec.AssertNotCalled(GinkgoT(), "KillPod", mock.Anything, web[0], mock.Anything, mock.Anything)
		})

		It("reports failed kills", func() {
			exec.On("KillPod", mock.Anything, web[0], mock.Anything, types.SignalKill).Return(errors.New("no container"))
			exec.On("KillPod", mock.Anything, mock.Anything, mock.Anything, types.SignalKill).Return(nil)

			res := run(inDefault(nil, policy.PodActionSpec{Kill: &policy.Kill{}}))

			Expect(res.Success).To(BeFalse())
			sink.AssertCalled(GinkgoT(), "MetricPodKillFailed", web[0])
			sink.AssertNumberOfCalls(GinkgoT(), "MetricPodKilled", 2)
		})

		DescribeTable("checks the pods",
			func(action policy.PodActionSpec, success bool) {
				Expect(run(inDefault(nil, action)).Success).To(Equal(success))
			},
			Entry("count", policy.PodActionSpec{CheckPodCount: &policy.CheckPodCount{Count: 3}}, true),
			Entry("wrong count", policy.PodActionSpec{CheckPodCount: &policy.CheckPodCount{Count: 2}}, false),
			Entry("state", policy.PodActionSpec{CheckPodState: &policy.CheckPodState{State: "running"}}, true),
			Entry("wrong state", policy.PodActionSpec{CheckPodState: &policy.CheckPodState{State: "Pending"}}, false),
		)

		It("stops the distinct hosts and queues their restart", func() {
			n1 := types.Node{ID: "n1", IP: "10.0.0.1"}
			n2 := types.Node{ID: "n2", IP: "10.0.0.2"}

			nodes.On("GetNodeByIP", "10.0.0.1").Return(n1, true)
			nodes.On("GetNodeByIP", "10.0.0.2").Return(n2, true)
			driver.On("Stop", mock.Anything, mock.Anything).Return(nil)
			driver.On("Start", mock.Anything, mock.Anything).Return(nil)

			res := run(inDefault(nil, policy.PodActionSpec{StopHost: &policy.StopHost{}}))

			Expect(res.Success).To(BeTrue())
			Expect(res.Cleanup).To(HaveLen(2))
			driver.AssertNumberOfCalls(GinkgoT(), "Stop", 2)

			for _, cleanup := range res.Cleanup {
				_, err := cleanup.Execute(ctx)
				Expect(err).ToNot(HaveOccurred())
			}

			driver.AssertCalled(GinkgoT(), "Start", mock.Anything, n1)
			driver.AssertCalled(GinkgoT(), "Start", mock.Anything, n2)
		})

		It("fails when a host is unknown", func() {
			nodes.On("GetNodeByIP", "10.0.0.1").Return(types.Node{}, false)

			res := run(inDefault(nil, policy.PodActionSpec{StopHost: &policy.StopHost{}}))

			Expect(res.Success).To(BeFalse())
			driver.AssertNotCalled(GinkgoT(), "Stop", mock.Anything, mock.Anything)
		})
	})
})
