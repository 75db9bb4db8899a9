// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package executor_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"github.com/DataDog/chaos-seal/command"
	"github.com/DataDog/chaos-seal/container"
	"github.com/DataDog/chaos-seal/executor"
	"github.com/DataDog/chaos-seal/executor/kubernetes"
	"github.com/DataDog/chaos-seal/executor/runtime"
	etypes "github.com/DataDog/chaos-seal/executor/types"
	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/types"
)

var _ = Describe("GetExecutor", func() {
	It("requires a pod inventory for the kubernetes executor", func() {
		_, err := executor.GetExecutor(etypes.Config{Kind: "kubernetes"}, executor.Dependencies{Log: zaptest.NewLogger(GinkgoT()).Sugar()})
		Expect(err).To(HaveOccurred())
	})

	It("builds the kubernetes executor", func() {
		e, err := executor.GetExecutor(etypes.Config{Kind: "kubernetes"}, executor.Dependencies{Pods: &inventory.PodsMock{}, Log: zaptest.NewLogger(GinkgoT()).Sugar()})
		Expect(err).ToNot(HaveOccurred())
		Expect(e).To(BeAssignableToTypeOf(&kubernetes.Executor{}))
	})

	It("rejects unknown executors", func() {
		_, err := executor.GetExecutor(etypes.Config{Kind: "telnet"}, executor.Dependencies{Log: zaptest.NewLogger(GinkgoT()).Sugar()})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("kubernetes executor", func() {
	var (
		pods *inventory.PodsMock
		e    executor.Executor
	)

	BeforeEach(func() {
		pods = &inventory.PodsMock{}
		e = kubernetes.New(pods, 5, zaptest.NewLogger(GinkgoT()).Sugar())
	})

	It("deletes killed pods with the grace period", func() {
		pod := types.Pod{Name: "nginx", Namespace: "default"}
		pods.On("DeletePods", mock.Anything, []types.Pod{pod}, int64(5)).Return(nil).Once()

		Expect(e.KillPod(context.Background(), pod, nil, types.SignalKill)).To(Succeed())
		pods.AssertExpectations(GinkgoT())
	})

	It("fails every command", func() {
		results := e.Execute(context.Background(), "hostname", []types.Node{{IP: "10.0.0.1"}, {IP: "10.0.0.2"}})

		Expect(results).To(HaveLen(2))
		Expect(results["10.0.0.1"].Failed()).To(BeTrue())
	})
})

var _ = Describe("runtime executor", func() {
	var (
		ctx     context.Context
		rt      *container.RuntimeMock
		factory *command.FactoryMock
		e       executor.Executor
	)

	BeforeEach(func() {
		ctx = context.Background()
		rt = &container.RuntimeMock{}
		factory = &command.FactoryMock{}

		killer := container.NewKiller(container.Config{Factories: map[string]container.RuntimeFactory{
			container.RuntimeContainerd: func() (container.Runtime, error) { return rt, nil },
		}})

		e = runtime.New("10.0.0.1", killer, factory, types.NewRand(1), zaptest.NewLogger(GinkgoT()).Sugar())
	})

	It("kills containers of local pods", func() {
		rt.On("Kill", ctx, "abc", types.SignalTerm).Return(nil).Once()

		pod := types.Pod{Name: "nginx", HostIP: "10.0.0.1", ContainerIDs: []string{"containerd://abc"}}
		Expect(e.KillPod(ctx, pod, nil, types.SignalTerm)).To(Succeed())
		rt.AssertExpectations(GinkgoT())
	})

	It("refuses pods of other hosts", func() {
		pod := types.Pod{Name: "nginx", HostIP: "10.0.0.2", ContainerIDs: []string{"containerd://abc"}}
		Expect(e.KillPod(ctx, pod, nil, types.SignalTerm)).ToNot(Succeed())
		rt.AssertNotCalled(GinkgoT(), "Kill", mock.Anything, mock.Anything, mock.Anything)
	})

	It("runs commands locally for the local node only", func() {
		cmd := &command.CmdMock{}
		cmd.On("Run").Return(nil)
		cmd.On("ExitCode").Return(0)
		cmd.On("Stdout").Return("host-a\n")
		cmd.On("Stderr").Return("")
		factory.On("NewCmd", ctx, "sh", []string{"-c", "hostname"}, []byte(nil)).Return(cmd).Once()

		results := e.Execute(ctx, "hostname", []types.Node{{IP: "10.0.0.1"}, {IP: "10.0.0.2"}})

		Expect(results["10.0.0.1"].Failed()).To(BeFalse())
		Expect(results["10.0.0.1"].Stdout).To(Equal("host-a\n"))
		Expect(results["10.0.0.2"].Failed()).To(BeTrue())
		factory.AssertExpectations(GinkgoT())
	})
})
