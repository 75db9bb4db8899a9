// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package runner_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8stypes "k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/DataDog/chaos-seal/executor"
	"github.com/DataDog/chaos-seal/history"
	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/o11y/metrics"
	"github.com/DataDog/chaos-seal/policy"
	"github.com/DataDog/chaos-seal/runner"
	"github.com/DataDog/chaos-seal/scenario"
	"github.com/DataDog/chaos-seal/types"
)

const killPolicy = `
config:
  runStrategy:
    runs: 1
scenarios:
  - name: kill nginx
    steps:
      - podAction:
          matches:
            - labels:
                namespace: web
                selector: app=nginx
          actions:
            - kill:
                probability: 1
                force: true
`

func runningPod(name, app string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "web",
			UID:       k8stypes.UID("uid-" + name),
			Labels:    map[string]string{"app": app},
		},
		Status: corev1.PodStatus{Phase: corev1.PodRunning, HostIP: "10.0.0.1"},
	}
}

var _ = Describe("Runner killing pods", func() {
	It("kills every pod selected by the policy", func() {
		log := zaptest.NewLogger(GinkgoT()).Sugar()
		client := fake.NewSimpleClientset(
			runningPod("nginx-1", "nginx"),
			runningPod("nginx-2", "nginx"),
			runningPod("redis-1", "redis"),
		)

		p, err := policy.Parse([]byte(killPolicy))
		Expect(err).ToNot(HaveOccurred())

		nodes := &inventory.NodesMock{}
		nodes.On("Sync", mock.Anything).Return(nil)

		random := &types.RandMock{}
		random.On("Float64").Return(0.5)

		killed := []string{}
		exec := &executor.ExecutorMock{}
		exec.On("KillPod", mock.Anything, mock.Anything, mock.Anything, types.SignalKill).Run(func(args mock.Arguments) {
			killed = append(killed, args.Get(1).(types.Pod).Name)
		}).Return(nil)

		sink := metrics.NewSinkMock()
		store := history.NewMemoryStore(10)

		deps := scenario.Deps{
			Nodes:    nodes,
			Pods:     inventory.NewK8sInventory(client, "", time.Second, log),
			Executor: exec,
			Metrics:  sink,
			Rand:     random,
			Log:      log,
			Getenv:   func(string) string { return "" },
		}

		summary, err := runner.New(policy.StaticSource{Policy: p}, deps, runner.Options{History: store}).Run(context.Background())

		Expect(err).ToNot(HaveOccurred())
		Expect(summary.Executed).To(Equal(1))
		Expect(summary.Failed).To(BeZero())
		Expect(killed).To(ConsistOf("nginx-1", "nginx-2"))
		sink.AssertNumberOfCalls(GinkgoT(), "MetricPodKilled", 2)
		sink.AssertCalled(GinkgoT(), "MetricScenarioResult", "kill nginx", true)

		records, err := store.List(context.Background(), 10)
		Expect(err).ToNot(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].Success).To(BeTrue())
	})
})
