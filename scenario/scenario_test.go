// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package scenario_test

import (
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"github.com/DataDog/chaos-seal/command"
	"github.com/DataDog/chaos-seal/o11y/metrics"
	"github.com/DataDog/chaos-seal/policy"
	"github.com/DataDog/chaos-seal/scenario"
)

func kubectlApply(payload string, autoDelete bool) policy.Step {
	return policy.Step{Kubectl: &policy.Kubectl{Action: policy.KubectlApply, Payload: payload, AutoDelete: policy.Bool(autoDelete)}}
}

func cmdMock(exitCode int) *command.CmdMock {
	cmd := &command.CmdMock{}
	cmd.On("Run").Return(nil)
	cmd.On("ExitCode").Return(exitCode)
	cmd.On("Stdout").Return("")
	cmd.On("Stderr").Return("")

	return cmd
}

var _ = Describe("Scenario", func() {
	var (
		ctx      context.Context
		factory  *command.FactoryMock
		sink     *metrics.SinkMock
		calls    []string
		slept    []time.Duration
		deps     scenario.Deps
		failing  *command.CmdMock
		succeeds *command.CmdMock
	)

	record := func(args mock.Arguments) {
		calls = append(calls, strings.Join(args.Get(2).([]string), " ")+" "+string(args.Get(3).([]byte)))
	}

	BeforeEach(func() {
		ctx = context.Background()
		calls = nil
		slept = nil
		failing = cmdMock(1)
		succeeds = cmdMock(0)

		factory = &command.FactoryMock{}
		factory.On("NewCmd", mock.Anything, "kubectl", mock.Anything, []byte("bad")).Run(record).Return(failing)
		factory.On("NewCmd", mock.Anything, "kubectl", mock.Anything, mock.Anything).Run(record).Return(succeeds)

		sink = &metrics.SinkMock{}
		sink.On("MetricScenarioResult", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			calls = append(calls, "metric")
		}).Return(nil)
		sink.On("MetricScenarioDuration", mock.Anything, mock.Anything).Return(nil)

		deps = scenario.Deps{
			Commands: factory,
			Metrics:  sink,
			Log:      zaptest.NewLogger(GinkgoT()).Sugar(),
			Getenv:   func(string) string { return "" },
			Sleep: func(_ context.Context, d time.Duration) error {
				slept = append(slept, d)
				return nil
			},
		}
	})

	execute := func(steps ...policy.Step) (scenario.Outcome, *scenario.Scenario) {
		s, err := scenario.New(policy.Scenario{Name: "test", Steps: steps}, deps)
		Expect(err).ToNot(HaveOccurred())

		return s.Execute(ctx), s
	}

	It("runs every step, then the cleanup in the order it was queued", func() {
		outcome, s := execute(kubectlApply("a", true), kubectlApply("b", true), kubectlApply("c", false))

		Expect(outcome.Success).To(BeTrue())
		Expect(outcome.Err).ToNot(HaveOccurred())
		Expect(s.State()).To(Equal(scenario.StateDone))
		Expect(calls).To(Equal([]string{
			"apply -f - a",
			"apply -f - b",
			"apply -f - c",
			"metric",
			"delete -f - a",
			"delete -f - b",
		}))
		sink.AssertCalled(GinkgoT(), "MetricScenarioResult", "test", true)
	})

	It("skips the remaining steps after a failure and still cleans up once", func() {
		outcome, _ := execute(kubectlApply("a", true), kubectlApply("bad", true), kubectlApply("c", true))

		Expect(outcome.Success).To(BeFalse())
		Expect(errors.Is(outcome.Err, scenario.ErrStepFailed)).To(BeTrue())
		Expect(calls).To(Equal([]string{
			"apply -f - a",
			"apply -f - bad",
			"metric",
			"delete -f - a",
		}))
		sink.AssertCalled(GinkgoT(), "MetricScenarioResult", "test", false)
	})

	It("keeps cleaning up when a cleanup action fails", func() {
		factory.ExpectedCalls = nil
		factory.On("NewCmd", mock.Anything, "kubectl", []string{"delete", "-f", "-"}, []byte("a")).Run(record).Return(failing)
		factory.On("NewCmd", mock.Anything, "kubectl", mock.Anything, mock.Anything).Run(record).Return(succeeds)

		outcome, _ := execute(kubectlApply("a", true), kubectlApply("b", true))

		Expect(outcome.Success).To(BeTrue())
		Expect(calls[len(calls)-2:]).To(Equal([]string{"delete -f - a", "delete -f - b"}))
	})

	Describe("retries", func() {
		It("gives up after the allowed number of attempts", func() {
			step := kubectlApply("bad", false)
			step.Retries = &policy.Retries{Count: &policy.RetriesCount{Count: 3, Sleep: 0.5}}

			outcome, _ := execute(kubectlApply("a", true), step, kubectlApply("c", true))

			Expect(outcome.Success).To(BeFalse())
			Expect(calls).To(Equal([]string{
				"apply -f - a",
				"apply -f - bad",
				"apply -f - bad",
				"apply -f - bad",
				"metric",
				"delete -f - a",
			}))
			Expect(slept).To(Equal([]time.Duration{500 * time.Millisecond, 500 * time.Millisecond}))
		})

		It("stops retrying on success", func() {
			flaky := &command.CmdMock{}
			flaky.On("Run").Return(nil)
			flaky.On("ExitCode").Return(1).Once()
			flaky.On("ExitCode").Return(0)
			flaky.On("Stdout").Return("")
			flaky.On("Stderr").Return("")

			factory.ExpectedCalls = nil
			factory.On("NewCmd", mock.Anything, "kubectl", mock.Anything, mock.Anything).Run(record).Return(flaky)

			step := kubectlApply("flaky", true)
			step.Retries = &policy.Retries{Count: &policy.RetriesCount{Count: 5}}

			outcome, _ := execute(step)

			Expect(outcome.Success).To(BeTrue())
			Expect(calls).To(Equal([]string{"apply -f - flaky", "apply -f - flaky", "metric", "delete -f - flaky"}))
		})

		It("retries until the timeout", func() {
			step := kubectlApply("bad", false)
			step.Retries = &policy.Retries{Timeout: &policy.RetriesTimeout{Timeout: 0.05, Sleep: 0.01}}

			outcome, _ := execute(step)

			Expect(outcome.Success).To(BeFalse())
			factory.AssertCalled(GinkgoT(), "NewCmd", mock.Anything, "kubectl", mock.Anything, []byte("bad"))
			Expect(len(calls)).To(BeNumerically(">=", 3))
		})
	})

	Describe("New", func() {
		It("rejects a step without action", func() {
			_, err := scenario.New(policy.Scenario{Name: "broken", Steps: []policy.Step{{}}}, deps)

			Expect(errors.Is(err, policy.ErrUnknownAction)).To(BeTrue())
		})

		It("rejects an unknown node action", func() {
			_, err := scenario.New(policy.Scenario{Name: "broken", Steps: []policy.Step{{NodeAction: &policy.NodeAction{
				Matches: []policy.NodeMatch{nodeProperty("name", ".*")},
				Actions: []policy.NodeActionSpec{{}},
			}}}}, deps)

			Expect(errors.Is(err, policy.ErrUnknownAction)).To(BeTrue())
		})

		It("builds every step kind", func() {
			for _, kind := range policy.StepKinds {
				step := policy.Step{}

				switch kind {
				case policy.StepKindNodeAction:
					step.NodeAction = &policy.NodeAction{Actions: []policy.NodeActionSpec{{Start: &policy.Start{}}}}
				case policy.StepKindPodAction:
					step.PodAction = &policy.PodAction{Actions: []policy.PodActionSpec{{Kill: &policy.Kill{}}}}
				case policy.StepKindKubectl:
					step.Kubectl = &policy.Kubectl{}
				case policy.StepKindWait:
					step.Wait = &policy.Wait{}
				case policy.StepKindProbeHTTP:
					step.ProbeHTTP = &policy.ProbeHTTP{}
				case policy.StepKindClone:
					step.Clone = &policy.Clone{}
				case policy.StepKindAlertmanager:
					step.Alertmanager = &policy.Alertmanager{}
				}

				action, err := scenario.NewStepAction(step, "all", deps)
				Expect(err).ToNot(HaveOccurred(), string(kind))
				Expect(action.Name()).ToNot(BeEmpty())
			}
		})
	})
})
