// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package cmd

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/DataDog/chaos-seal/policy"
)

var _ = Describe("newPolicy", func() {
	var a answers

	BeforeEach(func() {
		a = answers{
			Name:        "kill nginx",
			Target:      targetPods,
			MatchKind:   policy.MatchKindLabels,
			Namespace:   "web",
			Selector:    "app=nginx",
			Probability: 0.5,
			Force:       true,
		}
	})

	It("builds a pod kill scenario", func() {
		p, err := newPolicy(a)
		Expect(err).ToNot(HaveOccurred())

		Expect(p.Scenarios).To(HaveLen(1))
		step := p.Scenarios[0].Steps[0]
		Expect(step.Kind()).To(Equal(policy.StepKindPodAction))
		Expect(step.PodAction.Matches[0].Labels).To(Equal(&policy.LabelsMatch{Namespace: "web", Selector: "app=nginx"}))
		Expect(step.PodAction.Filters).To(BeEmpty())
		Expect(step.PodAction.Actions).To(HaveLen(1))
		Expect(step.PodAction.Actions[0].Kill.KillProbability()).To(Equal(0.5))
		Expect(step.PodAction.Actions[0].Kill.IsForced()).To(BeTrue())

		By("filling in the defaults")
		Expect(p.Config.RunStrategy.Strategy).To(Equal(policy.StrategySequential))
		Expect(p.Config.RunStrategy.Runs).To(BeNil())
		Expect(p.Config.ExitStrategy.Strategy).To(Equal(policy.ExitStrategyFailFast))
	})

	It("adds the optional filters and wait", func() {
		a.OfficeHours = true
		a.SampleSize = 2
		a.WaitSeconds = 5
		a.Runs = 3

		p, err := newPolicy(a)
		Expect(err).ToNot(HaveOccurred())

		pod := p.Scenarios[0].Steps[0].PodAction
		Expect(pod.Filters).To(HaveLen(2))
		Expect(pod.Filters[0].DayTime.OnlyDays).To(Equal(weekdays))
		Expect(*pod.Filters[0].DayTime.StartTime).To(Equal(policy.DefaultDayTimeStart))
		Expect(*pod.Filters[1].RandomSample.Size).To(Equal(2))
		Expect(pod.Actions[1].Wait.Seconds).To(Equal(5.0))
		Expect(*p.Config.RunStrategy.Runs).To(Equal(3))
	})

	It("builds a node stop scenario", func() {
		a = answers{
			Name:        "stop workers",
			Target:      targetNodes,
			Group:       "workers",
			NodeAction:  nodeActionStop,
			AutoRestart: true,
			Probability: 0.3,
		}

		p, err := newPolicy(a)
		Expect(err).ToNot(HaveOccurred())

		node := p.Scenarios[0].Steps[0].NodeAction
		Expect(node.Matches[0].Property).To(Equal(&policy.MatchCriterion{Name: "group", Value: "workers"}))
		Expect(node.Filters[0].Probability.PassAll()).To(Equal(0.3))
		Expect(node.Actions[0].Stop.ShouldAutoRestart()).To(BeTrue())
	})

	It("skips the probability filter when every node is disrupted", func() {
		a = answers{Name: "uptime", Target: targetNodes, Group: ".*", NodeAction: nodeActionExecute, Command: "uptime", Probability: 1}

		p, err := newPolicy(a)
		Expect(err).ToNot(HaveOccurred())

		node := p.Scenarios[0].Steps[0].NodeAction
		Expect(node.Filters).To(BeEmpty())
		Expect(node.Actions[0].Execute.Command()).To(Equal("uptime"))
	})

	It("renders a policy the loader accepts", func() {
		a.OfficeHours = true

		p, err := newPolicy(a)
		Expect(err).ToNot(HaveOccurred())

		y, err := policy.Marshal(p)
		Expect(err).ToNot(HaveOccurred())

		parsed, err := policy.Parse(y)
		Expect(err).ToNot(HaveOccurred())
		Expect(parsed).To(Equal(p))
	})

	DescribeTable("rejects incomplete answers",
		func(change func(*answers), message string) {
			change(&a)

			_, err := newPolicy(a)
			Expect(err).To(MatchError(ContainSubstring(message)))
		},
		Entry("unknown target", func(a *answers) { a.Target = "racks" }, "unknown target"),
		Entry("unknown match", func(a *answers) { a.MatchKind = "owner" }, policy.ErrUnknownMatch.Error()),
		Entry("unknown node action", func(a *answers) { a.Target = targetNodes; a.Group = "web"; a.NodeAction = "reboot" }, policy.ErrUnknownAction.Error()),
		Entry("missing name", func(a *answers) { a.Name = "" }, "Name"),
		Entry("invalid probability", func(a *answers) { a.Probability = 2 }, "Probability"),
	)
})

var _ = Describe("validators", func() {
	It("checks probabilities", func() {
		Expect(probabilityValidator("0.25")).To(Succeed())
		Expect(probabilityValidator("1.5")).ToNot(Succeed())
		Expect(probabilityValidator("half")).ToNot(Succeed())
		Expect(probabilityValidator(3)).ToNot(Succeed())
	})

	It("accepts blank optional numbers", func() {
		Expect(integerValidator("")).To(Succeed())
		Expect(integerValidator("4")).To(Succeed())
		Expect(integerValidator("-1")).ToNot(Succeed())
		Expect(floatValidator("")).To(Succeed())
		Expect(floatValidator("2.5")).To(Succeed())
		Expect(floatValidator("soon")).ToNot(Succeed())
	})

	It("checks label selectors", func() {
		Expect(selectorValidator("app=nginx,tier!=db")).To(Succeed())
		Expect(selectorValidator("app in (nginx")).ToNot(Succeed())
	})
})

var _ = Describe("commands", func() {
	var out *bytes.Buffer

	BeforeEach(func() {
		out = &bytes.Buffer{}
		rootCmd.SetOut(out)
		rootCmd.SetErr(out)
		DeferCleanup(func() { rootCmd.SetArgs(nil) })
	})

	It("validates a policy file", func() {
		rootCmd.SetArgs([]string{"validate", "--path", "testdata/policy.yaml"})

		Expect(rootCmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("testdata/policy.yaml is valid: 1 scenario(s)"))
	})

	It("reports an invalid policy file", func() {
		rootCmd.SetArgs([]string{"validate", "--path", "testdata/invalid.yaml"})

		Expect(rootCmd.Execute()).To(MatchError(ContainSubstring("there were some problems when validating your policy")))
	})

	It("refuses a missing path", func() {
		rootCmd.SetArgs([]string{"validate", "--path", filepath.Join(GinkgoT().TempDir(), "nope.yaml")})

		Expect(rootCmd.Execute()).To(MatchError(ContainSubstring("unable to read")))
	})

	It("prints its version", func() {
		Version = "v1.2.3"
		rootCmd.SetArgs([]string{"version"})

		Expect(rootCmd.Execute()).To(Succeed())
		Expect(out.String()).To(Equal("sealctl v1.2.3\n"))
	})
})

var _ = Describe("validatePath", func() {
	It("refuses directories and empty paths", func() {
		Expect(validatePath("")).ToNot(Succeed())
		Expect(validatePath(os.TempDir())).To(MatchError(ContainSubstring("is a directory")))
		Expect(validatePath("testdata/policy.yaml")).To(Succeed())
	})
})
