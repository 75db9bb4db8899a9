// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package config_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/DataDog/chaos-seal/config"
)

var _ = Describe("Config", func() {
	var logger *zap.SugaredLogger

	BeforeEach(func() {
		logger = zaptest.NewLogger(GinkgoT()).Sugar()
	})

	Context("invalid config", func() {
		It("fails with a missing path", func() {
			_, err := config.New(nil, logger, []string{"--config"})
			Expect(err).Should(MatchError("unable to retrieve configuration parse from provided flag: flag needs an argument: --config"))
		})

		It("fails with an invalid path", func() {
			_, err := config.New(nil, logger, []string{"--config", "invalid-path/invalid-file.yaml"})
			Expect(err).Should(MatchError(ContainSubstring("error loading configuration file")))
		})

		It("fails with an invalid config file", func() {
			_, err := config.New(nil, logger, []string{"--config", "testdata/invalid.yaml"})
			Expect(err).Should(MatchError(ContainSubstring("error loading configuration file")))
		})

		It("fails with an unknown flag", func() {
			_, err := config.New(nil, logger, []string{"--leader-elect"})
			Expect(err).Should(MatchError(ContainSubstring("unable to parse main flags")))
		})

		It("fails with a min sleep greater than the max sleep", func() {
			_, err := config.New(nil, logger, []string{"--config", "testdata/invalid-sleeps.yaml"})
			Expect(err).Should(MatchError(ContainSubstring("minSleep 10m0s must be between 0 and maxSleep 1m0s")))
		})

		DescribeTable("fails with an unknown driver",
			func(flag, value, message string) {
				_, err := config.New(nil, logger, []string{flag, value})
				Expect(err).Should(MatchError(ContainSubstring(message)))
			},
			Entry("cloud driver", "--cloud-driver", "aws", `unknown cloud driver "aws"`),
			Entry("executor", "--executor", "telnet", `unknown executor "telnet"`),
			Entry("metrics sink", "--metrics-sink", "graphite", `unknown metrics sink "graphite"`),
			Entry("tracer sink", "--tracer-sink", "jaeger", `unknown tracer sink "jaeger"`),
			Entry("profiler sink", "--profiler-sink", "pprof", `unknown profiler sink "pprof"`),
		)

		It("fails to read overrides without a cluster client", func() {
			_, err := config.New(nil, logger, []string{"--config", "testdata/engine.yaml", "--config-overrides", "seal-overrides"})
			Expect(err).Should(MatchError(ContainSubstring("no cluster client")))
		})
	})

	Context("without configuration", func() {
		It("succeeds with default values", func() {
			v, err := config.New(nil, logger, []string{})
			Expect(err).ToNot(HaveOccurred())

			By("defaulting engine values")
			Expect(v.Engine.PolicyPath).To(BeEmpty())
			Expect(v.Engine.BindAddr).To(Equal(config.DefaultBindAddr))
			Expect(v.Engine.Autonomous).To(BeFalse())
			Expect(v.Engine.LogRingSize).To(Equal(config.DefaultLogRingSize))

			By("defaulting drivers")
			Expect(v.CloudDriver.Driver).To(Equal("nocloud"))
			Expect(v.Executor.Kind).To(Equal("kubernetes"))
			Expect(v.Executor.SSH.Port).To(Equal(22))
			Expect(v.Metrics.Sink).To(Equal("noop"))
			Expect(v.Tracer.SinkDriver).To(Equal("noop"))
			Expect(v.Profiler.SinkDriver).To(Equal("noop"))

			By("defaulting notifiers and history")
			Expect(v.Notifiers.Slack.Enabled).To(BeFalse())
			Expect(v.Notifiers.HTTP.Enabled).To(BeFalse())
			Expect(v.History.DSN).To(BeEmpty())

			By("defaulting label mode")
			Expect(v.LabelMode.Enabled).To(BeFalse())
			Expect(v.LabelMode.Namespace).To(Equal("default"))
			Expect(v.LabelMode.MinSleep).To(BeZero())
			Expect(v.LabelMode.MaxSleep).To(Equal(300 * time.Second))
		})

		It("reads flags", func() {
			v, err := config.New(nil, logger, []string{"--policy-file", "policy.yml", "--autonomous", "--label-mode-max-sleep", "1m"})
			Expect(err).ToNot(HaveOccurred())

			Expect(v.Engine.PolicyPath).To(Equal("policy.yml"))
			Expect(v.Engine.Autonomous).To(BeTrue())
			Expect(v.LabelMode.MaxSleep).To(Equal(time.Minute))
		})
	})

	Context("with a configuration file", func() {
		It("loads the file values", func() {
			v, err := config.New(nil, logger, []string{"--config", "testdata/engine.yaml"})
			Expect(err).ToNot(HaveOccurred())

			Expect(v.Engine.PolicyPath).To(Equal("/etc/seal/policy.yml"))
			Expect(v.Engine.Autonomous).To(BeTrue())
			Expect(v.Engine.Seed).To(Equal(int64(42)))
			Expect(v.Inventory.NodeGroupLabel).To(Equal("pool"))
			Expect(v.CloudDriver.Driver).To(Equal("cordon"))
			Expect(v.Executor.Kind).To(Equal("ssh"))
			Expect(v.Executor.SSH.User).To(Equal("ops"))
			Expect(v.Executor.SSH.AllowMissingHostKeys).To(BeTrue())
			Expect(v.Metrics.Sink).To(Equal("prometheus"))
			Expect(v.Tracer.SinkDriver).To(Equal("datadog"))
			Expect(v.Notifiers.Common.ClusterName).To(Equal("staging"))
			Expect(v.Notifiers.Slack.Enabled).To(BeTrue())
			Expect(v.Notifiers.Slack.Channel).To(Equal("C0123"))
			Expect(v.LabelMode.MinSleep).To(Equal(30 * time.Second))
			Expect(v.LabelMode.MaxSleep).To(Equal(2 * time.Minute))

			By("keeping flag defaults for missing keys")
			Expect(v.Engine.BindAddr).To(Equal(config.DefaultBindAddr))
			Expect(v.Executor.SSH.Port).To(Equal(22))
		})

		It("lets flags override the file", func() {
			v, err := config.New(nil, logger, []string{"--config", "testdata/engine.yaml", "--metrics-sink", "datadog", "--seed", "7"})
			Expect(err).ToNot(HaveOccurred())

			Expect(v.Metrics.Sink).To(Equal("datadog"))
			Expect(v.Engine.Seed).To(Equal(int64(7)))
			Expect(v.Executor.SSH.User).To(Equal("ops"))
		})
	})
})
