// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package log_test

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"k8s.io/klog/v2"

	"github.com/DataDog/chaos-seal/log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// ringSink feeds a ring the way the engine handle does
type ringSink struct {
	ring *log.Ring
}

func (s ringSink) Write(p []byte) (int, error) {
	s.ring.Append(string(p))

	return len(p), nil
}

func (s ringSink) Sync() error {
	return nil
}

func setLogLevel(level string) {
	Expect(os.Setenv("LOG_LEVEL", level)).To(Succeed())
	DeferCleanup(os.Unsetenv, "LOG_LEVEL")
}

var _ = Describe("Logger", func() {
	DescribeTable("NewZapLogger reads its level from LOG_LEVEL",
		func(level string, expected zapcore.Level) {
			setLogLevel(level)

			logger, err := log.NewZapLogger()

			Expect(err).ToNot(HaveOccurred())
			Expect(logger.Level()).To(Equal(expected))
		},
		Entry("lowercase level", "warn", zapcore.WarnLevel),
		Entry("invalid level keeps DEBUG", "verbose", zapcore.DebugLevel),
	)

	Describe("NewZapLoggerWithSink", func() {
		var ring *log.Ring

		BeforeEach(func() {
			ring = log.NewRing(10)
		})

		It("tees every entry into the ring, one line each", func() {
			setLogLevel("debug")

			logger, err := log.NewZapLoggerWithSink(ringSink{ring})
			Expect(err).ToNot(HaveOccurred())

			logger.Infow("scenario started", "scenario", "kill-web")
			logger.Warnw("step failed", "step", 0)

			lines, next := ring.Since(0)
			Expect(next).To(Equal(2))
			Expect(lines[0]).To(SatisfyAll(ContainSubstring("INFO"), ContainSubstring("scenario started"), ContainSubstring("kill-web")))
			Expect(lines[1]).To(SatisfyAll(ContainSubstring("WARN"), ContainSubstring("step failed")))
		})

		It("keeps the level of the main logger", func() {
			setLogLevel("warn")

			logger, err := log.NewZapLoggerWithSink(ringSink{ring})
			Expect(err).ToNot(HaveOccurred())

			logger.Debugw("syncing nodes")
			logger.Infow("scenario started")
			logger.Warnw("empty match")

			lines, _ := ring.Since(0)
			Expect(lines).To(HaveLen(1))
			Expect(lines[0]).To(ContainSubstring("empty match"))
		})
	})

	Describe("FromContext", func() {
		It("finds the logger through the contexts derived by the engine", func() {
			logger := zaptest.NewLogger(GinkgoT()).Sugar()

			ctx, stop := signal.NotifyContext(log.WithLogger(context.Background(), logger), syscall.SIGTERM)
			defer stop()

			worker, cancel := context.WithCancel(ctx)
			cancel()

			Expect(log.FromContext(worker)).To(BeIdenticalTo(logger))
			Expect(log.FromContext(context.WithoutCancel(worker))).To(BeIdenticalTo(logger))
		})

		It("falls back to a default logger", func() {
			Expect(log.FromContext(context.Background())).ToNot(BeNil())
		})
	})

	Describe("NewLogr", func() {
		It("writes logr entries to the zap core", func() {
			core, logs := observer.New(zapcore.DebugLevel)

			logr := log.NewLogr(zap.New(core).Sugar())
			logr.Info("node synced", "node", "node-1")
			logr.Error(os.ErrNotExist, "node missing")

			Expect(logs.FilterMessage("node synced").FilterField(zap.String("node", "node-1")).Len()).To(Equal(1))
			Expect(logs.FilterLevelExact(zapcore.ErrorLevel).Len()).To(Equal(1))
		})
	})

	Describe("RedirectKlog", func() {
		It("sends the kubernetes client logs to the logger", func() {
			core, logs := observer.New(zapcore.DebugLevel)
			DeferCleanup(klog.ClearLogger)

			log.RedirectKlog(zap.New(core).Sugar())

			klog.InfoS("watch restarted", "resource", "pods")
			klog.ErrorS(errors.New("connection refused"), "list failed")

			restarted := logs.FilterMessage("watch restarted")
			Expect(restarted.Len()).To(Equal(1))
			Expect(restarted.All()[0].ContextMap()).To(SatisfyAll(
				HaveKeyWithValue("logger", "klog"),
				HaveKeyWithValue("resource", "pods"),
			))
			Expect(logs.FilterMessage("list failed").FilterLevelExact(zapcore.ErrorLevel).Len()).To(Equal(1))
		})
	})
})
