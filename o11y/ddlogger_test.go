// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package o11y_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DataDog/chaos-seal/o11y"
)

var _ = Describe("DDLogger", func() {
	DescribeTable("maps the message to a level",
		func(msg string, level zapcore.Level) {
			core, logs := observer.New(zapcore.DebugLevel)

			o11y.DDLogger{Logger: zap.New(core).Sugar()}.Log(msg)

			Expect(logs.Len()).To(Equal(1))
			Expect(logs.All()[0].Level).To(Equal(level))
			Expect(logs.All()[0].ContextMap()).To(HaveKeyWithValue("logger", "datadog"))
		},
		Entry("error", "Datadog Tracer v1.74.7 ERROR: lost 3 traces", zapcore.ErrorLevel),
		Entry("warning", "Datadog Tracer v1.74.7 WARN: agent unreachable", zapcore.WarnLevel),
		Entry("info", "Datadog Tracer v1.74.7 INFO: started", zapcore.InfoLevel),
		Entry("anything else", "Datadog Tracer v1.74.7 DEBUG: flushing", zapcore.DebugLevel),
	)

	It("drops messages below the logger level", func() {
		core, logs := observer.New(zapcore.WarnLevel)

		o11y.DDLogger{Logger: zap.New(core).Sugar()}.Log("Datadog Tracer INFO: started")

		Expect(logs.Len()).To(BeZero())
	})
})
