// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package profiler_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zaptest"

	"github.com/DataDog/chaos-seal/o11y/profiler"
	"github.com/DataDog/chaos-seal/o11y/profiler/types"
)

var _ = Describe("GetSink", func() {
	It("returns the noop profiler", func() {
		sink, err := profiler.GetSink(zaptest.NewLogger(GinkgoT()).Sugar(), types.SinkConfig{SinkDriver: "noop", Service: "chaos-seal"})
		Expect(err).ToNot(HaveOccurred())
		Expect(sink.GetSinkName()).To(Equal(string(types.SinkDriverNoop)))

		sink.Stop()
	})

	It("rejects an unknown profiler", func() {
		_, err := profiler.GetSink(zaptest.NewLogger(GinkgoT()).Sugar(), types.SinkConfig{SinkDriver: "pprof"})
		Expect(err).To(MatchError("unsupported profiler: pprof"))
	})
})
