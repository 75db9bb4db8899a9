// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zaptest"

	"github.com/DataDog/chaos-seal/eventnotifier/types"
)

var _ = Describe("HTTP notifier", func() {
	var (
		received []HTTPNotifierEvent
		headers  []http.Header
		server   *httptest.Server
		status   int
		report   types.Report
	)

	BeforeEach(func() {
		received = nil
		headers = nil
		status = http.StatusOK
		report = types.Report{RunID: "run-1", Scenario: "kill-nginx", Duration: 3 * time.Second, Error: "boom"}

		mux := http.NewServeMux()
		mux.HandleFunc("/notify", func(w http.ResponseWriter, r *http.Request) {
			var event HTTPNotifierEvent
			Expect(json.NewDecoder(r.Body).Decode(&event)).To(Succeed())

			received = append(received, event)
			headers = append(headers, r.Header.Clone())

			w.WriteHeader(status)
		})
		mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":{"token":"s3cr3t"}}`))
		})

		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)
	})

	It("posts the report with the configured headers", func() {
		notifier, err := New(types.NotifiersCommonConfig{ClusterName: "staging"}, NotifierHTTPConfig{
			Enabled: true,
			URL:     server.URL + "/notify",
			Headers: []string{"X-Team:chaos"},
		}, zaptest.NewLogger(GinkgoT()).Sugar())
		Expect(err).ToNot(HaveOccurred())

		Expect(notifier.Notify(report, types.NotificationError)).To(Succeed())

		Expect(received).To(HaveLen(1))
		Expect(received[0].Scenario).To(Equal("kill-nginx"))
		Expect(received[0].Cluster).To(Equal("staging"))
		Expect(received[0].DurationSeconds).To(Equal(int64(3)))
		Expect(received[0].NotificationType).To(Equal("Error"))
		Expect(headers[0].Get("X-Team")).To(Equal("chaos"))
	})

	It("fetches a bearer token when an auth url is set", func() {
		notifier, err := New(types.NotifiersCommonConfig{}, NotifierHTTPConfig{
			Enabled:       true,
			URL:           server.URL + "/notify",
			AuthURL:       server.URL + "/token",
			AuthTokenPath: "data.token",
		}, zaptest.NewLogger(GinkgoT()).Sugar())
		Expect(err).ToNot(HaveOccurred())

		Expect(notifier.Notify(report, types.NotificationError)).To(Succeed())
		Expect(headers[0].Get("Authorization")).To(Equal("Bearer s3cr3t"))
	})

	It("fails on a non 2xx answer", func() {
		status = http.StatusBadGateway

		notifier, err := New(types.NotifiersCommonConfig{}, NotifierHTTPConfig{Enabled: true, URL: server.URL + "/notify"}, zaptest.NewLogger(GinkgoT()).Sugar())
		Expect(err).ToNot(HaveOccurred())

		Expect(notifier.Notify(report, types.NotificationError)).To(MatchError(ContainSubstring("502")))
	})

	It("rejects malformed headers", func() {
		_, err := New(types.NotifiersCommonConfig{}, NotifierHTTPConfig{Enabled: true, Headers: []string{"nocolon"}}, zaptest.NewLogger(GinkgoT()).Sugar())
		Expect(err).To(HaveOccurred())
	})
})
