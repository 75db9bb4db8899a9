// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/eventnotifier/types"
	"github.com/DataDog/chaos-seal/eventnotifier/utils"
	cLog "github.com/DataDog/chaos-seal/log"
)

type NotifierHTTPConfig struct {
	Enabled       bool     `json:"enabled" yaml:"enabled"`
	URL           string   `json:"url" yaml:"url"`
	Headers       []string `json:"headers" yaml:"headers"`
	AuthURL       string   `json:"authURL" yaml:"authURL"`
	AuthHeaders   []string `json:"authHeaders" yaml:"authHeaders"`
	AuthTokenPath string   `json:"authTokenPath" yaml:"authTokenPath"`
}

// Notifier describes a HTTP notifier
type Notifier struct {
	common        types.NotifiersCommonConfig
	client        *http.Client
	url           string
	headers       map[string][]string
	tokenProvider BearerAuthTokenProvider
	logger        *zap.SugaredLogger
}

// HTTPNotifierEvent is the JSON document posted for each report
type HTTPNotifierEvent struct {
	NotificationTitle string `json:"notification-title"`
	NotificationType  string `json:"notification-type"`
	EventMessage      string `json:"message"`
	Scenario          string `json:"scenario"`
	RunID             string `json:"run-id"`
	Cluster           string `json:"cluster"`
	Success           bool   `json:"success"`
	DurationSeconds   int64  `json:"duration-seconds"`
}

// New HTTP Notifier
func New(commonConfig types.NotifiersCommonConfig, httpConfig NotifierHTTPConfig, logger *zap.SugaredLogger) (*Notifier, error) {
	client := &http.Client{
		Timeout: 1 * time.Minute,
	}

	headers, err := parseHeaders(httpConfig.Headers)
	if err != nil {
		return nil, err
	}

	not := &Notifier{
		common:  commonConfig,
		client:  client,
		url:     httpConfig.URL,
		headers: headers,
		logger:  logger,
	}

	if httpConfig.AuthURL != "" {
		authHeaders, err := parseHeaders(httpConfig.AuthHeaders)
		if err != nil {
			return nil, err
		}

		flat := make(map[string]string, len(authHeaders))
		for k, v := range authHeaders {
			flat[k] = strings.Join(v, ",")
		}

		not.tokenProvider = NewBearerAuthTokenProvider(client, httpConfig.AuthURL, flat, httpConfig.AuthTokenPath)
	}

	return not, nil
}

// header is of format: key:value
func parseHeaders(raw []string) (map[string][]string, error) {
	parsedHeaders := make(map[string][]string)

	for _, header := range raw {
		key, value, found := strings.Cut(header, ":")
		if !found || key == "" {
			return nil, fmt.Errorf("notifier http: invalid headers in conf. Must be of format: key:value. %s", header)
		}

		parsedHeaders[key] = append(parsedHeaders[key], value)
	}

	return parsedHeaders, nil
}

// GetNotifierName returns the driver's name
func (n *Notifier) GetNotifierName() string {
	return string(types.NotifierDriverHTTP)
}

// Notify posts the report as JSON
func (n *Notifier) Notify(report types.Report, notifType types.NotificationType) error {
	ctx, cancel := context.WithTimeout(cLog.WithLogger(context.Background(), n.logger), n.client.Timeout)
	defer cancel()

	notif := HTTPNotifierEvent{
		NotificationTitle: utils.BuildHeaderMessageFromReport(report, notifType),
		NotificationType:  string(notifType),
		EventMessage:      utils.BuildBodyMessageFromReport(report, false),
		Scenario:          report.Scenario,
		RunID:             report.RunID,
		Cluster:           n.common.ClusterName,
		Success:           report.Success,
		DurationSeconds:   int64(report.Duration.Seconds()),
	}

	body, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("http notifier: couldn't send notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http notifier: couldn't send notification: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for headerKey, headerValues := range n.headers {
		for _, headerValue := range headerValues {
			req.Header.Add(headerKey, headerValue)
		}
	}

	if n.tokenProvider != nil {
		token, err := n.tokenProvider.AuthToken(ctx)
		if err != nil {
			return fmt.Errorf("http notifier: unable to retrieve auth token: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("http notifier: couldn't send notification: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 || res.StatusCode < 200 {
		return fmt.Errorf("http notifier: receiving %d status code from sent notification", res.StatusCode)
	}

	return nil
}
