// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package http

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	cLog "github.com/DataDog/chaos-seal/log"
	"github.com/DataDog/chaos-seal/o11y/tags"
)

// BearerAuthTokenProvider returns the token sent along notifications
type BearerAuthTokenProvider interface {
	AuthToken(ctx context.Context) (string, error)
}

var _ BearerAuthTokenProvider = bearerAuthTokenProvider{}

// bearerAuthTokenProvider GETs a token from url, optionally extracting it from a JSON answer at tokenPath
type bearerAuthTokenProvider struct {
	url       string
	client    *http.Client
	headers   map[string]string
	tokenPath string
}

// NewBearerAuthTokenProvider creates a new BearerAuthTokenProvider.
func NewBearerAuthTokenProvider(client *http.Client, url string, headers map[string]string, tokenPath string) BearerAuthTokenProvider {
	return bearerAuthTokenProvider{
		url:       url,
		client:    client,
		headers:   headers,
		tokenPath: tokenPath,
	}
}

// AuthToken implements BearerAuthTokenProvider
func (b bearerAuthTokenProvider) AuthToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url, nil)
	if err != nil {
		return "", fmt.Errorf("unable to create token request for %s: %w", b.url, err)
	}

	for k, v := range b.headers {
		req.Header.Add(k, v)
	}

	logger := cLog.FromContext(ctx).With(tags.URLKey, b.url)
	logger.Debugw("requesting notifier auth token")

	res, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("unable to request token: %w", err)
	}

	defer func() {
		if err := res.Body.Close(); err != nil {
			logger.Warnw("unable to close token response body", tags.ErrorKey, err)
		}
	}()

	if res.StatusCode >= 300 || res.StatusCode < 200 {
		return "", fmt.Errorf("unexpected status code %d when retrieving token", res.StatusCode)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("unable to read token: %w", err)
	}

	if b.tokenPath == "" {
		return string(raw), nil
	}

	if value := gjson.GetBytes(raw, b.tokenPath); value.Exists() {
		return value.String(), nil
	}

	return "", fmt.Errorf("token response does not contain path %s", b.tokenPath)
}
