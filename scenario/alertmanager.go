// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package scenario

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/policy"
)

const (
	// silenceDuration bounds a silence in case its unmute never runs
	silenceDuration  = 15 * time.Minute
	silenceCreatedBy = "chaos-seal"
	silenceComment   = "silence all alerts"
)

type silenceMatcher struct {
	IsRegex bool   `json:"isRegex"`
	Name    string `json:"name"`
	Value   string `json:"value"`
}

type silence struct {
	Comment   string           `json:"comment"`
	CreatedBy string           `json:"createdBy"`
	StartsAt  time.Time        `json:"startsAt"`
	EndsAt    time.Time        `json:"endsAt"`
	Matchers  []silenceMatcher `json:"matchers"`
}

// alertmanagerStep silences every alert of its targets
type alertmanagerStep struct {
	spec policy.Alertmanager
	deps Deps
}

func (s *alertmanagerStep) Name() string {
	return string(policy.StepKindAlertmanager)
}

func (s *alertmanagerStep) Execute(ctx context.Context) (Result, error) {
	client := alertmanagerClient(s.spec.Proxies)
	result := Succeeded()

	for _, action := range s.spec.Actions {
		if action.Mute == nil {
			continue
		}

		for _, target := range s.spec.Targets {
			base := strings.TrimRight(target.URL, "/")

			id, err := s.mute(ctx, client, base)
			if err != nil {
				s.deps.Log.Errorw("error muting alertmanager", tags.URLKey, base, tags.ErrorKey, err)

				result.Success = false

				continue
			}

			s.deps.Log.Infow("alertmanager muted", tags.URLKey, base, "silenceID", id)

			if action.Mute.ShouldAutoUnmute() {
				result.Cleanup = append(result.Cleanup, &unmuteAlertmanager{url: base, silenceID: id, client: client, deps: s.deps})
			}
		}
	}

	return result, nil
}

// mute creates a silence matching every alert and returns its id
func (s *alertmanagerStep) mute(ctx context.Context, client *http.Client, base string) (string, error) {
	now := s.deps.Now()

	payload, err := json.Marshal(silence{
		Comment:   silenceComment,
		CreatedBy: silenceCreatedBy,
		StartsAt:  now,
		EndsAt:    now.Add(silenceDuration),
		Matchers:  []silenceMatcher{{IsRegex: true, Name: "alertname", Value: ".+"}},
	})
	if err != nil {
		return "", fmt.Errorf("error encoding silence: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/silences", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", silenceCreatedBy)

	body, err := doAlertmanager(client, req)
	if err != nil {
		return "", err
	}

	id := gjson.GetBytes(body, "silenceID")
	if !id.Exists() || id.String() == "" {
		return "", fmt.Errorf("no silenceID in response: %s", body)
	}

	return id.String(), nil
}

// unmuteAlertmanager expires a silence
type unmuteAlertmanager struct {
	url       string
	silenceID string
	client    *http.Client
	deps      Deps
}

func (u *unmuteAlertmanager) Name() string {
	return "unmute"
}

func (u *unmuteAlertmanager) Execute(ctx context.Context) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u.url+"/silence/"+u.silenceID, nil)
	if err != nil {
		return Failed(), err
	}

	if _, err := doAlertmanager(u.client, req); err != nil {
		return Failed(), fmt.Errorf("error unmuting alertmanager %s: %w", u.url, err)
	}

	u.deps.Log.Infow("alertmanager unmuted", tags.URLKey, u.url, "silenceID", u.silenceID)

	return Succeeded(), nil
}

func doAlertmanager(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, body)
	}

	return body, nil
}

// alertmanagerClient picks the proxy by request scheme, and doesn't verify certificates
func alertmanagerClient(proxies policy.Proxies) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	transport.Proxy = func(req *http.Request) (*url.URL, error) {
		proxy := proxies.HTTP
		if req.URL.Scheme == "https" {
			proxy = proxies.HTTPS
		}

		if proxy == "" {
			return nil, nil
		}

		return url.Parse(proxy)
	}

	return &http.Client{Transport: transport, Timeout: 30 * time.Second}
}
