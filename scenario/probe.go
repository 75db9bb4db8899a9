// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package scenario

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/avast/retry-go"

	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/policy"
)

// probeStep sends HTTP requests and checks their status code
type probeStep struct {
	spec policy.ProbeHTTP
	deps Deps
}

func (s *probeStep) Name() string {
	return string(policy.StepKindProbeHTTP)
}

// URL resolves the probed url, a service target being reached through its cluster IP
func (s *probeStep) URL(ctx context.Context) (string, error) {
	endpoint := strings.TrimLeft(s.spec.Endpoint, "/")

	if svc := s.spec.Target.Service; svc != nil {
		if s.deps.Pods == nil {
			return "", fmt.Errorf("no pod inventory to resolve service %s", svc.Name)
		}

		namespace := svc.Namespace
		if namespace == "" {
			namespace = inventory.DefaultNamespace
		}

		service, err := s.deps.Pods.GetService(ctx, namespace, svc.Name)
		if err != nil {
			return "", fmt.Errorf("error getting service %s/%s: %w", namespace, svc.Name, err)
		}

		port, protocol := svc.Port, svc.Protocol
		if port == 0 {
			port = policy.DefaultProbePort
		}

		if protocol == "" {
			protocol = policy.DefaultProbeProtocol
		}

		return fmt.Sprintf("%s://%s:%d/%s", protocol, service.ClusterIP, port, endpoint), nil
	}

	return strings.TrimRight(s.spec.Target.URL, "/") + "/" + endpoint, nil
}

func (s *probeStep) client() (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: s.spec.Insecure} //nolint:gosec

	if s.spec.Proxy != "" {
		proxy, err := url.Parse(s.spec.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %s: %w", s.spec.Proxy, err)
		}

		transport.Proxy = http.ProxyURL(proxy)
	}

	return &http.Client{Transport: transport, Timeout: s.spec.RequestTimeout()}, nil
}

func (s *probeStep) Execute(ctx context.Context) (Result, error) {
	target, err := s.URL(ctx)
	if err != nil {
		return Failed(), err
	}

	client, err := s.client()
	if err != nil {
		return Failed(), err
	}

	for i := 0; i < s.spec.Requests(); i++ {
		err := retry.Do(
			func() error {
				return s.call(ctx, client, target)
			},
			retry.Attempts(uint(s.spec.Attempts())),
			retry.Delay(s.spec.RetryDelay()),
			retry.DelayType(retry.FixedDelay),
			retry.LastErrorOnly(true),
			retry.Context(ctx),
			retry.OnRetry(func(n uint, err error) {
				s.deps.Log.Warnw("probe failed, retrying", tags.URLKey, target, tags.AttemptKey, n+1, tags.ErrorKey, err)
			}),
		)
		if err != nil {
			s.deps.Log.Errorw("probe failed, no more retries allowed", tags.URLKey, target, tags.ErrorKey, err)

			return Failed(), nil
		}
	}

	return Succeeded(), nil
}

func (s *probeStep) call(ctx context.Context, client *http.Client, target string) error {
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(s.spec.HTTPMethod()), target, strings.NewReader(s.spec.Body))
	if err != nil {
		return retry.Unrecoverable(err)
	}

	for _, header := range s.spec.Headers {
		req.Header.Set(header.Name, header.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close() //nolint:errcheck

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != s.spec.ExpectedCode() {
		return fmt.Errorf("expected status code %d, got %d: %s", s.spec.ExpectedCode(), resp.StatusCode, body)
	}

	s.deps.Log.Infow("probe succeeded", tags.URLKey, target, tags.StatusKey, resp.StatusCode)

	return nil
}
