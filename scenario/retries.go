// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff"

	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/policy"
)

var errAttemptFailed = errors.New("attempt failed")

// retrying repeats an action until it succeeds, either a number of times or until a timeout.
// The cleanups of every attempt are kept.
type retrying struct {
	action  Action
	retries policy.Retries
	deps    Deps
}

func (r *retrying) Name() string {
	return r.action.Name()
}

func (r *retrying) Execute(ctx context.Context) (Result, error) {
	switch {
	case r.retries.Count != nil:
		return r.count(ctx, *r.retries.Count)
	case r.retries.Timeout != nil:
		return r.timeout(ctx, *r.retries.Timeout)
	default:
		return r.action.Execute(ctx)
	}
}

// attempt runs the action once, an error being turned into a failure
func (r *retrying) attempt(ctx context.Context, n int, result *Result) bool {
	res, err := r.action.Execute(ctx)
	result.Cleanup = append(result.Cleanup, res.Cleanup...)

	if err != nil {
		r.deps.Log.Warnw("attempt failed", tags.StepKey, r.action.Name(), tags.AttemptKey, n, tags.ErrorKey, err)

		return false
	}

	if !res.Success {
		r.deps.Log.Warnw("attempt failed", tags.StepKey, r.action.Name(), tags.AttemptKey, n)
	}

	return res.Success
}

func (r *retrying) count(ctx context.Context, spec policy.RetriesCount) (Result, error) {
	result := Failed()

	for n := 1; n <= spec.Count; n++ {
		if r.attempt(ctx, n, &result) {
			result.Success = true

			return result, nil
		}

		if n == spec.Count {
			break
		}

		if err := r.deps.Sleep(ctx, policy.Seconds(spec.Sleep)); err != nil {
			return result, fmt.Errorf("retries interrupted: %w", err)
		}
	}

	r.deps.Log.Errorw("no more retries allowed", tags.StepKey, r.action.Name(), tags.CountKey, spec.Count)

	return result, nil
}

func (r *retrying) timeout(ctx context.Context, spec policy.RetriesTimeout) (Result, error) {
	result := Failed()
	n := 0

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.Seconds(spec.Sleep)
	b.MaxInterval = policy.Seconds(spec.Sleep)
	b.Multiplier = 1
	b.RandomizationFactor = 0
	b.MaxElapsedTime = policy.Seconds(spec.Timeout)
	b.Reset()

	err := backoff.Retry(func() error {
		n++

		if r.attempt(ctx, n, &result) {
			return nil
		}

		return errAttemptFailed
	}, backoff.WithContext(b, ctx))
	if err == nil {
		result.Success = true

		return result, nil
	}

	if ctx.Err() != nil {
		return result, fmt.Errorf("retries interrupted: %w", ctx.Err())
	}

	r.deps.Log.Errorw("retries timed out", tags.StepKey, r.action.Name(), tags.CountKey, n, tags.DurationKey, b.MaxElapsedTime.String())

	return result, nil
}
