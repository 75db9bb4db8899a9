// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/policy"
)

// ErrStepFailed is the outcome error of a scenario whose step didn't succeed
var ErrStepFailed = errors.New("step failed")

// Outcome describes a scenario execution
type Outcome struct {
	Scenario  string
	Success   bool
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Scenario runs its steps in order, then its cleanup
type Scenario struct {
	name  string
	steps []Action
	deps  Deps
	state State
}

// New resolves every step of the scenario, an unknown action failing the whole scenario
func New(spec policy.Scenario, deps Deps) (*Scenario, error) {
	deps = deps.WithDefaults()
	s := &Scenario{
		name: spec.Name,
		deps: deps,
	}

	var errs *multierror.Error

	for i, step := range spec.Steps {
		action, err := NewStepAction(step, spec.Name, deps)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("step %d: %w", i, err))

			continue
		}

		s.steps = append(s.steps, action)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", spec.Name, err)
	}

	return s, nil
}

func (s *Scenario) Name() string {
	return s.name
}

// State returns the phase the scenario is in
func (s *Scenario) State() State {
	return s.state
}

// Execute runs the steps until one fails, then every queued cleanup once, in the order it was queued
func (s *Scenario) Execute(ctx context.Context) Outcome {
	ctx, span := otel.Tracer("").Start(ctx, "scenario", trace.WithAttributes(attribute.String(tags.ScenarioKey, s.name)))
	defer span.End()

	log := s.deps.Log.With(tags.ScenarioKey, s.name)
	outcome := Outcome{Scenario: s.name, Success: true, StartedAt: s.deps.Now()}
	cleanup := []Action{}

	s.state = StateRunning
	log.Infow("starting scenario", tags.ItemsKey, len(s.steps))

	for i, step := range s.steps {
		res, err := s.runStep(ctx, i, step)
		cleanup = append(cleanup, res.Cleanup...)

		if err != nil || !res.Success {
			outcome.Success = false
			outcome.Err = fmt.Errorf("%w: step %d (%s)", ErrStepFailed, i, step.Name())

			if err != nil {
				outcome.Err = fmt.Errorf("%w: %w", outcome.Err, err)
			}

			log.Errorw("step failed, skipping the remaining steps", tags.StepKey, i, tags.ActionKey, step.Name(), tags.ErrorKey, err)

			break
		}
	}

	outcome.Duration = s.deps.Now().Sub(outcome.StartedAt)

	if outcome.Success {
		s.state = StateSucceeded
	} else {
		s.state = StateFailed

		span.SetStatus(codes.Error, outcome.Err.Error())
	}

	if err := s.deps.Metrics.MetricScenarioResult(s.name, outcome.Success); err != nil {
		log.Errorw("error sending scenario result metric", tags.ErrorKey, err)
	}

	if err := s.deps.Metrics.MetricScenarioDuration(s.name, outcome.Duration); err != nil {
		log.Errorw("error sending scenario duration metric", tags.ErrorKey, err)
	}

	s.state = StateCleanup
	// cleanup still runs when the engine is being stopped
	s.cleanup(context.WithoutCancel(ctx), log, cleanup)
	s.state = StateDone

	log.Infow("scenario done", tags.SucceedKey, outcome.Success, tags.DurationKey, outcome.Duration.String())

	return outcome
}

func (s *Scenario) runStep(ctx context.Context, i int, step Action) (Result, error) {
	ctx, span := otel.Tracer("").Start(ctx, "step", trace.WithAttributes(
		attribute.Int(tags.StepKey, i),
		attribute.String(tags.ActionKey, step.Name()),
	))
	defer span.End()

	s.deps.Log.Infow("running step", tags.ScenarioKey, s.name, tags.StepKey, i, tags.ActionKey, step.Name())

	res, err := step.Execute(ctx)
	if err != nil {
		span.RecordError(err)
	}

	span.SetAttributes(attribute.Bool(tags.SucceedKey, err == nil && res.Success))

	return res, err
}

// cleanup runs every action exactly once: failures are logged and never retried
func (s *Scenario) cleanup(ctx context.Context, log *zap.SugaredLogger, actions []Action) {
	if len(actions) == 0 {
		return
	}

	log.Infow("cleaning up", tags.ItemsKey, len(actions))

	for i, action := range actions {
		res, err := action.Execute(ctx)

		switch {
		case err != nil:
			log.Errorw("cleanup action failed", tags.StepKey, i, tags.ActionKey, action.Name(), tags.ErrorKey, err)
		case !res.Success:
			log.Errorw("cleanup action failed", tags.StepKey, i, tags.ActionKey, action.Name())
		}
	}
}
