// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron"
	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/eventnotifier"
	notiftypes "github.com/DataDog/chaos-seal/eventnotifier/types"
	"github.com/DataDog/chaos-seal/history"
	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/policy"
	"github.com/DataDog/chaos-seal/scenario"
)

// ErrScenarioFailed ends a fail-fast run
var ErrScenarioFailed = errors.New("scenario failed")

// SleepStep is the longest uninterrupted wait of Sleep
const SleepStep = time.Second

// Sleep waits for d by steps of at most one second, returning as soon as the context is done
func Sleep(ctx context.Context, d time.Duration) error {
	for d > 0 {
		step := min(d, SleepStep)

		timer := time.NewTimer(step)
		select {
		case <-ctx.Done():
			timer.Stop()

			return ctx.Err()
		case <-timer.C:
		}

		d -= step
	}

	return ctx.Err()
}

// Options are the optional collaborators of a Runner
type Options struct {
	History   history.Store
	Notifiers []eventnotifier.Notifier
	// Runs overrides the runs budget of the policy when positive
	Runs int
	// Sleep waits between scenarios, Sleep being used when nil
	Sleep scenario.Sleeper
}

// Summary counts the scenarios executed by a run
type Summary struct {
	RunID    string
	Executed int
	Failed   int
}

// Runner executes the scenarios of a policy, pass after pass
type Runner struct {
	source policy.Source
	deps   scenario.Deps
	opts   Options
}

func New(source policy.Source, deps scenario.Deps, opts Options) *Runner {
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}

	return &Runner{
		source: source,
		deps:   deps.WithDefaults(),
		opts:   opts,
	}
}

// Run executes passes until the runs budget is spent, a fail-fast scenario fails or the context is done.
// A done context stops the run between two scenarios, never during one.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.New().String()}
	log := r.deps.Log.With(tags.RunIDKey, summary.RunID)

	var (
		current   *policy.Policy
		remaining = -1
	)

	for pass := 0; ; pass++ {
		if ctx.Err() != nil {
			return summary, nil
		}

		p, err := r.source.Read()

		switch {
		case err == nil:
			current = p
		case current == nil:
			return summary, fmt.Errorf("error reading the policy: %w", err)
		default:
			log.Warnw("error reading the policy, keeping the previous one", tags.ErrorKey, err)
		}

		if pass == 0 {
			remaining = r.budget(current)
		} else if err := r.waitSchedule(ctx, log, current); err != nil {
			return summary, nil
		}

		if r.deps.Nodes != nil {
			if err := r.deps.Nodes.Sync(ctx); err != nil {
				log.Warnw("error syncing the node inventory", tags.ErrorKey, err)
			}
		}

		done, err := r.pass(ctx, log, current, &remaining, &summary)
		if err != nil || done {
			return summary, err
		}
	}
}

func (r *Runner) budget(p *policy.Policy) int {
	if r.opts.Runs > 0 {
		return r.opts.Runs
	}

	if p.Config.RunStrategy.Runs != nil {
		return *p.Config.RunStrategy.Runs
	}

	return -1
}

// waitSchedule waits for the next tick of the policy schedule, if any
func (r *Runner) waitSchedule(ctx context.Context, log *zap.SugaredLogger, p *policy.Policy) error {
	if p.Config.RunStrategy.Schedule == "" {
		return nil
	}

	schedule, err := cron.ParseStandard(p.Config.RunStrategy.Schedule)
	if err != nil {
		log.Warnw("invalid schedule, running the next pass right away", tags.ErrorKey, err)

		return nil
	}

	now := r.deps.Now()
	next := schedule.Next(now)

	log.Infow("waiting for the next scheduled pass", "next", next)

	return r.opts.Sleep(ctx, next.Sub(now))
}

// pass runs every scenario once, in order or shuffled. It returns true when the run is over.
func (r *Runner) pass(ctx context.Context, log *zap.SugaredLogger, p *policy.Policy, remaining *int, summary *Summary) (bool, error) {
	scenarios := make([]*scenario.Scenario, 0, len(p.Scenarios))

	for _, spec := range p.Scenarios {
		s, err := scenario.New(spec, r.deps)
		if err != nil {
			return true, err
		}

		scenarios = append(scenarios, s)
	}

	if len(scenarios) == 0 {
		return true, errors.New("the policy has no scenario")
	}

	rs := p.Config.RunStrategy
	if rs.Strategy == policy.StrategyRandom {
		r.deps.Rand.Shuffle(len(scenarios), func(i, j int) {
			scenarios[i], scenarios[j] = scenarios[j], scenarios[i]
		})
	}

	for _, s := range scenarios {
		if ctx.Err() != nil {
			return true, nil
		}

		// a stop request never interrupts a scenario
		outcome := s.Execute(context.WithoutCancel(ctx))
		summary.Executed++

		r.report(ctx, log, summary.RunID, outcome)

		if *remaining > 0 {
			*remaining--
		}

		if !outcome.Success {
			summary.Failed++

			if p.Config.ExitStrategy.Strategy == policy.ExitStrategyFailFast {
				log.Errorw("scenario failed, stopping the run", tags.ScenarioKey, outcome.Scenario, tags.ErrorKey, outcome.Err)

				return true, fmt.Errorf("%w: %s", ErrScenarioFailed, outcome.Scenario)
			}

			log.Warnw("scenario failed, continuing", tags.ScenarioKey, outcome.Scenario, tags.ErrorKey, outcome.Err)
		}

		if *remaining == 0 {
			log.Infow("no run left", tags.RunsKey, summary.Executed)

			return true, nil
		}

		sleep := rs.MinSleep()
		if spread := rs.MaxSleep() - rs.MinSleep(); spread > 0 {
			sleep += time.Duration(r.deps.Rand.Float64() * float64(spread))
		}

		log.Infow("sleeping before the next scenario", tags.SleepKey, sleep.String(), tags.RemainingKey, *remaining)

		if err := r.opts.Sleep(ctx, sleep); err != nil {
			return true, nil
		}
	}

	return false, nil
}

// report records the outcome and notifies failures
func (r *Runner) report(ctx context.Context, log *zap.SugaredLogger, runID string, outcome scenario.Outcome) {
	errMsg := ""
	if outcome.Err != nil {
		errMsg = outcome.Err.Error()
	}

	if r.opts.History != nil {
		err := r.opts.History.Save(context.WithoutCancel(ctx), history.Record{
			RunID:     runID,
			Scenario:  outcome.Scenario,
			Success:   outcome.Success,
			StartedAt: outcome.StartedAt,
			Duration:  outcome.Duration,
			Error:     errMsg,
		})
		if err != nil {
			log.Errorw("error recording the scenario outcome", tags.ErrorKey, err)
		}
	}

	if !outcome.Success && len(r.opts.Notifiers) > 0 {
		eventnotifier.NotifyAll(r.opts.Notifiers, notiftypes.Report{
			RunID:     runID,
			Scenario:  outcome.Scenario,
			Success:   outcome.Success,
			StartedAt: outcome.StartedAt,
			Duration:  outcome.Duration,
			Error:     errMsg,
		}, log)
	}
}
