// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package scenario

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"

	"github.com/DataDog/chaos-seal/command"
	"github.com/DataDog/chaos-seal/executor"
	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/o11y/metrics"
	"github.com/DataDog/chaos-seal/o11y/metrics/noop"
	"github.com/DataDog/chaos-seal/types"
)

// Result is the outcome of an action: whether it succeeded, and the actions to run on cleanup
type Result struct {
	Success bool
	Cleanup []Action
}

// Succeeded returns a successful result
func Succeeded(cleanup ...Action) Result {
	return Result{Success: true, Cleanup: cleanup}
}

// Failed returns a failed result, still carrying the cleanup of what was done
func Failed(cleanup ...Action) Result {
	return Result{Success: false, Cleanup: cleanup}
}

// Action is a unit of work run by a step or queued for cleanup.
// An error means the action could not be performed at all, and counts as a failure.
type Action interface {
	// Name describes the action in logs
	Name() string
	Execute(ctx context.Context) (Result, error)
}

// Sleeper waits for the given duration, returning early with an error when the context is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Deps are the collaborators of scenarios and their actions
type Deps struct {
	Nodes    inventory.Nodes
	Pods     inventory.Pods
	Executor executor.Executor
	Metrics  metrics.Sink
	Rand     types.Rand
	Log      *zap.SugaredLogger

	// Commands runs kubectl, Kubeconfig being passed to it when set
	Commands   command.Factory
	Kubeconfig string

	// Client is used by clones, nil disabling them
	Client kubernetes.Interface

	Now   func() time.Time
	Sleep Sleeper
	// Getenv reads the variables identifying the engine itself
	Getenv func(string) string
}

// WithDefaults returns a copy of the deps, missing optional collaborators being set
func (d Deps) WithDefaults() Deps {
	if d.Rand == nil {
		d.Rand = types.NewRand(0)
	}

	if d.Log == nil {
		d.Log = zap.NewNop().Sugar()
	}

	if d.Metrics == nil {
		d.Metrics = noop.New(d.Log)
	}

	if d.Commands == nil {
		d.Commands = command.NewFactory(false)
	}

	if d.Now == nil {
		d.Now = time.Now
	}

	if d.Sleep == nil {
		d.Sleep = Sleep
	}

	if d.Getenv == nil {
		d.Getenv = os.Getenv
	}

	return d
}

// State is the phase of a scenario execution
type State int

const (
	StatePending State = iota
	StateRunning
	StateSucceeded
	StateFailed
	StateCleanup
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateRunning:
		return "Running"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	case StateCleanup:
		return "Cleanup"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}
