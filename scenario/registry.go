// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package scenario

import (
	"context"
	"fmt"

	"github.com/DataDog/chaos-seal/policy"
)

// stepBuilder turns a step of the given scenario into an action
type stepBuilder func(step policy.Step, scenario string, deps Deps) (Action, error)

// steps is the closed registry of step kinds: a kind missing here can't be loaded
var steps = map[policy.StepKind]stepBuilder{
	policy.StepKindNodeAction: func(step policy.Step, _ string, deps Deps) (Action, error) {
		return newNodeStep(*step.NodeAction, deps)
	},
	policy.StepKindPodAction: func(step policy.Step, _ string, deps Deps) (Action, error) {
		return newPodStep(*step.PodAction, deps)
	},
	policy.StepKindKubectl: func(step policy.Step, _ string, deps Deps) (Action, error) {
		return &kubectlStep{spec: *step.Kubectl, deps: deps}, nil
	},
	policy.StepKindWait: func(step policy.Step, _ string, deps Deps) (Action, error) {
		return &waitStep{spec: *step.Wait, deps: deps}, nil
	},
	policy.StepKindProbeHTTP: func(step policy.Step, _ string, deps Deps) (Action, error) {
		return &probeStep{spec: *step.ProbeHTTP, deps: deps}, nil
	},
	policy.StepKindClone: func(step policy.Step, scenario string, deps Deps) (Action, error) {
		return &cloneStep{spec: *step.Clone, scenario: scenario, deps: deps}, nil
	},
	policy.StepKindAlertmanager: func(step policy.Step, _ string, deps Deps) (Action, error) {
		return &alertmanagerStep{spec: *step.Alertmanager, deps: deps}, nil
	},
}

// NewStepAction returns the action running the step, wrapped with its retries
func NewStepAction(step policy.Step, scenario string, deps Deps) (Action, error) {
	deps = deps.WithDefaults()
	kind := step.Kind()

	build, ok := steps[kind]
	if !ok {
		return nil, fmt.Errorf("%w %q", policy.ErrUnknownAction, kind)
	}

	action, err := build(step, scenario, deps)
	if err != nil {
		return nil, err
	}

	if step.Retries == nil {
		return action, nil
	}

	return &retrying{action: action, retries: *step.Retries, deps: deps}, nil
}

// waitStep sleeps between two steps
type waitStep struct {
	spec policy.Wait
	deps Deps
}

func (s *waitStep) Name() string {
	return string(policy.StepKindWait)
}

func (s *waitStep) Execute(ctx context.Context) (Result, error) {
	return waitOnce(ctx, s.deps, s.spec)
}
