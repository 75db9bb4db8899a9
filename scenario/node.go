// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package scenario

import (
	"context"
	"fmt"

	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/policy"
	"github.com/DataDog/chaos-seal/types"
)

// nodeActions is the closed set of actions a node step can run
var nodeActions = map[policy.ActionKind]func(context.Context, *nodeStep, policy.NodeActionSpec, []types.Node) (Result, error){
	policy.ActionKindStart:   startNodes,
	policy.ActionKindStop:    stopNodes,
	policy.ActionKindWait:    waitNodes,
	policy.ActionKindExecute: executeOnNodes,
}

// nodeStep matches nodes, filters them and runs its actions on the remaining ones
type nodeStep struct {
	spec policy.NodeAction
	deps Deps
}

func newNodeStep(spec policy.NodeAction, deps Deps) (*nodeStep, error) {
	for _, action := range spec.Actions {
		if _, ok := nodeActions[action.Kind()]; !ok {
			return nil, fmt.Errorf("%w %q for nodes", policy.ErrUnknownAction, action.Kind())
		}
	}

	return &nodeStep{spec: spec, deps: deps}, nil
}

func (s *nodeStep) Name() string {
	return string(policy.StepKindNodeAction)
}

func (s *nodeStep) Execute(ctx context.Context) (Result, error) {
	nodes := MatchNodes(ctx, s.deps, s.spec.Matches)
	s.deps.Log.Infow("nodes matched", tags.CountKey, len(nodes))

	if len(nodes) == 0 {
		return Succeeded(), nil
	}

	nodes = FilterItems(s.deps, s.spec.Filters, nodes)
	s.deps.Log.Infow("nodes filtered", tags.CountKey, len(nodes))

	if len(nodes) == 0 {
		return Succeeded(), nil
	}

	return runActions(ctx, s.deps, s, s.spec.Actions, nodes, nodeActions)
}

// actionSpec is implemented by node and pod action specs
type actionSpec interface {
	Kind() policy.ActionKind
}

// runActions runs every action on the items, the result being the conjunction of the action results
func runActions[S actionSpec, T any, St any](ctx context.Context, deps Deps, step St, specs []S, items []T,
	handlers map[policy.ActionKind]func(context.Context, St, S, []T) (Result, error),
) (Result, error) {
	result := Succeeded()

	for _, spec := range specs {
		handler := handlers[spec.Kind()]

		res, err := handler(ctx, step, spec, items)
		if err != nil {
			deps.Log.Errorw("action failed", tags.ActionKey, spec.Kind(), tags.ErrorKey, err)

			res.Success = false
		}

		result.Success = result.Success && res.Success
		result.Cleanup = append(result.Cleanup, res.Cleanup...)
	}

	return result, nil
}

func startNodes(ctx context.Context, step *nodeStep, _ policy.NodeActionSpec, nodes []types.Node) (Result, error) {
	result := Succeeded()

	for _, node := range nodes {
		step.deps.Log.Infow("starting node", tags.NodeKey, node.String())

		if err := step.deps.Nodes.Driver().Start(ctx, node); err != nil {
			step.deps.Log.Errorw("error starting node", tags.NodeKey, node.String(), tags.ErrorKey, err)

			result.Success = false
		}
	}

	return result, nil
}

func stopNodes(ctx context.Context, step *nodeStep, spec policy.NodeActionSpec, nodes []types.Node) (Result, error) {
	result := Succeeded()
	stopped := 0

	for _, node := range nodes {
		step.deps.Log.Infow("stopping node", tags.NodeKey, node.String(), "force", spec.Stop.Force)

		if err := step.deps.Nodes.Driver().Stop(ctx, node); err != nil {
			step.deps.Log.Errorw("error stopping node", tags.NodeKey, node.String(), tags.ErrorKey, err)

			if err := step.deps.Metrics.MetricNodeStopFailed(node); err != nil {
				step.deps.Log.Errorw("error sending node stop failed metric", tags.ErrorKey, err)
			}

			result.Success = false

			continue
		}

		stopped++

		if err := step.deps.Metrics.MetricNodeStopped(node); err != nil {
			step.deps.Log.Errorw("error sending node stopped metric", tags.ErrorKey, err)
		}
	}

	// a single restart covers every stopped node: it matches the same nodes, restricted to the ones down
	if stopped > 0 && spec.Stop.ShouldAutoRestart() {
		restart := &nodeStep{
			deps: step.deps,
			spec: policy.NodeAction{
				Matches: step.spec.Matches,
				Filters: []policy.Filter{{Property: &policy.MatchCriterion{Name: "state", Value: types.NodeStateDown.String()}}},
				Actions: []policy.NodeActionSpec{{Start: &policy.Start{}}},
			},
		}

		result.Cleanup = append(result.Cleanup, restart)
	}

	return result, nil
}

func waitNodes(ctx context.Context, step *nodeStep, spec policy.NodeActionSpec, _ []types.Node) (Result, error) {
	return waitOnce(ctx, step.deps, *spec.Wait)
}

func executeOnNodes(ctx context.Context, step *nodeStep, spec policy.NodeActionSpec, nodes []types.Node) (Result, error) {
	result := Succeeded()
	cmd := spec.Execute.Command()

	for _, node := range nodes {
		step.deps.Log.Infow("executing command", tags.CommandKey, cmd, tags.NodeKey, node.String())

		for host, res := range step.deps.Executor.Execute(ctx, cmd, []types.Node{node}) {
			if !res.Failed() {
				continue
			}

			step.deps.Log.Warnw("command failed", tags.HostKey, host, tags.RetCodeKey, res.RetCode, tags.ErrorKey, res.Error, "stderr", res.Stderr)

			if err := step.deps.Metrics.MetricExecuteFailed(node); err != nil {
				step.deps.Log.Errorw("error sending execute failed metric", tags.ErrorKey, err)
			}

			result.Success = false
		}
	}

	return result, nil
}

// waitOnce sleeps a single time, whatever the number of items
func waitOnce(ctx context.Context, deps Deps, wait policy.Wait) (Result, error) {
	deps.Log.Infow("waiting", tags.SleepKey, wait.Duration().String())

	if err := deps.Sleep(ctx, wait.Duration()); err != nil {
		return Failed(), fmt.Errorf("wait interrupted: %w", err)
	}

	return Succeeded(), nil
}
