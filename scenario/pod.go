// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package scenario

import (
	"context"
	"fmt"
	"sort"

	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/policy"
	"github.com/DataDog/chaos-seal/types"
)

// podActions is the closed set of actions a pod step can run
var podActions = map[policy.ActionKind]func(context.Context, *podStep, policy.PodActionSpec, []types.Pod) (Result, error){
	policy.ActionKindKill:          killPods,
	policy.ActionKindWait:          waitPods,
	policy.ActionKindCheckPodCount: checkPodCount,
	policy.ActionKindCheckPodState: checkPodState,
	policy.ActionKindStopHost:      stopHosts,
}

// podStep matches pods, filters them and runs its actions on the remaining ones
type podStep struct {
	spec policy.PodAction
	deps Deps
}

func newPodStep(spec policy.PodAction, deps Deps) (*podStep, error) {
	for _, action := range spec.Actions {
		if _, ok := podActions[action.Kind()]; !ok {
			return nil, fmt.Errorf("%w %q for pods", policy.ErrUnknownAction, action.Kind())
		}
	}

	return &podStep{spec: spec, deps: deps}, nil
}

func (s *podStep) Name() string {
	return string(policy.StepKindPodAction)
}

func (s *podStep) Execute(ctx context.Context) (Result, error) {
	pods, err := MatchPods(ctx, s.deps, s.spec.Matches)
	if err != nil {
		return Failed(), err
	}

	s.deps.Log.Infow("pods matched", tags.CountKey, len(pods))

	if len(pods) == 0 {
		return Succeeded(), nil
	}

	pods = FilterItems(s.deps, s.spec.Filters, pods)
	s.deps.Log.Infow("pods filtered", tags.CountKey, len(pods))

	if len(pods) == 0 {
		return Succeeded(), nil
	}

	return runActions(ctx, s.deps, s, s.spec.Actions, pods, podActions)
}

// killPods kills each pod with the kill probability, one draw being made per pod
func killPods(ctx context.Context, step *podStep, spec policy.PodActionSpec, pods []types.Pod) (Result, error) {
	result := Succeeded()
	probability := spec.Kill.KillProbability()
	signal := types.SignalFromForce(spec.Kill.IsForced())

	for _, pod := range pods {
		if draw := step.deps.Rand.Float64(); probability < draw {
			step.deps.Log.Debugw("pod spared", tags.PodKey, pod.String(), "draw", draw)
			continue
		}

		step.deps.Log.Infow("killing pod", tags.PodKey, pod.String(), tags.SignalKey, signal)

		if err := step.deps.Executor.KillPod(ctx, pod, step.deps.Nodes, signal); err != nil {
			step.deps.Log.Errorw("error killing pod", tags.PodKey, pod.String(), tags.ErrorKey, err)

			if err := step.deps.Metrics.MetricPodKillFailed(pod); err != nil {
				step.deps.Log.Errorw("error sending pod kill failed metric", tags.ErrorKey, err)
			}

			result.Success = false

			continue
		}

		if err := step.deps.Metrics.MetricPodKilled(pod); err != nil {
			step.deps.Log.Errorw("error sending pod killed metric", tags.ErrorKey, err)
		}
	}

	return result, nil
}

func waitPods(ctx context.Context, step *podStep, spec policy.PodActionSpec, _ []types.Pod) (Result, error) {
	return waitOnce(ctx, step.deps, *spec.Wait)
}

func checkPodCount(_ context.Context, step *podStep, spec policy.PodActionSpec, pods []types.Pod) (Result, error) {
	if len(pods) != spec.CheckPodCount.Count {
		step.deps.Log.Warnw("unexpected pod count", "expected", spec.CheckPodCount.Count, tags.CountKey, len(pods))

		return Failed(), nil
	}

	return Succeeded(), nil
}

func checkPodState(_ context.Context, step *podStep, spec policy.PodActionSpec, pods []types.Pod) (Result, error) {
	criterion := &policy.MatchCriterion{Name: "state", Value: spec.CheckPodState.State}
	result := Succeeded()

	for _, pod := range pods {
		if !MatchProperty(pod, criterion) {
			step.deps.Log.Warnw("unexpected pod state", tags.PodKey, pod.String(), "expected", spec.CheckPodState.State)

			result.Success = false
		}
	}

	return result, nil
}

// stopHosts stops the nodes hosting the pods, except the engine's own.
// A host IP unknown to the inventory fails the whole action.
func stopHosts(ctx context.Context, step *podStep, spec policy.PodActionSpec, pods []types.Pod) (Result, error) {
	if err := step.deps.Nodes.Sync(ctx); err != nil {
		step.deps.Log.Warnw("error syncing the node inventory", tags.ErrorKey, err)
	}

	ips := map[string]struct{}{}
	for _, pod := range pods {
		ips[pod.HostIP] = struct{}{}
	}

	hostIPs := make([]string, 0, len(ips))
	for ip := range ips {
		hostIPs = append(hostIPs, ip)
	}

	sort.Strings(hostIPs)

	result := Succeeded()

	for _, ip := range hostIPs {
		host, found := step.deps.Nodes.GetNodeByIP(ip)
		if !found {
			step.deps.Log.Warnw("no node found for host ip", tags.HostKey, ip)

			result.Success = false

			return result, nil
		}

		if len(dontSelfDestruct(step.deps, []types.Node{host})) == 0 {
			continue
		}

		step.deps.Log.Infow("stopping host", tags.NodeKey, host.String())

		if err := step.deps.Nodes.Driver().Stop(ctx, host); err != nil {
			step.deps.Log.Errorw("error stopping host", tags.NodeKey, host.String(), tags.ErrorKey, err)

			if err := step.deps.Metrics.MetricNodeStopFailed(host); err != nil {
				step.deps.Log.Errorw("error sending node stop failed metric", tags.ErrorKey, err)
			}

			result.Success = false

			continue
		}

		if err := step.deps.Metrics.MetricNodeStopped(host); err != nil {
			step.deps.Log.Errorw("error sending node stopped metric", tags.ErrorKey, err)
		}

		if spec.StopHost.ShouldAutoRestart() {
			result.Cleanup = append(result.Cleanup, &startHost{node: host, deps: step.deps})
		}
	}

	return result, nil
}

// startHost starts a single node
type startHost struct {
	node types.Node
	deps Deps
}

func (s *startHost) Name() string {
	return "startHost"
}

func (s *startHost) Execute(ctx context.Context) (Result, error) {
	s.deps.Log.Infow("starting host", tags.NodeKey, s.node.String())

	if err := s.deps.Nodes.Driver().Start(ctx, s.node); err != nil {
		return Failed(), fmt.Errorf("error starting host %s: %w", s.node.IP, err)
	}

	return Succeeded(), nil
}
