// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package kubernetes

import (
	"context"

	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/types"
)

// Executor kills pods by deleting them. The signal is not used: the grace period decides how they stop
type Executor struct {
	pods        inventory.Pods
	gracePeriod int64
	log         *zap.SugaredLogger
}

// New Kubernetes executor
func New(pods inventory.Pods, gracePeriodSeconds int64, log *zap.SugaredLogger) *Executor {
	return &Executor{
		pods:        pods,
		gracePeriod: gracePeriodSeconds,
		log:         log,
	}
}

// Execute can't run commands on nodes, every node gets a failed result
func (e *Executor) Execute(_ context.Context, cmd string, nodes []types.Node) map[string]types.ExecResult {
	e.log.Errorw("NOOP: can't execute arbitrary commands in kubernetes mode", tags.CommandKey, cmd)

	results := make(map[string]types.ExecResult, len(nodes))
	for _, node := range nodes {
		results[node.IP] = types.ExecResult{RetCode: 1, Error: "command execution is not supported by the kubernetes executor"}
	}

	return results
}

// KillPod deletes the pod
func (e *Executor) KillPod(ctx context.Context, pod types.Pod, _ inventory.Nodes, signal types.Signal) error {
	e.log.Debugw("deleting pod", tags.PodKey, pod.Name, tags.NamespaceKey, pod.Namespace, tags.SignalKey, signal)

	return e.pods.DeletePods(ctx, []types.Pod{pod}, e.gracePeriod)
}
