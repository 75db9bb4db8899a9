// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package runtime

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/command"
	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/types"
)

// ContainerKiller signals containers through their runtime
type ContainerKiller interface {
	Kill(ctx context.Context, containerID string, signal types.Signal) error
}

// Executor acts on the host the engine runs on, usually as a daemonset: containers are signaled
// through the local runtime and commands run locally. Other hosts are refused.
type Executor struct {
	hostIP string
	killer ContainerKiller
	runner command.Factory
	rand   types.Rand
	log    *zap.SugaredLogger
}

// New runtime executor for the host having the given IP
func New(hostIP string, killer ContainerKiller, runner command.Factory, rand types.Rand, log *zap.SugaredLogger) *Executor {
	return &Executor{
		hostIP: hostIP,
		killer: killer,
		runner: runner,
		rand:   rand,
		log:    log,
	}
}

func (e *Executor) isLocal(ips ...string) bool {
	if e.hostIP == "" {
		return false
	}

	for _, ip := range ips {
		if ip == e.hostIP {
			return true
		}
	}

	return false
}

// Execute runs cmd locally for the node matching the host, other nodes get a failed result
func (e *Executor) Execute(ctx context.Context, cmd string, nodes []types.Node) map[string]types.ExecResult {
	results := make(map[string]types.ExecResult, len(nodes))

	for _, node := range nodes {
		if !e.isLocal(node.IP, node.ExtIP) {
			results[node.IP] = types.ExecResult{RetCode: 1, Error: fmt.Sprintf("node %s is not the local host %s", node.IP, e.hostIP)}

			continue
		}

		c := e.runner.NewCmd(ctx, "sh", []string{"-c", cmd}, nil)

		e.log.Debugw("executing local command", tags.CommandKey, c.String())

		res := types.ExecResult{}
		if err := c.Run(); err != nil {
			res.RetCode, res.Error = 1, err.Error()
		} else {
			res.RetCode = c.ExitCode()
		}

		res.Stdout, res.Stderr = c.Stdout(), c.Stderr()
		results[node.IP] = res
	}

	return results
}

// KillPod signals one of the pod's containers picked at random, the pod must run on the local host
func (e *Executor) KillPod(ctx context.Context, pod types.Pod, _ inventory.Nodes, signal types.Signal) error {
	if !e.isLocal(pod.HostIP) {
		return fmt.Errorf("pod %s/%s runs on %s, not on the local host %s", pod.Namespace, pod.Name, pod.HostIP, e.hostIP)
	}

	if len(pod.ContainerIDs) == 0 {
		return fmt.Errorf("pod %s/%s has no container", pod.Namespace, pod.Name)
	}

	id := pod.ContainerIDs[e.rand.Intn(len(pod.ContainerIDs))]

	e.log.Debugw("signaling container", tags.PodKey, pod.Name, tags.ContainerKey, id, tags.SignalKey, signal)

	return e.killer.Kill(ctx, id, signal)
}
