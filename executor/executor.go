// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package executor

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/command"
	"github.com/DataDog/chaos-seal/container"
	"github.com/DataDog/chaos-seal/executor/kubernetes"
	"github.com/DataDog/chaos-seal/executor/runtime"
	"github.com/DataDog/chaos-seal/executor/ssh"
	etypes "github.com/DataDog/chaos-seal/executor/types"
	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/types"
)

// Executor runs commands on nodes and kills pods
type Executor interface {
	// Execute runs cmd on every node, results being keyed by the host the command was sent to
	Execute(ctx context.Context, cmd string, nodes []types.Node) map[string]types.ExecResult
	// KillPod sends the signal to one of the pod's containers
	KillPod(ctx context.Context, pod types.Pod, nodes inventory.Nodes, signal types.Signal) error
}

// Dependencies are the collaborators an executor may need
type Dependencies struct {
	Pods   inventory.Pods
	Rand   types.Rand
	Log    *zap.SugaredLogger
	Runner command.Factory
}

// GetExecutor returns an initiated executor
func GetExecutor(cfg etypes.Config, deps Dependencies) (Executor, error) {
	if deps.Rand == nil {
		deps.Rand = types.NewRand(0)
	}

	switch etypes.Kind(cfg.Kind) {
	case etypes.KindSSH, "":
		return ssh.New(cfg.SSH, deps.Rand, deps.Log)
	case etypes.KindKubernetes:
		if deps.Pods == nil {
			return nil, fmt.Errorf("the %s executor requires a pod inventory", cfg.Kind)
		}

		return kubernetes.New(deps.Pods, cfg.GracePeriodSeconds, deps.Log), nil
	case etypes.KindRuntime:
		runner := deps.Runner
		if runner == nil {
			runner = command.NewFactory(false)
		}

		return runtime.New(os.Getenv(types.HostIPEnv), container.NewKiller(container.Config{}), runner, deps.Rand, deps.Log), nil
	default:
		return nil, fmt.Errorf("unsupported executor: %s", cfg.Kind)
	}
}
