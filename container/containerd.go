// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package container

import (
	"context"
	"fmt"

	containerdlib "github.com/containerd/containerd"

	"github.com/DataDog/chaos-seal/types"
)

// ContainerdSocket is the default containerd endpoint
const ContainerdSocket = "/run/containerd/containerd.sock"

type containerdRuntime struct {
	client *containerdlib.Client
}

func newContainerdRuntime() (Runtime, error) {
	c, err := containerdlib.New(ContainerdSocket, containerdlib.WithDefaultNamespace("k8s.io"))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to the containerd socket: %w", err)
	}

	return &containerdRuntime{client: c}, nil
}

func (c *containerdRuntime) Kill(ctx context.Context, id string, signal types.Signal) error {
	sig, err := toSyscallSignal(signal)
	if err != nil {
		return err
	}

	// load container structure
	container, err := c.client.LoadContainer(ctx, id)
	if err != nil {
		return fmt.Errorf("error while loading the given container: %w", err)
	}

	// retrieve container task (process)
	task, err := container.Task(ctx, nil)
	if err != nil {
		return fmt.Errorf("error while loading the given container task: %w", err)
	}

	if err := task.Kill(ctx, sig); err != nil {
		return fmt.Errorf("unable to signal container %s: %w", id, err)
	}

	return nil
}

func (c *containerdRuntime) Close() error {
	return c.client.Close()
}
