// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package container

import (
	"context"
	"fmt"

	"github.com/docker/docker/client"

	"github.com/DataDog/chaos-seal/types"
)

type dockerRuntime struct {
	client *client.Client
}

func newDockerRuntime() (Runtime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to docker: %w", err)
	}

	cli.NegotiateAPIVersion(context.Background())

	return &dockerRuntime{client: cli}, nil
}

func (d *dockerRuntime) Kill(ctx context.Context, id string, signal types.Signal) error {
	if err := d.client.ContainerKill(ctx, id, string(signal)); err != nil {
		return fmt.Errorf("unable to kill container %s: %w", id, err)
	}

	return nil
}

func (d *dockerRuntime) Close() error {
	return d.client.Close()
}
