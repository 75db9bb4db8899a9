// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package container

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/DataDog/chaos-seal/types"
)

// RuntimeFactory connects to a container runtime
type RuntimeFactory func() (Runtime, error)

// Config lists how to reach each runtime, the default factories being used when nil
type Config struct {
	Factories map[string]RuntimeFactory
}

// Killer signals containers through the runtime their ID refers to, connecting to runtimes lazily
type Killer struct {
	factories map[string]RuntimeFactory

	mu       sync.Mutex
	runtimes map[string]Runtime
}

// NewKiller returns a Killer
func NewKiller(config Config) *Killer {
	factories := config.Factories
	if factories == nil {
		factories = map[string]RuntimeFactory{
			RuntimeDocker:     newDockerRuntime,
			RuntimeContainerd: newContainerdRuntime,
		}
	}

	return &Killer{
		factories: factories,
		runtimes:  map[string]Runtime{},
	}
}

// Kill sends the signal to a container identified by a "<runtime>://<id>" string
func (k *Killer) Kill(ctx context.Context, containerID string, signal types.Signal) error {
	id, runtimeName, err := ParseContainerID(containerID)
	if err != nil {
		return err
	}

	runtime, err := k.runtime(runtimeName)
	if err != nil {
		return err
	}

	return runtime.Kill(ctx, id, signal)
}

func (k *Killer) runtime(name string) (Runtime, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if r, ok := k.runtimes[name]; ok {
		return r, nil
	}

	factory, ok := k.factories[name]
	if !ok {
		return nil, fmt.Errorf("unsupported container runtime %q, only docker and containerd are supported", name)
	}

	r, err := factory()
	if err != nil {
		return nil, err
	}

	k.runtimes[name] = r

	return r, nil
}

// Close disconnects from every runtime used so far
func (k *Killer) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var errs *multierror.Error

	for name, r := range k.runtimes {
		if err := r.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}

		delete(k.runtimes, name)
	}

	return errs.ErrorOrNil()
}
