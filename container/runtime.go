// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package container

import (
	"context"
	"fmt"
	"strings"
	"syscall"

	"github.com/DataDog/chaos-seal/types"
)

const (
	RuntimeDocker     = "docker"
	RuntimeContainerd = "containerd"
)

// Runtime is an interface abstracting a container runtime able to signal containers from their ID
type Runtime interface {
	Kill(ctx context.Context, id string, signal types.Signal) error
	Close() error
}

// ParseContainerID extract from given id the containerID and runtime
func ParseContainerID(id string) (containerID string, runtime string, err error) {
	rawID := strings.Split(id, "://")
	if len(rawID) != 2 || rawID[1] == "" {
		return "", "", fmt.Errorf("unrecognized container ID format '%s', expecting 'containerd://<ID>' or 'docker://<ID>'", id)
	}

	return rawID[1], rawID[0], nil
}

func toSyscallSignal(signal types.Signal) (syscall.Signal, error) {
	switch signal {
	case types.SignalKill:
		return syscall.SIGKILL, nil
	case types.SignalTerm:
		return syscall.SIGTERM, nil
	default:
		return 0, fmt.Errorf("unsupported signal %s", signal)
	}
}
