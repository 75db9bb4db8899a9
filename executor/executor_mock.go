// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package executor

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/types"
)

// ExecutorMock is a mock implementation of the Executor interface
type ExecutorMock struct {
	mock.Mock
}

//nolint:golint
func (f *ExecutorMock) Execute(ctx context.Context, cmd string, nodes []types.Node) map[string]types.ExecResult {
	args := f.Called(ctx, cmd, nodes)

	return args.Get(0).(map[string]types.ExecResult)
}

//nolint:golint
func (f *ExecutorMock) KillPod(ctx context.Context, pod types.Pod, nodes inventory.Nodes, signal types.Signal) error {
	args := f.Called(ctx, pod, nodes, signal)

	return args.Error(0)
}
