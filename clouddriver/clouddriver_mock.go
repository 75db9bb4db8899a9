// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package clouddriver

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/DataDog/chaos-seal/types"
)

// DriverMock is a mock implementation of the Driver interface
type DriverMock struct {
	mock.Mock
}

//nolint:golint
func (f *DriverMock) GetDriverName() string {
	return "mock"
}

//nolint:golint
func (f *DriverMock) Sync(ctx context.Context) error {
	args := f.Called(ctx)

	return args.Error(0)
}

//nolint:golint
func (f *DriverMock) GetByIP(ctx context.Context, ip string) (*types.Node, error) {
	args := f.Called(ctx, ip)

	node, _ := args.Get(0).(*types.Node)

	return node, args.Error(1)
}

//nolint:golint
func (f *DriverMock) Start(ctx context.Context, node types.Node) error {
	args := f.Called(ctx, node)

	return args.Error(0)
}

//nolint:golint
func (f *DriverMock) Stop(ctx context.Context, node types.Node) error {
	args := f.Called(ctx, node)

	return args.Error(0)
}

//nolint:golint
func (f *DriverMock) Delete(ctx context.Context, node types.Node) error {
	args := f.Called(ctx, node)

	return args.Error(0)
}
