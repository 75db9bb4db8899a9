// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package inventory

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/DataDog/chaos-seal/clouddriver"
	"github.com/DataDog/chaos-seal/types"
)

// NodesMock is a mock implementation of the Nodes interface
type NodesMock struct {
	mock.Mock
}

//nolint:golint
func (f *NodesMock) Sync(ctx context.Context) error {
	args := f.Called(ctx)

	return args.Error(0)
}

//nolint:golint
func (f *NodesMock) FindNodes(query string) []types.Node {
	args := f.Called(query)

	return args.Get(0).([]types.Node)
}

//nolint:golint
func (f *NodesMock) GetNodeByIP(ip string) (types.Node, bool) {
	args := f.Called(ip)

	return args.Get(0).(types.Node), args.Bool(1)
}

//nolint:golint
func (f *NodesMock) Driver() clouddriver.Driver {
	args := f.Called()

	return args.Get(0).(clouddriver.Driver)
}

// PodsMock is a mock implementation of the Pods interface
type PodsMock struct {
	mock.Mock
}

//nolint:golint
func (f *PodsMock) FindPods(ctx context.Context, namespace, selector, deployment string) ([]types.Pod, error) {
	args := f.Called(ctx, namespace, selector, deployment)

	pods, _ := args.Get(0).([]types.Pod)

	return pods, args.Error(1)
}

//nolint:golint
func (f *PodsMock) FindNamespaces(ctx context.Context) ([]string, error) {
	args := f.Called(ctx)

	ns, _ := args.Get(0).([]string)

	return ns, args.Error(1)
}

//nolint:golint
func (f *PodsMock) FindDeployments(ctx context.Context, namespace, selector string) ([]string, error) {
	args := f.Called(ctx, namespace, selector)

	names, _ := args.Get(0).([]string)

	return names, args.Error(1)
}

//nolint:golint
func (f *PodsMock) GetService(ctx context.Context, namespace, name string) (types.Service, error) {
	args := f.Called(ctx, namespace, name)

	return args.Get(0).(types.Service), args.Error(1)
}

//nolint:golint
func (f *PodsMock) DeletePods(ctx context.Context, pods []types.Pod, gracePeriodSeconds int64) error {
	args := f.Called(ctx, pods, gracePeriodSeconds)

	return args.Error(0)
}
