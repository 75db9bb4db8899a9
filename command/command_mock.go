// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package command

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// FactoryMock is a mock implementation of the Factory interface
type FactoryMock struct {
	mock.Mock
}

//nolint:golint
func (f *FactoryMock) NewCmd(ctx context.Context, name string, args []string, stdin []byte) Cmd {
	mockArgs := f.Called(ctx, name, args, stdin)

	return mockArgs.Get(0).(Cmd)
}

// CmdMock is a mock implementation of the Cmd interface
type CmdMock struct {
	mock.Mock
}

//nolint:golint
func (f *CmdMock) Run() error {
	args := f.Called()

	return args.Error(0)
}

//nolint:golint
func (f *CmdMock) String() string {
	return "mock command"
}

//nolint:golint
func (f *CmdMock) ExitCode() int {
	args := f.Called()

	return args.Int(0)
}

//nolint:golint
func (f *CmdMock) Stdout() string {
	args := f.Called()

	return args.String(0)
}

//nolint:golint
func (f *CmdMock) Stderr() string {
	args := f.Called()

	return args.String(0)
}

//nolint:golint
func (f *CmdMock) DryRun() bool {
	return false
}
