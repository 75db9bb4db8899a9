// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package container

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/DataDog/chaos-seal/types"
)

// RuntimeMock is a mock implementation of the Runtime interface
type RuntimeMock struct {
	mock.Mock
}

//nolint:golint
func (f *RuntimeMock) Kill(ctx context.Context, id string, signal types.Signal) error {
	args := f.Called(ctx, id, signal)

	return args.Error(0)
}

//nolint:golint
func (f *RuntimeMock) Close() error {
	args := f.Called()

	return args.Error(0)
}
