// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package types

import (
	"github.com/stretchr/testify/mock"
)

// RandMock is a mock implementation of the Rand interface
type RandMock struct {
	mock.Mock
}

//nolint:golint
func (f *RandMock) Float64() float64 {
	args := f.Called()

	return args.Get(0).(float64)
}

//nolint:golint
func (f *RandMock) Intn(n int) int {
	args := f.Called(n)

	return args.Int(0)
}

//nolint:golint
func (f *RandMock) Perm(n int) []int {
	args := f.Called(n)

	return args.Get(0).([]int)
}

// Shuffle leaves the order untouched unless a swap list is configured
//
//nolint:golint
func (f *RandMock) Shuffle(n int, swap func(i, j int)) {
	args := f.Called(n)

	if pairs, ok := args.Get(0).([][2]int); ok {
		for _, p := range pairs {
			swap(p[0], p[1])
		}
	}
}
