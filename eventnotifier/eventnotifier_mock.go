// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package eventnotifier

import (
	"github.com/stretchr/testify/mock"

	"github.com/DataDog/chaos-seal/eventnotifier/types"
)

// NotifierMock is a mock implementation of the Notifier interface
type NotifierMock struct {
	mock.Mock
}

//nolint:golint
func (f *NotifierMock) GetNotifierName() string {
	args := f.Called()

	return args.String(0)
}

//nolint:golint
func (f *NotifierMock) Notify(report types.Report, notifType types.NotificationType) error {
	args := f.Called(report, notifType)

	return args.Error(0)
}
