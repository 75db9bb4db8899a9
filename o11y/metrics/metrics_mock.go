// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package metrics

import (
	"time"

	"github.com/stretchr/testify/mock"

	chaostypes "github.com/DataDog/chaos-seal/types"
)

// SinkMock is a mock implementation of the Sink interface
type SinkMock struct {
	mock.Mock
}

// NewSinkMock returns a mock accepting any metric, calls being recorded for later assertions
func NewSinkMock() *SinkMock {
	m := &SinkMock{}

	for _, name := range []string{"MetricPodKilled", "MetricPodKillFailed", "MetricNodeStopped", "MetricNodeStopFailed", "MetricExecuteFailed", "MetricEmptyMatch"} {
		m.On(name, mock.Anything).Return(nil).Maybe()
	}

	for _, name := range []string{"MetricEmptyFilter", "MetricProbabilityFilterNoPass", "Close"} {
		m.On(name).Return(nil).Maybe()
	}

	m.On("MetricScenarioResult", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("MetricScenarioDuration", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("GetSinkName").Return("mock").Maybe()

	return m
}

//nolint:golint
func (m *SinkMock) Close() error {
	return m.Called().Error(0)
}

//nolint:golint
func (m *SinkMock) GetSinkName() string {
	return m.Called().String(0)
}

//nolint:golint
func (m *SinkMock) MetricPodKilled(pod chaostypes.Pod) error {
	return m.Called(pod).Error(0)
}

//nolint:golint
func (m *SinkMock) MetricPodKillFailed(pod chaostypes.Pod) error {
	return m.Called(pod).Error(0)
}

//nolint:golint
func (m *SinkMock) MetricNodeStopped(node chaostypes.Node) error {
	return m.Called(node).Error(0)
}

//nolint:golint
func (m *SinkMock) MetricNodeStopFailed(node chaostypes.Node) error {
	return m.Called(node).Error(0)
}

//nolint:golint
func (m *SinkMock) MetricExecuteFailed(node chaostypes.Node) error {
	return m.Called(node).Error(0)
}

//nolint:golint
func (m *SinkMock) MetricEmptyFilter() error {
	return m.Called().Error(0)
}

//nolint:golint
func (m *SinkMock) MetricEmptyMatch(source chaostypes.ResourceKind) error {
	return m.Called(source).Error(0)
}

//nolint:golint
func (m *SinkMock) MetricProbabilityFilterNoPass() error {
	return m.Called().Error(0)
}

//nolint:golint
func (m *SinkMock) MetricScenarioResult(name string, succeed bool) error {
	return m.Called(name, succeed).Error(0)
}

//nolint:golint
func (m *SinkMock) MetricScenarioDuration(name string, duration time.Duration) error {
	return m.Called(name, duration).Error(0)
}
