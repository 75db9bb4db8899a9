// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package types

import "time"

// NotifiersCommonConfig holds settings shared by every notifier
type NotifiersCommonConfig struct {
	ClusterName string `json:"clusterName" yaml:"clusterName"`
}

// NotifierDriver represents a notifier driver to use
type NotifierDriver string

const (
	// NotifierDriverSlack is the Slack driver
	NotifierDriverSlack NotifierDriver = "slack"

	// NotifierDriverDatadog is the Datadog driver
	NotifierDriverDatadog NotifierDriver = "datadog"

	// NotifierDriverHTTP is the HTTP driver
	NotifierDriverHTTP NotifierDriver = "http"

	// NotifierDriverNoop is a noop driver mainly used for testing
	NotifierDriverNoop NotifierDriver = "noop"
)

// NotificationType is the severity of a notification
type NotificationType string

const (
	NotificationUnknown NotificationType = "Unknown"
	NotificationInfo    NotificationType = "Info"
	NotificationSuccess NotificationType = "Success"
	NotificationWarning NotificationType = "Warning"
	NotificationError   NotificationType = "Error"
)

// NotificationTypeFromSuccess maps a scenario outcome to a notification type
func NotificationTypeFromSuccess(success bool) NotificationType {
	if success {
		return NotificationSuccess
	}

	return NotificationError
}

// Report is the outcome of one scenario execution
type Report struct {
	RunID     string        `json:"runId"`
	Scenario  string        `json:"scenario"`
	Success   bool          `json:"success"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}
