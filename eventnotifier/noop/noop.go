// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package noop

import (
	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/eventnotifier/types"
)

type NotifierNoopConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// Notifier describes a NOOP notifier
type Notifier struct {
	log *zap.SugaredLogger
}

// New NOOP Notifier
func New(log *zap.SugaredLogger) Notifier {
	return Notifier{
		log,
	}
}

// GetNotifierName returns the driver's name
func (n Notifier) GetNotifierName() string {
	return string(types.NotifierDriverNoop)
}

// Notify logs the report
func (n Notifier) Notify(report types.Report, notifType types.NotificationType) error {
	n.log.Debugf("NOOP: Notifier %s for scenario %s (run %s, success=%t)", notifType, report.Scenario, report.RunID, report.Success)

	return nil
}
