// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package datadog

import (
	"os"
	"strings"

	"github.com/DataDog/datadog-go/statsd"
	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/eventnotifier/types"
	"github.com/DataDog/chaos-seal/eventnotifier/utils"
)

type NotifierDatadogConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// eventSender is the subset of the statsd client used to send events
type eventSender interface {
	Event(e *statsd.Event) error
}

// Notifier describes a Datadog notifier
type Notifier struct {
	client eventSender
	common types.NotifiersCommonConfig
	logger *zap.SugaredLogger
}

// New Datadog Notifier
func New(commonConfig types.NotifiersCommonConfig, _ NotifierDatadogConfig, logger *zap.SugaredLogger) (*Notifier, error) {
	instance, err := statsd.New(os.Getenv("STATSD_URL"), statsd.WithTags([]string{"app:chaos-seal"}))
	if err != nil {
		return nil, err
	}

	logger.Info("notifier: datadog notifier connected to datadog")

	return &Notifier{
		client: instance,
		common: commonConfig,
		logger: logger,
	}, nil
}

// GetNotifierName returns the driver's name
func (n *Notifier) GetNotifierName() string {
	return string(types.NotifierDriverDatadog)
}

func (n *Notifier) buildEventTags(report types.Report) []string {
	tags := []string{
		"scenario:" + report.Scenario,
		"run_id:" + report.RunID,
	}

	if n.common.ClusterName != "" {
		tags = append(tags, "cluster:"+n.common.ClusterName)
	}

	return tags
}

// Notify sends the report as a datadog event
func (n *Notifier) Notify(report types.Report, notifType types.NotificationType) error {
	alertType := statsd.Warning

	switch notifType {
	case types.NotificationInfo:
		alertType = statsd.Info
	case types.NotificationSuccess:
		alertType = statsd.Success
	case types.NotificationError:
		alertType = statsd.Error
	}

	tags := n.buildEventTags(report)
	bodyText := utils.BuildBodyMessageFromReport(report, false)

	n.logger.Debugw("notifier: sending notifier event to datadog", "scenario", report.Scenario, "message", bodyText, "datadogTags", strings.Join(tags, ", "))

	return n.client.Event(&statsd.Event{
		Title:     utils.BuildHeaderMessageFromReport(report, notifType),
		Text:      bodyText,
		AlertType: alertType,
		Tags:      tags,
	})
}
