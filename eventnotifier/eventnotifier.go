// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package eventnotifier

import (
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/eventnotifier/datadog"
	http "github.com/DataDog/chaos-seal/eventnotifier/http"
	"github.com/DataDog/chaos-seal/eventnotifier/noop"
	"github.com/DataDog/chaos-seal/eventnotifier/slack"
	"github.com/DataDog/chaos-seal/eventnotifier/types"
	"github.com/DataDog/chaos-seal/o11y/tags"
)

type NotifiersConfig struct {
	Common  types.NotifiersCommonConfig   `json:"common" yaml:"common"`
	Noop    noop.NotifierNoopConfig       `json:"noop" yaml:"noop"`
	Slack   slack.NotifierSlackConfig     `json:"slack" yaml:"slack"`
	Datadog datadog.NotifierDatadogConfig `json:"datadog" yaml:"datadog"`
	HTTP    http.NotifierHTTPConfig       `json:"http" yaml:"http"`
}

type Notifier interface {
	GetNotifierName() string
	Notify(types.Report, types.NotificationType) error
}

// GetNotifiers returns every enabled notifier. A notifier failing to initialize is skipped and its error returned
func GetNotifiers(config NotifiersConfig, logger *zap.SugaredLogger) (notifiers []Notifier, err error) {
	if config.Noop.Enabled {
		notifiers = append(notifiers, noop.New(logger))
	}

	if config.Slack.Enabled {
		not, slackErr := slack.New(config.Common, config.Slack, logger)
		if slackErr != nil {
			err = multierror.Append(err, slackErr)
		} else {
			notifiers = append(notifiers, not)
		}
	}

	if config.Datadog.Enabled {
		not, ddogErr := datadog.New(config.Common, config.Datadog, logger)
		if ddogErr != nil {
			err = multierror.Append(err, ddogErr)
		} else {
			notifiers = append(notifiers, not)
		}
	}

	if config.HTTP.Enabled {
		not, httpErr := http.New(config.Common, config.HTTP, logger)
		if httpErr != nil {
			err = multierror.Append(err, httpErr)
		} else {
			notifiers = append(notifiers, not)
		}
	}

	return notifiers, err
}

// NotifyAll sends the report to every notifier, errors are logged only
func NotifyAll(notifiers []Notifier, report types.Report, logger *zap.SugaredLogger) {
	notifType := types.NotificationTypeFromSuccess(report.Success)

	for _, n := range notifiers {
		if err := n.Notify(report, notifType); err != nil {
			logger.Warnw("unable to send notification", "notifier", n.GetNotifierName(), tags.ScenarioKey, report.Scenario, tags.ErrorKey, err)
		}
	}
}
