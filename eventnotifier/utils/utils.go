// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package utils

import (
	"fmt"

	"github.com/DataDog/chaos-seal/eventnotifier/types"
)

// BuildHeaderMessageFromReport Templated header text to send to notifiers
func BuildHeaderMessageFromReport(report types.Report, notifType types.NotificationType) string {
	switch notifType {
	case types.NotificationError, types.NotificationWarning:
		return "Scenario '" + report.Scenario + "' failed."
	case types.NotificationSuccess:
		return "Scenario '" + report.Scenario + "' succeeded."
	default:
		return "Scenario '" + report.Scenario + "' emitted an unusual event."
	}
}

// BuildBodyMessageFromReport Templated body text to send to notifiers
func BuildBodyMessageFromReport(report types.Report, markdown bool) string {
	quote := ""
	if markdown {
		quote = "> "
	}

	body := fmt.Sprintf("%sScenario `%s` (run %s) ran for %s", quote, report.Scenario, report.RunID, report.Duration)

	if report.Error != "" {
		body += ": " + report.Error
	}

	return body
}
