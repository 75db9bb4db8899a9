// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package types

// SinkDriver represents a sink driver to use
type SinkDriver string

const (
	// SinkDriverDatadog is the Datadog driver
	SinkDriverDatadog SinkDriver = "datadog"

	// SinkDriverPrometheus exposes counters on a prometheus registry
	SinkDriverPrometheus SinkDriver = "prometheus"

	// SinkDriverNoop is a noop driver mainly used for testing
	SinkDriverNoop SinkDriver = "noop"
)

// SinkApp is the application name using the sink
type SinkApp string

const (
	// SinkAppEngine is the long running engine
	SinkAppEngine SinkApp = "chaos-seal"

	// SinkAppCLI is the sealctl command line
	SinkAppCLI SinkApp = "sealctl"
)

// Status values used to tag outcomes
const (
	StatusSucceed = "succeed"
	StatusFailed  = "failed"
)

// BoolToStatus converts an outcome into a status tag value
func BoolToStatus(succeed bool) string {
	if succeed {
		return StatusSucceed
	}

	return StatusFailed
}
