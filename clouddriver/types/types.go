// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package types

// DriverName represents a cloud driver to use
type DriverName string

const (
	// DriverNoCloud only fakes nodes out of IPs, every action being refused
	DriverNoCloud DriverName = "nocloud"

	// DriverCordon simulates node stops by cordoning and tainting them through the cluster API
	DriverCordon DriverName = "cordon"
)

// AllDrivers lists the supported drivers
var AllDrivers = []DriverName{DriverNoCloud, DriverCordon}

// DriverConfig configures the cloud driver
type DriverConfig struct {
	Driver   string `json:"driver" yaml:"driver"`
	TaintKey string `json:"taintKey" yaml:"taintKey"`
}

// DefaultTaintKey is the taint set on nodes stopped by the cordon driver
const DefaultTaintKey = "chaos-seal/stopped"
