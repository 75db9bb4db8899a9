// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package types

import "strings"

// ResourceKind is the kind of resource a scenario matches on
type ResourceKind string

// Signal is the signal sent to a container when killing a pod
type Signal string

const (
	// ResourceKindNodes is used for node scenarios and empty-match events
	ResourceKindNodes ResourceKind = "nodes"
	// ResourceKindPods is used for pod scenarios and empty-match events
	ResourceKindPods ResourceKind = "pods"

	// SignalKill is sent when a kill is forced
	SignalKill Signal = "SIGKILL"
	// SignalTerm is sent for graceful kills
	SignalTerm Signal = "SIGTERM"

	// ChaosLabel is set to "true" on every object created by the engine
	ChaosLabel = "chaos"
	// OriginalDeploymentAnnotation references the deployment a clone was made from
	OriginalDeploymentAnnotation = "original_deployment"
	// ChaosScenarioAnnotation references the scenario which created an object
	ChaosScenarioAnnotation = "chaos_scenario"

	// HostIPEnv, PodNameEnv and HostnameEnv identify the engine itself to avoid self-destruction
	HostIPEnv   = "HOST_IP"
	PodNameEnv  = "POD_NAME"
	HostnameEnv = "HOSTNAME"
)

// SignalFromForce returns SIGKILL for a forced kill and SIGTERM otherwise
func SignalFromForce(force bool) Signal {
	if force {
		return SignalKill
	}

	return SignalTerm
}

// Target is implemented by every resource a scenario can act on
type Target interface {
	// Key returns the identity of the target, used for equality and deduplication
	Key() string
	// Property returns the string form of the named attribute, a scalar being returned as a one-element list
	Property(name string) ([]string, bool)
}

// ExecResult is the outcome of a command executed on a single host
type ExecResult struct {
	RetCode int    `json:"retCode"`
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr"`
	Error   string `json:"error,omitempty"`
}

// Failed returns true when the command could not run or exited with a non-zero code
func (r ExecResult) Failed() bool {
	return r.RetCode != 0 || r.Error != ""
}

// Service is the subset of a cluster service used by probes and clones
type Service struct {
	Name      string            `json:"name"`
	Namespace string            `json:"namespace"`
	ClusterIP string            `json:"clusterIp"`
	Ports     []int32           `json:"ports"`
	Selector  map[string]string `json:"selector"`
}

func normalizePropertyName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}
