// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package tags

import "fmt"

// Keys used in structured logs and metric tags
const (
	ActionKey       = "action"
	ActionKindKey   = "actionKind"
	AttemptKey      = "attempt"
	CommandKey      = "command"
	ContainerKey    = "container"
	CountKey        = "count"
	CriterionKey    = "criterion"
	DurationKey     = "duration"
	ErrorKey        = "error"
	FilterKey       = "filter"
	HostKey         = "host"
	ItemsKey        = "items"
	NameKey         = "name"
	NamespaceKey    = "namespace"
	NodeKey         = "node"
	PodKey          = "pod"
	RemainingKey    = "remaining"
	RetCodeKey      = "retCode"
	RunIDKey        = "runID"
	RunsKey         = "runs"
	ScenarioKey     = "scenario"
	SignalKey       = "signal"
	SelectorKey     = "selector"
	SleepKey        = "sleep"
	SourceKey       = "source"
	StatusKey       = "status"
	StepKey         = "step"
	StrategyKey     = "strategy"
	SucceedKey      = "succeed"
	TargetKey       = "target"
	URLKey          = "url"
	PolicyPathKey   = "policyPath"
	ExitStrategyKey = "exitStrategy"
	MethodKey       = "method"
	PathKey         = "path"
)

// FormatTag formats a tag with key:value format for metrics and observability
func FormatTag(key, value string) string {
	return fmt.Sprintf("%s:%s", key, value)
}
