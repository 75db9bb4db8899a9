// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package policy

import (
	"encoding/json"
	"fmt"
	"time"
)

// Strategy is the order scenarios are run in during a pass
type Strategy string

// ExitStrategyName tells what to do when a scenario fails
type ExitStrategyName string

const (
	StrategySequential Strategy = "sequential"
	StrategyRandom     Strategy = "random"

	ExitStrategyFailFast ExitStrategyName = "fail-fast"
	ExitStrategyReport   ExitStrategyName = "report"

	// DefaultMinSecondsBetweenRuns and DefaultMaxSecondsBetweenRuns bound the sleep after each scenario
	DefaultMinSecondsBetweenRuns = 0
	DefaultMaxSecondsBetweenRuns = 300
)

// Policy is the declarative description of what the engine does
type Policy struct {
	Config    Config     `json:"config"`
	Scenarios []Scenario `json:"scenarios" validate:"required,min=1,dive"`
}

// Config holds the run and exit strategies
type Config struct {
	RunStrategy  RunStrategy  `json:"runStrategy"`
	ExitStrategy ExitStrategy `json:"exitStrategy"`
}

// RunStrategy describes how scenarios are scheduled.
// Runs is decremented once per executed scenario, a nil value meaning no limit.
// Schedule is an optional cron expression every pass but the first waits for.
type RunStrategy struct {
	Strategy              Strategy `json:"strategy,omitempty" validate:"omitempty,oneof=sequential random"`
	MinSecondsBetweenRuns *int     `json:"minSecondsBetweenRuns,omitempty" validate:"omitempty,gte=0"`
	MaxSecondsBetweenRuns *int     `json:"maxSecondsBetweenRuns,omitempty" validate:"omitempty,gte=0"`
	Runs                  *int     `json:"runs,omitempty" validate:"omitempty,gte=1"`
	Schedule              string   `json:"schedule,omitempty" validate:"omitempty,cron"`
}

// MinSleep returns the lower sleep bound
func (r RunStrategy) MinSleep() time.Duration {
	return time.Duration(intOr(r.MinSecondsBetweenRuns, DefaultMinSecondsBetweenRuns)) * time.Second
}

// MaxSleep returns the upper sleep bound
func (r RunStrategy) MaxSleep() time.Duration {
	return time.Duration(intOr(r.MaxSecondsBetweenRuns, DefaultMaxSecondsBetweenRuns)) * time.Second
}

// ExitStrategy tells whether a failed scenario stops the run
type ExitStrategy struct {
	Strategy ExitStrategyName `json:"strategy,omitempty" validate:"omitempty,oneof=fail-fast report"`
}

// Scenario is a named and ordered list of steps
type Scenario struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Steps       []Step `json:"steps" validate:"required,min=1,dive"`
}

// Step holds exactly one action kind and an optional retry policy
type Step struct {
	NodeAction   *NodeAction   `json:"nodeAction,omitempty"`
	PodAction    *PodAction    `json:"podAction,omitempty"`
	Kubectl      *Kubectl      `json:"kubectl,omitempty"`
	Wait         *Wait         `json:"wait,omitempty"`
	ProbeHTTP    *ProbeHTTP    `json:"probeHTTP,omitempty"`
	Clone        *Clone        `json:"clone,omitempty"`
	Alertmanager *Alertmanager `json:"alertmanager,omitempty"`
	Retries      *Retries      `json:"retries,omitempty"`
}

// Kind returns the kind of the step, or an empty string if none is set
func (s Step) Kind() StepKind {
	switch {
	case s.NodeAction != nil:
		return StepKindNodeAction
	case s.PodAction != nil:
		return StepKindPodAction
	case s.Kubectl != nil:
		return StepKindKubectl
	case s.Wait != nil:
		return StepKindWait
	case s.ProbeHTTP != nil:
		return StepKindProbeHTTP
	case s.Clone != nil:
		return StepKindClone
	case s.Alertmanager != nil:
		return StepKindAlertmanager
	}

	return ""
}

// UnmarshalJSON decodes a step, unknown step kinds being rejected with ErrUnknownAction
func (s *Step) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}

	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("step must be an object: %w", err)
	}

	step := Step{}
	kinds := 0

	for key, raw := range fields {
		var target interface{}

		switch key {
		case "retries":
			step.Retries = &Retries{}
			target = step.Retries
		case string(StepKindNodeAction):
			step.NodeAction = &NodeAction{}
			target = step.NodeAction
		case string(StepKindPodAction):
			step.PodAction = &PodAction{}
			target = step.PodAction
		case string(StepKindKubectl):
			step.Kubectl = &Kubectl{}
			target = step.Kubectl
		case string(StepKindWait):
			step.Wait = &Wait{}
			target = step.Wait
		case string(StepKindProbeHTTP):
			step.ProbeHTTP = &ProbeHTTP{}
			target = step.ProbeHTTP
		case string(StepKindClone):
			step.Clone = &Clone{}
			target = step.Clone
		case string(StepKindAlertmanager):
			step.Alertmanager = &Alertmanager{}
			target = step.Alertmanager
		default:
			return fmt.Errorf("%w %q, expected one of %v", ErrUnknownAction, key, stepKindNames())
		}

		if key != "retries" {
			kinds++
		}

		if string(raw) == "null" {
			continue
		}

		if err := strictUnmarshal(raw, target); err != nil {
			return fmt.Errorf("error decoding %s: %w", key, err)
		}
	}

	if kinds != 1 {
		return fmt.Errorf("a step must have exactly one of %v, got %d", stepKindNames(), kinds)
	}

	*s = step

	return nil
}

// Retries is the retry policy of a step, one of count or timeout
type Retries struct {
	Count   *RetriesCount   `json:"retriesCount,omitempty"`
	Timeout *RetriesTimeout `json:"retriesTimeout,omitempty"`
}

// RetriesCount allows at most Count attempts
type RetriesCount struct {
	Count int     `json:"count" validate:"gte=1"`
	Sleep float64 `json:"sleep,omitempty" validate:"gte=0"`
}

// RetriesTimeout repeats attempts until Timeout seconds have elapsed
type RetriesTimeout struct {
	Timeout float64 `json:"timeout" validate:"gt=0"`
	Sleep   float64 `json:"sleep,omitempty" validate:"gte=0"`
}

// Seconds converts a number of seconds into a duration
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}

	return *v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}

	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}

	return *v
}

// Bool, Int and Float return pointers to the given values
func Bool(b bool) *bool {
	return &b
}

func Int(i int) *int {
	return &i
}

func Float(f float64) *float64 {
	return &f
}
