// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package policy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownAction is returned when a policy names an action kind the engine can't run
	ErrUnknownAction = errors.New("unknown action")
	// ErrUnknownFilter is returned when a policy names a filter kind the engine doesn't know
	ErrUnknownFilter = errors.New("unknown filter")
	// ErrUnknownMatch is returned when a policy names a match kind the engine doesn't know
	ErrUnknownMatch = errors.New("unknown match criterion")
)

// StepKind is the kind of a scenario step
type StepKind string

const (
	StepKindNodeAction   StepKind = "nodeAction"
	StepKindPodAction    StepKind = "podAction"
	StepKindKubectl      StepKind = "kubectl"
	StepKindWait         StepKind = "wait"
	StepKindProbeHTTP    StepKind = "probeHTTP"
	StepKindClone        StepKind = "clone"
	StepKindAlertmanager StepKind = "alertmanager"
)

// StepKinds lists every step kind a policy may use
var StepKinds = []StepKind{
	StepKindNodeAction,
	StepKindPodAction,
	StepKindKubectl,
	StepKindWait,
	StepKindProbeHTTP,
	StepKindClone,
	StepKindAlertmanager,
}

// ActionKind is the kind of an action run on the items of a node or pod step
type ActionKind string

const (
	ActionKindStart         ActionKind = "start"
	ActionKindStop          ActionKind = "stop"
	ActionKindWait          ActionKind = "wait"
	ActionKindExecute       ActionKind = "execute"
	ActionKindKill          ActionKind = "kill"
	ActionKindCheckPodCount ActionKind = "checkPodCount"
	ActionKindCheckPodState ActionKind = "checkPodState"
	ActionKindStopHost      ActionKind = "stopHost"
	ActionKindMute          ActionKind = "mute"
)

// NodeActionKinds and PodActionKinds are the actions available to node and pod steps
var (
	NodeActionKinds = []ActionKind{ActionKindStart, ActionKindStop, ActionKindWait, ActionKindExecute}
	PodActionKinds  = []ActionKind{ActionKindKill, ActionKindWait, ActionKindCheckPodCount, ActionKindCheckPodState, ActionKindStopHost}
)

// FilterKind is the kind of a filter criterion
type FilterKind string

const (
	FilterKindProperty     FilterKind = "property"
	FilterKindDayTime      FilterKind = "dayTime"
	FilterKindRandomSample FilterKind = "randomSample"
	FilterKindProbability  FilterKind = "probability"
)

// MatchKind is the kind of a match criterion
type MatchKind string

const (
	MatchKindProperty   MatchKind = "property"
	MatchKindNamespace  MatchKind = "namespace"
	MatchKindDeployment MatchKind = "deployment"
	MatchKindLabels     MatchKind = "labels"
)

// decodeOneOf reads an object carrying exactly one key and returns it with its raw value.
// A null value is returned as an empty object so that `- start:` selects the kind.
func decodeOneOf(data []byte, what string, sentinel error, known ...string) (string, json.RawMessage, error) {
	fields := map[string]json.RawMessage{}

	if err := json.Unmarshal(data, &fields); err != nil {
		return "", nil, fmt.Errorf("%s must be an object: %w", what, err)
	}

	if len(fields) != 1 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		return "", nil, fmt.Errorf("%s must have exactly one key, got %v", what, keys)
	}

	for key, raw := range fields {
		if !contains(known, key) {
			return "", nil, fmt.Errorf("%w %q in %s, expected one of %v", sentinel, key, what, known)
		}

		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			raw = json.RawMessage("{}")
		}

		return key, raw, nil
	}

	return "", nil, nil
}

// strictUnmarshal decodes data into v, rejecting unknown fields
func strictUnmarshal(data []byte, v interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	return decoder.Decode(v)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}

	return false
}

func stepKindNames() []string {
	names := make([]string, 0, len(StepKinds))
	for _, k := range StepKinds {
		names = append(names, string(k))
	}

	return names
}

func actionKindNames(kinds []ActionKind) []string {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}

	return names
}
