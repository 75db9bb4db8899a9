// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NodeState is the last known power state of a node
type NodeState int

const (
	NodeStateUnknown NodeState = iota + 1
	NodeStateUp
	NodeStateDown
)

func (s NodeState) String() string {
	switch s {
	case NodeStateUp:
		return "UP"
	case NodeStateDown:
		return "DOWN"
	default:
		return "UNKNOWN"
	}
}

// ParseNodeState parses a case-insensitive state name
func ParseNodeState(s string) (NodeState, error) {
	switch strings.ToUpper(s) {
	case "UP":
		return NodeStateUp, nil
	case "DOWN":
		return NodeStateDown, nil
	case "UNKNOWN":
		return NodeStateUnknown, nil
	default:
		return NodeStateUnknown, fmt.Errorf("unknown node state %q", s)
	}
}

// MarshalJSON renders the state by name
func (s NodeState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the state name
func (s *NodeState) UnmarshalJSON(data []byte) error {
	var name string

	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	state, err := ParseNodeState(name)
	if err != nil {
		return err
	}

	*s = state

	return nil
}

// Node is a host of the cluster, as known by the cloud driver.
// Two nodes are the same entity when their ID are equal, whatever the other fields.
type Node struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	IP     string    `json:"ip"`
	ExtIP  string    `json:"extIp"`
	AZ     string    `json:"az"`
	Groups []string  `json:"groups"`
	No     int       `json:"no"`
	State  NodeState `json:"state"`
}

// Key returns the node ID
func (n Node) Key() string {
	return n.ID
}

// Equal compares nodes by identity
func (n Node) Equal(other Node) bool {
	return n.ID == other.ID
}

// Property implements Target
func (n Node) Property(name string) ([]string, bool) {
	switch normalizePropertyName(name) {
	case "id":
		return []string{n.ID}, true
	case "name":
		return []string{n.Name}, true
	case "ip":
		return []string{n.IP}, true
	case "extip":
		return []string{n.ExtIP}, true
	case "az":
		return []string{n.AZ}, true
	case "groups", "group":
		return append([]string{}, n.Groups...), true
	case "no":
		return []string{strconv.Itoa(n.No)}, true
	case "state":
		return []string{n.State.String()}, true
	}

	return nil, false
}

func (n Node) String() string {
	return fmt.Sprintf("[node no=%d id=%s ip=%s az=%s groups=%v state=%s]", n.No, n.ID, n.IP, n.AZ, n.Groups, n.State)
}
