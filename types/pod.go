// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package types

import (
	"fmt"
	"sort"
	"strconv"
)

// Pod is a cluster workload.
// Num is an ordinal assigned when a query returns the pod and is only meaningful within that result.
type Pod struct {
	Name           string            `json:"name"`
	Namespace      string            `json:"namespace"`
	Num            int               `json:"num"`
	UID            string            `json:"uid"`
	HostIP         string            `json:"hostIp"`
	IP             string            `json:"ip"`
	ContainerIDs   []string          `json:"containerIds"`
	ContainerNames []string          `json:"containerNames"`
	RestartCount   int               `json:"restartCount"`
	State          string            `json:"state"`
	Labels         map[string]string `json:"labels"`
	Annotations    map[string]string `json:"annotations"`
}

// Key returns the pod UID, or a namespace/name composite when the UID is unknown
func (p Pod) Key() string {
	if p.UID != "" {
		return p.UID
	}

	return p.Namespace + "/" + p.Name
}

// Equal compares pods by identity
func (p Pod) Equal(other Pod) bool {
	return p.Key() == other.Key()
}

// Property implements Target
func (p Pod) Property(name string) ([]string, bool) {
	switch normalizePropertyName(name) {
	case "name":
		return []string{p.Name}, true
	case "namespace":
		return []string{p.Namespace}, true
	case "num":
		return []string{strconv.Itoa(p.Num)}, true
	case "uid":
		return []string{p.UID}, true
	case "hostip":
		return []string{p.HostIP}, true
	case "ip":
		return []string{p.IP}, true
	case "containerids":
		return append([]string{}, p.ContainerIDs...), true
	case "containernames":
		return append([]string{}, p.ContainerNames...), true
	case "restartcount":
		return []string{strconv.Itoa(p.RestartCount)}, true
	case "state":
		return []string{p.State}, true
	case "labels":
		return flattenMap(p.Labels), true
	case "annotations":
		return flattenMap(p.Annotations), true
	}

	return nil, false
}

func (p Pod) String() string {
	return fmt.Sprintf("[pod #%d name=%s namespace=%s containers=%d ip=%s host_ip=%s state=%s]", p.Num, p.Name, p.Namespace, len(p.ContainerIDs), p.IP, p.HostIP, p.State)
}

// flattenMap renders a map as sorted key=value entries
func flattenMap(m map[string]string) []string {
	out := make([]string, 0, len(m))

	for k, v := range m {
		out = append(out, k+"="+v)
	}

	sort.Strings(out)

	return out
}
