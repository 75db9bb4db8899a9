// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package inventory

import (
	"context"

	"github.com/DataDog/chaos-seal/clouddriver"
	"github.com/DataDog/chaos-seal/types"
)

// AllNamespaces makes FindPods list pods of every namespace
const AllNamespaces = "*"

// DefaultNamespace is used when no namespace is given
const DefaultNamespace = "default"

// Nodes gives access to the cluster hosts
type Nodes interface {
	// Sync rebuilds the inventory from the cloud driver
	Sync(ctx context.Context) error
	// FindNodes returns the nodes matching the query, see NodeInventory.FindNodes for the syntax
	FindNodes(query string) []types.Node
	GetNodeByIP(ip string) (types.Node, bool)
	Driver() clouddriver.Driver
}

// Pods gives access to the cluster workloads
type Pods interface {
	// FindPods lists the pods of a namespace, restricted to a label selector or to the pods of a deployment
	FindPods(ctx context.Context, namespace, selector, deployment string) ([]types.Pod, error)
	FindNamespaces(ctx context.Context) ([]string, error)
	FindDeployments(ctx context.Context, namespace, selector string) ([]string, error)
	GetService(ctx context.Context, namespace, name string) (types.Service, error)
	DeletePods(ctx context.Context, pods []types.Pod, gracePeriodSeconds int64) error
}

// GroupSource returns the IPs of the cluster hosts, grouped by name
type GroupSource interface {
	NodeGroups(ctx context.Context) (map[string][]string, error)
}

// StaticGroups is a fixed GroupSource
type StaticGroups map[string][]string

// NodeGroups implements GroupSource
func (s StaticGroups) NodeGroups(context.Context) (map[string][]string, error) {
	return s, nil
}
