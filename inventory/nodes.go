// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package inventory

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/clouddriver"
	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/types"
)

// NodeInventory keeps the hosts known by the cloud driver, grouped the way the group source says
type NodeInventory struct {
	driver clouddriver.Driver
	groups GroupSource
	log    *zap.SugaredLogger

	mu        sync.RWMutex
	nodesByID map[string]*types.Node
	nodesByIP map[string]*types.Node
	byGroup   map[string][]*types.Node
	azs       map[string]struct{}
}

// NewNodeInventory returns an empty inventory, Sync must be called to fill it
func NewNodeInventory(driver clouddriver.Driver, groups GroupSource, log *zap.SugaredLogger) *NodeInventory {
	return &NodeInventory{
		driver:    driver,
		groups:    groups,
		log:       log,
		nodesByID: map[string]*types.Node{},
		nodesByIP: map[string]*types.Node{},
		byGroup:   map[string][]*types.Node{},
		azs:       map[string]struct{}{},
	}
}

// Driver returns the cloud driver backing the inventory
func (i *NodeInventory) Driver() clouddriver.Driver {
	return i.driver
}

// Sync recreates every node from the driver, walking groups in sorted order and numbering nodes as they come
func (i *NodeInventory) Sync(ctx context.Context) error {
	if err := i.driver.Sync(ctx); err != nil {
		return fmt.Errorf("unable to sync cloud driver: %w", err)
	}

	groups, err := i.groups.NodeGroups(ctx)
	if err != nil {
		return fmt.Errorf("unable to read node groups: %w", err)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}

	sort.Strings(names)

	nodesByID := map[string]*types.Node{}
	nodesByIP := map[string]*types.Node{}
	byGroup := map[string][]*types.Node{}
	azs := map[string]struct{}{}
	counter := 0

	for _, group := range names {
		byGroup[group] = []*types.Node{}

		for _, ip := range groups[group] {
			// the same IP can belong to several groups
			node, ok := nodesByIP[ip]
			if !ok {
				found, err := i.driver.GetByIP(ctx, ip)
				if err != nil {
					return fmt.Errorf("unable to get node %s: %w", ip, err)
				}

				if found == nil {
					if net.ParseIP(ip) != nil {
						i.log.Debugw("couldn't match IP to any cloud node", tags.HostKey, ip)
					}

					continue
				}

				node = found
				node.Groups = nil
				node.No = counter
				counter++
			}

			nodesByID[node.ID] = node
			nodesByIP[ip] = node
			byGroup[group] = append(byGroup[group], node)
			node.Groups = append(node.Groups, group)
			azs[node.AZ] = struct{}{}
		}
	}

	i.mu.Lock()
	i.nodesByID, i.nodesByIP, i.byGroup, i.azs = nodesByID, nodesByIP, byGroup, azs
	i.mu.Unlock()

	i.log.Debugw("node inventory synced", tags.CountKey, len(nodesByID))

	return nil
}

// AllNodes returns every node, sorted by number
func (i *NodeInventory) AllNodes() []types.Node {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return i.allNodes()
}

func (i *NodeInventory) allNodes() []types.Node {
	nodes := make([]types.Node, 0, len(i.nodesByID))
	for _, n := range i.nodesByID {
		nodes = append(nodes, copyNode(n))
	}

	sort.Slice(nodes, func(a, b int) bool { return nodes[a].No < nodes[b].No })

	return nodes
}

// GetNodeByIP returns the node owning the given IP
func (i *NodeInventory) GetNodeByIP(ip string) (types.Node, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	n, ok := i.nodesByIP[ip]
	if !ok {
		return types.Node{}, false
	}

	return copyNode(n), true
}

// FindNodes resolves a query into nodes. A query is either empty or "all", a comma separated
// list of queries, a group name, an availability zone, an id, ip, external ip, number or name,
// or a state name.
func (i *NodeInventory) FindNodes(query string) []types.Node {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return i.findNodes(strings.TrimSpace(query))
}

func (i *NodeInventory) findNodes(query string) []types.Node {
	if query == "" || query == "all" {
		return i.allNodes()
	}

	if strings.Contains(query, ",") {
		out := []types.Node{}
		for _, element := range strings.Split(query, ",") {
			out = append(out, i.findNodes(strings.TrimSpace(element))...)
		}

		return out
	}

	if group, ok := i.byGroup[query]; ok {
		out := make([]types.Node, 0, len(group))
		for _, n := range group {
			out = append(out, copyNode(n))
		}

		return out
	}

	all := i.allNodes()

	if _, ok := i.azs[query]; ok {
		out := []types.Node{}
		for _, n := range all {
			if n.AZ == query {
				out = append(out, n)
			}
		}

		return out
	}

	for _, n := range all {
		if n.ID == query || n.IP == query || n.ExtIP == query || strconv.Itoa(n.No) == query || n.Name == query {
			return []types.Node{n}
		}
	}

	out := []types.Node{}

	if state, err := types.ParseNodeState(query); err == nil {
		for _, n := range all {
			if n.State == state {
				out = append(out, n)
			}
		}
	}

	return out
}

// Groups returns the sorted group names
func (i *NodeInventory) Groups() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]string, 0, len(i.byGroup))
	for g := range i.byGroup {
		out = append(out, g)
	}

	sort.Strings(out)

	return out
}

// AZs returns the sorted availability zones
func (i *NodeInventory) AZs() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]string, 0, len(i.azs))
	for az := range i.azs {
		out = append(out, az)
	}

	sort.Strings(out)

	return out
}

func copyNode(n *types.Node) types.Node {
	c := *n
	c.Groups = append([]string{}, n.Groups...)

	return c
}
