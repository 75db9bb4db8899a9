// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package cordon

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/util/retry"

	ctypes "github.com/DataDog/chaos-seal/clouddriver/types"
	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/types"
)

// ZoneLabel holds the availability zone of a node
const ZoneLabel = "topology.kubernetes.io/zone"

// Driver "stops" a node by cordoning it and setting a NoExecute taint, evicting its workloads.
// Starting the node removes both.
type Driver struct {
	client   kubernetes.Interface
	taintKey string
	log      *zap.SugaredLogger

	mu   sync.RWMutex
	byIP map[string]corev1.Node
}

// New cordon driver
func New(client kubernetes.Interface, taintKey string, log *zap.SugaredLogger) *Driver {
	if taintKey == "" {
		taintKey = ctypes.DefaultTaintKey
	}

	return &Driver{
		client:   client,
		taintKey: taintKey,
		log:      log,
		byIP:     map[string]corev1.Node{},
	}
}

// GetDriverName returns the name of the driver
func (d *Driver) GetDriverName() string {
	return string(ctypes.DriverCordon)
}

// Sync lists the cluster nodes and indexes them by address
func (d *Driver) Sync(ctx context.Context) error {
	nodes, err := d.client.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("unable to list nodes: %w", err)
	}

	byIP := make(map[string]corev1.Node, len(nodes.Items))

	for _, n := range nodes.Items {
		for _, addr := range n.Status.Addresses {
			byIP[addr.Address] = n
		}
	}

	d.mu.Lock()
	d.byIP = byIP
	d.mu.Unlock()

	d.log.Debugw("cordon driver synced", tags.CountKey, len(nodes.Items))

	return nil
}

// GetByIP returns the node with the given address as of the last sync
func (d *Driver) GetByIP(_ context.Context, ip string) (*types.Node, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n, ok := d.byIP[ip]
	if !ok {
		return nil, nil
	}

	node := d.toNode(n)

	return &node, nil
}

func (d *Driver) toNode(n corev1.Node) types.Node {
	node := types.Node{
		ID:    n.Name,
		Name:  n.Name,
		AZ:    n.Labels[ZoneLabel],
		State: types.NodeStateUnknown,
	}

	for _, addr := range n.Status.Addresses {
		switch addr.Type {
		case corev1.NodeInternalIP:
			if node.IP == "" {
				node.IP = addr.Address
			}
		case corev1.NodeExternalIP:
			if node.ExtIP == "" {
				node.ExtIP = addr.Address
			}
		}
	}

	if node.ExtIP == "" {
		node.ExtIP = node.IP
	}

	if d.hasTaint(n) {
		node.State = types.NodeStateDown

		return node
	}

	for _, cond := range n.Status.Conditions {
		if cond.Type == corev1.NodeReady && cond.Status == corev1.ConditionTrue {
			node.State = types.NodeStateUp
		}
	}

	return node
}

func (d *Driver) hasTaint(n corev1.Node) bool {
	for _, t := range n.Spec.Taints {
		if t.Key == d.taintKey {
			return true
		}
	}

	return false
}

// Stop cordons and taints the node
func (d *Driver) Stop(ctx context.Context, node types.Node) error {
	d.log.Infow("stopping node", tags.NodeKey, node.Name)

	return d.update(ctx, node, func(n *corev1.Node) {
		n.Spec.Unschedulable = true

		if !d.hasTaint(*n) {
			n.Spec.Taints = append(n.Spec.Taints, corev1.Taint{
				Key:    d.taintKey,
				Value:  "true",
				Effect: corev1.TaintEffectNoExecute,
			})
		}
	})
}

// Start removes the taint and uncordons the node
func (d *Driver) Start(ctx context.Context, node types.Node) error {
	d.log.Infow("starting node", tags.NodeKey, node.Name)

	return d.update(ctx, node, func(n *corev1.Node) {
		n.Spec.Unschedulable = false

		taints := n.Spec.Taints[:0]

		for _, t := range n.Spec.Taints {
			if t.Key != d.taintKey {
				taints = append(taints, t)
			}
		}

		n.Spec.Taints = taints
	})
}

// Delete removes the node object from the cluster
func (d *Driver) Delete(ctx context.Context, node types.Node) error {
	d.log.Infow("deleting node", tags.NodeKey, node.Name)

	if err := d.client.CoreV1().Nodes().Delete(ctx, node.Name, metav1.DeleteOptions{}); err != nil {
		return fmt.Errorf("unable to delete node %s: %w", node.Name, err)
	}

	return nil
}

func (d *Driver) update(ctx context.Context, node types.Node, mutate func(*corev1.Node)) error {
	err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		n, err := d.client.CoreV1().Nodes().Get(ctx, node.Name, metav1.GetOptions{})
		if err != nil {
			return err
		}

		mutate(n)

		_, err = d.client.CoreV1().Nodes().Update(ctx, n, metav1.UpdateOptions{})

		return err
	})
	if err != nil {
		return fmt.Errorf("unable to update node %s: %w", node.Name, err)
	}

	return nil
}
