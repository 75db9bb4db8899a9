// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package nocloud

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	ctypes "github.com/DataDog/chaos-seal/clouddriver/types"
	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/types"
)

// Driver makes up nodes out of IPs and refuses every action
type Driver struct {
	log         *zap.SugaredLogger
	unsupported error
}

// New NoCloud driver, unsupported being returned by every action
func New(log *zap.SugaredLogger, unsupported error) Driver {
	return Driver{log: log, unsupported: unsupported}
}

// GetDriverName returns the name of the driver
func (d Driver) GetDriverName() string {
	return string(ctypes.DriverNoCloud)
}

// Sync does nothing
func (d Driver) Sync(context.Context) error {
	d.log.Debug("NOOP: sync called on the nocloud driver")

	return nil
}

// GetByIP creates a node for the given IP
func (d Driver) GetByIP(_ context.Context, ip string) (*types.Node, error) {
	return &types.Node{
		ID:    "fake-" + ip,
		Name:  "local-" + ip,
		IP:    ip,
		ExtIP: ip,
		AZ:    "nope",
		State: types.NodeStateUnknown,
	}, nil
}

// Start is not supported
func (d Driver) Start(_ context.Context, node types.Node) error {
	return d.refuse("start", node)
}

// Stop is not supported
func (d Driver) Stop(_ context.Context, node types.Node) error {
	return d.refuse("stop", node)
}

// Delete is not supported
func (d Driver) Delete(_ context.Context, node types.Node) error {
	return d.refuse("delete", node)
}

func (d Driver) refuse(action string, node types.Node) error {
	d.log.Errorw("trying to act on a node while using the nocloud driver", tags.ActionKey, action, tags.NodeKey, node.ID)

	return fmt.Errorf("%s %s: %w", action, node.ID, d.unsupported)
}
