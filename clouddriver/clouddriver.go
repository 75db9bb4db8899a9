// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package clouddriver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"

	"github.com/DataDog/chaos-seal/clouddriver/cordon"
	"github.com/DataDog/chaos-seal/clouddriver/nocloud"
	ctypes "github.com/DataDog/chaos-seal/clouddriver/types"
	"github.com/DataDog/chaos-seal/types"
)

// ErrUnsupported is returned by drivers unable to perform an action
var ErrUnsupported = errors.New("action not supported by the cloud driver")

// Driver controls the power state of nodes
type Driver interface {
	GetDriverName() string
	// Sync refreshes the driver's view of the infrastructure
	Sync(ctx context.Context) error
	// GetByIP returns the node owning the given IP, or nil when the driver doesn't know it
	GetByIP(ctx context.Context, ip string) (*types.Node, error)
	Start(ctx context.Context, node types.Node) error
	Stop(ctx context.Context, node types.Node) error
	Delete(ctx context.Context, node types.Node) error
}

// GetDriver returns an initiated cloud driver
func GetDriver(cfg ctypes.DriverConfig, client kubernetes.Interface, log *zap.SugaredLogger) (Driver, error) {
	switch ctypes.DriverName(cfg.Driver) {
	case ctypes.DriverNoCloud, "":
		return nocloud.New(log, ErrUnsupported), nil
	case ctypes.DriverCordon:
		if client == nil {
			return nil, fmt.Errorf("the %s driver requires a kubernetes client", cfg.Driver)
		}

		return cordon.New(client, cfg.TaintKey, log), nil
	default:
		return nil, fmt.Errorf("unsupported cloud driver: %s", cfg.Driver)
	}
}
