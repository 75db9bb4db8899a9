// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"

	"github.com/DataDog/chaos-seal/clouddriver"
	"github.com/DataDog/chaos-seal/command"
	"github.com/DataDog/chaos-seal/config"
	"github.com/DataDog/chaos-seal/eventnotifier"
	"github.com/DataDog/chaos-seal/executor"
	"github.com/DataDog/chaos-seal/history"
	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/o11y/metrics"
	mtypes "github.com/DataDog/chaos-seal/o11y/metrics/types"
	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/scenario"
	"github.com/DataDog/chaos-seal/types"
)

// Components are the collaborators built from the configuration
type Components struct {
	Client    kubernetes.Interface
	Nodes     *inventory.NodeInventory
	Pods      *inventory.K8sInventory
	Executor  executor.Executor
	Metrics   metrics.Sink
	Notifiers []eventnotifier.Notifier
	History   history.Store
	Deps      scenario.Deps
}

// Build connects to the cluster and builds every collaborator, then syncs the node inventory once.
// A client may be given, a new one being built from the inventory configuration otherwise.
func Build(ctx context.Context, cfg config.Config, client kubernetes.Interface, app mtypes.SinkApp, log *zap.SugaredLogger) (*Components, error) {
	var err error

	if client == nil {
		client, err = inventory.NewClient(cfg.Inventory.Kubeconfig, cfg.Inventory.InCluster)
		if err != nil {
			return nil, err
		}
	}

	c := &Components{Client: client}

	c.Metrics, err = metrics.GetSink(log, mtypes.SinkDriver(cfg.Metrics.Sink), app)
	if err != nil {
		return nil, fmt.Errorf("error while creating metric sink: %w", err)
	}

	c.Notifiers, err = eventnotifier.GetNotifiers(cfg.Notifiers, log)
	if err != nil {
		log.Errorw("error(s) while creating notifiers", tags.ErrorKey, err)
	}

	c.History, err = history.GetStore(ctx, cfg.History.DSN, log)
	if err != nil {
		c.Close(log)

		return nil, err
	}

	c.Pods = inventory.NewK8sInventory(client, cfg.Inventory.NodeGroupLabel, cfg.Inventory.NamespaceCacheTTL, log)

	driver, err := clouddriver.GetDriver(cfg.CloudDriver, client, log)
	if err != nil {
		c.Close(log)

		return nil, err
	}

	c.Nodes = inventory.NewNodeInventory(driver, c.Pods, log)

	rand := types.NewRand(cfg.Engine.Seed)
	commands := command.NewFactory(cfg.Engine.DryRun)

	c.Executor, err = executor.GetExecutor(cfg.Executor, executor.Dependencies{
		Pods:   c.Pods,
		Rand:   rand,
		Log:    log,
		Runner: commands,
	})
	if err != nil {
		c.Close(log)

		return nil, err
	}

	c.Deps = scenario.Deps{
		Nodes:      c.Nodes,
		Pods:       c.Pods,
		Executor:   c.Executor,
		Metrics:    c.Metrics,
		Rand:       rand,
		Log:        log,
		Commands:   commands,
		Kubeconfig: cfg.Inventory.Kubeconfig,
		Client:     client,
	}.WithDefaults()

	if err := c.Nodes.Sync(ctx); err != nil {
		log.Warnw("error syncing the node inventory", tags.ErrorKey, err)
	}

	return c, nil
}

// Close releases the metrics sink and the history store
func (c *Components) Close(log *zap.SugaredLogger) {
	if c.Metrics != nil {
		log.Infow("closing metrics sink client before exiting", "sink", c.Metrics.GetSinkName())

		if err := c.Metrics.Close(); err != nil {
			log.Errorw("error closing metrics sink client", "sink", c.Metrics.GetSinkName(), tags.ErrorKey, err)
		}
	}

	if c.History != nil {
		if err := c.History.Close(); err != nil {
			log.Errorw("error closing the history store", tags.ErrorKey, err)
		}
	}
}
