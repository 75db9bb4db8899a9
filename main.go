// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	corev1client "k8s.io/client-go/kubernetes/typed/core/v1"

	"github.com/DataDog/chaos-seal/config"
	"github.com/DataDog/chaos-seal/engine"
	"github.com/DataDog/chaos-seal/internal/bootstrap"
	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/labelrunner"
	chaoslog "github.com/DataDog/chaos-seal/log"
	"github.com/DataDog/chaos-seal/o11y/metrics/prometheus"
	mtypes "github.com/DataDog/chaos-seal/o11y/metrics/types"
	"github.com/DataDog/chaos-seal/o11y/profiler"
	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/o11y/tracer"
	"github.com/DataDog/chaos-seal/policy"
	"github.com/DataDog/chaos-seal/runner"
	"github.com/DataDog/chaos-seal/server"
)

// PodNamespaceEnv is the namespace holding the ConfigMap overrides when running in the cluster
const PodNamespaceEnv = "POD_NAMESPACE"

// ShutdownTimeout bounds the wait for the worker cleanup, below the default pod termination grace period
const ShutdownTimeout = 25 * time.Second

func main() {
	setupLog, err := chaoslog.NewZapLogger()
	if err != nil {
		os.Exit(1)
	}

	cfg, err := config.New(overridesClient(setupLog), setupLog, os.Args[1:])
	if err != nil {
		setupLog.Fatalw("error loading the configuration", tags.ErrorKey, err)
	}

	var comps *bootstrap.Components

	work := func(ctx context.Context, source policy.Source) error {
		if cfg.LabelMode.Enabled {
			return labelrunner.New(labelrunner.Config{
				Namespace: cfg.LabelMode.Namespace,
				MinSleep:  cfg.LabelMode.MinSleep,
				MaxSleep:  cfg.LabelMode.MaxSleep,
			}, comps.Deps, nil).Run(ctx)
		}

		_, err := runner.New(source, comps.Deps, runner.Options{
			History:   comps.History,
			Notifiers: comps.Notifiers,
		}).Run(ctx)

		return err
	}

	handle := engine.New(nil, work, cfg.Engine.LogRingSize)

	// every entry is also kept by the handle, for the logs endpoints
	logger, err := chaoslog.NewZapLoggerWithSink(handle)
	if err != nil {
		setupLog.Fatalw("error creating the engine logger", tags.ErrorKey, err)
	}

	handle.SetLogger(logger)
	chaoslog.RedirectKlog(logger)

	if !cfg.LabelMode.Enabled {
		p, err := policy.Load(cfg.Engine.PolicyPath)
		if err != nil {
			logger.Fatalw("error loading the policy", tags.PolicyPathKey, cfg.Engine.PolicyPath, tags.ErrorKey, err)
		}

		handle.SetPolicy(p)
	}

	ctx, stop := signal.NotifyContext(chaoslog.WithLogger(context.Background(), logger), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracerSink, err := tracer.GetSink(logger, cfg.Tracer)
	if err != nil {
		logger.Fatalw("error while creating tracer sink", tags.ErrorKey, err)
	}

	defer tracerSink.Stop()

	profilerSink, err := profiler.GetSink(logger, cfg.Profiler)
	if err != nil {
		logger.Fatalw("error while creating profiler sink", tags.ErrorKey, err)
	}

	defer profilerSink.Stop()

	comps, err = bootstrap.Build(ctx, cfg, nil, mtypes.SinkAppEngine, logger)
	if err != nil {
		logger.Fatalw("error building the engine", tags.ErrorKey, err)
	}

	defer comps.Close(logger)

	var metricsHandler http.Handler
	if sink, ok := comps.Metrics.(*prometheus.Sink); ok {
		metricsHandler = sink.Handler()
	}

	srv := server.New(server.Dependencies{
		Handle:     handle,
		Nodes:      comps.Nodes,
		Pods:       comps.Pods,
		Executor:   comps.Executor,
		History:    comps.History,
		Metrics:    metricsHandler,
		PolicyPath: cfg.Engine.PolicyPath,
		Log:        logger,
	})

	if cfg.Engine.Autonomous || cfg.LabelMode.Enabled {
		if err := handle.Start(); err != nil {
			logger.Errorw("error starting the engine", tags.ErrorKey, err)
		}
	}

	logger.Infow("starting chaos-seal", "labelMode", cfg.LabelMode.Enabled, "autonomous", cfg.Engine.Autonomous)

	if err := srv.ListenAndServe(ctx, cfg.Engine.BindAddr); err != nil {
		logger.Errorw("problem running the control server", tags.ErrorKey, err)
	}

	shutdown(handle, logger)
}

// shutdown stops the worker and waits for its cleanup to complete
func shutdown(handle *engine.Handle, logger *zap.SugaredLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := handle.StopAndWait(ctx); err != nil {
		logger.Warnw("the engine did not stop in time, exiting anyway", tags.ErrorKey, err)
	}
}

// overridesClient gives access to the ConfigMaps of the engine namespace when running in the cluster
func overridesClient(logger *zap.SugaredLogger) corev1client.ConfigMapInterface {
	namespace, ok := os.LookupEnv(PodNamespaceEnv)
	if !ok {
		return nil
	}

	client, err := inventory.NewClient("", true)
	if err != nil {
		logger.Warnw("unable to read config overrides", tags.ErrorKey, err)
		return nil
	}

	return client.CoreV1().ConfigMaps(namespace)
}
