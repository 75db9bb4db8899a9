// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package config

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	corev1client "k8s.io/client-go/kubernetes/typed/core/v1"

	ctypes "github.com/DataDog/chaos-seal/clouddriver/types"
	"github.com/DataDog/chaos-seal/eventnotifier"
	etypes "github.com/DataDog/chaos-seal/executor/types"
	"github.com/DataDog/chaos-seal/inventory"
	mtypes "github.com/DataDog/chaos-seal/o11y/metrics/types"
	ptypes "github.com/DataDog/chaos-seal/o11y/profiler/types"
	ttypes "github.com/DataDog/chaos-seal/o11y/tracer/types"
)

// Config is the engine configuration
type Config struct {
	Engine      engineConfig                  `json:"engine" yaml:"engine"`
	Inventory   inventoryConfig               `json:"inventory" yaml:"inventory"`
	CloudDriver ctypes.DriverConfig           `json:"cloudDriver" yaml:"cloudDriver"`
	Executor    etypes.Config                 `json:"executor" yaml:"executor"`
	Metrics     metricsConfig                 `json:"metrics" yaml:"metrics"`
	Tracer      ttypes.SinkConfig             `json:"tracer" yaml:"tracer"`
	Profiler    ptypes.SinkConfig             `json:"profiler" yaml:"profiler"`
	Notifiers   eventnotifier.NotifiersConfig `json:"notifiers" yaml:"notifiers"`
	History     historyConfig                 `json:"history" yaml:"history"`
	LabelMode   labelModeConfig               `json:"labelMode" yaml:"labelMode"`
}

type engineConfig struct {
	PolicyPath  string `json:"policyPath" yaml:"policyPath"`
	BindAddr    string `json:"bindAddr" yaml:"bindAddr"`
	Autonomous  bool   `json:"autonomous" yaml:"autonomous"`
	Seed        int64  `json:"seed" yaml:"seed"`
	LogRingSize int    `json:"logRingSize" yaml:"logRingSize"`
	DryRun      bool   `json:"dryRun" yaml:"dryRun"`
}

type inventoryConfig struct {
	Kubeconfig        string        `json:"kubeconfig" yaml:"kubeconfig"`
	InCluster         bool          `json:"inCluster" yaml:"inCluster"`
	NodeGroupLabel    string        `json:"nodeGroupLabel" yaml:"nodeGroupLabel"`
	NamespaceCacheTTL time.Duration `json:"namespaceCacheTTL" yaml:"namespaceCacheTTL"`
}

type metricsConfig struct {
	Sink string `json:"sink" yaml:"sink"`
}

type historyConfig struct {
	DSN string `json:"dsn" yaml:"dsn"`
}

type labelModeConfig struct {
	Enabled   bool          `json:"enabled" yaml:"enabled"`
	Namespace string        `json:"namespace" yaml:"namespace"`
	MinSleep  time.Duration `json:"minSleep" yaml:"minSleep"`
	MaxSleep  time.Duration `json:"maxSleep" yaml:"maxSleep"`
}

const (
	DefaultBindAddr      = "0.0.0.0:8000"
	DefaultLogRingSize   = 10000
	DefaultLabelMaxSleep = 300 * time.Second
)

// New reads the configuration from the flags, then the configuration file and its ConfigMap overrides if any
func New(client corev1client.ConfigMapInterface, logger *zap.SugaredLogger, osArgs []string) (Config, error) {
	var (
		configPath         string
		configMapOverrides string
		cfg                Config
	)

	v := viper.New()
	preConfigFS := pflag.NewFlagSet("pre-config", pflag.ContinueOnError)
	mainFS := pflag.NewFlagSet("main-config", pflag.ContinueOnError)

	preConfigFS.ParseErrorsWhitelist.UnknownFlags = true
	preConfigFS.StringVar(&configPath, "config", "", "Configuration file path")
	preConfigFS.StringVar(&configMapOverrides, "config-overrides", "", "Name of ConfigMap to provide config overrides")
	// redefined in the main flag set so unknown flags are still reported there
	mainFS.StringVar(&configPath, "config", "", "Configuration file path")
	mainFS.StringVar(&configMapOverrides, "config-overrides", "", "Name of ConfigMap to provide config overrides")

	bind := func(key, flag string) error {
		return v.BindPFlag(key, mainFS.Lookup(flag))
	}

	var errs *multierror.Error

	mainFS.StringVar(&cfg.Engine.PolicyPath, "policy-file", "", "Path of the policy file to run")
	errs = multierror.Append(errs, bind("engine.policyPath", "policy-file"))

	mainFS.StringVar(&cfg.Engine.BindAddr, "bind-address", DefaultBindAddr, "The address the control server binds to")
	errs = multierror.Append(errs, bind("engine.bindAddr", "bind-address"))

	mainFS.BoolVar(&cfg.Engine.Autonomous, "autonomous", false, "Start running the policy as soon as the engine starts")
	errs = multierror.Append(errs, bind("engine.autonomous", "autonomous"))

	mainFS.Int64Var(&cfg.Engine.Seed, "seed", 0, "Seed of the random source, 0 seeding from the clock")
	errs = multierror.Append(errs, bind("engine.seed", "seed"))

	mainFS.IntVar(&cfg.Engine.LogRingSize, "log-ring-size", DefaultLogRingSize, "Number of log lines kept for the logs endpoint")
	errs = multierror.Append(errs, bind("engine.logRingSize", "log-ring-size"))

	mainFS.BoolVar(&cfg.Engine.DryRun, "dry-run", false, "Log external commands instead of running them")
	errs = multierror.Append(errs, bind("engine.dryRun", "dry-run"))

	mainFS.StringVar(&cfg.Inventory.Kubeconfig, "kubeconfig", "", "Path of the kubeconfig file, also passed to kubectl")
	errs = multierror.Append(errs, bind("inventory.kubeconfig", "kubeconfig"))

	mainFS.BoolVar(&cfg.Inventory.InCluster, "in-cluster", false, "Use the service account the engine runs with")
	errs = multierror.Append(errs, bind("inventory.inCluster", "in-cluster"))

	mainFS.StringVar(&cfg.Inventory.NodeGroupLabel, "node-group-label", "", "Node label used to group nodes, every node label when empty")
	errs = multierror.Append(errs, bind("inventory.nodeGroupLabel", "node-group-label"))

	mainFS.DurationVar(&cfg.Inventory.NamespaceCacheTTL, "namespace-cache-ttl", inventory.DefaultNamespaceCacheTTL, "How long the namespace list is cached")
	errs = multierror.Append(errs, bind("inventory.namespaceCacheTTL", "namespace-cache-ttl"))

	mainFS.StringVar(&cfg.CloudDriver.Driver, "cloud-driver", string(ctypes.DriverNoCloud), "Cloud driver (nocloud, or cordon)")
	errs = multierror.Append(errs, bind("cloudDriver.driver", "cloud-driver"))

	mainFS.StringVar(&cfg.CloudDriver.TaintKey, "cloud-driver-taint-key", ctypes.DefaultTaintKey, "Taint key set on nodes stopped by the cordon driver")
	errs = multierror.Append(errs, bind("cloudDriver.taintKey", "cloud-driver-taint-key"))

	mainFS.StringVar(&cfg.Executor.Kind, "executor", string(etypes.KindKubernetes), "Executor (ssh, kubernetes, or runtime)")
	errs = multierror.Append(errs, bind("executor.kind", "executor"))

	mainFS.Int64Var(&cfg.Executor.GracePeriodSeconds, "executor-grace-period", 0, "Grace period of pods deleted with SIGTERM by the kubernetes executor")
	errs = multierror.Append(errs, bind("executor.gracePeriodSeconds", "executor-grace-period"))

	mainFS.StringVar(&cfg.Executor.SSH.User, "ssh-user", "", "SSH user")
	errs = multierror.Append(errs, bind("executor.ssh.user", "ssh-user"))

	mainFS.IntVar(&cfg.Executor.SSH.Port, "ssh-port", 22, "SSH port")
	errs = multierror.Append(errs, bind("executor.ssh.port", "ssh-port"))

	mainFS.StringVar(&cfg.Executor.SSH.PrivateKeyPath, "ssh-private-key", "", "Path of the SSH private key")
	errs = multierror.Append(errs, bind("executor.ssh.privateKeyPath", "ssh-private-key"))

	mainFS.StringVar(&cfg.Executor.SSH.Password, "ssh-password", "", "SSH password, also used to decrypt the private key")
	errs = multierror.Append(errs, bind("executor.ssh.password", "ssh-password"))

	mainFS.StringVar(&cfg.Executor.SSH.KnownHostsPath, "ssh-known-hosts", "", "Path of the known_hosts file")
	errs = multierror.Append(errs, bind("executor.ssh.knownHostsPath", "ssh-known-hosts"))

	mainFS.BoolVar(&cfg.Executor.SSH.AllowMissingHostKeys, "ssh-allow-missing-host-keys", false, "Accept hosts missing from the known_hosts file")
	errs = multierror.Append(errs, bind("executor.ssh.allowMissingHostKeys", "ssh-allow-missing-host-keys"))

	mainFS.BoolVar(&cfg.Executor.SSH.UsePrivateIP, "ssh-use-private-ip", false, "Connect to the node private IP instead of its external IP")
	errs = multierror.Append(errs, bind("executor.ssh.usePrivateIP", "ssh-use-private-ip"))

	mainFS.StringVar(&cfg.Executor.SSH.OverrideHost, "ssh-override-host", "", "Host to connect to whatever the node")
	errs = multierror.Append(errs, bind("executor.ssh.overrideHost", "ssh-override-host"))

	mainFS.StringVar(&cfg.Executor.SSH.KillCommand, "ssh-kill-command", etypes.DefaultKillCommand, "Command killing a container, {signal} and {container_id} being replaced")
	errs = multierror.Append(errs, bind("executor.ssh.killCommand", "ssh-kill-command"))

	mainFS.DurationVar(&cfg.Executor.SSH.DialTimeout, "ssh-dial-timeout", 10*time.Second, "SSH connection timeout")
	errs = multierror.Append(errs, bind("executor.ssh.dialTimeout", "ssh-dial-timeout"))

	mainFS.UintVar(&cfg.Executor.SSH.DialAttempts, "ssh-dial-attempts", 3, "SSH connection attempts")
	errs = multierror.Append(errs, bind("executor.ssh.dialAttempts", "ssh-dial-attempts"))

	mainFS.StringVar(&cfg.Metrics.Sink, "metrics-sink", string(mtypes.SinkDriverNoop), "metrics sink (datadog, prometheus, or noop)")
	errs = multierror.Append(errs, bind("metrics.sink", "metrics-sink"))

	mainFS.StringVar(&cfg.Tracer.SinkDriver, "tracer-sink", string(ttypes.SinkDriverNoop), "tracer sink (datadog, or noop)")
	errs = multierror.Append(errs, bind("tracer.sink", "tracer-sink"))

	mainFS.Float64Var(&cfg.Tracer.SampleRate, "tracer-sample-rate", 1, "Rate of traces sent to the tracer sink")
	errs = multierror.Append(errs, bind("tracer.sampleRate", "tracer-sample-rate"))

	mainFS.StringVar(&cfg.Profiler.SinkDriver, "profiler-sink", string(ptypes.SinkDriverNoop), "profiler sink (datadog, or noop)")
	errs = multierror.Append(errs, bind("profiler.sink", "profiler-sink"))

	mainFS.StringVar(&cfg.Notifiers.Common.ClusterName, "notifiers-common-clustername", "", "Cluster Name for notifiers output")
	errs = multierror.Append(errs, bind("notifiers.common.clusterName", "notifiers-common-clustername"))

	mainFS.BoolVar(&cfg.Notifiers.Noop.Enabled, "notifiers-noop-enabled", false, "Enabler toggle for the NOOP notifier (defaulted to false)")
	errs = multierror.Append(errs, bind("notifiers.noop.enabled", "notifiers-noop-enabled"))

	mainFS.BoolVar(&cfg.Notifiers.Slack.Enabled, "notifiers-slack-enabled", false, "Enabler toggle for the Slack notifier (defaulted to false)")
	errs = multierror.Append(errs, bind("notifiers.slack.enabled", "notifiers-slack-enabled"))

	mainFS.StringVar(&cfg.Notifiers.Slack.TokenFilepath, "notifiers-slack-tokenfilepath", "", "File path of the API token for the Slack notifier")
	errs = multierror.Append(errs, bind("notifiers.slack.tokenFilepath", "notifiers-slack-tokenfilepath"))

	mainFS.StringVar(&cfg.Notifiers.Slack.Channel, "notifiers-slack-channel", "", "Slack channel ID failed scenarios are reported to")
	errs = multierror.Append(errs, bind("notifiers.slack.channel", "notifiers-slack-channel"))

	mainFS.BoolVar(&cfg.Notifiers.Datadog.Enabled, "notifiers-datadog-enabled", false, "Enabler toggle for the Datadog notifier (defaulted to false)")
	errs = multierror.Append(errs, bind("notifiers.datadog.enabled", "notifiers-datadog-enabled"))

	mainFS.BoolVar(&cfg.Notifiers.HTTP.Enabled, "notifiers-http-enabled", false, "Enabler toggle for the HTTP notifier (defaulted to false)")
	errs = multierror.Append(errs, bind("notifiers.http.enabled", "notifiers-http-enabled"))

	mainFS.StringVar(&cfg.Notifiers.HTTP.URL, "notifiers-http-url", "", "URL the HTTP notifier posts to")
	errs = multierror.Append(errs, bind("notifiers.http.url", "notifiers-http-url"))

	mainFS.StringArrayVar(&cfg.Notifiers.HTTP.Headers, "notifiers-http-headers", []string{}, "Additional headers to add to the request when sending the notification")
	errs = multierror.Append(errs, bind("notifiers.http.headers", "notifiers-http-headers"))

	mainFS.StringVar(&cfg.Notifiers.HTTP.AuthURL, "notifiers-http-auth-url", "", "First perform an HTTP request to dynamically retrieve auth information before sending http notification")
	errs = multierror.Append(errs, bind("notifiers.http.authURL", "notifiers-http-auth-url"))

	mainFS.StringSliceVar(&cfg.Notifiers.HTTP.AuthHeaders, "notifiers-http-auth-headers", []string{}, "HTTP headers to provide to auth request")
	errs = multierror.Append(errs, bind("notifiers.http.authHeaders", "notifiers-http-auth-headers"))

	mainFS.StringVar(&cfg.Notifiers.HTTP.AuthTokenPath, "notifiers-http-auth-token-path", "", "Extract bearer token from provided JSON path (using GJSON)")
	errs = multierror.Append(errs, bind("notifiers.http.authTokenPath", "notifiers-http-auth-token-path"))

	mainFS.StringVar(&cfg.History.DSN, "history-dsn", "", "Postgres DSN of the scenario history, kept in memory when empty")
	errs = multierror.Append(errs, bind("history.dsn", "history-dsn"))

	mainFS.BoolVar(&cfg.LabelMode.Enabled, "label-mode", false, "Kill the pods opting in through their labels instead of running a policy")
	errs = multierror.Append(errs, bind("labelMode.enabled", "label-mode"))

	mainFS.StringVar(&cfg.LabelMode.Namespace, "label-mode-namespace", inventory.DefaultNamespace, "Namespace watched by the label mode")
	errs = multierror.Append(errs, bind("labelMode.namespace", "label-mode-namespace"))

	mainFS.DurationVar(&cfg.LabelMode.MinSleep, "label-mode-min-sleep", 0, "Minimum sleep between two label mode loops")
	errs = multierror.Append(errs, bind("labelMode.minSleep", "label-mode-min-sleep"))

	mainFS.DurationVar(&cfg.LabelMode.MaxSleep, "label-mode-max-sleep", DefaultLabelMaxSleep, "Maximum sleep between two label mode loops")
	errs = multierror.Append(errs, bind("labelMode.maxSleep", "label-mode-max-sleep"))

	if err := errs.ErrorOrNil(); err != nil {
		return cfg, fmt.Errorf("unable to bind flags: %w", err)
	}

	if err := preConfigFS.Parse(osArgs); err != nil {
		return cfg, fmt.Errorf("unable to retrieve configuration parse from provided flag: %w", err)
	}

	// load configuration file if present first and add values to cfg struct
	if configPath != "" {
		logger.Infow("loading configuration file", "config", configPath)

		v.SetConfigFile(configPath)

		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("error loading configuration file: %w", err)
		}

		if configMapOverrides != "" {
			if client == nil {
				return cfg, fmt.Errorf("unable to fetch %s: no cluster client", configMapOverrides)
			}

			configMap, err := fetchOverrides(client, configMapOverrides, logger)
			if err != nil {
				return cfg, err
			}

			interfacedMap := make(map[string]interface{}, len(configMap.Data))
			for key, value := range configMap.Data {
				interfacedMap[key] = value
			}

			if err := v.MergeConfigMap(interfacedMap); err != nil {
				return cfg, fmt.Errorf("unable to merge config map: %w", err)
			}

			go watchOverrides(client, configMapOverrides, configMap.ResourceVersion, logger)
		}

		if err := v.Unmarshal(&cfg); err != nil {
			return cfg, fmt.Errorf("error unmarshaling configuration: %w", err)
		}

		v.WatchConfig()
		v.OnConfigChange(func(in fsnotify.Event) {
			logger.Infow("configuration has changed, restarting", "event", in.String())
			os.Exit(0)
		})
	}

	// now that configuration file has been loaded, parse all remaining flags
	if err := mainFS.Parse(osArgs); err != nil {
		return cfg, fmt.Errorf("unable to parse main flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func fetchOverrides(client corev1client.ConfigMapInterface, name string, logger *zap.SugaredLogger) (*corev1.ConfigMap, error) {
	var configMap *corev1.ConfigMap

	if err := backoff.Retry(func() error {
		var err error

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		configMap, err = client.Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			logger.Debugw(fmt.Sprintf("failed to get %s configMap", name), "error", err)
		}

		return err
	}, backoff.WithMaxRetries(backoff.NewConstantBackOff(5*time.Second), 5)); err != nil {
		return nil, fmt.Errorf("unable to retry fetching %s: %w", name, err)
	}

	return configMap, nil
}

// watchOverrides exits the process once the overrides ConfigMap changed, so it restarts with the new values
func watchOverrides(client corev1client.ConfigMapInterface, name, resourceVersion string, logger *zap.SugaredLogger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		configMap, err := client.Get(context.Background(), name, metav1.GetOptions{})
		if err != nil {
			logger.Errorw(fmt.Sprintf("error getting %s configMap", name), "error", err)
			continue
		}

		if configMap.ResourceVersion != resourceVersion {
			logger.Info("override configmap has changed, restarting")
			os.Exit(0)
		}
	}
}

func (c Config) validate() error {
	var errs *multierror.Error

	if !slices.Contains(ctypes.AllDrivers, ctypes.DriverName(c.CloudDriver.Driver)) {
		errs = multierror.Append(errs, fmt.Errorf("unknown cloud driver %q", c.CloudDriver.Driver))
	}

	if !slices.Contains(etypes.AllKinds, etypes.Kind(c.Executor.Kind)) {
		errs = multierror.Append(errs, fmt.Errorf("unknown executor %q", c.Executor.Kind))
	}

	switch mtypes.SinkDriver(c.Metrics.Sink) {
	case mtypes.SinkDriverDatadog, mtypes.SinkDriverPrometheus, mtypes.SinkDriverNoop:
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown metrics sink %q", c.Metrics.Sink))
	}

	switch ttypes.SinkDriver(c.Tracer.SinkDriver) {
	case ttypes.SinkDriverDatadog, ttypes.SinkDriverNoop:
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown tracer sink %q", c.Tracer.SinkDriver))
	}

	switch ptypes.SinkDriver(c.Profiler.SinkDriver) {
	case ptypes.SinkDriverDatadog, ptypes.SinkDriverNoop:
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown profiler sink %q", c.Profiler.SinkDriver))
	}

	if c.LabelMode.MinSleep < 0 || c.LabelMode.MinSleep > c.LabelMode.MaxSleep {
		errs = multierror.Append(errs, fmt.Errorf("label mode minSleep %s must be between 0 and maxSleep %s", c.LabelMode.MinSleep, c.LabelMode.MaxSleep))
	}

	return errs.ErrorOrNil()
}
