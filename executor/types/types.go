// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package types

import "time"

// Kind represents the way commands and kills reach the nodes
type Kind string

const (
	// KindSSH runs commands over SSH on the nodes
	KindSSH Kind = "ssh"
	// KindKubernetes kills pods through the cluster API, commands are not supported
	KindKubernetes Kind = "kubernetes"
	// KindRuntime talks to the container runtime of the host the engine runs on
	KindRuntime Kind = "runtime"
)

// AllKinds lists the supported executors
var AllKinds = []Kind{KindSSH, KindKubernetes, KindRuntime}

// DefaultKillCommand is run over SSH to kill a container
const DefaultKillCommand = "sudo docker kill -s {signal} {container_id}"

// Config configures the executor
type Config struct {
	Kind               string    `json:"kind" yaml:"kind"`
	SSH                SSHConfig `json:"ssh" yaml:"ssh"`
	GracePeriodSeconds int64     `json:"gracePeriodSeconds" yaml:"gracePeriodSeconds"`
}

// SSHConfig configures the SSH executor
type SSHConfig struct {
	User                 string        `json:"user" yaml:"user"`
	Port                 int           `json:"port" yaml:"port"`
	PrivateKeyPath       string        `json:"privateKeyPath" yaml:"privateKeyPath"`
	Password             string        `json:"password" yaml:"password"`
	KnownHostsPath       string        `json:"knownHostsPath" yaml:"knownHostsPath"`
	AllowMissingHostKeys bool          `json:"allowMissingHostKeys" yaml:"allowMissingHostKeys"`
	UsePrivateIP         bool          `json:"usePrivateIP" yaml:"usePrivateIP"`
	OverrideHost         string        `json:"overrideHost" yaml:"overrideHost"`
	KillCommand          string        `json:"killCommand" yaml:"killCommand"`
	DialTimeout          time.Duration `json:"dialTimeout" yaml:"dialTimeout"`
	DialAttempts         uint          `json:"dialAttempts" yaml:"dialAttempts"`
}
