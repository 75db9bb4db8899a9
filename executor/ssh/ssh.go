// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	etypes "github.com/DataDog/chaos-seal/executor/types"
	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/types"
)

const (
	defaultUser         = "cloud-user"
	defaultPort         = 22
	defaultDialTimeout  = 10 * time.Second
	defaultDialAttempts = 3
)

// Executor runs commands on nodes over SSH, prefixed with "sh -c"
type Executor struct {
	cfg       etypes.SSHConfig
	clientCfg *ssh.ClientConfig
	rand      types.Rand
	log       *zap.SugaredLogger

	// run executes a command on a single host
	run func(ctx context.Context, host, cmd string) types.ExecResult
}

// New SSH executor
func New(cfg etypes.SSHConfig, rand types.Rand, log *zap.SugaredLogger) (*Executor, error) {
	if cfg.User == "" {
		cfg.User = defaultUser
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}

	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTimeout
	}

	if cfg.DialAttempts == 0 {
		cfg.DialAttempts = defaultDialAttempts
	}

	if cfg.KillCommand == "" {
		cfg.KillCommand = etypes.DefaultKillCommand
	}

	auth, err := authMethods(cfg)
	if err != nil {
		return nil, err
	}

	hostKeyCallback, err := hostKeyCallback(cfg)
	if err != nil {
		return nil, err
	}

	e := &Executor{
		cfg: cfg,
		clientCfg: &ssh.ClientConfig{
			User:            cfg.User,
			Auth:            auth,
			HostKeyCallback: hostKeyCallback,
			Timeout:         cfg.DialTimeout,
		},
		rand: rand,
		log:  log,
	}
	e.run = e.runSSH

	return e, nil
}

func authMethods(cfg etypes.SSHConfig) ([]ssh.AuthMethod, error) {
	if cfg.Password != "" {
		return []ssh.AuthMethod{ssh.Password(cfg.Password)}, nil
	}

	keyPath := cfg.PrivateKeyPath
	if keyPath == "" {
		keyPath = "~/.ssh/id_rsa"
	}

	keyPath, err := homedir.Expand(keyPath)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve private key path: %w", err)
	}

	key, err := os.ReadFile(filepath.Clean(keyPath))
	if err != nil {
		return nil, fmt.Errorf("unable to read private key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("unable to parse private key %s: %w", keyPath, err)
	}

	return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
}

func hostKeyCallback(cfg etypes.SSHConfig) (ssh.HostKeyCallback, error) {
	if cfg.AllowMissingHostKeys {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec
	}

	path := cfg.KnownHostsPath
	if path == "" {
		path = "~/.ssh/known_hosts"
	}

	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve known hosts path: %w", err)
	}

	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load known hosts: %w", err)
	}

	return callback, nil
}

// host returns the address used to reach the node
func (e *Executor) host(node types.Node) string {
	switch {
	case e.cfg.OverrideHost != "":
		return e.cfg.OverrideHost
	case e.cfg.UsePrivateIP || node.ExtIP == "":
		return node.IP
	default:
		return node.ExtIP
	}
}

// Execute implements Executor
func (e *Executor) Execute(ctx context.Context, cmd string, nodes []types.Node) map[string]types.ExecResult {
	results := make(map[string]types.ExecResult, len(nodes))

	for _, node := range nodes {
		host := e.host(node)

		e.log.Debugw("executing command", tags.CommandKey, cmd, tags.NodeKey, node.Name, tags.HostKey, host)

		res := e.run(ctx, host, cmd)
		if res.Error != "" {
			e.log.Errorw("command execution failed", tags.CommandKey, cmd, tags.NodeKey, node.Name, tags.ErrorKey, res.Error)
		}

		results[host] = res
	}

	return results
}

func (e *Executor) runSSH(ctx context.Context, host, cmd string) types.ExecResult {
	addr := net.JoinHostPort(host, strconv.Itoa(e.cfg.Port))

	var client *ssh.Client

	err := retry.Do(
		func() error {
			c, err := e.dial(ctx, addr)
			if err != nil {
				return err
			}

			client = c

			return nil
		},
		retry.Attempts(e.cfg.DialAttempts),
		retry.Delay(time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			e.log.Debugw("retrying ssh connection", tags.HostKey, host, tags.AttemptKey, n+1, tags.ErrorKey, err)
		}),
	)
	if err != nil {
		return types.ExecResult{RetCode: 1, Error: fmt.Sprintf("unable to connect to %s: %s", addr, err)}
	}

	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return types.ExecResult{RetCode: 1, Error: fmt.Sprintf("unable to open session on %s: %s", addr, err)}
	}

	defer session.Close()

	var stdout, stderr bytes.Buffer

	session.Stdout = &stdout
	session.Stderr = &stderr

	res := types.ExecResult{}

	err = session.Run(ShellCommand(cmd))

	var exitErr *ssh.ExitError

	switch {
	case errors.As(err, &exitErr):
		res.RetCode = exitErr.ExitStatus()
	case err != nil:
		res.RetCode = 1
		res.Error = err.Error()
	}

	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	return res
}

func (e *Executor) dial(ctx context.Context, addr string) (*ssh.Client, error) {
	dialer := net.Dialer{Timeout: e.cfg.DialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, e.clientCfg)
	if err != nil {
		_ = conn.Close()

		return nil, err
	}

	return ssh.NewClient(c, chans, reqs), nil
}

// ShellCommand wraps cmd in a single quoted "sh -c" invocation
func ShellCommand(cmd string) string {
	return "sh -c '" + strings.ReplaceAll(cmd, "'", `'\''`) + "'"
}

// KillCommand renders the kill command template for a container
func (e *Executor) KillCommand(containerID string, signal types.Signal) string {
	if i := strings.Index(containerID, "://"); i >= 0 {
		containerID = containerID[i+3:]
	}

	return strings.NewReplacer("{signal}", string(signal), "{container_id}", containerID).Replace(e.cfg.KillCommand)
}

// KillPod runs the kill command on the node hosting the pod, against one of its containers picked at random
func (e *Executor) KillPod(ctx context.Context, pod types.Pod, nodes inventory.Nodes, signal types.Signal) error {
	node, ok := nodes.GetNodeByIP(pod.HostIP)
	if !ok {
		return fmt.Errorf("node not found for pod %s/%s (host %s)", pod.Namespace, pod.Name, pod.HostIP)
	}

	if len(pod.ContainerIDs) == 0 {
		return fmt.Errorf("pod %s/%s has no container", pod.Namespace, pod.Name)
	}

	cmd := e.KillCommand(pod.ContainerIDs[e.rand.Intn(len(pod.ContainerIDs))], signal)

	e.log.Debugw("killing pod", tags.PodKey, pod.Name, tags.CommandKey, cmd)

	var errs *multierror.Error

	for host, res := range e.Execute(ctx, cmd, []types.Node{node}) {
		if res.Failed() {
			errs = multierror.Append(errs, fmt.Errorf("kill command failed on %s with code %d: %s%s", host, res.RetCode, res.Stderr, res.Error))
		}
	}

	return errs.ErrorOrNil()
}
