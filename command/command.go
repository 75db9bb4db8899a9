// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

const (
	NotFoundProcessExitCode = -1
)

// Factory defines how we want to create a command (with context and with relevant fields set)
type Factory interface {
	NewCmd(ctx context.Context, name string, args []string, stdin []byte) Cmd
}

// Cmd aims to be a convenient wrapper around os/exec.CommandContext to ease testing, capturing outputs
type Cmd interface {
	// Run starts the command and waits for it. A non-zero exit code is not an error, ExitCode must be checked
	Run() error
	String() string
	ExitCode() int
	Stdout() string
	Stderr() string
	DryRun() bool
}

type cmd struct {
	*exec.Cmd
	stdout bytes.Buffer
	stderr bytes.Buffer
	dryRun bool
}

func (c *cmd) Run() error {
	if c.dryRun {
		return nil
	}

	err := c.Cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}

	return err
}

func (c *cmd) ExitCode() int {
	if c.dryRun {
		return 0
	}

	if c.Cmd == nil || c.Cmd.ProcessState == nil {
		return NotFoundProcessExitCode
	}

	return c.Cmd.ProcessState.ExitCode()
}

func (c *cmd) Stdout() string {
	return c.stdout.String()
}

func (c *cmd) Stderr() string {
	return c.stderr.String()
}

func (c *cmd) DryRun() bool {
	return c.dryRun
}

type factory struct {
	dryRun bool
}

// NewFactory returns a factory. Commands of a dry-run factory are never executed and always succeed
func NewFactory(dryRun bool) Factory {
	return factory{
		dryRun,
	}
}

func (f factory) NewCmd(ctx context.Context, name string, args []string, stdin []byte) Cmd {
	c := &cmd{
		Cmd:    exec.CommandContext(ctx, name, args...),
		dryRun: f.dryRun,
	}

	c.Cmd.Stdout = &c.stdout
	c.Cmd.Stderr = &c.stderr

	if stdin != nil {
		c.Cmd.Stdin = bytes.NewReader(stdin)
	}

	return c
}
