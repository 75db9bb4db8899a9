// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package scenario

import (
	"context"
	"fmt"

	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/policy"
)

// kubectlBinary is looked up in the PATH
const kubectlBinary = "kubectl"

// kubectlStep pipes its payload to kubectl apply or delete
type kubectlStep struct {
	spec policy.Kubectl
	deps Deps
}

func (s *kubectlStep) Name() string {
	return fmt.Sprintf("kubectl %s", s.spec.Action)
}

// Args returns the kubectl arguments, the payload being read from stdin
func (s *kubectlStep) Args() []string {
	args := []string{}

	if s.deps.Kubeconfig != "" {
		args = append(args, "--kubeconfig", s.deps.Kubeconfig)
	}

	return append(args, string(s.spec.Action), "-f", "-")
}

func (s *kubectlStep) Execute(ctx context.Context) (Result, error) {
	cmd := s.deps.Commands.NewCmd(ctx, kubectlBinary, s.Args(), []byte(s.spec.Payload))

	s.deps.Log.Infow("running kubectl", tags.CommandKey, cmd.String())

	if err := cmd.Run(); err != nil {
		return Failed(), fmt.Errorf("error running %s: %w", cmd.String(), err)
	}

	if code := cmd.ExitCode(); code != 0 {
		s.deps.Log.Warnw("kubectl failed", tags.RetCodeKey, code, "stdout", cmd.Stdout(), "stderr", cmd.Stderr())

		return Failed(), nil
	}

	s.deps.Log.Debugw("kubectl succeeded", "stdout", cmd.Stdout())

	if s.spec.Action == policy.KubectlApply && s.spec.ShouldAutoDelete() {
		cleanup := s.spec
		cleanup.Action = policy.KubectlDelete
		cleanup.AutoDelete = policy.Bool(false)

		return Succeeded(&kubectlStep{spec: cleanup, deps: s.deps}), nil
	}

	return Succeeded(), nil
}
