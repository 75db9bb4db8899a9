// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DataDog/chaos-seal/internal/bootstrap"
	chaoslog "github.com/DataDog/chaos-seal/log"
	mtypes "github.com/DataDog/chaos-seal/o11y/metrics/types"
	"github.com/DataDog/chaos-seal/policy"
	"github.com/DataDog/chaos-seal/runner"
)

var runCmd = &cobra.Command{
	Use:   "run [-- engine flags]",
	Short: "run the scenarios of a policy",
	Long: `runs the scenarios of a policy file against the cluster until its runs are exhausted or an interrupt is received.
The engine is configured from the config file, engine flags given after -- taking precedence.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("path")
		return validatePath(path)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("path")
		runs, _ := cmd.Flags().GetInt("runs")
		ctx := cmd.Context()
		log := chaoslog.FromContext(ctx)

		if _, err := ValidatePolicy(path); err != nil {
			return err
		}

		cfg, err := engineConfig(cmd, args)
		if err != nil {
			return err
		}

		comps, err := bootstrap.Build(ctx, cfg, nil, mtypes.SinkAppCLI, log)
		if err != nil {
			return err
		}

		defer comps.Close(log)

		summary, err := runner.New(policy.FileSource{Path: path}, comps.Deps, runner.Options{
			History:   comps.History,
			Notifiers: comps.Notifiers,
			Runs:      runs,
		}).Run(ctx)

		fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d scenario(s) executed, %d failed\n", summary.RunID, summary.Executed, summary.Failed)

		if err != nil {
			return err
		}

		if summary.Failed > 0 {
			return fmt.Errorf("%d scenario(s) failed", summary.Failed)
		}

		return nil
	},
}

func init() {
	runCmd.Flags().String("path", "", "The path to the policy file to run.")
	runCmd.Flags().Int("runs", 0, "Number of scenarios to execute, overriding the runs of the policy when positive.")
}
