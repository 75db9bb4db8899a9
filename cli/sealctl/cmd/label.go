// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/DataDog/chaos-seal/internal/bootstrap"
	"github.com/DataDog/chaos-seal/labelrunner"
	chaoslog "github.com/DataDog/chaos-seal/log"
	mtypes "github.com/DataDog/chaos-seal/o11y/metrics/types"
)

var labelCmd = &cobra.Command{
	Use:   "label [-- engine flags]",
	Short: "kill the pods opted in through labels",
	Long: `periodically kills the pods of a namespace carrying the seal/enabled label, following their own
days, time window, kill probability and force labels. It runs until an interrupt is received.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := chaoslog.FromContext(ctx)

		cfg, err := engineConfig(cmd, args)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("namespace") {
			cfg.LabelMode.Namespace, _ = cmd.Flags().GetString("namespace")
		}

		comps, err := bootstrap.Build(ctx, cfg, nil, mtypes.SinkAppCLI, log)
		if err != nil {
			return err
		}

		defer comps.Close(log)

		return labelrunner.New(labelrunner.Config{
			Namespace: cfg.LabelMode.Namespace,
			MinSleep:  cfg.LabelMode.MinSleep,
			MaxSleep:  cfg.LabelMode.MaxSleep,
		}, comps.Deps, nil).Run(ctx)
	},
}

func init() {
	labelCmd.Flags().String("namespace", "", "Namespace to look for labelled pods in, * for every namespace.")
}
