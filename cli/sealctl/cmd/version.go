// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version will be set with the -ldflags option at compile time
var Version string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "display sealctl version",
	Long:  `shows the currently used version of sealctl`,
	Run: func(cmd *cobra.Command, args []string) {
		if Version == "" {
			Version = "version unspecified"
		}

		fmt.Fprintln(cmd.OutOrStdout(), "sealctl", Version)
	},
}
