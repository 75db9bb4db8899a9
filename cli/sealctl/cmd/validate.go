// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DataDog/chaos-seal/policy"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "validate a policy file",
	Long:  `decodes the policy file and checks its structure, action kinds and values.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("path")
		return validatePath(path)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("path")

		p, err := ValidatePolicy(path)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d scenario(s)\n", path, len(p.Scenarios))

		return nil
	},
}

func init() {
	validateCmd.Flags().String("path", "", "The path to the policy file to be validated.")
}

// ValidatePolicy loads the policy, every problem found being reported at once
func ValidatePolicy(path string) (*policy.Policy, error) {
	p, err := policy.Load(path)
	if err != nil {
		return nil, fmt.Errorf("there were some problems when validating your policy:\n%w", err)
	}

	return p, nil
}
