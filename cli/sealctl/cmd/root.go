// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DataDog/chaos-seal/config"
	chaoslog "github.com/DataDog/chaos-seal/log"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sealctl",
	Short: "chaos-seal CLI to write, check and run chaos policies.",
	Long: `
chaos-seal CLI to work with policies from a workstation.
It can create a new policy from a few prompts, validate a policy file, run the scenarios
of a policy against the current cluster, or run the label based pod killer.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger, err := chaoslog.NewZapLogger()
		if err != nil {
			return fmt.Errorf("error creating logger: %w", err)
		}

		chaoslog.RedirectKlog(logger)
		cmd.SetContext(chaoslog.WithLogger(cmd.Context(), logger))

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "engine config file (default is $HOME/.sealctl.yaml)")
}

// initConfig looks for the engine config file in the home directory when none is given
func initConfig() {
	if cfgFile != "" {
		return
	}

	home, err := homedir.Dir()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	v := viper.New()
	v.AddConfigPath(home)
	v.SetConfigName(".sealctl")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err == nil {
		cfgFile = v.ConfigFileUsed()
		fmt.Fprintln(os.Stderr, "Using config file:", cfgFile)
	}
}

// engineConfig loads the engine configuration, the flags given after -- overriding the config file
func engineConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	engineArgs := []string{}

	if cfgFile != "" {
		engineArgs = append(engineArgs, "--config", cfgFile)
	}

	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		engineArgs = append(engineArgs, args[dash:]...)
	}

	return config.New(nil, chaoslog.FromContext(cmd.Context()), engineArgs)
}

func validatePath(path string) error {
	if path == "" {
		return errors.New("no path given, exiting")
	}

	fullPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("finding absolute path: %w", err)
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return fmt.Errorf("unable to read %s: %w", path, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	return nil
}
