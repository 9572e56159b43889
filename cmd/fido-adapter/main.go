// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the fido-adapter CLI, which wraps the
// Fido protein inference engine: it encodes peptide/protein identification
// data into Fido's input grammar, runs the solver, and writes the inferred
// protein groups back into the identification document.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// Exit codes distinguishing the adapter's failure modes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitEmptyInput = 2
)

// rootCmd is the base command for the fido-adapter CLI.
var rootCmd = &cobra.Command{
	Use:   "fido-adapter",
	Short: "Runs the protein inference engine Fido",
	Long: `fido-adapter wraps the Fido protein inference engine. Fido uses a Bayesian
probabilistic model to group and score proteins based on peptide-spectrum
matches.

By default the adapter runs the Fido variant with parameter estimation
(FidoChooseParameters), as recommended by its authors. Setting all three
probability parameters runs plain Fido with fixed parameters instead.

Input documents with multiple protein identification runs (e.g. replicates
or different search engines) are merged by default, or annotated separately
with --separate-runs.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./fido-adapter.yaml or ~/.config/fido-adapter/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("fido-adapter")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "fido-adapter"))
		}
	}

	viper.SetEnvPrefix("FIDO_ADAPTER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
