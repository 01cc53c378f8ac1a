// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the tarzip CLI, a batch converter
// that turns compressed tar archives into zip archives.
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

// rootCmd is the base command for the tarzip CLI.
var rootCmd = &cobra.Command{
	Use:   "tarzip",
	Short: "Batch-convert compressed tar archives to zip",
	Long: `tarzip converts directories of compressed tar archives (.tar.gz, .tgz,
and friends) into zip archives. Each input is extracted to a private staging
directory, repackaged as <base>.zip next to the input, and the staging
directory is removed. Failures in one archive never stop the rest of the
batch; the exit status is non-zero if any conversion failed.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./tarzip.yaml or ~/.config/tarzip/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("tarzip")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "tarzip"))
		}
	}

	viper.SetEnvPrefix("TARZIP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
