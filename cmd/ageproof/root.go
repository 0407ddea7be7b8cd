// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/luxfi/ageproof/config"
	"github.com/luxfi/ageproof/gnarkengine"
)

var (
	configFile string
	envFiles   []string
)

var rootCmd = &cobra.Command{
	Use:           "ageproof",
	Short:         "Prove age >= threshold without revealing age",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "JSON configuration file")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "dotenv files to load (default .env when present)")

	rootCmd.AddCommand(commitCmd, proveCmd, verifyCmd, circuitCmd, configCmd)
}

// loadConfig reads the configuration and tunes gnark's logger to match.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFile, envFiles...)
	if err != nil {
		return config.Config{}, err
	}
	if cfg.Debug() {
		gnarkengine.SetCircuitLogger(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger())
	}
	return cfg, nil
}
