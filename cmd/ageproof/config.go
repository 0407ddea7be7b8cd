// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luxfi/ageproof/engine"
	"github.com/luxfi/ageproof/gateway"
)

var (
	configOnline bool
	configPrint  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if configPrint {
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			pterm.Println(string(data))
		}
		if _, err := engine.LookupFactory(cfg.Backend); err != nil {
			return err
		}
		pterm.Success.Printfln("Backend %s (available: %s)", cfg.Backend, strings.Join(engine.BackendNames(), ", "))
		pterm.Info.Println(cfg.Gateway().Info().String())

		if !configOnline {
			return nil
		}
		ctx := cmd.Context()
		p, err := newPipeline(ctx, cfg, cfg.Logger())
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Circuit %s emits %d byte proofs", cfg.Circuit, p.Layout().ProofBytes)
		if p.Layout() != cfg.Layout {
			pterm.Warning.Printfln("The verifier expects %d byte proofs", cfg.Layout.ProofBytes)
		}

		g, err := gateway.Dial(ctx, cfg.Gateway(), cfg.Logger())
		if err != nil {
			return err
		}
		defer g.Close()
		if err := g.CheckChain(ctx); err != nil {
			return err
		}
		pterm.Success.Printfln("RPC serves chain %d", cfg.Network.ChainID)
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&configOnline, "online", false, "also load the circuit and query the rpc endpoint")
	configCmd.Flags().BoolVar(&configPrint, "print", false, "print the effective configuration")
}
