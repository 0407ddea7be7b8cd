// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luxfi/ageproof/config"
	"github.com/luxfi/ageproof/gateway"
	"github.com/luxfi/ageproof/session"
)

var verifyBundle string

var errRejected = errors.New("verifier rejected the proof")

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a proof bundle with the on-chain verifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := cfg.Logger()
		ctx := cmd.Context()

		g, err := gateway.Dial(ctx, cfg.Gateway(), logger)
		if err != nil {
			return err
		}
		defer g.Close()

		s := session.New(nil, g, logger)
		if err := s.LoadTestBundle(verifyBundle); err != nil {
			return err
		}
		printLog(s.Snapshot())
		return verifyRemote(ctx, s, cfg)
	},
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyBundle, "bundle", "b", "", "proof bundle JSON file")
	_ = verifyCmd.MarkFlagRequired("bundle")
}

func verifyRemote(ctx context.Context, s *session.Session, cfg config.Config) error {
	pterm.DefaultSection.Println("On-chain verification")
	pterm.Info.Println(cfg.Gateway().Info().String())

	spinner, _ := pterm.DefaultSpinner.Start("Calling verifier")
	ok, err := s.Verify(ctx)
	if err != nil {
		spinner.Fail(err.Error())
		printLog(s.Snapshot())
		for _, hint := range gateway.Hint(err, cfg.Layout) {
			pterm.Warning.Println(hint)
		}
		return err
	}
	if !ok {
		spinner.Warning("Verifier returned false")
		return errRejected
	}
	spinner.Success("Proof verified on chain")
	return nil
}
