// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luxfi/ageproof/commitment"
)

var (
	commitAge   uint64
	commitNonce uint64
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Print the commitment to an age and nonce",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := commitment.ComputeUint(commitAge, commitNonce)
		if err != nil {
			return err
		}
		pterm.Println(c.Hex())
		return nil
	},
}

func init() {
	commitCmd.Flags().Uint64Var(&commitAge, "age", 0, "age")
	commitCmd.Flags().Uint64Var(&commitNonce, "nonce", 0, "nonce")
	_ = commitCmd.MarkFlagRequired("age")
	_ = commitCmd.MarkFlagRequired("nonce")
}
