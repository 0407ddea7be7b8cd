// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luxfi/ageproof/engine"
	"github.com/luxfi/ageproof/gnarkengine"
)

var (
	circuitOut      string
	circuitSolidity string
)

var circuitCmd = &cobra.Command{
	Use:   "circuit",
	Short: "Circuit artifact tools",
}

var circuitExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Compile the reference age circuit to an artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		artifact, err := gnarkengine.CompileArtifact()
		if err != nil {
			return err
		}
		data, err := artifact.Marshal()
		if err != nil {
			return err
		}
		if err := os.WriteFile(circuitOut, data, 0o644); err != nil {
			return err
		}
		pterm.Success.Printfln("Wrote %s (%s)", circuitOut, artifact.Digest().Hex())

		e, err := gnarkengine.New(artifact.Program(), engine.Options{})
		if err != nil {
			return err
		}
		layout := e.Layout()
		pterm.Info.Printfln("Proofs are %d bytes; set layout.proof_bytes=%d (or AGEPROOF_PROOF_BYTES) for a verifier of this circuit",
			layout.ProofBytes, layout.ProofBytes)

		if circuitSolidity != "" {
			f, err := os.Create(circuitSolidity)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := e.ExportSolidity(f); err != nil {
				return err
			}
			pterm.Success.Printfln("Wrote %s", circuitSolidity)
		}
		return nil
	},
}

func init() {
	circuitExportCmd.Flags().StringVarP(&circuitOut, "out", "o", "circuit.json", "artifact file")
	circuitExportCmd.Flags().StringVar(&circuitSolidity, "solidity", "", "also write a Solidity verifier for a fresh key pair")
	circuitCmd.AddCommand(circuitExportCmd)
}
