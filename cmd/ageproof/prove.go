// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/luxfi/log"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luxfi/ageproof/circuit"
	"github.com/luxfi/ageproof/codec"
	"github.com/luxfi/ageproof/config"
	"github.com/luxfi/ageproof/engine"
	"github.com/luxfi/ageproof/gateway"
	"github.com/luxfi/ageproof/pipeline"
	"github.com/luxfi/ageproof/session"
)

var (
	proveClaim  session.Claim
	proveOut    string
	proveSubmit bool
)

var proveCmd = &cobra.Command{
	Use:   "prove",
	Short: "Generate and locally verify a proof",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := cfg.Logger()
		ctx := cmd.Context()

		p, err := newPipeline(ctx, cfg, logger)
		if err != nil {
			return err
		}

		var submitter session.Submitter
		if proveSubmit {
			g, err := gateway.Dial(ctx, cfg.Gateway(), logger)
			if err != nil {
				return err
			}
			defer g.Close()
			submitter = g
		}

		s := session.New(p, submitter, logger)
		spinner, _ := pterm.DefaultSpinner.Start("Generating proof")
		err = s.Generate(ctx, proveClaim)
		st := s.Snapshot()
		if err != nil {
			spinner.Fail("Proof generation failed")
			printLog(st)
			return err
		}
		spinner.Success("Proof generated and verified locally")
		printLog(st)
		printArtifacts(st)

		if proveOut != "" {
			if err := writeBundle(proveOut, st); err != nil {
				return err
			}
			pterm.Info.Printfln("Wrote %s", proveOut)
		}
		if proveSubmit {
			return verifyRemote(ctx, s, cfg)
		}
		return nil
	},
}

func init() {
	proveCmd.Flags().Uint64Var(&proveClaim.Age, "age", 0, "actual age (1-120)")
	proveCmd.Flags().Uint64Var(&proveClaim.Nonce, "nonce", 0, "commitment nonce (positive)")
	proveCmd.Flags().Uint64Var(&proveClaim.MinAge, "min-age", 0, "minimum age to prove")
	proveCmd.Flags().StringVarP(&proveOut, "out", "o", "", "write the proof bundle to this file")
	proveCmd.Flags().BoolVar(&proveSubmit, "submit", false, "also verify the proof on chain")
	for _, name := range []string{"age", "nonce", "min-age"} {
		_ = proveCmd.MarkFlagRequired(name)
	}
}

// newPipeline wires the configured circuit and backend and runs the startup
// layout check.
func newPipeline(ctx context.Context, cfg config.Config, logger log.Logger) (*pipeline.Pipeline, error) {
	factory, err := engine.LookupFactory(cfg.Backend)
	if err != nil {
		return nil, err
	}
	source := circuit.NewCached(circuit.Open(cfg.Circuit))
	p, err := pipeline.New(cfg.Pipeline(), source, factory, nil, logger)
	if err != nil {
		return nil, err
	}
	if err := p.Preflight(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func writeBundle(path string, st session.State) error {
	values := make([]any, len(st.PublicInputs))
	for i, in := range st.PublicInputs {
		values[i] = in
	}
	data, err := json.MarshalIndent(session.Bundle{
		Proof:        st.Proof,
		PublicInputs: codec.Ordered(values...),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func printLog(st session.State) {
	for _, e := range st.Log {
		pterm.Println(pterm.Gray(e.At.Format("15:04:05")), e.Message)
	}
}

func printArtifacts(st session.State) {
	proof := st.Proof
	if len(proof) > 66 {
		proof = fmt.Sprintf("%s... (%d chars)", proof[:66], len(proof))
	}
	data := pterm.TableData{
		{"Field", "Value"},
		{"Commitment", st.Commitment},
		{"Proof", proof},
		{"Local verdict", st.Local.String()},
	}
	for i, in := range st.PublicInputs {
		data = append(data, []string{fmt.Sprintf("Public input %d", i), in})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
