// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"errors"
	"fmt"

	"github.com/luxfi/ageproof/codec"
)

// General guidance shown with every failed verification.
var generalHints = []string{
	"Age must be between 1 and 120.",
	"Nonce must be a positive integer.",
	"Minimum age must not exceed the actual age.",
}

// Hint returns troubleshooting guidance for a Submit failure.
func Hint(err error, layout codec.Layout) []string {
	if err == nil {
		return nil
	}
	var (
		contractErr  *RemoteContractError
		transportErr *RemoteTransportError
		hints        []string
	)
	switch {
	case errors.Is(err, ErrNotLocallyVerified):
		hints = append(hints, "Generate a proof and verify it locally before submitting it.")
	case errors.Is(err, codec.ErrLength):
		hints = append(hints, proofLengthHint(layout))
	case errors.Is(err, codec.ErrCount), errors.Is(err, codec.ErrEncoding):
		hints = append(hints, publicInputsHint(layout))
	case errors.As(err, &contractErr):
		switch contractErr.Kind {
		case ProofLengthWrong:
			hints = append(hints, proofLengthHint(layout))
		case PublicInputsLengthWrong:
			hints = append(hints, publicInputsHint(layout))
		case SumcheckFailed, ShpleminiFailed:
			hints = append(hints,
				"The proof was rejected by the verifier: the contract may have been built from a different circuit version.",
				"Retry with different age or nonce values.",
				"If the problem persists, deploy a verifier generated from the current circuit.",
			)
		default:
			hints = append(hints,
				fmt.Sprintf("The verifier reverted with unknown selector %s.", contractErr.Selector),
				"Check that the configured contract is an age proof verifier.",
			)
		}
	case errors.As(err, &transportErr), errors.Is(err, ErrWrongChain):
		hints = append(hints,
			"Check the RPC endpoint and network connectivity.",
			"Make sure the endpoint serves the configured chain and the contract is deployed there.",
		)
	}
	return append(hints, generalHints...)
}

func proofLengthHint(l codec.Layout) string {
	return fmt.Sprintf("The proof must be %d hex characters (%d bytes); regenerate it with the circuit matching the verifier.",
		l.EncodedProofLength(), l.ProofBytes)
}

func publicInputsHint(l codec.Layout) string {
	return fmt.Sprintf("Exactly %d public inputs are expected: the commitment followed by the minimum age, each a 32-byte word.",
		l.PublicInputs)
}
