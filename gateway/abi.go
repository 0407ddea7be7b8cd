// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"fmt"
	"strings"

	"github.com/luxfi/geth/accounts/abi"
)

// VerifierABI is the interface of the on-chain verifier.
const VerifierABI = `[
  {
    "type": "function",
    "name": "verify",
    "stateMutability": "view",
    "inputs": [
      {"name": "proof", "type": "bytes", "internalType": "bytes"},
      {"name": "publicInputs", "type": "bytes32[]", "internalType": "bytes32[]"}
    ],
    "outputs": [{"name": "", "type": "bool", "internalType": "bool"}]
  },
  {"type": "error", "name": "ProofLengthWrong", "inputs": []},
  {"type": "error", "name": "PublicInputsLengthWrong", "inputs": []},
  {"type": "error", "name": "SumcheckFailed", "inputs": []},
  {"type": "error", "name": "ShpleminiFailed", "inputs": []}
]`

const verifyMethod = "verify"

var verifierABI = mustParseABI(VerifierABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse ABI: %v", err))
	}
	return parsed
}

// packVerify encodes a verify(bytes,bytes32[]) call.
func packVerify(proof []byte, publicInputs [][32]byte) ([]byte, error) {
	return verifierABI.Pack(verifyMethod, proof, publicInputs)
}

// unpackVerify decodes the boolean verdict of verify.
func unpackVerify(data []byte) (bool, error) {
	out, err := verifierABI.Unpack(verifyMethod, data)
	if err != nil {
		return false, err
	}
	if len(out) != 1 {
		return false, fmt.Errorf("verify returned %d values", len(out))
	}
	verdict, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("verify returned %T", out[0])
	}
	return verdict, nil
}
