// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gnarkengine

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	fpposeidon2 "github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/permutation/poseidon2"

	"github.com/luxfi/ageproof/circuit"
)

// Input names of the age circuit.
const (
	InputAge        = "age"
	InputNonce      = "nonce"
	InputCommitment = "commitment"
	InputMinAge     = "min_age"
)

var fieldType = json.RawMessage(`{"kind":"field"}`)

// AgeCircuit proves knowledge of (Age, Nonce) opening Commitment with
// Age >= MinAge. Public inputs are ordered [Commitment, MinAge].
type AgeCircuit struct {
	Age   frontend.Variable
	Nonce frontend.Variable

	Commitment frontend.Variable `gnark:",public"`
	MinAge     frontend.Variable `gnark:",public"`
}

// Define declares the circuit constraints.
func (c *AgeCircuit) Define(api frontend.API) error {
	hasher, err := newHasher(api)
	if err != nil {
		return err
	}
	hasher.Write(c.Age, c.Nonce)
	api.AssertIsEqual(hasher.Sum(), c.Commitment)

	api.AssertIsLessOrEqual(c.MinAge, c.Age)
	return nil
}

// newHasher builds the in-circuit Poseidon2 Merkle-Damgard hasher with the
// BN254 default parameters the native commitment uses. gnark's std hasher
// only ships defaults for BLS12-377.
func newHasher(api frontend.API) (hash.FieldHasher, error) {
	p := fpposeidon2.GetDefaultParameters()
	perm, err := poseidon2.NewPoseidon2FromParameters(api, p.Width, p.NbFullRounds, p.NbPartialRounds)
	if err != nil {
		return nil, fmt.Errorf("poseidon2 permutation: %w", err)
	}
	return hash.NewMerkleDamgardHasher(api, perm, 0), nil
}

// Parameters is the input schema of AgeCircuit.
func Parameters() []circuit.Parameter {
	return []circuit.Parameter{
		{Name: InputAge, Type: fieldType, Visibility: circuit.Private},
		{Name: InputNonce, Type: fieldType, Visibility: circuit.Private},
		{Name: InputCommitment, Type: fieldType, Visibility: circuit.Public},
		{Name: InputMinAge, Type: fieldType, Visibility: circuit.Public},
	}
}

// CompileArtifact compiles AgeCircuit to R1CS over BN254 and wraps the
// serialized constraint system in a circuit artifact.
func CompileArtifact() (*circuit.Artifact, error) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &AgeCircuit{})
	if err != nil {
		return nil, fmt.Errorf("compile age circuit: %w", err)
	}
	var buf bytes.Buffer
	if _, err := ccs.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize constraint system: %w", err)
	}
	return circuit.New(BackendName, buf.Bytes(), Parameters()...), nil
}
