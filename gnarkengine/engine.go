// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gnarkengine is the reference proving engine: a Groth16 age circuit
// over BN254 built with gnark.
package gnarkengine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/constraint/solver"
	"github.com/consensys/gnark/frontend"
	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"github.com/luxfi/ageproof/codec"
	"github.com/luxfi/ageproof/engine"
)

// BackendName is the registry name of this engine.
const BackendName = "gnark-groth16"

var (
	ErrWitnessType = errors.New("witness was not produced by this engine")
	ErrMissing     = errors.New("missing circuit input")
	ErrInvalid     = errors.New("invalid circuit input")
)

var (
	_ engine.Engine = (*Engine)(nil)
	_ engine.Sizer  = (*Engine)(nil)
)

func init() {
	// gnark logs compile and prove progress on its own zerolog instance
	SetCircuitLogger(zerolog.New(io.Discard).Level(zerolog.Disabled))

	if err := engine.RegisterBackend(engine.Backend{Name: BackendName, Factory: Factory}); err != nil {
		panic(err)
	}
}

// SetCircuitLogger replaces gnark's internal logger.
func SetCircuitLogger(l zerolog.Logger) {
	gnarklogger.Set(l)
}

// Engine proves and verifies AgeCircuit statements. Keys come from a
// single-party setup run at construction, so proofs only verify against
// the engine instance that produced them.
type Engine struct {
	ccs     constraint.ConstraintSystem
	pk      groth16.ProvingKey
	vk      groth16.VerifyingKey
	threads int
}

type solved struct {
	full witness.Witness
}

// Factory is the engine.Factory for this backend.
func Factory(bytecode []byte, opts engine.Options) (engine.Engine, error) {
	return New(bytecode, opts)
}

// New reads a serialized BN254 constraint system and runs the key setup.
func New(bytecode []byte, opts engine.Options) (*Engine, error) {
	ccs := groth16.NewCS(ecc.BN254)
	if _, err := ccs.ReadFrom(bytes.NewReader(bytecode)); err != nil {
		return nil, fmt.Errorf("read constraint system: %w", err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup: %w", err)
	}
	threads := opts.Threads
	if threads <= 0 {
		threads = engine.Threads(0)
	}
	return &Engine{ccs: ccs, pk: pk, vk: vk, threads: threads}, nil
}

// Execute assigns the named inputs and checks that they satisfy every
// constraint.
func (e *Engine) Execute(ctx context.Context, inputs engine.Inputs) (engine.Witness, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	assignment, err := assign(inputs)
	if err != nil {
		return nil, err
	}
	full, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("build witness: %w", err)
	}
	if err := e.ccs.IsSolved(full, solver.WithNbTasks(e.threads)); err != nil {
		return nil, fmt.Errorf("constraints not satisfied: %w", err)
	}
	return &solved{full: full}, nil
}

// GenerateProof proves a witness returned by Execute. The proof is the raw
// (uncompressed) encoding and the public inputs are [commitment, min_age].
func (e *Engine) GenerateProof(ctx context.Context, w engine.Witness) (*engine.Proof, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, ok := w.(*solved)
	if !ok || s == nil {
		return nil, ErrWitnessType
	}
	proof, err := groth16.Prove(e.ccs, e.pk, s.full, backend.WithSolverOptions(solver.WithNbTasks(e.threads)))
	if err != nil {
		return nil, fmt.Errorf("groth16 prove: %w", err)
	}
	var buf bytes.Buffer
	if _, err := proof.WriteRawTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize proof: %w", err)
	}

	public, err := s.full.Public()
	if err != nil {
		return nil, err
	}
	vec, ok := public.Vector().(fr.Vector)
	if !ok {
		return nil, fmt.Errorf("unexpected public witness vector %T", public.Vector())
	}
	values := make([]any, len(vec))
	for i := range vec {
		values[i] = vec[i].BigInt(new(big.Int))
	}
	return &engine.Proof{Proof: buf.Bytes(), PublicInputs: codec.Ordered(values...)}, nil
}

// VerifyProof reports whether p is valid for its public inputs. Malformed
// proofs or inputs are errors; a well formed proof that fails the pairing
// check is a false verdict.
func (e *Engine) VerifyProof(ctx context.Context, p *engine.Proof) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if p == nil || len(p.Proof) == 0 {
		return false, errors.New("empty proof")
	}
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(p.Proof)); err != nil {
		return false, fmt.Errorf("read proof: %w", err)
	}

	words, err := codec.EncodePublicInputs(p.PublicInputs)
	if err != nil {
		return false, err
	}
	if len(words) != codec.AgePublicInputs {
		return false, &codec.CountError{Expected: codec.AgePublicInputs, Actual: len(words)}
	}
	values, err := codec.DecodePublicInputs(words)
	if err != nil {
		return false, err
	}
	assignment := &AgeCircuit{Commitment: values[0], MinAge: values[1]}
	public, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, fmt.Errorf("build public witness: %w", err)
	}
	if err := groth16.Verify(proof, e.vk, public); err != nil {
		return false, nil
	}
	return true, nil
}

// ProofSize is the length of a raw encoded proof. Infinity points encode
// at full width, so a zero proof with the right commitment count has the
// same length as a real one.
func (e *Engine) ProofSize() int {
	p := new(groth16bn254.Proof)
	if c, ok := e.ccs.GetCommitments().(constraint.Groth16Commitments); ok {
		p.Commitments = make([]bn254.G1Affine, len(c))
	}
	var buf bytes.Buffer
	if _, err := p.WriteRawTo(&buf); err != nil {
		return 0
	}
	return buf.Len()
}

// Layout is the proof layout this engine produces.
func (e *Engine) Layout() codec.Layout {
	return codec.Layout{ProofBytes: e.ProofSize(), PublicInputs: codec.AgePublicInputs}
}

// ExportSolidity writes a Solidity verifier for the engine's verifying key.
func (e *Engine) ExportSolidity(w io.Writer) error {
	return e.vk.ExportSolidity(w)
}

func assign(inputs engine.Inputs) (*AgeCircuit, error) {
	var (
		values = make(map[string]*big.Int, 4)
		names  = []string{InputAge, InputNonce, InputCommitment, InputMinAge}
	)
	for _, name := range names {
		raw, ok := inputs[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrMissing, name)
		}
		v, err := parseField(raw)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalid, name, err)
		}
		values[name] = v
	}
	return &AgeCircuit{
		Age:        values[InputAge],
		Nonce:      values[InputNonce],
		Commitment: values[InputCommitment],
		MinAge:     values[InputMinAge],
	}, nil
}

// parseField accepts decimal or 0x-prefixed hex below the field modulus.
func parseField(s string) (*big.Int, error) {
	var (
		v  = new(big.Int)
		ok bool
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		_, ok = v.SetString(s[2:], 16)
	} else {
		_, ok = v.SetString(s, 10)
	}
	if !ok || s == "" {
		return nil, fmt.Errorf("cannot parse %q", s)
	}
	if v.Sign() < 0 || v.Cmp(fr.Modulus()) >= 0 {
		return nil, fmt.Errorf("%s is outside the scalar field", s)
	}
	return v, nil
}
