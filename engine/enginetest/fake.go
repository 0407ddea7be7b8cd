// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package enginetest provides a deterministic in-memory engine for tests.
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/luxfi/ageproof/codec"
	"github.com/luxfi/ageproof/engine"
)

var (
	ErrPolicy = errors.New("age below threshold")
	ErrProve  = errors.New("prover failure")
)

// Fake checks age >= min_age and emits a proof of ProofBytes bytes whose
// public inputs are [commitment, min_age].
type Fake struct {
	ProofBytes int
	// Reject makes VerifyProof return false.
	Reject bool
	// FailProve makes GenerateProof fail.
	FailProve bool
	// PublicInputs overrides the emitted public inputs when set.
	PublicInputs *codec.PublicInputs

	Executions atomic.Int32
	Proofs     atomic.Int32
	Verifies   atomic.Int32
}

var (
	_ engine.Engine = (*Fake)(nil)
	_ engine.Sizer  = (*Fake)(nil)
)

type witness struct {
	commitment string
	minAge     uint64
}

// New returns a fake producing proofs of the default layout size.
func New() *Fake {
	return &Fake{ProofBytes: codec.DefaultLayout.ProofBytes}
}

// Factory returns an engine.Factory handing out f and counting builds.
func (f *Fake) Factory(builds *atomic.Int32) engine.Factory {
	return func([]byte, engine.Options) (engine.Engine, error) {
		if builds != nil {
			builds.Add(1)
		}
		return f, nil
	}
}

func (f *Fake) Execute(_ context.Context, in engine.Inputs) (engine.Witness, error) {
	f.Executions.Add(1)
	age, err := strconv.ParseUint(in["age"], 10, 64)
	if err != nil {
		return nil, err
	}
	minAge, err := strconv.ParseUint(in["min_age"], 10, 64)
	if err != nil {
		return nil, err
	}
	if age < minAge {
		return nil, fmt.Errorf("%w: %d < %d", ErrPolicy, age, minAge)
	}
	return witness{commitment: in["commitment"], minAge: minAge}, nil
}

func (f *Fake) GenerateProof(_ context.Context, w engine.Witness) (*engine.Proof, error) {
	f.Proofs.Add(1)
	if f.FailProve {
		return nil, ErrProve
	}
	fw, ok := w.(witness)
	if !ok {
		return nil, fmt.Errorf("unexpected witness %T", w)
	}
	proof := make([]byte, f.ProofBytes)
	for i := range proof {
		proof[i] = byte(i)
	}
	public := codec.Ordered(fw.commitment, fw.minAge)
	if f.PublicInputs != nil {
		public = *f.PublicInputs
	}
	return &engine.Proof{Proof: proof, PublicInputs: public}, nil
}

func (f *Fake) VerifyProof(context.Context, *engine.Proof) (bool, error) {
	f.Verifies.Add(1)
	return !f.Reject, nil
}

func (f *Fake) ProofSize() int {
	return f.ProofBytes
}
