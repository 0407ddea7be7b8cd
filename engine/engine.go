// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package engine defines the capability a proving backend must offer to the
// proof pipeline, and a registry of the backends compiled into the binary.
package engine

import (
	"context"
	"runtime"

	"github.com/luxfi/ageproof/codec"
)

// DefaultThreadCap bounds the worker hint handed to a backend.
const DefaultThreadCap = 8

// Inputs is the named input record for one circuit execution. Names and
// value encodings are dictated by the circuit.
type Inputs map[string]string

// Witness is the backend's private representation of a solved circuit.
type Witness any

// Proof is the raw output of a backend.
type Proof struct {
	Proof        []byte
	PublicInputs codec.PublicInputs
}

// Engine executes a compiled circuit, proves and verifies.
type Engine interface {
	// Execute solves the circuit for inputs. It fails when the inputs do not
	// satisfy the constraints.
	Execute(ctx context.Context, inputs Inputs) (Witness, error)
	GenerateProof(ctx context.Context, w Witness) (*Proof, error)
	VerifyProof(ctx context.Context, p *Proof) (bool, error)
}

// Sizer is implemented by engines whose proofs have a fixed byte length.
type Sizer interface {
	ProofSize() int
}

// Options are construction hints. They never change backend output.
type Options struct {
	Threads int
}

// Factory builds an engine from circuit bytecode.
type Factory func(bytecode []byte, opts Options) (Engine, error)

// Threads returns the worker hint: limit (or DefaultThreadCap when limit is
// not positive) capped by the available hardware concurrency.
func Threads(limit int) int {
	if limit <= 0 {
		limit = DefaultThreadCap
	}
	return min(limit, runtime.NumCPU())
}
