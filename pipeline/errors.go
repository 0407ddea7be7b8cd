// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure by the stage that produced it.
type Kind uint8

const (
	KindCircuitLoad Kind = iota + 1
	KindCommitment
	KindInput
	KindWitness
	KindProofBackend
	KindLocalVerificationFailed
	// KindCanceled means the caller's context ended the run.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindCircuitLoad:
		return "circuit load"
	case KindCommitment:
		return "commitment"
	case KindInput:
		return "input"
	case KindWitness:
		return "witness"
	case KindProofBackend:
		return "proof backend"
	case KindLocalVerificationFailed:
		return "local verification failed"
	case KindCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var (
	// ErrNotVerified is the cause of KindLocalVerificationFailed.
	ErrNotVerified = errors.New("engine rejected its own proof")
	// ErrPublicInputs means the engine returned public inputs other than
	// [commitment, minAge].
	ErrPublicInputs   = errors.New("unexpected public inputs")
	ErrLayoutMismatch = errors.New("engine proof size does not match the configured layout")
	ErrInvalidClaim   = errors.New("invalid claim")
)

// Error is returned by every failing pipeline run.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a pipeline error, or zero.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

func fail(kind Kind, err error) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = KindCanceled
	}
	return &Error{Kind: kind, Err: err}
}
