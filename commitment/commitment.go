// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package commitment derives the binding, hiding commitment that ties a
// secret age to a nonce. The commitment is disclosed as the first public
// input of the age proof so a verifier can recognise the claim without
// learning the age.
package commitment

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/luxfi/geth/common"
)

// Size is the byte width of a commitment (one BN254 scalar field element).
const Size = fr.Bytes

var (
	ErrOutOfField = errors.New("value outside the BN254 scalar field")
	ErrNilInput   = errors.New("nil commitment input")
)

// Commitment is a Poseidon2 digest of (age, nonce) encoded as 32 big-endian bytes.
type Commitment [Size]byte

// Hex returns the 0x-prefixed, zero-padded, lowercase hex form (66 characters).
func (c Commitment) Hex() string {
	return common.Hash(c).Hex()
}

func (c Commitment) String() string {
	return c.Hex()
}

// BigInt returns the commitment as an integer.
func (c Commitment) BigInt() *big.Int {
	return new(big.Int).SetBytes(c[:])
}

// IsZero reports whether c is the zero value (never produced by Compute).
func (c Commitment) IsZero() bool {
	return c == Commitment{}
}

// FromHex parses a 0x-prefixed 32-byte hex commitment.
func FromHex(s string) (Commitment, error) {
	if !isHex32(s) {
		return Commitment{}, &Error{Op: "parse", Err: fmt.Errorf("malformed commitment %q", s)}
	}
	return Commitment(common.HexToHash(s)), nil
}

func isHex32(s string) bool {
	if len(s) != 2+2*Size || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// Error is returned for every commitment failure. It carries the underlying
// cause so callers can render a specific message.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "commitment " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Compute returns Poseidon2(age, nonce) using the package default calculator.
func Compute(age, nonce *big.Int) (Commitment, error) {
	return defaultCalculator.Compute(age, nonce)
}

// ComputeUint is Compute for machine-sized inputs.
func ComputeUint(age, nonce uint64) (Commitment, error) {
	return defaultCalculator.Compute(new(big.Int).SetUint64(age), new(big.Int).SetUint64(nonce))
}

// toElement converts v into a canonical 32-byte field element encoding,
// rejecting values the circuit could not represent.
func toElement(name string, v *big.Int) ([Size]byte, error) {
	var out [Size]byte
	if v == nil {
		return out, &Error{Op: "encode " + name, Err: ErrNilInput}
	}
	if v.Sign() < 0 || v.Cmp(fr.Modulus()) >= 0 {
		return out, &Error{Op: "encode " + name, Err: fmt.Errorf("%w: %s", ErrOutOfField, v.String())}
	}
	v.FillBytes(out[:])
	return out, nil
}
