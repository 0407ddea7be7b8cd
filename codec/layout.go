// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import "fmt"

const (
	// FieldSize is the width of one serialized field element.
	FieldSize = 32

	// UltraHonkProofFields is the number of field elements in a proof for
	// the deployed age circuit / UltraHonk verifier pairing.
	UltraHonkProofFields = 440

	// AgePublicInputs is the public input count of the age circuit:
	// [commitment, minAge].
	AgePublicInputs = 2
)

// Layout describes the proof shape a verifier accepts.
type Layout struct {
	ProofBytes   int `json:"proof_bytes"`
	PublicInputs int `json:"public_inputs"`
}

// DefaultLayout is the shape of the UltraHonk age verifier: 14080 raw proof
// bytes, i.e. a 28162 character wire string.
var DefaultLayout = Layout{
	ProofBytes:   UltraHonkProofFields * FieldSize,
	PublicInputs: AgePublicInputs,
}

// EncodedProofLength is the length of the 0x-prefixed hex proof.
func (l Layout) EncodedProofLength() int {
	return 2 + 2*l.ProofBytes
}

func (l Layout) Validate() error {
	if l.ProofBytes <= 0 {
		return fmt.Errorf("%w: proof_bytes must be positive, got %d", ErrLayout, l.ProofBytes)
	}
	if l.PublicInputs <= 0 {
		return fmt.Errorf("%w: public_inputs must be positive, got %d", ErrLayout, l.PublicInputs)
	}
	return nil
}

// ValidateProofLength checks an encoded proof against the layout before it is
// submitted anywhere.
func ValidateProofLength(encoded string, l Layout) error {
	if want := l.EncodedProofLength(); len(encoded) != want {
		return &LengthError{Expected: want, Actual: len(encoded)}
	}
	if !has0x(encoded) {
		return &EncodingError{Index: -1, Err: fmt.Errorf("proof is missing the 0x prefix")}
	}
	return nil
}

// ValidatePublicInputsCount checks that exactly l.PublicInputs values are present.
func ValidatePublicInputsCount(inputs []string, l Layout) error {
	if len(inputs) != l.PublicInputs {
		return &CountError{Expected: l.PublicInputs, Actual: len(inputs)}
	}
	return nil
}

// ValidatePublicInputs checks the count and that every element is a canonical
// 32-byte word.
func ValidatePublicInputs(inputs []string, l Layout) error {
	if err := ValidatePublicInputsCount(inputs, l); err != nil {
		return err
	}
	for i, in := range inputs {
		if !isWord(in) {
			return &EncodingError{Index: i, Value: in, Err: fmt.Errorf("want 0x followed by %d hex digits", 2*FieldSize)}
		}
	}
	return nil
}
