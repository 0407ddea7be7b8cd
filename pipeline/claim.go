// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pipeline

import (
	"fmt"
	"strconv"

	"github.com/luxfi/ageproof/commitment"
	"github.com/luxfi/ageproof/engine"
)

// Bounds on user supplied claims.
const (
	MinClaimAge = 1
	MaxClaimAge = 120
)

// Named circuit inputs.
const (
	InputAge        = "age"
	InputNonce      = "nonce"
	InputCommitment = "commitment"
	InputMinAge     = "min_age"
)

// Claim is the private statement to prove: Age >= MinAge, bound to a
// commitment by Nonce.
type Claim struct {
	Age    uint64 `json:"age"`
	Nonce  uint64 `json:"nonce"`
	MinAge uint64 `json:"minAge"`
}

// Validate checks the claim bounds. Age >= MinAge is left to the circuit.
func (c Claim) Validate() error {
	switch {
	case c.Age < MinClaimAge || c.Age > MaxClaimAge:
		return fmt.Errorf("%w: age %d outside [%d, %d]", ErrInvalidClaim, c.Age, MinClaimAge, MaxClaimAge)
	case c.Nonce < 1:
		return fmt.Errorf("%w: nonce must be positive", ErrInvalidClaim)
	case c.MinAge < 1:
		return fmt.Errorf("%w: minimum age must be positive", ErrInvalidClaim)
	}
	return nil
}

// Inputs builds the named input record for the circuit.
func (c Claim) Inputs(com commitment.Commitment) engine.Inputs {
	return engine.Inputs{
		InputAge:        strconv.FormatUint(c.Age, 10),
		InputNonce:      strconv.FormatUint(c.Nonce, 10),
		InputCommitment: com.Hex(),
		InputMinAge:     strconv.FormatUint(c.MinAge, 10),
	}
}
