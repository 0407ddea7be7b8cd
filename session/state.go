// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package session

import (
	"time"

	"github.com/luxfi/ageproof/pipeline"
)

// Claim is the user's private statement.
type Claim = pipeline.Claim

// Verdict is the outcome of one verification stage.
type Verdict uint8

const (
	VerdictUnknown Verdict = iota
	VerdictValid
	VerdictInvalid
)

func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// MarshalText renders the verdict name.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Entry is one line of the diagnostic log.
type Entry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// State is a copy of the session taken by Snapshot.
type State struct {
	Busy         bool     `json:"busy"`
	Proof        string   `json:"proof,omitempty"`
	PublicInputs []string `json:"publicInputs,omitempty"`
	Commitment   string   `json:"commitment,omitempty"`
	Local        Verdict  `json:"localVerdict"`
	Remote       Verdict  `json:"remoteVerdict"`
	Err          error    `json:"-"`
	Log          []Entry  `json:"log"`
}

// HasProof reports whether artifacts are loaded.
func (s State) HasProof() bool {
	return s.Proof != ""
}
