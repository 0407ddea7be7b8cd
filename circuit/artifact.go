// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package circuit loads the compiled circuit artifact the proving engine is
// constructed from and exposes the input schema it declares.
package circuit

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/zeebo/blake3"
)

var (
	ErrMalformed     = errors.New("malformed circuit artifact")
	ErrEmptyBytecode = errors.New("circuit artifact has no bytecode")
	ErrInputMismatch = errors.New("inputs do not match circuit schema")
)

// Visibility of a circuit parameter.
const (
	Private = "private"
	Public  = "public"
)

// Parameter is one declared circuit input.
type Parameter struct {
	Name       string          `json:"name"`
	Type       json.RawMessage `json:"type,omitempty"`
	Visibility string          `json:"visibility"`
}

// ABI is the input schema declared by the circuit compiler.
type ABI struct {
	Parameters []Parameter `json:"parameters"`
}

// Artifact is the JSON document produced by the circuit compiler. The
// bytecode is opaque to everything but the engine that runs it.
type Artifact struct {
	Version  string `json:"noir_version,omitempty"`
	Backend  string `json:"backend,omitempty"`
	ABI      ABI    `json:"abi"`
	Bytecode string `json:"bytecode"`
	// Checksum is the BLAKE3 digest of the decoded bytecode. Optional.
	Checksum string `json:"checksum,omitempty"`

	program []byte
}

// Parse decodes and sanity checks an artifact document.
func Parse(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if strings.TrimSpace(a.Bytecode) == "" {
		return nil, ErrEmptyBytecode
	}
	program, err := base64.StdEncoding.DecodeString(a.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("%w: bytecode: %v", ErrMalformed, err)
	}
	if len(program) == 0 {
		return nil, ErrEmptyBytecode
	}
	if a.Checksum != "" && !strings.EqualFold(a.Checksum, checksum(program)) {
		return nil, fmt.Errorf("%w: bytecode checksum mismatch", ErrMalformed)
	}
	seen := make(map[string]struct{}, len(a.ABI.Parameters))
	for _, p := range a.ABI.Parameters {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: unnamed parameter", ErrMalformed)
		}
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate parameter %q", ErrMalformed, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	a.program = program
	return &a, nil
}

// New builds an artifact around raw engine bytecode.
func New(backend string, program []byte, params ...Parameter) *Artifact {
	return &Artifact{
		Backend:  backend,
		ABI:      ABI{Parameters: params},
		Bytecode: base64.StdEncoding.EncodeToString(program),
		Checksum: checksum(program),
		program:  append([]byte(nil), program...),
	}
}

// Marshal encodes the artifact document.
func (a *Artifact) Marshal() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// Program returns the decoded bytecode.
func (a *Artifact) Program() []byte {
	return a.program
}

func checksum(program []byte) string {
	sum := blake3.Sum256(program)
	return hexutil.Encode(sum[:])
}

// Digest identifies the artifact by its bytecode.
func (a *Artifact) Digest() common.Hash {
	return common.Hash(crypto.Keccak256Hash(a.program))
}

// HasSchema reports whether the artifact declares its inputs.
func (a *Artifact) HasSchema() bool {
	return len(a.ABI.Parameters) > 0
}

// PublicInputs lists the public parameter names in declaration order.
func (a *Artifact) PublicInputs() []string {
	var names []string
	for _, p := range a.ABI.Parameters {
		if p.Visibility == Public {
			names = append(names, p.Name)
		}
	}
	return names
}

// CheckInputs verifies that a named input record supplies exactly the
// parameters the circuit declares. Artifacts without a schema accept any record.
func (a *Artifact) CheckInputs(inputs map[string]string) error {
	if !a.HasSchema() {
		return nil
	}
	var missing, unknown []string
	declared := make(map[string]struct{}, len(a.ABI.Parameters))
	for _, p := range a.ABI.Parameters {
		declared[p.Name] = struct{}{}
		if _, ok := inputs[p.Name]; !ok {
			missing = append(missing, p.Name)
		}
	}
	for name := range inputs {
		if _, ok := declared[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(missing) == 0 && len(unknown) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(unknown)
	return fmt.Errorf("%w: missing %v, unknown %v", ErrInputMismatch, missing, unknown)
}
