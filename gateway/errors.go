// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/geth/rpc"
)

var (
	// ErrNotLocallyVerified refuses submission of a proof that was not
	// verified locally first.
	ErrNotLocallyVerified = errors.New("proof has not been verified locally")
	ErrContractReverted   = errors.New("verifier contract reverted")
	ErrTransport          = errors.New("verifier call failed")
	ErrWrongChain         = errors.New("rpc endpoint serves a different chain")
)

// ContractErrorKind is a decoded verifier revert.
type ContractErrorKind uint8

const (
	Unclassified ContractErrorKind = iota
	ProofLengthWrong
	PublicInputsLengthWrong
	SumcheckFailed
	ShpleminiFailed
)

func (k ContractErrorKind) String() string {
	switch k {
	case ProofLengthWrong:
		return "ProofLengthWrong"
	case PublicInputsLengthWrong:
		return "PublicInputsLengthWrong"
	case SumcheckFailed:
		return "SumcheckFailed"
	case ShpleminiFailed:
		return "ShpleminiFailed"
	default:
		return "Unclassified"
	}
}

// Selector is the first four bytes of revert data.
type Selector [4]byte

func (s Selector) Hex() string {
	return hexutil.Encode(s[:])
}

func (s Selector) String() string {
	return s.Hex()
}

var selectors = map[Selector]ContractErrorKind{
	{0xd0, 0xe5, 0x0b, 0xe7}: ProofLengthWrong,
	{0x2e, 0x81, 0x5f, 0x18}: PublicInputsLengthWrong,
	{0xff, 0x63, 0xca, 0xf8}: SumcheckFailed,
	{0xb9, 0x6e, 0xcf, 0x7f}: ShpleminiFailed,
}

// Classify maps a selector to its error kind. Unknown selectors are
// Unclassified.
func Classify(sel Selector) ContractErrorKind {
	return selectors[sel]
}

// RemoteContractError is a verifier revert.
type RemoteContractError struct {
	Kind     ContractErrorKind
	Selector Selector
	Data     []byte
}

func (e *RemoteContractError) Error() string {
	if e.Kind == Unclassified {
		return fmt.Sprintf("verifier reverted with unknown error %s", e.Selector)
	}
	return fmt.Sprintf("verifier reverted with %s (%s)", e.Kind, e.Selector)
}

func (e *RemoteContractError) Unwrap() error {
	return ErrContractReverted
}

// RemoteTransportError is any other failure of the remote call. Its
// message is the native one.
type RemoteTransportError struct {
	Err error
}

func (e *RemoteTransportError) Error() string {
	return e.Err.Error()
}

func (e *RemoteTransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

var hexRun = regexp.MustCompile(`0x[0-9a-fA-F]+`)

// classify turns a call failure into a RemoteContractError when revert data
// can be found, otherwise a RemoteTransportError.
func classify(err error) error {
	if data, ok := revertData(err); ok {
		var sel Selector
		copy(sel[:], data[:4])
		return &RemoteContractError{Kind: Classify(sel), Selector: sel, Data: data}
	}
	return &RemoteTransportError{Err: err}
}

func revertData(err error) ([]byte, bool) {
	var de rpc.DataError
	if errors.As(err, &de) {
		if s, ok := de.ErrorData().(string); ok {
			if data, derr := hexutil.Decode(s); derr == nil && len(data) >= 4 {
				return data, true
			}
		}
	}
	msg := err.Error()
	if !strings.Contains(strings.ToLower(msg), "revert") {
		return nil, false
	}
	for _, match := range hexRun.FindAllString(msg, -1) {
		if !isErrorData(len(match) - 2) {
			continue
		}
		data, derr := hexutil.Decode(match)
		if derr != nil {
			continue
		}
		return data, true
	}
	return nil, false
}

// isErrorData reports whether n hex digits can be ABI error data: a selector
// followed by whole 32-byte words. Addresses and hashes never qualify.
func isErrorData(n int) bool {
	return n >= 8 && (n-8)%64 == 0
}
