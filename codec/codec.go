// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package codec converts proofs and public inputs between their raw engine
// form and the hex wire format an on-chain verifier expects, and guards
// their shape before submission.
package codec

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
)

var errEmptyProof = errors.New("proof is empty")

// EncodeProof hex-encodes raw proof bytes with a 0x prefix.
func EncodeProof(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", &EncodingError{Index: -1, Err: errEmptyProof}
	}
	return hexutil.Encode(raw), nil
}

// DecodeProof is the inverse of EncodeProof.
func DecodeProof(encoded string) ([]byte, error) {
	raw, err := hexutil.Decode(encoded)
	if err != nil {
		return nil, &EncodingError{Index: -1, Err: fmt.Errorf("proof: %w", err)}
	}
	if len(raw) == 0 {
		return nil, &EncodingError{Index: -1, Err: errEmptyProof}
	}
	return raw, nil
}

// EncodePublicInputs normalises every value into a canonical 0x-prefixed
// 64-digit word, preserving the order in which values were supplied.
func EncodePublicInputs(in PublicInputs) ([]string, error) {
	out := make([]string, 0, in.Len())
	for i, v := range in.values {
		word, err := ToWord(v)
		if err != nil {
			e := &EncodingError{Index: i, Value: v, Err: err}
			if in.keyed {
				e.Key = in.keys[i]
			}
			return nil, e
		}
		out = append(out, common.Hash(word.Bytes32()).Hex())
	}
	return out, nil
}

// DecodePublicInputs parses canonical words back into integers.
func DecodePublicInputs(encoded []string) ([]*big.Int, error) {
	out := make([]*big.Int, 0, len(encoded))
	for i, s := range encoded {
		if !isWord(s) {
			return nil, &EncodingError{Index: i, Value: s, Err: fmt.Errorf("want 0x followed by %d hex digits", 2*FieldSize)}
		}
		out = append(out, new(big.Int).SetBytes(common.HexToHash(s).Bytes()))
	}
	return out, nil
}

func has0x(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func isWord(s string) bool {
	if len(s) != 2+2*FieldSize || !has0x(s) {
		return false
	}
	return isHexDigits(s[2:])
}

func isHexDigits(s string) bool {
	return strings.IndexFunc(s, func(c rune) bool {
		return !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F')
	}) < 0
}
