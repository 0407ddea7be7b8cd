// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"errors"
	"fmt"
)

var (
	ErrEncoding = errors.New("encoding error")
	ErrLength   = errors.New("proof length mismatch")
	ErrCount    = errors.New("public input count mismatch")
	ErrLayout   = errors.New("invalid proof layout")
)

// EncodingError reports a value that cannot be put on the wire.
// Index is -1 when the failure is not tied to a single public input.
type EncodingError struct {
	Index int
	Key   string
	Value any
	Err   error
}

func (e *EncodingError) Error() string {
	switch {
	case e.Key != "":
		return fmt.Sprintf("encoding error: public input %q (%v): %v", e.Key, e.Value, e.Err)
	case e.Index >= 0:
		return fmt.Sprintf("encoding error: public input %d (%v): %v", e.Index, e.Value, e.Err)
	default:
		return "encoding error: " + e.Err.Error()
	}
}

func (e *EncodingError) Unwrap() []error {
	return []error{ErrEncoding, e.Err}
}

// LengthError is returned when an encoded proof does not have the length the
// deployed verifier expects. Lengths are counted in characters of the
// 0x-prefixed hex string.
type LengthError struct {
	Expected int
	Actual   int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("%s: expected %d hex characters (%d bytes), got %d (%d bytes)",
		ErrLength, e.Expected, hexBytes(e.Expected), e.Actual, hexBytes(e.Actual))
}

func (e *LengthError) Unwrap() error {
	return ErrLength
}

// CountError is returned when the number of public inputs is wrong.
type CountError struct {
	Expected int
	Actual   int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", ErrCount, e.Expected, e.Actual)
}

func (e *CountError) Unwrap() error {
	return ErrCount
}

func hexBytes(chars int) int {
	if chars < 2 {
		return 0
	}
	return (chars - 2) / 2
}
