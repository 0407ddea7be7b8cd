// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

var (
	errNegative    = errors.New("negative value")
	errNotInteger  = errors.New("not an integer")
	errOverflow    = errors.New("value exceeds 256 bits")
	errUnsupported = errors.New("unsupported value type")
)

// Field is one entry of a keyed public input record.
type Field struct {
	Key   string
	Value any
}

// PublicInputs is the raw public input set returned by a proving engine. It
// is either an ordered list or a keyed record; keyed records keep the order
// in which their keys were encountered.
type PublicInputs struct {
	keyed  bool
	keys   []string
	values []any
}

// Ordered builds a list-shaped public input set.
func Ordered(values ...any) PublicInputs {
	return PublicInputs{values: append([]any(nil), values...)}
}

// Keyed builds a record-shaped public input set.
func Keyed(fields ...Field) PublicInputs {
	p := PublicInputs{keyed: true}
	for _, f := range fields {
		p.keys = append(p.keys, f.Key)
		p.values = append(p.values, f.Value)
	}
	return p
}

func (p PublicInputs) Len() int      { return len(p.values) }
func (p PublicInputs) IsKeyed() bool { return p.keyed }

// Values returns the values in canonical order.
func (p PublicInputs) Values() []any {
	return append([]any(nil), p.values...)
}

// Keys returns the record keys, or nil for a list.
func (p PublicInputs) Keys() []string {
	return append([]string(nil), p.keys...)
}

// MarshalJSON emits a list or an object, keeping key order.
func (p PublicInputs) MarshalJSON() ([]byte, error) {
	if !p.keyed {
		if p.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(p.values)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(p.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts either a JSON array or a JSON object of scalars.
// Numbers are kept as json.Number so no precision is lost.
func (p *PublicInputs) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	var out PublicInputs
	switch tok {
	case json.Delim('['):
		for dec.More() {
			v, err := scalarToken(dec)
			if err != nil {
				return err
			}
			out.values = append(out.values, v)
		}
	case json.Delim('{'):
		out.keyed = true
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return err
			}
			key, ok := kt.(string)
			if !ok {
				return fmt.Errorf("public inputs: unexpected key %v", kt)
			}
			v, err := scalarToken(dec)
			if err != nil {
				return fmt.Errorf("public inputs %q: %w", key, err)
			}
			out.keys = append(out.keys, key)
			out.values = append(out.values, v)
		}
	case nil:
		*p = PublicInputs{}
		return nil
	default:
		return fmt.Errorf("public inputs: want array or object, got %v", tok)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}

func scalarToken(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case string, json.Number:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported public input %v", tok)
	}
}

// ToWord normalises a single public input representation into a 256-bit word.
// Accepted forms are hex strings (0x-prefixed), decimal strings, Go integer
// kinds, integral floats, json.Number, *big.Int, *uint256.Int, [32]byte,
// common.Hash and fmt.Stringer values that print one of the string forms.
func ToWord(v any) (*uint256.Int, error) {
	switch x := v.(type) {
	case nil:
		return nil, errUnsupported
	case string:
		return parseWord(x)
	case json.Number:
		return parseWord(x.String())
	case int:
		return fromInt64(int64(x))
	case int8:
		return fromInt64(int64(x))
	case int16:
		return fromInt64(int64(x))
	case int32:
		return fromInt64(int64(x))
	case int64:
		return fromInt64(x)
	case uint:
		return uint256.NewInt(uint64(x)), nil
	case uint8:
		return uint256.NewInt(uint64(x)), nil
	case uint16:
		return uint256.NewInt(uint64(x)), nil
	case uint32:
		return uint256.NewInt(uint64(x)), nil
	case uint64:
		return uint256.NewInt(x), nil
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case *big.Int:
		return fromBig(x)
	case *uint256.Int:
		if x == nil {
			return nil, errUnsupported
		}
		return x.Clone(), nil
	case [32]byte:
		return new(uint256.Int).SetBytes32(x[:]), nil
	case common.Hash:
		return new(uint256.Int).SetBytes32(x[:]), nil
	case fmt.Stringer:
		return parseWord(x.String())
	default:
		return nil, fmt.Errorf("%w %T", errUnsupported, v)
	}
}

func parseWord(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errNotInteger
	}
	if strings.HasPrefix(s, "-") {
		return nil, errNegative
	}
	if has0x(s) {
		digits := s[2:]
		if digits == "" || !isHexDigits(digits) {
			return nil, fmt.Errorf("%w: malformed hex %q", errNotInteger, s)
		}
		b, ok := new(big.Int).SetString(digits, 16)
		if !ok {
			return nil, fmt.Errorf("%w: malformed hex %q", errNotInteger, s)
		}
		return fromBig(b)
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errNotInteger, s)
	}
	return fromBig(b)
}

func fromInt64(v int64) (*uint256.Int, error) {
	if v < 0 {
		return nil, errNegative
	}
	return uint256.NewInt(uint64(v)), nil
}

func fromFloat(f float64) (*uint256.Int, error) {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f):
		return nil, errNotInteger
	case f < 0:
		return nil, errNegative
	case f > 1<<53:
		return nil, fmt.Errorf("%w: %v is not exactly representable", errNotInteger, f)
	}
	return uint256.NewInt(uint64(f)), nil
}

func fromBig(b *big.Int) (*uint256.Int, error) {
	if b == nil {
		return nil, errUnsupported
	}
	if b.Sign() < 0 {
		return nil, errNegative
	}
	u, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errOverflow
	}
	return u, nil
}
