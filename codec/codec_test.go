// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

const twenty = "0x0000000000000000000000000000000000000000000000000000000000000014"

func TestEncodeProof(t *testing.T) {
	encoded, err := EncodeProof([]byte{0x00, 0xab, 0x0f})
	require.NoError(t, err)
	require.Equal(t, "0x00ab0f", encoded)

	raw, err := DecodeProof(encoded)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0xab, 0x0f}, raw)

	for _, empty := range [][]byte{nil, {}} {
		_, err := EncodeProof(empty)
		require.ErrorIs(t, err, ErrEncoding)
	}

	_, err = DecodeProof("abc")
	require.ErrorIs(t, err, ErrEncoding)
	_, err = DecodeProof("0x")
	require.ErrorIs(t, err, ErrEncoding)
}

func TestEncodePublicInputsHeterogeneous(t *testing.T) {
	in := Ordered(
		"0x14",
		"20",
		20,
		int64(20),
		uint8(20),
		float64(20),
		json.Number("20"),
		big.NewInt(20),
		uint256.NewInt(20),
		common.BigToHash(big.NewInt(20)),
		"0X0000000000000000000000000000000000000000000000000000000000000014",
	)
	out, err := EncodePublicInputs(in)
	require.NoError(t, err)
	require.Len(t, out, in.Len())
	for i, s := range out {
		require.Equalf(t, twenty, s, "input %d", i)
	}
}

func TestEncodePublicInputsKeyedPreservesOrder(t *testing.T) {
	in := Keyed(
		Field{Key: "commitment", Value: "0xabc"},
		Field{Key: "min_age", Value: 20},
	)
	out, err := EncodePublicInputs(in)
	require.NoError(t, err)
	require.Equal(t, []string{
		"0x0000000000000000000000000000000000000000000000000000000000000abc",
		twenty,
	}, out)
	require.Equal(t, []string{"commitment", "min_age"}, in.Keys())
}

func TestEncodePublicInputsRejects(t *testing.T) {
	tooBig := new(big.Int).Lsh(big.NewInt(1), 256)
	tests := []struct {
		name  string
		value any
	}{
		{"negative int", -1},
		{"negative string", "-20"},
		{"fraction", 20.5},
		{"word overflow", tooBig},
		{"hex overflow", "0x1" + strings.Repeat("0", 64)},
		{"garbage", "twenty"},
		{"bad hex", "0xzz"},
		{"empty", ""},
		{"bare prefix", "0x"},
		{"nil", nil},
		{"struct", struct{}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodePublicInputs(Ordered("0x01", tt.value))
			require.ErrorIs(t, err, ErrEncoding)
			var encErr *EncodingError
			require.ErrorAs(t, err, &encErr)
			require.Equal(t, 1, encErr.Index)
		})
	}

	_, err := EncodePublicInputs(Keyed(Field{Key: "min_age", Value: -3}))
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, "min_age", encErr.Key)
}

func TestPublicInputsJSON(t *testing.T) {
	var list PublicInputs
	require.NoError(t, json.Unmarshal([]byte(`["0x01", 20, "18"]`), &list))
	require.False(t, list.IsKeyed())
	require.Equal(t, []any{"0x01", json.Number("20"), "18"}, list.Values())

	var record PublicInputs
	require.NoError(t, json.Unmarshal([]byte(`{"z_commitment": "0x01", "a_min_age": 20}`), &record))
	require.True(t, record.IsKeyed())
	require.Equal(t, []string{"z_commitment", "a_min_age"}, record.Keys())

	out, err := EncodePublicInputs(record)
	require.NoError(t, err)
	require.Equal(t, twenty, out[1])

	data, err := json.Marshal(record)
	require.NoError(t, err)
	require.JSONEq(t, `{"z_commitment": "0x01", "a_min_age": 20}`, string(data))
	require.True(t, strings.Index(string(data), "z_commitment") < strings.Index(string(data), "a_min_age"))

	var nested PublicInputs
	require.Error(t, json.Unmarshal([]byte(`[[1]]`), &nested))
	require.Error(t, json.Unmarshal([]byte(`"0x01"`), &nested))
}

func TestDecodePublicInputsRoundTrip(t *testing.T) {
	commitment := new(big.Int).SetBytes(common.FromHex("0x075c382f7808049aa9b0fcf5e6e5eec5bcb3e7b1be1f0c7496286264bda251fd"))
	out, err := EncodePublicInputs(Ordered(commitment, "20"))
	require.NoError(t, err)
	require.Equal(t, "0x075c382f7808049aa9b0fcf5e6e5eec5bcb3e7b1be1f0c7496286264bda251fd", out[0])
	require.Equal(t, twenty, out[1])

	back, err := DecodePublicInputs(out)
	require.NoError(t, err)
	require.Zero(t, commitment.Cmp(back[0]))
	require.Zero(t, big.NewInt(20).Cmp(back[1]))

	_, err = DecodePublicInputs([]string{"0x14"})
	require.ErrorIs(t, err, ErrEncoding)
}

func TestValidateProofLength(t *testing.T) {
	layout := DefaultLayout
	require.Equal(t, 14080, layout.ProofBytes)
	require.Equal(t, 28162, layout.EncodedProofLength())

	exact, err := EncodeProof(make([]byte, layout.ProofBytes))
	require.NoError(t, err)
	require.NoError(t, ValidateProofLength(exact, layout))

	for _, n := range []int{layout.ProofBytes - 1, layout.ProofBytes + 1} {
		encoded, err := EncodeProof(make([]byte, n))
		require.NoError(t, err)

		err = ValidateProofLength(encoded, layout)
		require.ErrorIs(t, err, ErrLength)
		var lenErr *LengthError
		require.ErrorAs(t, err, &lenErr)
		require.Equal(t, 28162, lenErr.Expected)
		require.Equal(t, 2+2*n, lenErr.Actual)
	}

	noPrefix := "ab" + strings.Repeat("0", layout.EncodedProofLength()-2)
	require.ErrorIs(t, ValidateProofLength(noPrefix, layout), ErrEncoding)
}

func TestValidatePublicInputsCount(t *testing.T) {
	for n := 0; n <= 4; n++ {
		inputs := make([]string, n)
		for i := range inputs {
			inputs[i] = twenty
		}
		err := ValidatePublicInputsCount(inputs, DefaultLayout)
		if n == 2 {
			require.NoError(t, err)
			require.NoError(t, ValidatePublicInputs(inputs, DefaultLayout))
			continue
		}
		var countErr *CountError
		require.ErrorAs(t, err, &countErr)
		require.Equal(t, 2, countErr.Expected)
		require.Equal(t, n, countErr.Actual)
	}

	require.ErrorIs(t, ValidatePublicInputs([]string{twenty, "0x14"}, DefaultLayout), ErrEncoding)
}

func TestLayoutValidate(t *testing.T) {
	require.NoError(t, DefaultLayout.Validate())
	require.ErrorIs(t, Layout{ProofBytes: 0, PublicInputs: 2}.Validate(), ErrLayout)
	require.ErrorIs(t, Layout{ProofBytes: 32, PublicInputs: 0}.Validate(), ErrLayout)
}
