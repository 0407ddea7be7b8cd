// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/ageproof/codec"
)

// revertError mimics a JSON-RPC error carrying revert data.
type revertError struct {
	data interface{}
}

func (e *revertError) Error() string          { return "execution reverted" }
func (e *revertError) ErrorCode() int         { return 3 }
func (e *revertError) ErrorData() interface{} { return e.data }

type fakeCaller struct {
	calls   int
	method  string
	payload []byte
	result  []byte
	chainID uint64
	err     error
}

func (f *fakeCaller) CallContext(_ context.Context, result interface{}, method string, args ...interface{}) error {
	f.calls++
	f.method = method
	if f.err != nil {
		return f.err
	}
	switch method {
	case "eth_call":
		call := args[0].(map[string]interface{})
		f.payload = call["data"].(hexutil.Bytes)
		*result.(*hexutil.Bytes) = f.result
	case "eth_chainId":
		*result.(*hexutil.Big) = hexutil.Big(*new(big.Int).SetUint64(f.chainID))
	default:
		return fmt.Errorf("unexpected method %s", method)
	}
	return nil
}

func verdict(t *testing.T, ok bool) []byte {
	t.Helper()
	out, err := verifierABI.Methods[verifyMethod].Outputs.Pack(ok)
	require.NoError(t, err)
	return out
}

func validSubmission() Submission {
	proof := make([]byte, codec.DefaultLayout.ProofBytes)
	proof[0] = 0x01
	return Submission{
		Proof: hexutil.Encode(proof),
		PublicInputs: []string{
			common.BigToHash(big.NewInt(0x075c38)).Hex(),
			common.BigToHash(big.NewInt(20)).Hex(),
		},
		LocalVerified: true,
	}
}

func newTestGateway(t *testing.T, caller Caller) *Gateway {
	t.Helper()
	g, err := New(DefaultConfig(), caller, log.NewTestLogger(log.InfoLevel))
	require.NoError(t, err)
	return g
}

func TestSubmitValid(t *testing.T) {
	require := require.New(t)

	caller := &fakeCaller{result: verdict(t, true)}
	g := newTestGateway(t, caller)

	s := validSubmission()
	ok, err := g.Submit(context.Background(), s)
	require.NoError(err)
	require.True(ok)
	require.Equal("eth_call", caller.method)

	// calldata carries the verify selector and round trips through the ABI
	method := verifierABI.Methods[verifyMethod]
	require.Equal(method.ID, caller.payload[:4])
	args, err := method.Inputs.Unpack(caller.payload[4:])
	require.NoError(err)
	require.Len(args[0].([]byte), codec.DefaultLayout.ProofBytes)
	inputs := args[1].([][32]byte)
	require.Len(inputs, 2)
	require.Equal(common.HexToHash(s.PublicInputs[1]), common.Hash(inputs[1]))
}

func TestSubmitInvalidVerdict(t *testing.T) {
	g := newTestGateway(t, &fakeCaller{result: verdict(t, false)})
	ok, err := g.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSubmitGuards(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Submission)
		err    error
	}{
		{
			name:   "not locally verified",
			modify: func(s *Submission) { s.LocalVerified = false },
			err:    ErrNotLocallyVerified,
		},
		{
			name:   "proof one byte short",
			modify: func(s *Submission) { s.Proof = s.Proof[:len(s.Proof)-2] },
			err:    codec.ErrLength,
		},
		{
			name:   "proof one byte long",
			modify: func(s *Submission) { s.Proof += "00" },
			err:    codec.ErrLength,
		},
		{
			name:   "one public input",
			modify: func(s *Submission) { s.PublicInputs = s.PublicInputs[:1] },
			err:    codec.ErrCount,
		},
		{
			name:   "three public inputs",
			modify: func(s *Submission) { s.PublicInputs = append(s.PublicInputs, s.PublicInputs[1]) },
			err:    codec.ErrCount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := &fakeCaller{result: verdict(t, true)}
			g := newTestGateway(t, caller)
			s := validSubmission()
			tt.modify(&s)

			ok, err := g.Submit(context.Background(), s)
			require.False(t, ok)
			require.ErrorIs(t, err, tt.err)
			require.Zero(t, caller.calls)
			require.NotEmpty(t, g.Hint(err))
		})
	}
}

func TestSubmitLengthErrorDetails(t *testing.T) {
	g := newTestGateway(t, &fakeCaller{})
	s := validSubmission()
	s.Proof = s.Proof[:len(s.Proof)-2]

	_, err := g.Submit(context.Background(), s)
	var lengthErr *codec.LengthError
	require.ErrorAs(t, err, &lengthErr)
	require.Equal(t, 28162, lengthErr.Expected)
	require.Equal(t, 28160, lengthErr.Actual)
}

func TestSubmitContractErrors(t *testing.T) {
	tests := []struct {
		data     interface{}
		kind     ContractErrorKind
		selector string
	}{
		{"0xd0e50be7", ProofLengthWrong, "0xd0e50be7"},
		{"0x2e815f18", PublicInputsLengthWrong, "0x2e815f18"},
		{"0xff63caf8", SumcheckFailed, "0xff63caf8"},
		{"0xb96ecf7f", ShpleminiFailed, "0xb96ecf7f"},
		{"0x12345678deadbeef", Unclassified, "0x12345678"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			require := require.New(t)
			g := newTestGateway(t, &fakeCaller{err: &revertError{data: tt.data}})

			ok, err := g.Submit(context.Background(), validSubmission())
			require.False(ok)
			require.ErrorIs(err, ErrContractReverted)

			var contractErr *RemoteContractError
			require.ErrorAs(err, &contractErr)
			require.Equal(tt.kind, contractErr.Kind)
			require.Equal(tt.selector, contractErr.Selector.Hex())
			require.NotEmpty(g.Hint(err))
		})
	}
}

func TestSubmitRevertInMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		kind ContractErrorKind
	}{
		{
			name: "bare selector",
			msg:  "execution reverted: custom error 0xff63caf8",
			kind: SumcheckFailed,
		},
		{
			name: "selector with argument",
			msg:  "execution reverted: 0xd0e50be7" + strings.Repeat("0", 63) + "1",
			kind: ProofLengthWrong,
		},
		{
			name: "address before data",
			msg:  "call to " + DefaultContract + " reverted: 0x2e815f18",
			kind: PublicInputsLengthWrong,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(t, &fakeCaller{err: errors.New(tt.msg)})
			_, err := g.Submit(context.Background(), validSubmission())
			var contractErr *RemoteContractError
			require.ErrorAs(t, err, &contractErr)
			require.Equal(t, tt.kind, contractErr.Kind)
		})
	}
}

func TestSubmitRevertMessageWithoutData(t *testing.T) {
	for _, msg := range []string{
		"execution reverted at " + DefaultContract,
		"execution reverted in block 0x" + strings.Repeat("ab", 32),
		"execution reverted: 0x1234abcd5",
	} {
		g := newTestGateway(t, &fakeCaller{err: errors.New(msg)})
		_, err := g.Submit(context.Background(), validSubmission())
		require.ErrorIs(t, err, ErrTransport, msg)
		require.NotErrorIs(t, err, ErrContractReverted, msg)
		require.Equal(t, msg, err.Error())
	}
}

func TestSubmitTransportError(t *testing.T) {
	require := require.New(t)

	native := errors.New("dial tcp: connection refused")
	g := newTestGateway(t, &fakeCaller{err: native})

	_, err := g.Submit(context.Background(), validSubmission())
	require.ErrorIs(err, ErrTransport)
	require.ErrorIs(err, native)
	require.Equal(native.Error(), err.Error())

	var transportErr *RemoteTransportError
	require.ErrorAs(err, &transportErr)
	hints := g.Hint(err)
	require.True(strings.Contains(hints[0], "RPC"))

	// revert data too short for a selector
	g = newTestGateway(t, &fakeCaller{err: &revertError{data: "0x01"}})
	_, err = g.Submit(context.Background(), validSubmission())
	require.ErrorAs(err, &transportErr)
}

func TestSubmitEmptyResponse(t *testing.T) {
	g := newTestGateway(t, &fakeCaller{})
	_, err := g.Submit(context.Background(), validSubmission())
	require.ErrorIs(t, err, ErrTransport)
}

func TestClassify(t *testing.T) {
	require.Equal(t, ProofLengthWrong, Classify(Selector{0xd0, 0xe5, 0x0b, 0xe7}))
	require.Equal(t, Unclassified, Classify(Selector{}))
	require.Equal(t, "Unclassified", ContractErrorKind(42).String())
}

func TestCheckChain(t *testing.T) {
	require := require.New(t)

	g := newTestGateway(t, &fakeCaller{chainID: DefaultChainID})
	require.NoError(g.CheckChain(context.Background()))

	g = newTestGateway(t, &fakeCaller{chainID: 1})
	require.ErrorIs(g.CheckChain(context.Background()), ErrWrongChain)

	info := g.Info()
	require.Equal(DefaultNetwork, info.Network)
	require.Equal(common.HexToAddress(DefaultContract), info.Contract)
	require.Contains(info.String(), "11155111")
}

func TestConfigInfo(t *testing.T) {
	require := require.New(t)

	cfg := DefaultConfig()
	cfg.Network = "Local"
	cfg.ChainID = 1337
	cfg.RPCURL = "http://127.0.0.1:8545"

	info := cfg.Info()
	require.Equal(ChainInfo{
		Network:  "Local",
		ChainID:  1337,
		Contract: common.HexToAddress(DefaultContract),
		RPCURL:   "http://127.0.0.1:8545",
	}, info)

	g, err := New(cfg, &fakeCaller{}, log.NewTestLogger(log.InfoLevel))
	require.NoError(err)
	require.Equal(info, g.Info())
}

func TestNewRejectsConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Contract = common.Address{}
	_, err := New(cfg, &fakeCaller{}, log.NewTestLogger(log.InfoLevel))
	require.Error(t, err)

	_, err = New(DefaultConfig(), nil, log.NewTestLogger(log.InfoLevel))
	require.Error(t, err)
}
