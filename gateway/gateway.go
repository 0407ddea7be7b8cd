// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gateway submits proofs to the on-chain verifier with a read-only
// call and interprets its verdict.
package gateway

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/geth/rpc"
	"github.com/luxfi/log"

	"github.com/luxfi/ageproof/codec"
)

// Defaults of the public Sepolia deployment.
const (
	DefaultRPCURL      = "https://sepolia.gateway.tenderly.co"
	DefaultContract    = "0x5b4a358ea1fef25e78ffdf0909a94f925b24d947"
	DefaultNetwork     = "Sepolia"
	DefaultChainID     = uint64(11155111)
	DefaultCallTimeout = 60 * time.Second
)

// Caller performs JSON-RPC calls. *rpc.Client implements it.
type Caller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// Config selects the verifier deployment.
type Config struct {
	RPCURL      string
	Network     string
	ChainID     uint64
	Contract    common.Address
	CallTimeout time.Duration
	Layout      codec.Layout
}

// DefaultConfig targets the public Sepolia verifier.
func DefaultConfig() Config {
	return Config{
		RPCURL:      DefaultRPCURL,
		Network:     DefaultNetwork,
		ChainID:     DefaultChainID,
		Contract:    common.HexToAddress(DefaultContract),
		CallTimeout: DefaultCallTimeout,
		Layout:      codec.DefaultLayout,
	}
}

// Info describes the deployment c selects.
func (c Config) Info() ChainInfo {
	return ChainInfo{
		Network:  c.Network,
		ChainID:  c.ChainID,
		Contract: c.Contract,
		RPCURL:   c.RPCURL,
	}
}

// Submission is an encoded proof ready for remote verification.
type Submission struct {
	Proof         string
	PublicInputs  []string
	LocalVerified bool
}

// Gateway talks to one verifier contract.
type Gateway struct {
	cfg    Config
	caller Caller
	closer func()
	log    log.Logger
}

// New returns a gateway using caller for JSON-RPC.
func New(cfg Config, caller Caller, logger log.Logger) (*Gateway, error) {
	if caller == nil {
		return nil, fmt.Errorf("gateway needs an rpc caller")
	}
	if cfg.Contract == (common.Address{}) {
		return nil, fmt.Errorf("verifier contract address is not set")
	}
	if cfg.Layout == (codec.Layout{}) {
		cfg.Layout = codec.DefaultLayout
	}
	if err := cfg.Layout.Validate(); err != nil {
		return nil, err
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	return &Gateway{cfg: cfg, caller: caller, closer: func() {}, log: logger}, nil
}

// Dial connects to cfg.RPCURL.
func Dial(ctx context.Context, cfg Config, logger log.Logger) (*Gateway, error) {
	client, err := rpc.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, &RemoteTransportError{Err: err}
	}
	g, err := New(cfg, client, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	g.closer = client.Close
	return g, nil
}

// Close releases the RPC connection.
func (g *Gateway) Close() {
	g.closer()
}

// Info describes the configured deployment.
func (g *Gateway) Info() ChainInfo {
	return g.cfg.Info()
}

// Submit asks the verifier whether s is valid. Shape checks run before any
// network traffic. A false verdict is not an error.
func (g *Gateway) Submit(ctx context.Context, s Submission) (bool, error) {
	if !s.LocalVerified {
		return false, ErrNotLocallyVerified
	}
	if err := codec.ValidateProofLength(s.Proof, g.cfg.Layout); err != nil {
		return false, err
	}
	if err := codec.ValidatePublicInputs(s.PublicInputs, g.cfg.Layout); err != nil {
		return false, err
	}
	proof, err := codec.DecodeProof(s.Proof)
	if err != nil {
		return false, err
	}
	inputs := make([][32]byte, len(s.PublicInputs))
	for i, in := range s.PublicInputs {
		inputs[i] = common.HexToHash(in)
	}
	data, err := packVerify(proof, inputs)
	if err != nil {
		return false, fmt.Errorf("pack verify call: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
	defer cancel()

	var out hexutil.Bytes
	call := map[string]interface{}{
		"to":   g.cfg.Contract,
		"data": hexutil.Bytes(data),
	}
	start := time.Now()
	if err := g.caller.CallContext(ctx, &out, "eth_call", call, "latest"); err != nil {
		classified := classify(err)
		g.log.Warn("Remote verification failed",
			log.String("contract", g.cfg.Contract.Hex()),
			log.String("error", classified.Error()),
		)
		return false, classified
	}
	if len(out) == 0 {
		return false, &RemoteTransportError{Err: fmt.Errorf("empty response from %s: no contract deployed?", g.cfg.Contract.Hex())}
	}
	verdict, err := unpackVerify(out)
	if err != nil {
		return false, &RemoteTransportError{Err: fmt.Errorf("decode verify result: %w", err)}
	}
	g.log.Info("Remote verification finished",
		log.String("contract", g.cfg.Contract.Hex()),
		log.String("verdict", strconv.FormatBool(verdict)),
		log.String("elapsed", time.Since(start).String()),
	)
	return verdict, nil
}

// ChainID asks the endpoint which chain it serves.
func (g *Gateway) ChainID(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
	defer cancel()

	var id hexutil.Big
	if err := g.caller.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return 0, &RemoteTransportError{Err: err}
	}
	v := (*big.Int)(&id)
	if !v.IsUint64() {
		return 0, &RemoteTransportError{Err: fmt.Errorf("chain id %s out of range", v)}
	}
	return v.Uint64(), nil
}

// CheckChain compares the endpoint's chain with the configured one.
func (g *Gateway) CheckChain(ctx context.Context) error {
	id, err := g.ChainID(ctx)
	if err != nil {
		return err
	}
	if id != g.cfg.ChainID {
		return fmt.Errorf("%w: got %d, want %d (%s)", ErrWrongChain, id, g.cfg.ChainID, g.cfg.Network)
	}
	return nil
}

// Hint returns troubleshooting guidance for err under the gateway's layout.
func (g *Gateway) Hint(err error) []string {
	return Hint(err, g.cfg.Layout)
}
