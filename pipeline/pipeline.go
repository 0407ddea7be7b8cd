// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pipeline turns a claim into a locally verified proof:
// commitment, circuit execution, proving and self verification.
package pipeline

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/ageproof/circuit"
	"github.com/luxfi/ageproof/codec"
	"github.com/luxfi/ageproof/commitment"
	"github.com/luxfi/ageproof/engine"
)

const DefaultEngineCacheSize = 4

// Stage names a step of a run, reported to the Notify callback.
type Stage string

const (
	StageLoad    Stage = "load"
	StageCommit  Stage = "commit"
	StageWitness Stage = "witness"
	StageProve   Stage = "prove"
	StageVerify  Stage = "verify"
	StageDone    Stage = "done"
)

// Notify receives progress messages.
type Notify func(stage Stage, msg string)

// Artifacts is the result of a successful run.
type Artifacts struct {
	Proof        []byte
	PublicInputs codec.PublicInputs
	Commitment   commitment.Commitment
}

// Config tunes a pipeline.
type Config struct {
	// ThreadCap bounds the engine worker hint; zero means engine.DefaultThreadCap.
	ThreadCap       int
	EngineCacheSize int
	// Layout pins the proof shape. When zero the pipeline adopts the proof
	// size its engine reports through engine.Sizer.
	Layout codec.Layout
}

// Pipeline runs proof generation. It is safe for concurrent use; engines
// are shared between runs over the same circuit.
type Pipeline struct {
	source  circuit.Source
	factory engine.Factory
	calc    *commitment.Calculator
	threads int
	log     log.Logger

	layoutMu sync.RWMutex
	layout   codec.Layout
	pinned   bool

	buildMu sync.Mutex
	engines *lru.Cache[common.Hash, engine.Engine]
}

// New returns a pipeline reading circuits from source and building engines
// with factory.
func New(cfg Config, source circuit.Source, factory engine.Factory, calc *commitment.Calculator, logger log.Logger) (*Pipeline, error) {
	if source == nil || factory == nil {
		return nil, fmt.Errorf("pipeline needs a circuit source and an engine factory")
	}
	if calc == nil {
		calc = commitment.MustNewCalculator(commitment.DefaultHasher(), commitment.DefaultCacheSize)
	}
	pinned := cfg.Layout != (codec.Layout{})
	if !pinned {
		cfg.Layout = codec.DefaultLayout
	}
	if err := cfg.Layout.Validate(); err != nil {
		return nil, err
	}
	size := cfg.EngineCacheSize
	if size <= 0 {
		size = DefaultEngineCacheSize
	}
	engines, err := lru.New[common.Hash, engine.Engine](size)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		source:  source,
		factory: factory,
		calc:    calc,
		threads: engine.Threads(cfg.ThreadCap),
		log:     logger,
		layout:  cfg.Layout,
		pinned:  pinned,
		engines: engines,
	}, nil
}

// Layout is the proof layout of the pipeline's proofs: the configured one,
// or the one adopted from the last engine loaded.
func (p *Pipeline) Layout() codec.Layout {
	p.layoutMu.RLock()
	defer p.layoutMu.RUnlock()
	return p.layout
}

// adopt takes the proof size from eng when no layout was pinned. The public
// input count stays at [commitment, minAge].
func (p *Pipeline) adopt(eng engine.Engine) {
	if p.pinned {
		return
	}
	sizer, ok := eng.(engine.Sizer)
	if !ok {
		return
	}
	n := sizer.ProofSize()
	if n <= 0 {
		return
	}
	p.layoutMu.Lock()
	p.layout.ProofBytes = n
	p.layoutMu.Unlock()
}

// Generate runs the pipeline for claim.
func (p *Pipeline) Generate(ctx context.Context, claim Claim) (*Artifacts, error) {
	return p.Run(ctx, claim, nil)
}

// Run is Generate with progress reporting. The context is checked between
// stages; a stage in progress is not interrupted.
func (p *Pipeline) Run(ctx context.Context, claim Claim, notify Notify) (*Artifacts, error) {
	if notify == nil {
		notify = func(Stage, string) {}
	}

	notify(StageLoad, "Loading circuit")
	if err := ctx.Err(); err != nil {
		return nil, fail(KindCanceled, err)
	}
	artifact, eng, err := p.load(ctx)
	if err != nil {
		return nil, fail(KindCircuitLoad, err)
	}

	notify(StageCommit, "Computing commitment")
	com, err := p.calc.Compute(new(big.Int).SetUint64(claim.Age), new(big.Int).SetUint64(claim.Nonce))
	if err != nil {
		return nil, fail(KindCommitment, err)
	}
	notify(StageCommit, "Commitment "+com.Hex())

	inputs := claim.Inputs(com)
	if err := artifact.CheckInputs(inputs); err != nil {
		return nil, fail(KindInput, err)
	}

	notify(StageWitness, "Executing circuit")
	if err := ctx.Err(); err != nil {
		return nil, fail(KindCanceled, err)
	}
	w, err := eng.Execute(ctx, inputs)
	if err != nil {
		return nil, fail(KindWitness, err)
	}

	notify(StageProve, fmt.Sprintf("Generating proof with %d threads", p.threads))
	if err := ctx.Err(); err != nil {
		return nil, fail(KindCanceled, err)
	}
	proof, err := eng.GenerateProof(ctx, w)
	if err != nil {
		return nil, fail(KindProofBackend, err)
	}
	if len(proof.Proof) == 0 {
		return nil, fail(KindProofBackend, fmt.Errorf("engine returned an empty proof"))
	}
	if err := checkPublicInputs(proof.PublicInputs, com, claim.MinAge); err != nil {
		return nil, fail(KindProofBackend, err)
	}

	notify(StageVerify, "Verifying proof locally")
	if err := ctx.Err(); err != nil {
		return nil, fail(KindCanceled, err)
	}
	ok, err := eng.VerifyProof(ctx, proof)
	if err != nil {
		return nil, fail(KindProofBackend, err)
	}
	if !ok {
		return nil, fail(KindLocalVerificationFailed, ErrNotVerified)
	}

	p.log.Info("Proof generated",
		log.String("commitment", com.Hex()),
		log.Int("proofBytes", len(proof.Proof)),
		log.Int("publicInputs", proof.PublicInputs.Len()),
	)
	notify(StageDone, fmt.Sprintf("Proof generated and verified (%d bytes)", len(proof.Proof)))
	return &Artifacts{
		Proof:        proof.Proof,
		PublicInputs: proof.PublicInputs,
		Commitment:   com,
	}, nil
}

// Preflight loads the circuit, builds its engine and checks that the engine
// emits proofs of the configured layout.
func (p *Pipeline) Preflight(ctx context.Context) error {
	artifact, eng, err := p.load(ctx)
	if err != nil {
		return fail(KindCircuitLoad, err)
	}
	layout := p.Layout()
	if artifact.HasSchema() {
		if n := len(artifact.PublicInputs()); n != layout.PublicInputs {
			return fmt.Errorf("%w: circuit declares %d public inputs, layout expects %d",
				ErrLayoutMismatch, n, layout.PublicInputs)
		}
	}
	if sizer, ok := eng.(engine.Sizer); ok {
		if n := sizer.ProofSize(); n != layout.ProofBytes {
			return fmt.Errorf("%w: engine produces %d bytes, layout expects %d",
				ErrLayoutMismatch, n, layout.ProofBytes)
		}
	}
	p.log.Debug("Preflight passed",
		log.String("circuit", artifact.Digest().Hex()),
		log.Int("proofBytes", layout.ProofBytes),
	)
	return nil
}

func (p *Pipeline) load(ctx context.Context) (*circuit.Artifact, engine.Engine, error) {
	artifact, err := p.source.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	eng, err := p.engineFor(artifact)
	if err != nil {
		return nil, nil, err
	}
	p.adopt(eng)
	return artifact, eng, nil
}

func (p *Pipeline) engineFor(a *circuit.Artifact) (engine.Engine, error) {
	digest := a.Digest()
	if eng, ok := p.engines.Get(digest); ok {
		return eng, nil
	}

	p.buildMu.Lock()
	defer p.buildMu.Unlock()
	if eng, ok := p.engines.Get(digest); ok {
		return eng, nil
	}
	eng, err := p.factory(a.Program(), engine.Options{Threads: p.threads})
	if err != nil {
		return nil, fmt.Errorf("initialize engine: %w", err)
	}
	p.engines.Add(digest, eng)
	p.log.Info("Proving engine initialized",
		log.String("circuit", digest.Hex()),
		log.Int("threads", p.threads),
	)
	return eng, nil
}

func checkPublicInputs(in codec.PublicInputs, com commitment.Commitment, minAge uint64) error {
	got, err := codec.EncodePublicInputs(in)
	if err != nil {
		return err
	}
	want, err := codec.EncodePublicInputs(codec.Ordered(com.Hex(), minAge))
	if err != nil {
		return err
	}
	if !slices.Equal(got, want) {
		return fmt.Errorf("%w: got %v, want %v", ErrPublicInputs, got, want)
	}
	return nil
}
