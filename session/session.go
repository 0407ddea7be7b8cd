// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package session holds the state of one user's proving session: the
// latest artifacts, the local and remote verdicts and a diagnostic log.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/ageproof/codec"
	"github.com/luxfi/ageproof/gateway"
	"github.com/luxfi/ageproof/pipeline"
)

var (
	// ErrBusy is returned when an operation is already in flight.
	ErrBusy      = errors.New("session is busy")
	ErrNoProof   = errors.New("no proof loaded; generate one first")
	ErrNoGateway = errors.New("no verification gateway configured")
)

// Prover generates locally verified proofs.
type Prover interface {
	Run(ctx context.Context, claim pipeline.Claim, notify pipeline.Notify) (*pipeline.Artifacts, error)
}

// Submitter verifies proofs remotely.
type Submitter interface {
	Submit(ctx context.Context, s gateway.Submission) (bool, error)
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used to timestamp log entries.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is owned by one user flow. Operations are serialized: a call made
// while another is in flight fails with ErrBusy.
type Session struct {
	prover    Prover
	submitter Submitter
	now       func() time.Time
	log       log.Logger

	mu    sync.Mutex
	state State
}

// New returns an empty session. submitter may be nil when only local
// proving is needed.
func New(prover Prover, submitter Submitter, logger log.Logger, opts ...Option) *Session {
	s := &Session{
		prover:    prover,
		submitter: submitter,
		now:       time.Now,
		log:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate proves claim, replacing any previous artifacts. The returned
// error is also kept in the state.
func (s *Session) Generate(ctx context.Context, claim Claim) error {
	if err := s.begin(true); err != nil {
		return err
	}
	s.appendf("Generating proof for minimum age %d", claim.MinAge)

	if err := claim.Validate(); err != nil {
		return s.end(err)
	}
	if s.prover == nil {
		return s.end(errors.New("no prover configured"))
	}

	artifacts, err := s.prover.Run(ctx, claim, func(_ pipeline.Stage, msg string) {
		s.appendf("%s", msg)
	})
	if err != nil {
		if pipeline.KindOf(err) == pipeline.KindLocalVerificationFailed {
			s.setLocal(VerdictInvalid)
		}
		s.appendf("Proof generation failed: %v", err)
		return s.end(err)
	}

	proof, err := codec.EncodeProof(artifacts.Proof)
	if err != nil {
		return s.end(err)
	}
	inputs, err := codec.EncodePublicInputs(artifacts.PublicInputs)
	if err != nil {
		return s.end(err)
	}

	s.mu.Lock()
	s.state.Proof = proof
	s.state.PublicInputs = inputs
	s.state.Commitment = artifacts.Commitment.Hex()
	s.state.Local = VerdictValid
	s.mu.Unlock()

	s.appendf("Local verification: %s", VerdictValid)
	s.log.Info("Session proof ready",
		log.String("commitment", artifacts.Commitment.Hex()),
		log.Int("proofChars", len(proof)),
	)
	return s.end(nil)
}

// Verify submits the loaded proof to the verifier contract and returns its
// verdict.
func (s *Session) Verify(ctx context.Context) (bool, error) {
	if err := s.begin(false); err != nil {
		return false, err
	}
	snap := s.Snapshot()
	switch {
	case !snap.HasProof():
		return false, s.end(ErrNoProof)
	case s.submitter == nil:
		return false, s.end(ErrNoGateway)
	}

	s.appendf("Verifying proof on chain")
	ok, err := s.submitter.Submit(ctx, gateway.Submission{
		Proof:         snap.Proof,
		PublicInputs:  snap.PublicInputs,
		LocalVerified: snap.Local == VerdictValid,
	})
	if err != nil {
		s.appendf("Remote verification failed: %v", err)
		return false, s.end(err)
	}

	verdict := VerdictInvalid
	if ok {
		verdict = VerdictValid
	}
	s.mu.Lock()
	s.state.Remote = verdict
	s.mu.Unlock()
	s.appendf("Remote verification: %s", verdict)
	return ok, s.end(nil)
}

// Reset discards artifacts, verdicts and the log.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Busy {
		return ErrBusy
	}
	s.state = State{}
	return nil
}

// LoadTestArtifacts installs pre-generated artifacts as if they had been
// generated and verified locally. The engine is not involved; shape checks
// are left to Verify.
func (s *Session) LoadTestArtifacts(proof string, publicInputs []string) error {
	if proof == "" || len(publicInputs) == 0 {
		return fmt.Errorf("%w: test artifacts need a proof and public inputs", codec.ErrEncoding)
	}
	if err := s.begin(true); err != nil {
		return err
	}
	s.mu.Lock()
	s.state.Proof = proof
	s.state.PublicInputs = append([]string(nil), publicInputs...)
	s.state.Commitment = publicInputs[0]
	s.state.Local = VerdictValid
	s.mu.Unlock()

	s.appendf("Test proof loaded")
	s.appendf("Ready for remote verification")
	return s.end(nil)
}

// Bundle is a proof and its public inputs stored as JSON.
type Bundle struct {
	Proof        string             `json:"proof"`
	PublicInputs codec.PublicInputs `json:"publicInputs"`
}

// LoadTestBundle reads a Bundle file and loads it with LoadTestArtifacts.
// Public inputs may be any value the codec accepts.
func (s *Session) LoadTestBundle(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("%w: bundle %s: %v", codec.ErrEncoding, path, err)
	}
	inputs, err := codec.EncodePublicInputs(b.PublicInputs)
	if err != nil {
		return err
	}
	return s.LoadTestArtifacts(b.Proof, inputs)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.PublicInputs = append([]string(nil), s.state.PublicInputs...)
	st.Log = append([]Entry(nil), s.state.Log...)
	return st
}

// begin marks the session busy and clears per-invocation state. fresh also
// drops the previous artifacts and local verdict.
func (s *Session) begin(fresh bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Busy {
		return ErrBusy
	}
	if fresh {
		s.state = State{}
	}
	s.state.Busy = true
	s.state.Remote = VerdictUnknown
	s.state.Err = nil
	s.state.Log = nil
	return nil
}

func (s *Session) end(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Busy = false
	s.state.Err = err
	if err != nil {
		s.log.Debug("Session operation failed", log.String("error", err.Error()))
	}
	return err
}

func (s *Session) setLocal(v Verdict) {
	s.mu.Lock()
	s.state.Local = v
	s.mu.Unlock()
}

func (s *Session) appendf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Log = append(s.state.Log, Entry{At: s.now(), Message: fmt.Sprintf(format, args...)})
}
