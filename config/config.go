// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the command configuration from a JSON file, an
// optional .env file and AGEPROOF_* environment variables, in that order.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/ageproof/codec"
	"github.com/luxfi/ageproof/engine"
	"github.com/luxfi/ageproof/gateway"
	"github.com/luxfi/ageproof/pipeline"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AGEPROOF_"

const (
	DefaultBackend = "gnark-groth16"
	DefaultCircuit = "circuit.json"
)

var ErrInvalid = errors.New("invalid configuration")

// Duration is a time.Duration written as a string such as "60s".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Network selects the verifier deployment.
type Network struct {
	Name        string   `json:"name"`
	ChainID     uint64   `json:"chainId"`
	RPCURL      string   `json:"rpcUrl"`
	Contract    string   `json:"contract"`
	CallTimeout Duration `json:"callTimeout"`
}

// Config is the complete command configuration. Layout is the proof shape
// the remote verifier accepts. ProvingLayout pins the shape the local
// backend must emit; left zero it follows the backend.
type Config struct {
	Backend         string       `json:"backend"`
	Circuit         string       `json:"circuit"`
	ThreadCap       int          `json:"threadCap"`
	EngineCacheSize int          `json:"engineCacheSize"`
	Layout          codec.Layout `json:"layout"`
	ProvingLayout   codec.Layout `json:"provingLayout"`
	Network         Network      `json:"network"`
	LogLevel        string       `json:"logLevel"`
}

// Default returns the configuration for the public Sepolia verifier.
func Default() Config {
	return Config{
		Backend:         DefaultBackend,
		Circuit:         DefaultCircuit,
		ThreadCap:       engine.DefaultThreadCap,
		EngineCacheSize: pipeline.DefaultEngineCacheSize,
		Layout:          codec.DefaultLayout,
		Network: Network{
			Name:        gateway.DefaultNetwork,
			ChainID:     gateway.DefaultChainID,
			RPCURL:      gateway.DefaultRPCURL,
			Contract:    gateway.DefaultContract,
			CallTimeout: Duration(gateway.DefaultCallTimeout),
		},
		LogLevel: "info",
	}
}

// Load builds a configuration: defaults, then the JSON file at path (if
// any), then envFiles (".env" when none are given and it exists), then the
// process environment. The result is validated.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
		}
	}
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	return godotenv.Load(files...)
}

// ApplyEnv overrides fields from AGEPROOF_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, set func(uint64)) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s%s: %v", ErrInvalid, EnvPrefix, name, err)
		}
		set(n)
		return nil
	}

	str("BACKEND", &c.Backend)
	str("CIRCUIT", &c.Circuit)
	str("LOG_LEVEL", &c.LogLevel)
	str("NETWORK", &c.Network.Name)
	str("RPC_URL", &c.Network.RPCURL)
	str("CONTRACT", &c.Network.Contract)

	if err := num("CHAIN_ID", func(n uint64) { c.Network.ChainID = n }); err != nil {
		return err
	}
	if err := num("THREADS", func(n uint64) { c.ThreadCap = int(n) }); err != nil {
		return err
	}
	if err := num("PROOF_BYTES", func(n uint64) { c.Layout.ProofBytes = int(n) }); err != nil {
		return err
	}
	if err := num("PROVING_PROOF_BYTES", func(n uint64) {
		c.ProvingLayout.ProofBytes = int(n)
		if c.ProvingLayout.PublicInputs == 0 {
			c.ProvingLayout.PublicInputs = codec.AgePublicInputs
		}
	}); err != nil {
		return err
	}
	if v, ok := lookup(EnvPrefix + "CALL_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %sCALL_TIMEOUT: %v", ErrInvalid, EnvPrefix, err)
		}
		c.Network.CallTimeout = Duration(d)
	}
	return nil
}

// Validate rejects configurations that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.Backend == "" {
		errs = append(errs, errors.New("backend is empty"))
	}
	if c.Circuit == "" {
		errs = append(errs, errors.New("circuit location is empty"))
	}
	if c.ThreadCap < 0 {
		errs = append(errs, fmt.Errorf("thread cap %d is negative", c.ThreadCap))
	}
	if err := c.Layout.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.ProvingLayout != (codec.Layout{}) {
		if err := c.ProvingLayout.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("proving layout: %w", err))
		}
	}
	if !common.IsHexAddress(c.Network.Contract) {
		errs = append(errs, fmt.Errorf("contract %q is not an address", c.Network.Contract))
	}
	if u, err := url.Parse(c.Network.RPCURL); err != nil || u.Host == "" || !validScheme(u.Scheme) {
		errs = append(errs, fmt.Errorf("rpc url %q is not an http or websocket url", c.Network.RPCURL))
	}
	if c.Network.ChainID == 0 {
		errs = append(errs, errors.New("chain id is zero"))
	}
	if c.Network.CallTimeout <= 0 {
		errs = append(errs, errors.New("call timeout must be positive"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "info", "debug":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func validScheme(s string) bool {
	switch s {
	case "http", "https", "ws", "wss":
		return true
	}
	return false
}

// Logger returns a logger at the configured level.
func (c Config) Logger() log.Logger {
	if strings.EqualFold(c.LogLevel, "debug") {
		return log.NewTestLogger(log.DebugLevel)
	}
	return log.NewTestLogger(log.InfoLevel)
}

// Debug reports whether debug logging is on.
func (c Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

// Pipeline is the pipeline section of the configuration.
func (c Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		ThreadCap:       c.ThreadCap,
		EngineCacheSize: c.EngineCacheSize,
		Layout:          c.ProvingLayout,
	}
}

// Gateway is the gateway section of the configuration.
func (c Config) Gateway() gateway.Config {
	return gateway.Config{
		RPCURL:      c.Network.RPCURL,
		Network:     c.Network.Name,
		ChainID:     c.Network.ChainID,
		Contract:    common.HexToAddress(c.Network.Contract),
		CallTimeout: time.Duration(c.Network.CallTimeout),
		Layout:      c.Layout,
	}
}
