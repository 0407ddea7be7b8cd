// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/ageproof/codec"
	"github.com/luxfi/ageproof/commitment"
	"github.com/luxfi/ageproof/gateway"
)

// run executes the root command with args and returns what it printed
// through pterm's default writer.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	configFile, envFiles = "", nil
	configOnline, configPrint = false, false
	verifyBundle = ""

	var out bytes.Buffer
	pterm.DisableStyling()
	pterm.SetDefaultOutput(&out)
	t.Cleanup(func() {
		pterm.SetDefaultOutput(os.Stdout)
		pterm.EnableStyling()
	})

	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// rpcServer answers eth_call with a fixed verdict.
type rpcServer struct {
	verdict bool

	mu      sync.Mutex
	methods []string
}

func (s *rpcServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage `json:"id"`
		Method string          `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.methods = append(s.methods, req.Method)
	s.mu.Unlock()

	var word common.Hash
	if s.verdict {
		word[31] = 1
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  hexutil.Encode(word[:]),
	})
}

func (s *rpcServer) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.methods...)
}

func bundleFile(t *testing.T, proofBytes int) string {
	t.Helper()
	proof := make([]byte, proofBytes)
	proof[0] = 0x01
	data, err := json.Marshal(map[string]interface{}{
		"proof":        hexutil.Encode(proof),
		"publicInputs": []interface{}{"0x075c38", 20},
	})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestCommitCommand(t *testing.T) {
	require := require.New(t)

	out, err := run(t, "commit", "--age", "25", "--nonce", "12345")
	require.NoError(err)

	want, err := commitment.ComputeUint(25, 12345)
	require.NoError(err)
	require.Equal(want.Hex(), strings.TrimSpace(out))

	_, err = run(t, "commit", "--age", "young", "--nonce", "1")
	require.Error(err)
}

func TestConfigPrint(t *testing.T) {
	require := require.New(t)

	t.Setenv("AGEPROOF_CHAIN_ID", "1337")
	out, err := run(t, "config", "--print")
	require.NoError(err)

	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	require.True(start >= 0 && end > start, out)

	var printed struct {
		Backend string `json:"backend"`
		Network struct {
			ChainID  uint64 `json:"chainId"`
			Contract string `json:"contract"`
		} `json:"network"`
	}
	require.NoError(json.Unmarshal([]byte(out[start:end+1]), &printed))
	require.Equal("gnark-groth16", printed.Backend)
	require.Equal(uint64(1337), printed.Network.ChainID)
	require.Equal(gateway.DefaultContract, printed.Network.Contract)
}

func TestConfigRejectsBadEnv(t *testing.T) {
	t.Setenv("AGEPROOF_CONTRACT", "0x1234")
	_, err := run(t, "config")
	require.Error(t, err)
}

func TestVerifyCommand(t *testing.T) {
	tests := []struct {
		name    string
		verdict bool
		err     error
	}{
		{name: "accepted", verdict: true},
		{name: "rejected", verdict: false, err: errRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			rpc := &rpcServer{verdict: tt.verdict}
			srv := httptest.NewServer(rpc)
			defer srv.Close()
			t.Setenv("AGEPROOF_RPC_URL", srv.URL)

			out, err := run(t, "verify", "--bundle", bundleFile(t, codec.DefaultLayout.ProofBytes))
			if tt.err != nil {
				require.ErrorIs(err, tt.err)
			} else {
				require.NoError(err)
			}
			require.Contains(out, "Test proof loaded")
			require.Equal([]string{"eth_call"}, rpc.calls())
		})
	}
}

func TestVerifyCommandWrongLength(t *testing.T) {
	require := require.New(t)

	rpc := &rpcServer{verdict: true}
	srv := httptest.NewServer(rpc)
	defer srv.Close()
	t.Setenv("AGEPROOF_RPC_URL", srv.URL)

	_, err := run(t, "verify", "--bundle", bundleFile(t, codec.DefaultLayout.ProofBytes-1))
	var lengthErr *codec.LengthError
	require.ErrorAs(err, &lengthErr)
	require.Equal(28162, lengthErr.Expected)
	require.Equal(28160, lengthErr.Actual)
	require.Empty(rpc.calls())
}
