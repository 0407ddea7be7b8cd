// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package circuit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func ageParams() []Parameter {
	return []Parameter{
		{Name: "age", Visibility: Private},
		{Name: "nonce", Visibility: Private},
		{Name: "commitment", Visibility: Public},
		{Name: "min_age", Visibility: Public},
	}
}

func TestDigest(t *testing.T) {
	require := require.New(t)

	a := New("test", []byte("abc"))
	require.Equal("0x4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45", a.Digest().Hex())
	require.NotEqual(a.Digest(), New("test", []byte("abd")).Digest())
	// the schema does not change the identity of a program
	require.Equal(a.Digest(), New("other", []byte("abc"), ageParams()...).Digest())
}

func TestArtifactRoundTrip(t *testing.T) {
	a := New("test", []byte{1, 2, 3}, ageParams()...)
	data, err := a.Marshal()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, parsed.Program())
	require.Equal(t, "test", parsed.Backend)
	require.Equal(t, a.Digest(), parsed.Digest())
	require.Equal(t, []string{"commitment", "min_age"}, parsed.PublicInputs())
	require.Len(t, parsed.Checksum, 66)

	// checksum is optional
	parsed.Checksum = ""
	data, err = parsed.Marshal()
	require.NoError(t, err)
	_, err = Parse(data)
	require.NoError(t, err)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"not json":       `{`,
		"no bytecode":    `{"abi":{"parameters":[]}}`,
		"bad base64":     `{"bytecode":"%%%"}`,
		"empty program":  `{"bytecode":"   "}`,
		"duplicate name": `{"bytecode":"AQID","abi":{"parameters":[{"name":"age"},{"name":"age"}]}}`,
		"unnamed":        `{"bytecode":"AQID","abi":{"parameters":[{"visibility":"public"}]}}`,
		"bad checksum":   `{"bytecode":"AQID","checksum":"0x00"}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestCheckInputs(t *testing.T) {
	a := New("test", []byte{1}, ageParams()...)
	good := map[string]string{"age": "25", "nonce": "1", "commitment": "0x01", "min_age": "20"}
	require.NoError(t, a.CheckInputs(good))

	renamed := map[string]string{"age": "25", "nonce": "1", "commitment": "0x01", "minAge": "20"}
	err := a.CheckInputs(renamed)
	require.ErrorIs(t, err, ErrInputMismatch)
	require.Contains(t, err.Error(), "min_age")
	require.Contains(t, err.Error(), "minAge")

	schemaless := New("test", []byte{1})
	require.NoError(t, schemaless.CheckInputs(renamed))
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "circuit.json")
	data, err := New("test", []byte{9}, ageParams()...).Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	a, err := Open(path).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte{9}, a.Program())

	_, err = Open(filepath.Join(dir, "missing.json")).Load(context.Background())
	require.ErrorIs(t, err, ErrLoad)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestHTTPSource(t *testing.T) {
	data, err := New("test", []byte{7}).Marshal()
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/circuit.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	src := Open(srv.URL + "/circuit.json")
	require.IsType(t, &HTTPSource{}, src)
	a, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte{7}, a.Program())

	_, err = Open(srv.URL + "/nope.json").Load(context.Background())
	require.ErrorIs(t, err, ErrLoad)
	require.Contains(t, err.Error(), "404")
}

type countingSource struct {
	calls atomic.Int32
	fail  bool
}

func (s *countingSource) Load(context.Context) (*Artifact, error) {
	s.calls.Add(1)
	if s.fail {
		return nil, errors.New("offline")
	}
	return New("test", []byte{1}), nil
}

func TestCached(t *testing.T) {
	src := &countingSource{fail: true}
	cached := NewCached(src)

	_, err := cached.Load(context.Background())
	require.Error(t, err)

	src.fail = false
	for i := 0; i < 3; i++ {
		_, err := cached.Load(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, int32(2), src.calls.Load())

	cached.Invalidate()
	_, err = cached.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(3), src.calls.Load())
}
