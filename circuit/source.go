// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package circuit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
)

// MaxArtifactSize bounds how much of an artifact document is read.
const MaxArtifactSize = 64 << 20

var ErrLoad = errors.New("circuit load failed")

// LoadError wraps any failure to fetch or parse an artifact.
type LoadError struct {
	Location string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrLoad, e.Location, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrLoad, e.Err}
}

// Source yields the compiled circuit artifact.
type Source interface {
	Load(ctx context.Context) (*Artifact, error)
}

// Open returns an HTTP source for http(s) locations and a file source otherwise.
func Open(location string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTPSource{URL: location}
	}
	return &FileSource{Path: location}
}

// FileSource reads the artifact from disk.
type FileSource struct {
	Path string
}

func (s *FileSource) Load(ctx context.Context) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Location: s.Path, Err: err}
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &LoadError{Location: s.Path, Err: err}
	}
	defer f.Close()
	return parseFrom(s.Path, f)
}

// HTTPSource fetches the artifact document over HTTP.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPSource) Load(ctx context.Context) (*Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, &LoadError{Location: s.URL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &LoadError{Location: s.URL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &LoadError{Location: s.URL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return parseFrom(s.URL, resp.Body)
}

func parseFrom(location string, r io.Reader) (*Artifact, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxArtifactSize+1))
	if err != nil {
		return nil, &LoadError{Location: location, Err: err}
	}
	if len(data) > MaxArtifactSize {
		return nil, &LoadError{Location: location, Err: fmt.Errorf("artifact larger than %d bytes", MaxArtifactSize)}
	}
	a, err := Parse(data)
	if err != nil {
		return nil, &LoadError{Location: location, Err: err}
	}
	return a, nil
}

// Static serves an artifact already in memory.
type Static struct {
	Artifact *Artifact
}

func (s Static) Load(context.Context) (*Artifact, error) {
	if s.Artifact == nil {
		return nil, &LoadError{Location: "static", Err: ErrEmptyBytecode}
	}
	return s.Artifact, nil
}

// Cached remembers the first successfully loaded artifact. Failures are not
// cached, so a later call tries the underlying source again.
type Cached struct {
	src Source

	mu       sync.Mutex
	artifact *Artifact
}

func NewCached(src Source) *Cached {
	return &Cached{src: src}
}

func (c *Cached) Load(ctx context.Context) (*Artifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.artifact != nil {
		return c.artifact, nil
	}
	a, err := c.src.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.artifact = a
	return a, nil
}

// Invalidate drops the cached artifact.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.artifact = nil
	c.mu.Unlock()
}
