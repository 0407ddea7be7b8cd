// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package commitment

import (
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the memo of recently computed commitments.
const DefaultCacheSize = 1024

// FieldHasher hashes canonical 32-byte field elements into one element.
type FieldHasher interface {
	Hash(elements ...[Size]byte) ([Size]byte, error)
}

// Poseidon2 is the two-to-one algebraic hash the age circuit asserts.
// Elements are absorbed in order by gnark-crypto's Merkle-Damgard
// construction over the BN254 scalar field.
type Poseidon2 struct{}

var _ FieldHasher = Poseidon2{}

func (Poseidon2) Hash(elements ...[Size]byte) ([Size]byte, error) {
	var out [Size]byte
	h := poseidon2.NewMerkleDamgardHasher()
	for i := range elements {
		if _, err := h.Write(elements[i][:]); err != nil {
			return out, err
		}
	}
	copy(out[:], h.Sum(nil))
	return out, nil
}

type cacheKey [2 * Size]byte

// Calculator computes commitments and memoises recent results.
// It is safe for concurrent use.
type Calculator struct {
	hasher FieldHasher
	cache  *lru.Cache[cacheKey, Commitment]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// accelerated is set when the binary is built with the gpu tag and a
// device is present.
var accelerated = acceleratedHasher()

var defaultCalculator = MustNewCalculator(DefaultHasher(), DefaultCacheSize)

// DefaultHasher is the accelerated Poseidon2 when available, otherwise
// the pure Go one.
func DefaultHasher() FieldHasher {
	if accelerated != nil {
		return accelerated
	}
	return Poseidon2{}
}

// NewCalculator creates a calculator. cacheSize <= 0 disables memoisation.
func NewCalculator(hasher FieldHasher, cacheSize int) (*Calculator, error) {
	if hasher == nil {
		hasher = DefaultHasher()
	}
	c := &Calculator{hasher: hasher}
	if cacheSize > 0 {
		cache, err := lru.New[cacheKey, Commitment](cacheSize)
		if err != nil {
			return nil, err
		}
		c.cache = cache
	}
	return c, nil
}

// MustNewCalculator is NewCalculator that panics on error.
func MustNewCalculator(hasher FieldHasher, cacheSize int) *Calculator {
	c, err := NewCalculator(hasher, cacheSize)
	if err != nil {
		panic(err)
	}
	return c
}

// Compute returns H(age, nonce). Both inputs must lie in [0, r).
func (c *Calculator) Compute(age, nonce *big.Int) (out Commitment, err error) {
	a, err := toElement("age", age)
	if err != nil {
		return Commitment{}, err
	}
	n, err := toElement("nonce", nonce)
	if err != nil {
		return Commitment{}, err
	}

	var key cacheKey
	copy(key[:Size], a[:])
	copy(key[Size:], n[:])
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			c.hits.Add(1)
			return cached, nil
		}
	}
	c.misses.Add(1)

	defer func() {
		if r := recover(); r != nil {
			out, err = Commitment{}, &Error{Op: "hash", Err: fmt.Errorf("hasher panic: %v", r)}
		}
	}()
	sum, err := c.hasher.Hash(a, n)
	if err != nil {
		return Commitment{}, &Error{Op: "hash", Err: err}
	}
	out = Commitment(sum)
	if c.cache != nil {
		c.cache.Add(key, out)
	}
	return out, nil
}

// Stats returns memo hit and miss counters.
func (c *Calculator) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
