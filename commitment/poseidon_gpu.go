// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build gpu

package commitment

import (
	gpuposeidon2 "github.com/luxfi/crypto/hash/poseidon2"
)

// gpuPoseidon2 hashes element pairs on the device and falls back to
// gnark-crypto for other arities.
type gpuPoseidon2 struct{}

func (gpuPoseidon2) Hash(elements ...[Size]byte) ([Size]byte, error) {
	if len(elements) != 2 {
		return Poseidon2{}.Hash(elements...)
	}
	result, err := gpuposeidon2.HashPair(gpuposeidon2.Element(elements[0]), gpuposeidon2.Element(elements[1]))
	if err != nil {
		return [Size]byte{}, err
	}
	return [Size]byte(result), nil
}

func acceleratedHasher() FieldHasher {
	if gpuposeidon2.GPUAvailable() {
		return gpuPoseidon2{}
	}
	return nil
}
