// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build !gpu

package commitment

func acceleratedHasher() FieldHasher {
	return nil
}
