// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"fmt"

	"github.com/luxfi/geth/common"
)

// ChainInfo is the network panel shown to users.
type ChainInfo struct {
	Network  string         `json:"network"`
	ChainID  uint64         `json:"chainId"`
	Contract common.Address `json:"contract"`
	RPCURL   string         `json:"rpcUrl"`
}

func (c ChainInfo) String() string {
	return fmt.Sprintf("%s (chain %d) verifier %s via %s", c.Network, c.ChainID, c.Contract.Hex(), c.RPCURL)
}
