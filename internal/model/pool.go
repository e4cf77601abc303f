package model

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Pool represents immutable V3 pool metadata.
type Pool struct {
	ChainID        uint64         `json:"chain_id"`
	Address        common.Address `json:"address"`
	Token0         common.Address `json:"token0"`
	Token1         common.Address `json:"token1"`
	Fee            uint32         `json:"fee"`
	TickSpacing    int32          `json:"tick_spacing"`
	FirstSeenBlock uint64         `json:"first_seen_block"`
}

// Has reports whether token is one of the pool's two tokens.
func (p Pool) Has(token common.Address) bool {
	return p.Token0 == token || p.Token1 == token
}

// Other returns the counter token of token in the pool.
func (p Pool) Other(token common.Address) (common.Address, bool) {
	switch token {
	case p.Token0:
		return p.Token1, true
	case p.Token1:
		return p.Token0, true
	default:
		return common.Address{}, false
	}
}

// SortTokens orders two addresses the way pools do (token0 < token1).
func SortTokens(a, b common.Address) (common.Address, common.Address) {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		return b, a
	}
	return a, b
}

// PoolState is the mutable slot0/liquidity snapshot of a pool.
type PoolState struct {
	SqrtPriceX96 *big.Int `json:"sqrt_price_x96"`
	Tick         int32    `json:"tick"`
	Liquidity    *big.Int `json:"liquidity,omitempty"`
}
