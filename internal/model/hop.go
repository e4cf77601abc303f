package model

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// MaxPathHops is the longest path the router considers.
const MaxPathHops = 2

var (
	ErrEmptyPath   = errors.New("path has no hops")
	ErrPathTooLong = errors.New("path exceeds max hops")
	ErrBrokenPath  = errors.New("path hops are not chained")
)

// Hop is one pool traversal of a swap path. SqrtPriceAfter is only known
// once the hop has been quoted.
type Hop struct {
	TokenIn         common.Address `json:"token_in"`
	TokenOut        common.Address `json:"token_out"`
	FeeTier         uint32         `json:"fee_tier"`
	PoolAddress     common.Address `json:"pool_address"`
	SqrtPriceBefore *big.Int       `json:"sqrt_price_before,omitempty"`
	SqrtPriceAfter  *big.Int       `json:"sqrt_price_after,omitempty"`
}

// QuotePath is an ordered sequence of chained hops.
type QuotePath []Hop

// Validate checks that the path is non-empty, short enough and chained.
func (p QuotePath) Validate() error {
	if len(p) == 0 {
		return ErrEmptyPath
	}
	if len(p) > MaxPathHops {
		return fmt.Errorf("%w: %d", ErrPathTooLong, len(p))
	}
	for i := 0; i < len(p)-1; i++ {
		if p[i].TokenOut != p[i+1].TokenIn {
			return fmt.Errorf("%w at hop %d: %s != %s", ErrBrokenPath, i, p[i].TokenOut.Hex(), p[i+1].TokenIn.Hex())
		}
	}
	return nil
}

// TokenIn returns the first hop's input token.
func (p QuotePath) TokenIn() common.Address {
	if len(p) == 0 {
		return common.Address{}
	}
	return p[0].TokenIn
}

// TokenOut returns the last hop's output token.
func (p QuotePath) TokenOut() common.Address {
	if len(p) == 0 {
		return common.Address{}
	}
	return p[len(p)-1].TokenOut
}

// Tokens lists every token along the path in swap order.
func (p QuotePath) Tokens() []common.Address {
	if len(p) == 0 {
		return nil
	}
	out := make([]common.Address, 0, len(p)+1)
	out = append(out, p[0].TokenIn)
	for _, hop := range p {
		out = append(out, hop.TokenOut)
	}
	return out
}

// Fees lists the fee tier of every hop in swap order.
func (p QuotePath) Fees() []uint32 {
	out := make([]uint32, 0, len(p))
	for _, hop := range p {
		out = append(out, hop.FeeTier)
	}
	return out
}

// Clone deep-copies the path so quoted prices never leak between requests.
func (p QuotePath) Clone() QuotePath {
	if p == nil {
		return nil
	}
	out := make(QuotePath, len(p))
	for i, hop := range p {
		out[i] = hop
		if hop.SqrtPriceBefore != nil {
			out[i].SqrtPriceBefore = new(big.Int).Set(hop.SqrtPriceBefore)
		}
		if hop.SqrtPriceAfter != nil {
			out[i].SqrtPriceAfter = new(big.Int).Set(hop.SqrtPriceAfter)
		}
	}
	return out
}

// String renders the path as token>fee>token.
func (p QuotePath) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(p[0].TokenIn.Hex())
	for _, hop := range p {
		fmt.Fprintf(&b, ">%d>%s", hop.FeeTier, hop.TokenOut.Hex())
	}
	return b.String()
}
