// Package clmath implements concentrated-liquidity math: conversions between
// ticks, Q64.96 square-root prices and decimal prices, tick-range alignment,
// and position amounts and fees.
package clmath

import "errors"

var (
	ErrTickOutOfBounds      = errors.New("tick out of bounds")
	ErrSqrtPriceOutOfBounds = errors.New("sqrt price out of bounds")
	ErrInvalidFeeTier       = errors.New("invalid fee tier")
	ErrInvalidTickSpacing   = errors.New("invalid tick spacing")
	ErrInvalidTickRange     = errors.New("invalid tick range")
	ErrInvalidPercent       = errors.New("invalid percent")
	ErrMalformedPriceState  = errors.New("malformed price state")
	ErrNegativeLiquidity    = errors.New("negative liquidity")
	ErrNegativeAmount       = errors.New("negative amount")
	ErrAmountOutOfRange     = errors.New("amount out of range")
	ErrFeeGrowthOverflow    = errors.New("fee growth exceeds 256 bits")
)
