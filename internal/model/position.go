package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Position is a read-only snapshot of a concentrated-liquidity position.
type Position struct {
	Pool                     common.Address `json:"pool"`
	Owner                    common.Address `json:"owner"`
	TickLower                int32          `json:"tick_lower"`
	TickUpper                int32          `json:"tick_upper"`
	Liquidity                *big.Int       `json:"liquidity"`
	FeeGrowthInside0LastX128 *big.Int       `json:"fee_growth_inside0_last_x128"`
	FeeGrowthInside1LastX128 *big.Int       `json:"fee_growth_inside1_last_x128"`
	TokensOwed0              *big.Int       `json:"tokens_owed0"`
	TokensOwed1              *big.Int       `json:"tokens_owed1"`
}

// TickFeeGrowth is the per-tick fee growth recorded outside a boundary.
type TickFeeGrowth struct {
	Outside0X128 *big.Int `json:"fee_growth_outside0_x128"`
	Outside1X128 *big.Int `json:"fee_growth_outside1_x128"`
}

// FeeGrowthSnapshot carries everything needed to compute uncollected fees.
type FeeGrowthSnapshot struct {
	Global0X128 *big.Int      `json:"fee_growth_global0_x128"`
	Global1X128 *big.Int      `json:"fee_growth_global1_x128"`
	Lower       TickFeeGrowth `json:"lower"`
	Upper       TickFeeGrowth `json:"upper"`
}
