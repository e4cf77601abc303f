package clmath

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"quoteScope/internal/model"
)

// FeesEarned returns the uncollected fees of a position: the fee growth
// inside its range since the last checkpoint, scaled by its liquidity, plus
// the tokens already owed. Growth values are uint256 accumulators and are
// subtracted modulo 2^256 like the pool contract does, so the result is
// never negative.
func FeesEarned(pos model.Position, growth model.FeeGrowthSnapshot, currentTick int32) (*big.Int, *big.Int, error) {
	if pos.TickLower >= pos.TickUpper {
		return nil, nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidTickRange, pos.TickLower, pos.TickUpper)
	}
	if pos.Liquidity != nil && pos.Liquidity.Sign() < 0 {
		return nil, nil, ErrNegativeLiquidity
	}
	if growth.Global0X128 == nil || growth.Global1X128 == nil {
		return nil, nil, fmt.Errorf("%w: missing global fee growth", ErrMalformedPriceState)
	}

	inside0, err := feeGrowthInside(growth.Global0X128, growth.Lower.Outside0X128, growth.Upper.Outside0X128, pos.TickLower, pos.TickUpper, currentTick)
	if err != nil {
		return nil, nil, err
	}
	inside1, err := feeGrowthInside(growth.Global1X128, growth.Lower.Outside1X128, growth.Upper.Outside1X128, pos.TickLower, pos.TickUpper, currentTick)
	if err != nil {
		return nil, nil, err
	}

	fees0, err := accrued(inside0, pos.FeeGrowthInside0LastX128, pos.Liquidity, pos.TokensOwed0)
	if err != nil {
		return nil, nil, err
	}
	fees1, err := accrued(inside1, pos.FeeGrowthInside1LastX128, pos.Liquidity, pos.TokensOwed1)
	if err != nil {
		return nil, nil, err
	}
	return fees0, fees1, nil
}

func feeGrowthInside(global, lowerOutside, upperOutside *big.Int, tickLower, tickUpper, currentTick int32) (*uint256.Int, error) {
	g, err := toU256(global)
	if err != nil {
		return nil, err
	}
	lo, err := toU256(lowerOutside)
	if err != nil {
		return nil, err
	}
	up, err := toU256(upperOutside)
	if err != nil {
		return nil, err
	}

	below := lo
	if currentTick < tickLower {
		below = new(uint256.Int).Sub(g, lo)
	}
	above := up
	if currentTick >= tickUpper {
		above = new(uint256.Int).Sub(g, up)
	}

	inside := new(uint256.Int).Sub(g, below)
	return inside.Sub(inside, above), nil
}

func accrued(inside *uint256.Int, last, liquidity, owed *big.Int) (*big.Int, error) {
	l, err := toU256(last)
	if err != nil {
		return nil, err
	}
	delta := new(uint256.Int).Sub(inside, l)

	out := new(big.Int)
	if liquidity != nil {
		out.Mul(delta.ToBig(), liquidity)
		out.Rsh(out, 128)
	}
	if owed != nil {
		if owed.Sign() < 0 {
			return nil, fmt.Errorf("%w: tokens owed %s", ErrNegativeAmount, owed)
		}
		out.Add(out, owed)
	}
	return out, nil
}

// toU256 treats nil as zero.
func toU256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative fee growth %s", ErrMalformedPriceState, v)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrFeeGrowthOverflow, v)
	}
	return u, nil
}
