package clmath

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// AmountsForLiquidity returns the raw token0 and token1 amounts backing
// liquidity over [tickLower, tickUpper) at the given pool price. The region is
// chosen by currentTick; currentSqrtPrice is only used while in range and is
// clamped to the range bounds so amounts never go negative. Results are
// rounded down.
func AmountsForLiquidity(liquidity *big.Int, tickLower, tickUpper, currentTick int32, currentSqrtPrice *big.Int) (*big.Int, *big.Int, error) {
	if liquidity == nil || liquidity.Sign() < 0 {
		return nil, nil, ErrNegativeLiquidity
	}
	if tickLower >= tickUpper {
		return nil, nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidTickRange, tickLower, tickUpper)
	}
	if currentSqrtPrice == nil || currentSqrtPrice.Sign() <= 0 {
		return nil, nil, ErrMalformedPriceState
	}

	sqrtA, err := SqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, nil, err
	}
	sqrtB, err := SqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, nil, err
	}

	if liquidity.Sign() == 0 {
		return new(big.Int), new(big.Int), nil
	}

	switch {
	case currentTick < tickLower:
		return amount0ForLiquidity(sqrtA, sqrtB, liquidity), new(big.Int), nil
	case currentTick >= tickUpper:
		return new(big.Int), amount1ForLiquidity(sqrtA, sqrtB, liquidity), nil
	default:
		sqrtP := currentSqrtPrice
		if sqrtP.Cmp(sqrtA) < 0 {
			sqrtP = sqrtA
		}
		if sqrtP.Cmp(sqrtB) > 0 {
			sqrtP = sqrtB
		}
		return amount0ForLiquidity(sqrtP, sqrtB, liquidity), amount1ForLiquidity(sqrtA, sqrtP, liquidity), nil
	}
}

// L * 2^96 * (sqrtB - sqrtA) / sqrtB / sqrtA
func amount0ForLiquidity(sqrtA, sqrtB, liquidity *big.Int) *big.Int {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	out := new(big.Int).Lsh(liquidity, 96)
	out.Mul(out, new(big.Int).Sub(sqrtB, sqrtA))
	out.Quo(out, sqrtB)
	return out.Quo(out, sqrtA)
}

// L * (sqrtB - sqrtA) / 2^96
func amount1ForLiquidity(sqrtA, sqrtB, liquidity *big.Int) *big.Int {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	out := new(big.Int).Mul(liquidity, new(big.Int).Sub(sqrtB, sqrtA))
	return out.Rsh(out, 96)
}

// LiquidityForAmounts returns the largest liquidity that amount0 and amount1
// can back over [sqrtA, sqrtB] at sqrtPrice.
func LiquidityForAmounts(sqrtPrice, sqrtA, sqrtB, amount0, amount1 *big.Int) (*big.Int, error) {
	for _, v := range []*big.Int{sqrtPrice, sqrtA, sqrtB} {
		if v == nil || v.Sign() <= 0 {
			return nil, ErrMalformedPriceState
		}
	}
	for _, v := range []*big.Int{amount0, amount1} {
		if v == nil || v.Sign() < 0 {
			return nil, ErrNegativeAmount
		}
	}
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	if sqrtA.Cmp(sqrtB) == 0 {
		return nil, ErrInvalidTickRange
	}

	switch {
	case sqrtPrice.Cmp(sqrtA) <= 0:
		return liquidityForAmount0(sqrtA, sqrtB, amount0), nil
	case sqrtPrice.Cmp(sqrtB) < 0:
		l0 := liquidityForAmount0(sqrtPrice, sqrtB, amount0)
		l1 := liquidityForAmount1(sqrtA, sqrtPrice, amount1)
		if l0.Cmp(l1) < 0 {
			return l0, nil
		}
		return l1, nil
	default:
		return liquidityForAmount1(sqrtA, sqrtB, amount1), nil
	}
}

func liquidityForAmount0(sqrtA, sqrtB, amount0 *big.Int) *big.Int {
	intermediate := new(big.Int).Mul(sqrtA, sqrtB)
	intermediate.Rsh(intermediate, 96)
	out := new(big.Int).Mul(amount0, intermediate)
	return out.Quo(out, new(big.Int).Sub(sqrtB, sqrtA))
}

func liquidityForAmount1(sqrtA, sqrtB, amount1 *big.Int) *big.Int {
	out := new(big.Int).Lsh(amount1, 96)
	return out.Quo(out, new(big.Int).Sub(sqrtB, sqrtA))
}

// CounterAmountAtSpotPrice converts a human amount of one pool token into
// the human amount of the other at the pool's spot price, rounded down to the
// counter token's decimals. The position range is not taken into account.
func CounterAmountAtSpotPrice(known decimal.Decimal, knownIsToken0 bool, sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) (decimal.Decimal, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return decimal.Zero, ErrMalformedPriceState
	}
	if known.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNegativeAmount, known)
	}
	// 2^256 has 78 digits; Rat() expands the exponent in full.
	if exp := known.Exponent(); exp > 78 || exp < -78 {
		return decimal.Zero, fmt.Errorf("%w: exponent %d", ErrAmountOutOfRange, exp)
	}

	// Human token1 per token0: sqrt^2 / 2^192 * 10^(d0-d1).
	num := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	num.Mul(num, pow10(decimals0))
	den := new(big.Int).Mul(Q192, pow10(decimals1))
	price := new(big.Rat).SetFrac(num, den)

	counter := new(big.Rat).Set(known.Rat())
	counterDecimals := decimals1
	if knownIsToken0 {
		counter.Mul(counter, price)
	} else {
		counter.Quo(counter, price)
		counterDecimals = decimals0
	}

	scaled := new(big.Int).Mul(counter.Num(), pow10(counterDecimals))
	scaled.Quo(scaled, counter.Denom())
	return decimal.NewFromBigInt(scaled, -int32(counterDecimals)), nil
}
