package clmath

import (
	"fmt"
	"math"
	"math/big"
)

// pricePrec is the mantissa precision used for decimal tick prices.
const pricePrec = 256

var tickBase = new(big.Float).SetPrec(pricePrec).SetRat(big.NewRat(10001, 10000))

// powTick returns 1.0001^tick without range checking.
func powTick(tick int64) *big.Float {
	result := new(big.Float).SetPrec(pricePrec).SetInt64(1)
	base := new(big.Float).SetPrec(pricePrec).Set(tickBase)

	n := tick
	if n < 0 {
		n = -n
	}
	for n > 0 {
		if n&1 == 1 {
			result.Mul(result, base)
		}
		base.Mul(base, base)
		n >>= 1
	}
	if tick < 0 {
		one := new(big.Float).SetPrec(pricePrec).SetInt64(1)
		result = new(big.Float).SetPrec(pricePrec).Quo(one, result)
	}
	return result
}

// PriceFromTick returns 1.0001^tick, the raw token1-per-token0 price at tick.
func PriceFromTick(tick int32) (*big.Float, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: %d", ErrTickOutOfBounds, tick)
	}
	return powTick(int64(tick)), nil
}

// TickFromPrice returns the greatest tick whose price is <= price.
func TickFromPrice(price *big.Float) (int32, error) {
	if price == nil || price.Sign() <= 0 || price.IsInf() {
		return 0, ErrMalformedPriceState
	}

	f, _ := price.Float64()
	if f == 0 || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: price %s", ErrTickOutOfBounds, price.Text('g', 10))
	}

	est := int64(math.Floor(math.Log(f) / math.Log(1.0001)))
	if est < int64(MinTick) {
		est = int64(MinTick)
	}
	if est > int64(MaxTick) {
		est = int64(MaxTick)
	}

	// The float64 estimate can be off by one in either direction.
	for est < int64(MaxTick) && powTick(est+1).Cmp(price) <= 0 {
		est++
	}
	for est > int64(MinTick) && powTick(est).Cmp(price) > 0 {
		est--
	}

	if powTick(est).Cmp(price) > 0 {
		return 0, fmt.Errorf("%w: price below tick %d", ErrTickOutOfBounds, MinTick)
	}
	if est == int64(MaxTick) && powTick(est+1).Cmp(price) <= 0 {
		return 0, fmt.Errorf("%w: price above tick %d", ErrTickOutOfBounds, MaxTick)
	}
	return int32(est), nil
}

// SqrtPriceToPrice converts a Q64.96 square-root price into the human
// price of token0 quoted in token1.
func SqrtPriceToPrice(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) (*big.Float, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return nil, ErrMalformedPriceState
	}

	num := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	num.Mul(num, pow10(decimals0))
	den := new(big.Int).Mul(Q192, pow10(decimals1))

	return new(big.Float).SetPrec(pricePrec).SetRat(new(big.Rat).SetFrac(num, den)), nil
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
