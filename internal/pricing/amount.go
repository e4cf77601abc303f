package pricing

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"quoteScope/internal/model"
)

// maxAmountDigits bounds the decimal exponent of parsed user input. 2^256 has
// 78 digits, so anything scaled past that cannot be a token amount, and
// shopspring/decimal rescales in time linear in the exponent.
const maxAmountDigits = 78

// ParseDecimal parses a non-empty decimal string whose exponent stays within
// ±maxAmountDigits.
func ParseDecimal(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	v, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	if exp := v.Exponent(); exp > maxAmountDigits || exp < -maxAmountDigits {
		return decimal.Zero, fmt.Errorf("%w: exponent %d out of range", ErrInvalidAmount, exp)
	}
	return v, nil
}

// ParseAmount converts a human decimal string into a raw amount scaled by
// 10^decimals. The result must fit in 256 bits.
func ParseAmount(text string, decimals uint8) (*big.Int, error) {
	v, err := ParseDecimal(text)
	if err != nil {
		return nil, err
	}
	if v.IsNegative() {
		return nil, fmt.Errorf("%w: negative %s", ErrInvalidAmount, text)
	}
	if v.Exponent()+int32(decimals) > maxAmountDigits {
		return nil, fmt.Errorf("%w: %s exceeds 256 bits", ErrInvalidAmount, text)
	}
	scaled := v.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("%w: %s has more than %d decimals", ErrInvalidAmount, text, decimals)
	}
	raw := scaled.BigInt()
	if raw.BitLen() > 256 {
		return nil, fmt.Errorf("%w: %s exceeds 256 bits", ErrInvalidAmount, text)
	}
	return raw, nil
}

// HumanAmount scales a raw amount down by 10^decimals.
func HumanAmount(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// FormatAmount renders a raw amount as a human decimal string.
func FormatAmount(raw *big.Int, decimals uint8) string {
	return HumanAmount(raw, decimals).String()
}

// PricePerToken is the human amountIn/amountOut for exact-input quotes and
// amountOut/amountIn for exact-output quotes. A zero divisor yields 0.
func PricePerToken(kind model.TradeKind, tokenIn, tokenOut model.Token, amountIn, amountOut *big.Int) decimal.Decimal {
	in := HumanAmount(amountIn, tokenIn.Decimals)
	out := HumanAmount(amountOut, tokenOut.Decimals)
	if kind == model.ExactOutput {
		in, out = out, in
	}
	if out.IsZero() {
		return decimal.Zero
	}
	return in.DivRound(out, impactPrecision)
}
