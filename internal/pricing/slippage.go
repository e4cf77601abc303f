package pricing

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"quoteScope/internal/model"
)

var (
	ErrInvalidSlippage = errors.New("invalid slippage")
	ErrInvalidAmount   = errors.New("invalid amount")
)

var (
	MinSlippagePercent       = decimal.RequireFromString("0.05")
	MaxAutoSlippagePercent   = decimal.NewFromInt(5)
	MaxManualSlippagePercent = decimal.NewFromInt(50)
)

// AutoSlippage suggests the quotation's own aggregate price impact.
func AutoSlippage(q model.Quotation) decimal.Decimal {
	if q == nil {
		return decimal.Zero
	}
	return q.Base().PriceImpactPercent
}

// ClampSlippage bounds value to [minPercent, maxPercent].
func ClampSlippage(value, minPercent, maxPercent decimal.Decimal) decimal.Decimal {
	if value.LessThan(minPercent) {
		return minPercent
	}
	if value.GreaterThan(maxPercent) {
		return maxPercent
	}
	return value
}

// ResolveSlippage returns the tolerance to apply to q. A nil userPercent
// selects auto mode, capped at MaxAutoSlippagePercent; an explicit value may
// go up to MaxManualSlippagePercent.
func ResolveSlippage(q model.Quotation, userPercent *decimal.Decimal) decimal.Decimal {
	if userPercent == nil {
		return ClampSlippage(AutoSlippage(q), MinSlippagePercent, MaxAutoSlippagePercent)
	}
	return ClampSlippage(*userPercent, MinSlippagePercent, MaxManualSlippagePercent)
}

// ParseSlippage reads a user slippage value. Empty or "auto" returns nil.
func ParseSlippage(text string) (*decimal.Decimal, error) {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "%"))
	if text == "" || strings.EqualFold(text, "auto") {
		return nil, nil
	}
	v, err := ParseDecimal(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlippage, text)
	}
	return &v, nil
}

// MinimumReceived returns floor(amountOut * (100 - slippage) / 100).
func MinimumReceived(amountOut *big.Int, slippagePercent decimal.Decimal) (*big.Int, error) {
	if err := checkBoundInputs(amountOut, slippagePercent); err != nil {
		return nil, err
	}
	factor := hundred.Sub(slippagePercent).Rat()
	num := new(big.Int).Mul(amountOut, factor.Num())
	den := new(big.Int).Mul(factor.Denom(), big.NewInt(100))
	return num.Quo(num, den), nil
}

// MaximumSent returns ceil(amountIn * (100 + slippage) / 100).
func MaximumSent(amountIn *big.Int, slippagePercent decimal.Decimal) (*big.Int, error) {
	if err := checkBoundInputs(amountIn, slippagePercent); err != nil {
		return nil, err
	}
	factor := hundred.Add(slippagePercent).Rat()
	num := new(big.Int).Mul(amountIn, factor.Num())
	den := new(big.Int).Mul(factor.Denom(), big.NewInt(100))

	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q, nil
}

func checkBoundInputs(amount *big.Int, slippagePercent decimal.Decimal) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	if slippagePercent.IsNegative() || slippagePercent.GreaterThan(hundred) {
		return fmt.Errorf("%w: %s%%", ErrInvalidSlippage, slippagePercent)
	}
	return nil
}

// Bound derives the slippage guarantee for q: MinimumReceived on the output
// of an exact-input quote, MaximumSent on the input of an exact-output quote.
func Bound(q model.Quotation, slippagePercent decimal.Decimal) (model.SlippageBound, error) {
	switch q := q.(type) {
	case *model.ExactInputQuotation:
		amount, err := MinimumReceived(q.AmountOut, slippagePercent)
		if err != nil {
			return nil, fmt.Errorf("minimum received: %w", err)
		}
		return model.MinimumReceived{SlippagePercent: slippagePercent, Amount: amount}, nil
	case *model.ExactOutputQuotation:
		amount, err := MaximumSent(q.AmountIn, slippagePercent)
		if err != nil {
			return nil, fmt.Errorf("maximum sent: %w", err)
		}
		return model.MaximumSent{SlippagePercent: slippagePercent, Amount: amount}, nil
	default:
		return nil, fmt.Errorf("unsupported quotation %T", q)
	}
}
