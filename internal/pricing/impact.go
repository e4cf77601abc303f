// Package pricing derives price impact, slippage tolerances and slippage
// bounds from quotations, and converts between raw and human token amounts.
package pricing

import (
	"math/big"

	"github.com/shopspring/decimal"

	"quoteScope/internal/model"
)

// impactPrecision is the number of decimal places kept for impact percents.
const impactPrecision = 18

var hundred = decimal.NewFromInt(100)

// HopPriceImpact returns |price(after) - price(before)| / price(before) * 100
// where price(x) = (x / 2^96)^2. Bad input yields 0.
func HopPriceImpact(sqrtPriceBefore, sqrtPriceAfter *big.Int) decimal.Decimal {
	if sqrtPriceBefore == nil || sqrtPriceAfter == nil {
		return decimal.Zero
	}
	if sqrtPriceBefore.Sign() <= 0 || sqrtPriceAfter.Sign() < 0 {
		return decimal.Zero
	}

	before := new(big.Int).Mul(sqrtPriceBefore, sqrtPriceBefore)
	after := new(big.Int).Mul(sqrtPriceAfter, sqrtPriceAfter)
	diff := new(big.Int).Sub(after, before)
	diff.Abs(diff)

	return decimal.NewFromBigInt(diff, 0).
		Mul(hundred).
		DivRound(decimal.NewFromBigInt(before, 0), impactPrecision)
}

// PathPriceImpact sums the hop impacts of a quoted path, capped at 100.
func PathPriceImpact(path model.QuotePath) decimal.Decimal {
	total := decimal.Zero
	for _, hop := range path {
		total = total.Add(HopPriceImpact(hop.SqrtPriceBefore, hop.SqrtPriceAfter))
	}
	if total.GreaterThan(hundred) {
		return hundred
	}
	return total
}

// Severity buckets a price impact for display.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityExtreme  Severity = "extreme"
)

var (
	severityLow      = decimal.NewFromInt(1)
	severityModerate = decimal.NewFromInt(3)
	severityHigh     = decimal.NewFromInt(5)
	severityExtreme  = decimal.NewFromInt(10)
)

// SeverityFor maps an impact percent to its bucket.
func SeverityFor(impactPercent decimal.Decimal) Severity {
	switch {
	case impactPercent.LessThan(severityLow):
		return SeverityNone
	case impactPercent.LessThan(severityModerate):
		return SeverityLow
	case impactPercent.LessThan(severityHigh):
		return SeverityModerate
	case impactPercent.LessThan(severityExtreme):
		return SeverityHigh
	default:
		return SeverityExtreme
	}
}
