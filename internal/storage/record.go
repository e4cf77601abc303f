package storage

import (
	"fmt"
	"math/big"
	"time"

	"quoteScope/internal/model"
)

// Bound kinds as written to the journal.
const (
	BoundMinimumReceived = "minimum_received"
	BoundMaximumSent     = "maximum_sent"
)

// NewQuoteRecord flattens a quotation and its slippage bound. Amounts are
// raw integer strings; prices and percents are decimal strings.
func NewQuoteRecord(chainID uint64, q model.Quotation, bound model.SlippageBound, at time.Time) (model.QuoteRecord, error) {
	if q == nil {
		return model.QuoteRecord{}, fmt.Errorf("quotation is nil")
	}
	base := q.Base()
	record := model.QuoteRecord{
		ChainID:            chainID,
		Kind:               q.Kind().String(),
		TokenIn:            base.TokenIn.Address.Hex(),
		TokenOut:           base.TokenOut.Address.Hex(),
		AmountIn:           intString(base.AmountIn),
		AmountOut:          intString(base.AmountOut),
		PricePerToken:      base.PricePerToken.String(),
		PriceImpactPercent: base.PriceImpactPercent.String(),
		Path:               base.Path.String(),
		GasEstimate:        intString(base.GasEstimate),
		QuotedAt:           at.UTC().Format(time.RFC3339),
	}

	switch b := bound.(type) {
	case model.MinimumReceived:
		record.BoundKind = BoundMinimumReceived
	case model.MaximumSent:
		record.BoundKind = BoundMaximumSent
	case nil:
		return record, nil
	default:
		return model.QuoteRecord{}, fmt.Errorf("unsupported slippage bound %T", b)
	}
	record.SlippagePercent = bound.Percent().String()
	record.BoundAmount = intString(bound.Value())
	return record, nil
}

func intString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
