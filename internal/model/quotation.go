package model

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// TradeKind is the quoting direction.
type TradeKind int

const (
	ExactInput TradeKind = iota
	ExactOutput
)

func (k TradeKind) String() string {
	switch k {
	case ExactInput:
		return "exact_input"
	case ExactOutput:
		return "exact_output"
	default:
		return fmt.Sprintf("trade_kind(%d)", int(k))
	}
}

// ParseTradeKind accepts "in"/"exact_input" and "out"/"exact_output".
func ParseTradeKind(value string) (TradeKind, error) {
	switch value {
	case "in", "exact-input", "exact_input", "exactInput":
		return ExactInput, nil
	case "out", "exact-output", "exact_output", "exactOutput":
		return ExactOutput, nil
	default:
		return 0, fmt.Errorf("unknown trade kind: %q", value)
	}
}

// QuoteBase holds the fields shared by both quotation variants.
type QuoteBase struct {
	TokenIn            Token
	TokenOut           Token
	AmountIn           *big.Int
	AmountOut          *big.Int
	PricePerToken      decimal.Decimal
	PriceImpactPercent decimal.Decimal
	Path               QuotePath
	GasEstimate        *big.Int
}

// Quotation is either an *ExactInputQuotation or an *ExactOutputQuotation.
// Consumers switch on the concrete type.
type Quotation interface {
	Kind() TradeKind
	Base() *QuoteBase
	isQuotation()
}

// ExactInputQuotation fixes AmountIn; AmountOut is the engine's answer.
type ExactInputQuotation struct {
	QuoteBase
}

func (*ExactInputQuotation) Kind() TradeKind    { return ExactInput }
func (q *ExactInputQuotation) Base() *QuoteBase { return &q.QuoteBase }
func (*ExactInputQuotation) isQuotation()       {}

// ExactOutputQuotation fixes AmountOut; AmountIn is the engine's answer.
type ExactOutputQuotation struct {
	QuoteBase
}

func (*ExactOutputQuotation) Kind() TradeKind    { return ExactOutput }
func (q *ExactOutputQuotation) Base() *QuoteBase { return &q.QuoteBase }
func (*ExactOutputQuotation) isQuotation()       {}

// NewQuotation builds the variant matching kind.
func NewQuotation(kind TradeKind, base QuoteBase) (Quotation, error) {
	switch kind {
	case ExactInput:
		return &ExactInputQuotation{QuoteBase: base}, nil
	case ExactOutput:
		return &ExactOutputQuotation{QuoteBase: base}, nil
	default:
		return nil, fmt.Errorf("unknown trade kind: %d", int(kind))
	}
}
