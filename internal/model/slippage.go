package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// SlippageBound is either MinimumReceived (exact input) or MaximumSent
// (exact output).
type SlippageBound interface {
	Percent() decimal.Decimal
	Value() *big.Int
	isSlippageBound()
}

// MinimumReceived is the least output accepted for an exact-input swap.
type MinimumReceived struct {
	SlippagePercent decimal.Decimal
	Amount          *big.Int
}

func (b MinimumReceived) Percent() decimal.Decimal { return b.SlippagePercent }
func (b MinimumReceived) Value() *big.Int          { return b.Amount }
func (MinimumReceived) isSlippageBound()           {}

// MaximumSent is the most input spent for an exact-output swap.
type MaximumSent struct {
	SlippagePercent decimal.Decimal
	Amount          *big.Int
}

func (b MaximumSent) Percent() decimal.Decimal { return b.SlippagePercent }
func (b MaximumSent) Value() *big.Int          { return b.Amount }
func (MaximumSent) isSlippageBound()           {}
