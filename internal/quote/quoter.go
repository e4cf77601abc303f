// Package quote selects the best quotation across candidate swap paths.
package quote

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"quoteScope/internal/model"
)

var (
	ErrNoCandidatePaths = errors.New("no candidate paths")
	ErrAllQuotesFailed  = errors.New("all candidate quotes failed")
	ErrEmptyAmount      = errors.New("empty amount")
	ErrStaleRequest     = errors.New("request superseded")
	ErrInvalidRequest   = errors.New("invalid quote request")
	ErrMalformedPath    = errors.New("malformed candidate path")
)

// SingleRequest quotes one pool. Amount is the fixed side of the trade.
type SingleRequest struct {
	Kind     model.TradeKind
	TokenIn  common.Address
	TokenOut common.Address
	FeeTier  uint32
	Amount   *big.Int
}

// SingleResult carries the solved side of a single-pool quote.
type SingleResult struct {
	Amount         *big.Int
	SqrtPriceAfter *big.Int
	GasEstimate    *big.Int
}

// MultiRequest quotes a path in logical swap order.
type MultiRequest struct {
	Kind   model.TradeKind
	Path   model.QuotePath
	Amount *big.Int
}

// MultiResult carries the solved side of a path quote. SqrtPricesAfter is in
// the order the quoting protocol walked the path, which is reversed for
// exact-output quotes.
type MultiResult struct {
	Amount          *big.Int
	SqrtPricesAfter []*big.Int
	GasEstimate     *big.Int
}

// Quoter is a read-only quoting backend. Timeouts and retries are the
// implementation's concern.
type Quoter interface {
	QuoteSingle(ctx context.Context, req SingleRequest) (SingleResult, error)
	QuoteMulti(ctx context.Context, req MultiRequest) (MultiResult, error)
}
