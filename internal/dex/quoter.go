package dex

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"quoteScope/internal/chain"
	"quoteScope/internal/model"
	"quoteScope/internal/quote"
)

// QuoterConfig holds QuoterV2 adapter settings.
type QuoterConfig struct {
	Address     common.Address
	CallTimeout time.Duration
	Retry       chain.RetryPolicy
}

// OnchainQuoter implements quote.Quoter with eth_call against a Uniswap
// QuoterV2 deployment.
type OnchainQuoter struct {
	cfg    QuoterConfig
	chain  *chain.Client
	logger *zap.Logger
}

var _ quote.Quoter = (*OnchainQuoter)(nil)

// NewOnchainQuoter builds an OnchainQuoter.
func NewOnchainQuoter(cfg QuoterConfig, chainClient *chain.Client, logger *zap.Logger) *OnchainQuoter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OnchainQuoter{cfg: cfg, chain: chainClient, logger: logger}
}

type singleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

type singleOutputParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Amount            *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

// QuoteSingle quotes one pool.
func (q *OnchainQuoter) QuoteSingle(ctx context.Context, req quote.SingleRequest) (quote.SingleResult, error) {
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return quote.SingleResult{}, fmt.Errorf("amount must be positive")
	}
	method := "quoteExactInputSingle"
	var params interface{} = singleParams{
		TokenIn:           req.TokenIn,
		TokenOut:          req.TokenOut,
		AmountIn:          req.Amount,
		Fee:               new(big.Int).SetUint64(uint64(req.FeeTier)),
		SqrtPriceLimitX96: new(big.Int),
	}
	if req.Kind == model.ExactOutput {
		method = "quoteExactOutputSingle"
		params = singleOutputParams{
			TokenIn:           req.TokenIn,
			TokenOut:          req.TokenOut,
			Amount:            req.Amount,
			Fee:               new(big.Int).SetUint64(uint64(req.FeeTier)),
			SqrtPriceLimitX96: new(big.Int),
		}
	}

	values, err := q.call(ctx, method, params)
	if err != nil {
		return quote.SingleResult{}, err
	}
	if len(values) < 4 {
		return quote.SingleResult{}, fmt.Errorf("%s: expected 4 values, got %d", method, len(values))
	}
	amount, err := asBigInt(values[0])
	if err != nil {
		return quote.SingleResult{}, fmt.Errorf("%s amount: %w", method, err)
	}
	after, err := asBigInt(values[1])
	if err != nil {
		return quote.SingleResult{}, fmt.Errorf("%s sqrt price: %w", method, err)
	}
	gas, err := asBigInt(values[3])
	if err != nil {
		return quote.SingleResult{}, fmt.Errorf("%s gas estimate: %w", method, err)
	}
	return quote.SingleResult{Amount: amount, SqrtPriceAfter: after, GasEstimate: gas}, nil
}

// QuoteMulti quotes a path. Exact-output paths are encoded output first, and
// the returned prices follow that encoding.
func (q *OnchainQuoter) QuoteMulti(ctx context.Context, req quote.MultiRequest) (quote.MultiResult, error) {
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return quote.MultiResult{}, fmt.Errorf("amount must be positive")
	}
	encoded, err := EncodePath(req.Path, req.Kind == model.ExactOutput)
	if err != nil {
		return quote.MultiResult{}, err
	}
	method := "quoteExactInput"
	if req.Kind == model.ExactOutput {
		method = "quoteExactOutput"
	}

	values, err := q.call(ctx, method, encoded, req.Amount)
	if err != nil {
		return quote.MultiResult{}, err
	}
	if len(values) < 4 {
		return quote.MultiResult{}, fmt.Errorf("%s: expected 4 values, got %d", method, len(values))
	}
	amount, err := asBigInt(values[0])
	if err != nil {
		return quote.MultiResult{}, fmt.Errorf("%s amount: %w", method, err)
	}
	after, ok := values[1].([]*big.Int)
	if !ok {
		return quote.MultiResult{}, fmt.Errorf("%s: unexpected sqrt price list type %T", method, values[1])
	}
	gas, err := asBigInt(values[3])
	if err != nil {
		return quote.MultiResult{}, fmt.Errorf("%s gas estimate: %w", method, err)
	}
	return quote.MultiResult{Amount: amount, SqrtPricesAfter: after, GasEstimate: gas}, nil
}

func (q *OnchainQuoter) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	if q.chain == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	quoterABI, err := QuoterV2ABI()
	if err != nil {
		return nil, fmt.Errorf("parse quoter abi: %w", err)
	}

	var values []interface{}
	err = chain.WithRetry(ctx, q.cfg.Retry, func(ctx context.Context) error {
		callCtx := ctx
		if q.cfg.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, q.cfg.CallTimeout)
			defer cancel()
		}
		var callErr error
		values, callErr = callMethod(callCtx, q.chain, q.cfg.Address, quoterABI, method, nil, args...)
		if callErr != nil {
			q.logger.Debug("quoter call failed", zap.String("method", method), zap.Error(callErr))
		}
		return callErr
	})
	return values, err
}

// EncodePath packs a path as token(20) fee(3) token(20)... in swap order, or
// from the output token backwards when reversed.
func EncodePath(path model.QuotePath, reversed bool) ([]byte, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	tokens := path.Tokens()
	fees := path.Fees()
	if reversed {
		for i, j := 0, len(tokens)-1; i < j; i, j = i+1, j-1 {
			tokens[i], tokens[j] = tokens[j], tokens[i]
		}
		for i, j := 0, len(fees)-1; i < j; i, j = i+1, j-1 {
			fees[i], fees[j] = fees[j], fees[i]
		}
	}

	out := make([]byte, 0, len(tokens)*common.AddressLength+len(fees)*3)
	for i, fee := range fees {
		if fee >= 1<<24 {
			return nil, fmt.Errorf("fee %d does not fit in uint24", fee)
		}
		out = append(out, tokens[i].Bytes()...)
		out = append(out, byte(fee>>16), byte(fee>>8), byte(fee))
	}
	out = append(out, tokens[len(tokens)-1].Bytes()...)
	return out, nil
}
