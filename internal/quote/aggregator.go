package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quoteScope/internal/clmath"
	"quoteScope/internal/metrics"
	"quoteScope/internal/model"
	"quoteScope/internal/pricing"
)

const defaultConcurrency = 8

// Request is one quotation request. Amount is the human amount of the fixed
// side: TokenIn for exact input, TokenOut for exact output.
type Request struct {
	Kind       model.TradeKind
	TokenIn    model.Token
	TokenOut   model.Token
	Amount     string
	Candidates []model.QuotePath
}

// AggregatorConfig holds aggregator settings.
type AggregatorConfig struct {
	// Concurrency caps in-flight quoter calls per request.
	Concurrency int
	// NativePairs are wrapped/native token pairs swapped at 1:1 without quoting.
	NativePairs [][2]common.Address
	Metrics     *metrics.QuoteMetrics
}

// Aggregator quotes every candidate path and keeps the best result.
type Aggregator struct {
	quoter      Quoter
	concurrency int
	nativePairs map[[2]common.Address]struct{}
	metrics     *metrics.QuoteMetrics
	logger      *zap.Logger
}

// NewAggregator builds an Aggregator over quoter.
func NewAggregator(cfg AggregatorConfig, quoter Quoter, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	pairs := make(map[[2]common.Address]struct{}, len(cfg.NativePairs)*2)
	for _, pair := range cfg.NativePairs {
		pairs[pair] = struct{}{}
		pairs[[2]common.Address{pair[1], pair[0]}] = struct{}{}
	}
	return &Aggregator{
		quoter:      quoter,
		concurrency: concurrency,
		nativePairs: pairs,
		metrics:     cfg.Metrics,
		logger:      logger,
	}
}

type candidateResult struct {
	amount      *big.Int
	sqrtAfter   []*big.Int
	gasEstimate *big.Int
	err         error
}

// Quote runs one request to completion. Per-path failures never fail the
// request; they are reported in Outcome.Failures.
func (a *Aggregator) Quote(ctx context.Context, req Request) Outcome {
	started := time.Now()
	out := a.quote(ctx, req)
	a.metrics.RequestFinished(req.Kind.String(), out.State.String(), time.Since(started))
	return out
}

func (a *Aggregator) quote(ctx context.Context, req Request) Outcome {
	if req.TokenIn.Address == req.TokenOut.Address {
		return failedOutcome(fmt.Errorf("%w: token in and out are both %s", ErrInvalidRequest, req.TokenIn.Address.Hex()))
	}
	if req.Kind != model.ExactInput && req.Kind != model.ExactOutput {
		return failedOutcome(fmt.Errorf("%w: %s", ErrInvalidRequest, req.Kind))
	}

	fixedDecimals := req.TokenIn.Decimals
	if req.Kind == model.ExactOutput {
		fixedDecimals = req.TokenOut.Decimals
	}
	amount, err := pricing.ParseAmount(req.Amount, fixedDecimals)
	if err != nil {
		return emptyOutcome(fmt.Errorf("%w: %v", ErrEmptyAmount, err), nil)
	}
	if amount.Sign() == 0 {
		return emptyOutcome(ErrEmptyAmount, nil)
	}

	if _, ok := a.nativePairs[[2]common.Address{req.TokenIn.Address, req.TokenOut.Address}]; ok {
		return a.passThrough(req, amount)
	}

	if len(req.Candidates) == 0 {
		return emptyOutcome(ErrNoCandidatePaths, nil)
	}
	if err := ctx.Err(); err != nil {
		return failedOutcome(err)
	}

	// A malformed candidate fails alone, like any other path.
	results := make([]candidateResult, len(req.Candidates))
	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, path := range req.Candidates {
		if err := path.Validate(); err != nil {
			results[i].err = fmt.Errorf("%w: %v", ErrMalformedPath, err)
			continue
		}
		if path.TokenIn() != req.TokenIn.Address || path.TokenOut() != req.TokenOut.Address {
			results[i].err = fmt.Errorf("%w: does not connect %s to %s", ErrMalformedPath, req.TokenIn.Label(), req.TokenOut.Label())
			continue
		}
		i, path := i, path
		g.Go(func() error {
			results[i] = a.quotePath(ctx, req.Kind, path, amount)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return failedOutcome(err)
	}

	var failures []PathFailure
	best := -1
	for i, res := range results {
		if res.err != nil {
			failures = append(failures, PathFailure{Path: req.Candidates[i], Err: res.err})
			a.metrics.PathFailed(strconv.Itoa(len(req.Candidates[i])))
			a.logger.Warn("quote path failed",
				zap.String("path", req.Candidates[i].String()),
				zap.Error(res.err),
			)
			continue
		}
		if best < 0 || better(req.Kind, res.amount, results[best].amount) {
			best = i
		}
	}
	if best < 0 {
		return emptyOutcome(ErrAllQuotesFailed, failures)
	}

	q, err := a.annotate(req, amount, req.Candidates[best], results[best])
	if err != nil {
		return failedOutcome(err)
	}
	a.metrics.PriceImpact(q.Base().PriceImpactPercent.InexactFloat64())
	a.logger.Debug("quote selected",
		zap.String("kind", req.Kind.String()),
		zap.String("path", q.Base().Path.String()),
		zap.String("amount_in", q.Base().AmountIn.String()),
		zap.String("amount_out", q.Base().AmountOut.String()),
		zap.Int("failed_paths", len(failures)),
	)
	return Outcome{State: Success, Quotation: q, Failures: failures}
}

// better reports whether candidate beats current. Ties keep current.
func better(kind model.TradeKind, candidate, current *big.Int) bool {
	if kind == model.ExactOutput {
		return candidate.Cmp(current) < 0
	}
	return candidate.Cmp(current) > 0
}

func (a *Aggregator) quotePath(ctx context.Context, kind model.TradeKind, path model.QuotePath, amount *big.Int) candidateResult {
	if len(path) == 1 {
		hop := path[0]
		res, err := a.quoter.QuoteSingle(ctx, SingleRequest{
			Kind:     kind,
			TokenIn:  hop.TokenIn,
			TokenOut: hop.TokenOut,
			FeeTier:  hop.FeeTier,
			Amount:   new(big.Int).Set(amount),
		})
		if err != nil {
			return candidateResult{err: err}
		}
		if res.Amount == nil || res.Amount.Sign() <= 0 {
			return candidateResult{err: errors.New("quoter returned no amount")}
		}
		return candidateResult{amount: res.Amount, sqrtAfter: []*big.Int{res.SqrtPriceAfter}, gasEstimate: res.GasEstimate}
	}

	res, err := a.quoter.QuoteMulti(ctx, MultiRequest{Kind: kind, Path: path.Clone(), Amount: new(big.Int).Set(amount)})
	if err != nil {
		return candidateResult{err: err}
	}
	if res.Amount == nil || res.Amount.Sign() <= 0 {
		return candidateResult{err: errors.New("quoter returned no amount")}
	}
	if len(res.SqrtPricesAfter) != len(path) {
		return candidateResult{err: fmt.Errorf("quoter returned %d prices for %d hops", len(res.SqrtPricesAfter), len(path))}
	}

	after := make([]*big.Int, len(res.SqrtPricesAfter))
	copy(after, res.SqrtPricesAfter)
	if kind == model.ExactOutput {
		for i, j := 0, len(after)-1; i < j; i, j = i+1, j-1 {
			after[i], after[j] = after[j], after[i]
		}
	}
	return candidateResult{amount: res.Amount, sqrtAfter: after, gasEstimate: res.GasEstimate}
}

func (a *Aggregator) annotate(req Request, fixed *big.Int, path model.QuotePath, res candidateResult) (model.Quotation, error) {
	quoted := path.Clone()
	for i := range quoted {
		if res.sqrtAfter[i] != nil {
			quoted[i].SqrtPriceAfter = new(big.Int).Set(res.sqrtAfter[i])
		}
	}

	base := model.QuoteBase{
		TokenIn:            req.TokenIn,
		TokenOut:           req.TokenOut,
		AmountIn:           fixed,
		AmountOut:          res.amount,
		PriceImpactPercent: pricing.PathPriceImpact(quoted),
		Path:               quoted,
		GasEstimate:        res.gasEstimate,
	}
	if req.Kind == model.ExactOutput {
		base.AmountIn, base.AmountOut = res.amount, fixed
	}
	base.PricePerToken = pricing.PricePerToken(req.Kind, req.TokenIn, req.TokenOut, base.AmountIn, base.AmountOut)
	return model.NewQuotation(req.Kind, base)
}

// passThrough answers a wrapped/native pair at 1:1 with a synthetic hop.
func (a *Aggregator) passThrough(req Request, amount *big.Int) Outcome {
	hop := model.Hop{
		TokenIn:         req.TokenIn.Address,
		TokenOut:        req.TokenOut.Address,
		SqrtPriceBefore: new(big.Int).Set(clmath.Q96),
		SqrtPriceAfter:  new(big.Int).Set(clmath.Q96),
	}
	base := model.QuoteBase{
		TokenIn:            req.TokenIn,
		TokenOut:           req.TokenOut,
		AmountIn:           new(big.Int).Set(amount),
		AmountOut:          new(big.Int).Set(amount),
		PriceImpactPercent: pricing.PathPriceImpact(model.QuotePath{hop}),
		Path:               model.QuotePath{hop},
		GasEstimate:        new(big.Int),
	}
	base.PricePerToken = pricing.PricePerToken(req.Kind, req.TokenIn, req.TokenOut, base.AmountIn, base.AmountOut)
	q, err := model.NewQuotation(req.Kind, base)
	if err != nil {
		return failedOutcome(err)
	}
	return Outcome{State: Success, Quotation: q}
}
