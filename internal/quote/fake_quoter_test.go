package quote

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"

	"quoteScope/internal/model"
)

var errNoLiquidity = errors.New("no liquidity")

var (
	usdc = model.Token{Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Decimals: 6, Symbol: "USDC"}
	weth = model.Token{Address: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), Decimals: 18, Symbol: "WETH"}
	dai  = model.Token{Address: common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), Decimals: 18, Symbol: "DAI"}
	eth  = model.Token{Address: common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"), Decimals: 18, Symbol: "ETH"}

	q96 = new(big.Int).Lsh(big.NewInt(1), 96)
)

type fakeResult struct {
	amount *big.Int
	after  []*big.Int
	err    error
}

// fakeQuoter answers from a table keyed by QuotePath.String().
type fakeQuoter struct {
	mu       sync.Mutex
	results  map[string]fakeResult
	requests []MultiRequest
	calls    atomic.Int32
}

func newFakeQuoter() *fakeQuoter {
	return &fakeQuoter{results: make(map[string]fakeResult)}
}

func (f *fakeQuoter) set(path model.QuotePath, res fakeResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[path.String()] = res
}

func (f *fakeQuoter) lookup(path model.QuotePath) fakeResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.results[path.String()]
	if !ok {
		return fakeResult{err: errNoLiquidity}
	}
	return res
}

func (f *fakeQuoter) QuoteSingle(ctx context.Context, req SingleRequest) (SingleResult, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return SingleResult{}, err
	}
	res := f.lookup(model.QuotePath{{TokenIn: req.TokenIn, TokenOut: req.TokenOut, FeeTier: req.FeeTier}})
	if res.err != nil {
		return SingleResult{}, res.err
	}
	var after *big.Int
	if len(res.after) > 0 {
		after = res.after[0]
	}
	return SingleResult{Amount: res.amount, SqrtPriceAfter: after, GasEstimate: big.NewInt(100000)}, nil
}

func (f *fakeQuoter) QuoteMulti(ctx context.Context, req MultiRequest) (MultiResult, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return MultiResult{}, err
	}
	res := f.lookup(req.Path)
	if res.err != nil {
		return MultiResult{}, res.err
	}
	return MultiResult{Amount: res.amount, SqrtPricesAfter: res.after, GasEstimate: big.NewInt(180000)}, nil
}

func direct(in, out model.Token, fee uint32) model.QuotePath {
	return model.QuotePath{{
		TokenIn:         in.Address,
		TokenOut:        out.Address,
		FeeTier:         fee,
		PoolAddress:     common.BigToAddress(big.NewInt(int64(fee))),
		SqrtPriceBefore: new(big.Int).Set(q96),
	}}
}

// scaled returns q96 * num / den.
func scaled(num, den int64) *big.Int {
	v := new(big.Int).Mul(q96, big.NewInt(num))
	return v.Quo(v, big.NewInt(den))
}
