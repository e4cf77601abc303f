// Package paths builds direct and one-intermediate swap paths over a known
// set of pools.
package paths

import (
	"bytes"
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"quoteScope/internal/model"
)

// Directory lists candidate paths for a token pair.
type Directory interface {
	Candidates(ctx context.Context, tokenIn, tokenOut common.Address) ([]model.QuotePath, error)
}

// StateSource reads the current price of a pool.
type StateSource interface {
	Slot0(ctx context.Context, pool common.Address) (model.PoolState, error)
}

// GraphConfig holds path search settings.
type GraphConfig struct {
	// MaxCandidates caps the number of paths returned; 0 means no cap.
	MaxCandidates int
}

// Graph is a Directory over a fixed pool list.
type Graph struct {
	cfg    GraphConfig
	pools  []model.Pool
	byPair map[[2]common.Address][]model.Pool
	state  StateSource
	logger *zap.Logger
}

// NewGraph indexes pools. state may be nil, in which case paths carry no
// before-prices.
func NewGraph(cfg GraphConfig, pools []model.Pool, state StateSource, logger *zap.Logger) *Graph {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Graph{
		cfg:    cfg,
		byPair: make(map[[2]common.Address][]model.Pool),
		state:  state,
		logger: logger,
	}
	seen := make(map[common.Address]struct{}, len(pools))
	for _, pool := range pools {
		if _, ok := seen[pool.Address]; ok {
			continue
		}
		seen[pool.Address] = struct{}{}
		g.pools = append(g.pools, pool)
		key := pairKey(pool.Token0, pool.Token1)
		g.byPair[key] = append(g.byPair[key], pool)
	}
	for key := range g.byPair {
		sortPools(g.byPair[key])
	}
	return g
}

// Candidates returns direct paths ordered by fee tier, then two-hop paths
// ordered by intermediate token address and fee tiers.
func (g *Graph) Candidates(ctx context.Context, tokenIn, tokenOut common.Address) ([]model.QuotePath, error) {
	if tokenIn == tokenOut {
		return nil, nil
	}

	var out []model.QuotePath
	for _, pool := range g.byPair[pairKey(tokenIn, tokenOut)] {
		out = append(out, model.QuotePath{hopThrough(pool, tokenIn)})
	}

	for _, mid := range g.intermediates(tokenIn, tokenOut) {
		first := g.byPair[pairKey(tokenIn, mid)]
		second := g.byPair[pairKey(mid, tokenOut)]
		for _, a := range first {
			for _, b := range second {
				out = append(out, model.QuotePath{hopThrough(a, tokenIn), hopThrough(b, mid)})
			}
		}
	}

	if g.cfg.MaxCandidates > 0 && len(out) > g.cfg.MaxCandidates {
		out = out[:g.cfg.MaxCandidates]
	}
	if err := g.stampPrices(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Pools returns the indexed pools.
func (g *Graph) Pools() []model.Pool {
	return append([]model.Pool(nil), g.pools...)
}

func (g *Graph) intermediates(tokenIn, tokenOut common.Address) []common.Address {
	fromIn := make(map[common.Address]struct{})
	for _, pool := range g.pools {
		if other, ok := pool.Other(tokenIn); ok && other != tokenOut {
			fromIn[other] = struct{}{}
		}
	}
	var mids []common.Address
	for mid := range fromIn {
		if len(g.byPair[pairKey(mid, tokenOut)]) > 0 {
			mids = append(mids, mid)
		}
	}
	sort.Slice(mids, func(i, j int) bool {
		return bytes.Compare(mids[i].Bytes(), mids[j].Bytes()) < 0
	})
	return mids
}

func (g *Graph) stampPrices(ctx context.Context, candidates []model.QuotePath) error {
	if g.state == nil {
		return nil
	}
	prices := make(map[common.Address]model.PoolState)
	failed := make(map[common.Address]struct{})
	for _, path := range candidates {
		for i := range path {
			addr := path[i].PoolAddress
			if _, ok := failed[addr]; ok {
				continue
			}
			st, ok := prices[addr]
			if !ok {
				var err error
				st, err = g.state.Slot0(ctx, addr)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					failed[addr] = struct{}{}
					g.logger.Warn("read pool price", zap.String("pool", addr.Hex()), zap.Error(err))
					continue
				}
				prices[addr] = st
			}
			if st.SqrtPriceX96 != nil {
				path[i].SqrtPriceBefore = new(big.Int).Set(st.SqrtPriceX96)
			}
		}
	}
	return nil
}

func hopThrough(pool model.Pool, tokenIn common.Address) model.Hop {
	tokenOut, _ := pool.Other(tokenIn)
	return model.Hop{
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		FeeTier:     pool.Fee,
		PoolAddress: pool.Address,
	}
}

func pairKey(a, b common.Address) [2]common.Address {
	t0, t1 := model.SortTokens(a, b)
	return [2]common.Address{t0, t1}
}

func sortPools(pools []model.Pool) {
	sort.SliceStable(pools, func(i, j int) bool {
		if pools[i].Fee != pools[j].Fee {
			return pools[i].Fee < pools[j].Fee
		}
		return bytes.Compare(pools[i].Address.Bytes(), pools[j].Address.Bytes()) < 0
	})
}
