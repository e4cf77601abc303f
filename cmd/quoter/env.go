package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"quoteScope/internal/chain"
	"quoteScope/internal/config"
	"quoteScope/internal/dex"
	"quoteScope/internal/metrics"
	"quoteScope/internal/model"
	"quoteScope/internal/paths"
	"quoteScope/internal/quote"
	"quoteScope/internal/storage/postgres"
)

// routingEnv is everything the quote, paths and watch commands share.
type routingEnv struct {
	cfg     config.QuoteConfig
	logger  *zap.Logger
	chain   *chain.Client
	chainID uint64
	store   *postgres.Store
	tokens  *dex.TokenCache
	graph   *paths.Graph
	quoter  *dex.OnchainQuoter
	native  common.Address
	wrapped common.Address
}

func retryPolicy(cfg config.Chain) chain.RetryPolicy {
	return chain.RetryPolicy{MaxRetries: cfg.MaxRetries, Backoff: cfg.RetryBackoff}
}

func connect(ctx context.Context, cfg config.Chain) (*chain.Client, uint64, error) {
	if cfg.RPCURL == "" {
		return nil, 0, fmt.Errorf("rpc url is required")
	}
	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, 0, fmt.Errorf("connect rpc: %w", err)
	}
	if cfg.ChainID != 0 {
		return client, cfg.ChainID, nil
	}
	id, err := client.GetChainID(ctx)
	if err != nil {
		client.Close()
		return nil, 0, fmt.Errorf("chain id: %w", err)
	}
	return client, id.Uint64(), nil
}

func newRoutingEnv(ctx context.Context, cfg config.QuoteConfig, logger *zap.Logger) (*routingEnv, error) {
	native, err := config.ParseAddress("native token", cfg.NativeToken)
	if err != nil {
		return nil, err
	}
	wrapped, err := config.ParseAddress("wrapped native", cfg.WrappedNative)
	if err != nil {
		return nil, err
	}
	quoterAddr, err := config.ParseAddress("quoter", cfg.Quoter)
	if err != nil {
		return nil, err
	}
	poolAddrs, err := config.ParseAddresses(cfg.Pools)
	if err != nil {
		return nil, err
	}

	client, chainID, err := connect(ctx, cfg.Chain)
	if err != nil {
		return nil, err
	}
	env := &routingEnv{
		cfg:     cfg,
		logger:  logger,
		chain:   client,
		chainID: chainID,
		tokens:  dex.NewTokenCache(),
		native:  native,
		wrapped: wrapped,
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		env.store = store
		if err := store.EnsureSchema(ctx); err != nil {
			env.Close()
			return nil, err
		}
	}

	pools, err := env.loadPools(ctx, poolAddrs)
	if err != nil {
		env.Close()
		return nil, err
	}
	if len(pools) == 0 {
		env.Close()
		return nil, fmt.Errorf("no pools configured: pass --pool or --pools-from-db")
	}

	retry := retryPolicy(cfg.Chain)
	state := dex.NewStateReader(client, retry)
	env.graph = paths.NewGraph(paths.GraphConfig{MaxCandidates: cfg.MaxCandidates}, pools, state, logger)
	env.quoter = dex.NewOnchainQuoter(dex.QuoterConfig{
		Address:     quoterAddr,
		CallTimeout: cfg.CallTimeout,
		Retry:       retry,
	}, client, logger)

	logger.Info("routing ready",
		zap.Uint64("chain_id", chainID),
		zap.String("quoter", quoterAddr.Hex()),
		zap.Int("pools", len(pools)),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)
	return env, nil
}

// loadPools resolves configured pools on chain, registers them when a store
// is open and merges the stored registry when requested.
func (e *routingEnv) loadPools(ctx context.Context, addresses []common.Address) ([]model.Pool, error) {
	cache := dex.NewPoolCache()
	pools := make([]model.Pool, 0, len(addresses))
	for _, addr := range addresses {
		pool, err := dex.ResolvePool(ctx, e.chain, cache, e.chainID, addr)
		if err != nil {
			return nil, fmt.Errorf("resolve pool %s: %w", addr.Hex(), err)
		}
		pools = append(pools, pool)
	}

	if e.store == nil {
		if e.cfg.PoolsFromDB {
			return nil, fmt.Errorf("pools-from-db requires pg-dsn")
		}
		return pools, nil
	}
	if err := e.store.UpsertPools(ctx, pools); err != nil {
		return nil, fmt.Errorf("register pools: %w", err)
	}
	if !e.cfg.PoolsFromDB {
		return pools, nil
	}
	stored, err := e.store.Pools(ctx, e.chainID)
	if err != nil {
		return nil, fmt.Errorf("load pools: %w", err)
	}
	for _, pool := range stored {
		if _, ok := cache.Get(pool.Address); !ok {
			cache.Set(pool)
			pools = append(pools, pool)
		}
	}
	return pools, nil
}

// token resolves an address argument. The native sentinel is an 18 decimal
// token that is never read from chain.
func (e *routingEnv) token(ctx context.Context, input string) (model.Token, error) {
	addr, err := config.ParseAddress("token", input)
	if err != nil {
		return model.Token{}, err
	}
	if addr == e.native {
		return model.Token{Address: addr, Decimals: 18, Symbol: "ETH", Name: "Ether"}, nil
	}
	return dex.ResolveToken(ctx, e.chain, e.tokens, addr, e.logger)
}

// routeToken is the pool-side address used for path search.
func (e *routingEnv) routeToken(addr common.Address) common.Address {
	if addr == e.native {
		return e.wrapped
	}
	return addr
}

// request builds an aggregator request, routing native legs through the
// wrapped token.
func (e *routingEnv) request(ctx context.Context, kind model.TradeKind, tokenIn, tokenOut model.Token, amount string) (quote.Request, error) {
	req := quote.Request{Kind: kind, TokenIn: tokenIn, TokenOut: tokenOut, Amount: amount}
	if e.isNativePair(tokenIn.Address, tokenOut.Address) {
		return req, nil
	}
	if tokenIn.Address == e.native {
		req.TokenIn = e.wrappedToken(tokenIn)
	}
	if tokenOut.Address == e.native {
		req.TokenOut = e.wrappedToken(tokenOut)
	}
	candidates, err := e.graph.Candidates(ctx, req.TokenIn.Address, req.TokenOut.Address)
	if err != nil {
		return quote.Request{}, err
	}
	req.Candidates = candidates
	return req, nil
}

func (e *routingEnv) wrappedToken(native model.Token) model.Token {
	native.Address = e.wrapped
	return native
}

func (e *routingEnv) isNativePair(a, b common.Address) bool {
	return (a == e.native && b == e.wrapped) || (a == e.wrapped && b == e.native)
}

func (e *routingEnv) aggregator(m *metrics.QuoteMetrics) *quote.Aggregator {
	return quote.NewAggregator(quote.AggregatorConfig{
		Concurrency: e.cfg.Concurrency,
		NativePairs: [][2]common.Address{{e.native, e.wrapped}},
		Metrics:     m,
	}, e.quoter, e.logger)
}

func (e *routingEnv) Close() {
	if e.store != nil {
		e.store.Close()
	}
	if e.chain != nil {
		e.chain.Close()
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "-"
	}
	return v.String()
}
