package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"quoteScope/internal/chain"
	"quoteScope/internal/model"
)

// StateReader reads mutable pool state: prices, fee growth and positions.
type StateReader struct {
	chain *chain.Client
	retry chain.RetryPolicy
	// Block pins reads to a block height; nil reads latest.
	Block *big.Int
}

// NewStateReader builds a StateReader.
func NewStateReader(chainClient *chain.Client, retry chain.RetryPolicy) *StateReader {
	return &StateReader{chain: chainClient, retry: retry}
}

func (r *StateReader) call(ctx context.Context, pool common.Address, method string, args ...interface{}) ([]interface{}, error) {
	if r.chain == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	var values []interface{}
	err = chain.WithRetry(ctx, r.retry, func(ctx context.Context) error {
		var callErr error
		values, callErr = callMethod(ctx, r.chain, pool, poolABI, method, r.Block, args...)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", pool.Hex(), err)
	}
	return values, nil
}

// Slot0 returns the pool's current sqrt price, tick and active liquidity.
func (r *StateReader) Slot0(ctx context.Context, pool common.Address) (model.PoolState, error) {
	values, err := r.call(ctx, pool, "slot0")
	if err != nil {
		return model.PoolState{}, err
	}
	if len(values) < 2 {
		return model.PoolState{}, fmt.Errorf("slot0: expected 7 values, got %d", len(values))
	}
	sqrt, err := asBigInt(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("slot0 sqrt price: %w", err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("slot0 tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("slot0 tick: %w", err)
	}

	values, err = r.call(ctx, pool, "liquidity")
	if err != nil {
		return model.PoolState{}, err
	}
	liquidity, err := asBigInt(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("liquidity: %w", err)
	}
	return model.PoolState{SqrtPriceX96: sqrt, Tick: tick, Liquidity: liquidity}, nil
}

// FeeGrowthGlobals returns the pool's global fee growth accumulators.
func (r *StateReader) FeeGrowthGlobals(ctx context.Context, pool common.Address) (*big.Int, *big.Int, error) {
	values, err := r.call(ctx, pool, "feeGrowthGlobal0X128")
	if err != nil {
		return nil, nil, err
	}
	g0, err := asBigInt(values[0])
	if err != nil {
		return nil, nil, fmt.Errorf("fee growth global0: %w", err)
	}
	values, err = r.call(ctx, pool, "feeGrowthGlobal1X128")
	if err != nil {
		return nil, nil, err
	}
	g1, err := asBigInt(values[0])
	if err != nil {
		return nil, nil, fmt.Errorf("fee growth global1: %w", err)
	}
	return g0, g1, nil
}

// TickFeeGrowth returns the fee growth recorded outside tick.
func (r *StateReader) TickFeeGrowth(ctx context.Context, pool common.Address, tick int32) (model.TickFeeGrowth, error) {
	values, err := r.call(ctx, pool, "ticks", big.NewInt(int64(tick)))
	if err != nil {
		return model.TickFeeGrowth{}, err
	}
	if len(values) < 4 {
		return model.TickFeeGrowth{}, fmt.Errorf("ticks: expected 8 values, got %d", len(values))
	}
	out0, err := asBigInt(values[2])
	if err != nil {
		return model.TickFeeGrowth{}, fmt.Errorf("fee growth outside0: %w", err)
	}
	out1, err := asBigInt(values[3])
	if err != nil {
		return model.TickFeeGrowth{}, fmt.Errorf("fee growth outside1: %w", err)
	}
	return model.TickFeeGrowth{Outside0X128: out0, Outside1X128: out1}, nil
}

// FeeGrowthSnapshot collects the global and boundary fee growth for a range.
func (r *StateReader) FeeGrowthSnapshot(ctx context.Context, pool common.Address, tickLower, tickUpper int32) (model.FeeGrowthSnapshot, error) {
	g0, g1, err := r.FeeGrowthGlobals(ctx, pool)
	if err != nil {
		return model.FeeGrowthSnapshot{}, err
	}
	lower, err := r.TickFeeGrowth(ctx, pool, tickLower)
	if err != nil {
		return model.FeeGrowthSnapshot{}, err
	}
	upper, err := r.TickFeeGrowth(ctx, pool, tickUpper)
	if err != nil {
		return model.FeeGrowthSnapshot{}, err
	}
	return model.FeeGrowthSnapshot{Global0X128: g0, Global1X128: g1, Lower: lower, Upper: upper}, nil
}

// Position reads the pool's record of owner's position over the range.
func (r *StateReader) Position(ctx context.Context, pool, owner common.Address, tickLower, tickUpper int32) (model.Position, error) {
	values, err := r.call(ctx, pool, "positions", PositionKey(owner, tickLower, tickUpper))
	if err != nil {
		return model.Position{}, err
	}
	if len(values) < 5 {
		return model.Position{}, fmt.Errorf("positions: expected 5 values, got %d", len(values))
	}
	fields := make([]*big.Int, 5)
	for i := range fields {
		v, err := asBigInt(values[i])
		if err != nil {
			return model.Position{}, fmt.Errorf("positions field %d: %w", i, err)
		}
		fields[i] = v
	}
	return model.Position{
		Pool:                     pool,
		Owner:                    owner,
		TickLower:                tickLower,
		TickUpper:                tickUpper,
		Liquidity:                fields[0],
		FeeGrowthInside0LastX128: fields[1],
		FeeGrowthInside1LastX128: fields[2],
		TokensOwed0:              fields[3],
		TokensOwed1:              fields[4],
	}, nil
}

// Reserves returns the token balances held by the pool contract.
func (r *StateReader) Reserves(ctx context.Context, pool model.Pool) (*big.Int, *big.Int, error) {
	if r.chain == nil {
		return nil, nil, fmt.Errorf("chain client is nil")
	}
	erc20, err := ERC20ABI()
	if err != nil {
		return nil, nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	out := make([]*big.Int, 2)
	for i, token := range []common.Address{pool.Token0, pool.Token1} {
		var values []interface{}
		err := chain.WithRetry(ctx, r.retry, func(ctx context.Context) error {
			var callErr error
			values, callErr = callMethod(ctx, r.chain, token, erc20, "balanceOf", r.Block, pool.Address)
			return callErr
		})
		if err != nil {
			return nil, nil, fmt.Errorf("balance of %s in %s: %w", token.Hex(), pool.Address.Hex(), err)
		}
		if out[i], err = asBigInt(values[0]); err != nil {
			return nil, nil, fmt.Errorf("balance of %s: %w", token.Hex(), err)
		}
	}
	return out[0], out[1], nil
}

// PositionKey is keccak256(abi.encodePacked(owner, int24 tickLower, int24 tickUpper)).
func PositionKey(owner common.Address, tickLower, tickUpper int32) [32]byte {
	packed := make([]byte, 0, common.AddressLength+6)
	packed = append(packed, owner.Bytes()...)
	packed = append(packed, int24Bytes(tickLower)...)
	packed = append(packed, int24Bytes(tickUpper)...)
	return crypto.Keccak256Hash(packed)
}

func int24Bytes(v int32) []byte {
	u := uint32(v) & 0xffffff
	return []byte{byte(u >> 16), byte(u >> 8), byte(u)}
}
