package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"quoteScope/internal/chain"
	"quoteScope/internal/clmath"
	"quoteScope/internal/model"
)

// PoolCache caches pool metadata by address. It is owned by whoever builds
// it and shared by reference.
type PoolCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.Pool
}

func NewPoolCache() *PoolCache {
	return &PoolCache{data: make(map[common.Address]model.Pool)}
}

func (c *PoolCache) Get(address common.Address) (model.Pool, bool) {
	c.mu.RLock()
	pool, ok := c.data[address]
	c.mu.RUnlock()
	return pool, ok
}

func (c *PoolCache) Set(pool model.Pool) {
	c.mu.Lock()
	c.data[pool.Address] = pool
	c.mu.Unlock()
}

// TokenCache caches token metadata by address.
type TokenCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.Token
}

func NewTokenCache() *TokenCache {
	return &TokenCache{data: make(map[common.Address]model.Token)}
}

func (c *TokenCache) Get(address common.Address) (model.Token, bool) {
	c.mu.RLock()
	token, ok := c.data[address]
	c.mu.RUnlock()
	return token, ok
}

func (c *TokenCache) Set(token model.Token) {
	c.mu.Lock()
	c.data[token.Address] = token
	c.mu.Unlock()
}

// ResolvePool returns the cached pool or loads it from chain.
func ResolvePool(ctx context.Context, chainClient *chain.Client, cache *PoolCache, chainID uint64, address common.Address) (model.Pool, error) {
	if cache != nil {
		if pool, ok := cache.Get(address); ok {
			return pool, nil
		}
	}
	pool, err := FetchPool(ctx, chainClient, chainID, address)
	if err != nil {
		return model.Pool{}, err
	}
	if cache != nil {
		cache.Set(pool)
	}
	return pool, nil
}

// ResolveToken returns the cached token or loads it from chain.
func ResolveToken(ctx context.Context, chainClient *chain.Client, cache *TokenCache, address common.Address, logger *zap.Logger) (model.Token, error) {
	if cache != nil {
		if token, ok := cache.Get(address); ok {
			return token, nil
		}
	}
	token, err := FetchToken(ctx, chainClient, address, logger)
	if err != nil {
		return model.Token{}, err
	}
	if cache != nil {
		cache.Set(token)
	}
	return token, nil
}

// FetchPool loads immutable pool metadata from chain. Pools whose fee tier
// is unknown or whose tick spacing disagrees with it are rejected.
func FetchPool(ctx context.Context, chainClient *chain.Client, chainID uint64, address common.Address) (model.Pool, error) {
	if chainClient == nil {
		return model.Pool{}, fmt.Errorf("chain client is nil")
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return model.Pool{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := callMethod(ctx, chainClient, address, poolABI, "token0", nil)
	if err != nil {
		return model.Pool{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return model.Pool{}, fmt.Errorf("token0: %w", err)
	}

	values, err = callMethod(ctx, chainClient, address, poolABI, "token1", nil)
	if err != nil {
		return model.Pool{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return model.Pool{}, fmt.Errorf("token1: %w", err)
	}

	values, err = callMethod(ctx, chainClient, address, poolABI, "fee", nil)
	if err != nil {
		return model.Pool{}, err
	}
	feeInt, err := asBigInt(values[0])
	if err != nil {
		return model.Pool{}, fmt.Errorf("fee: %w", err)
	}
	fee := uint32(feeInt.Uint64())

	spacing, err := clmath.TickSpacingForFeeTier(fee)
	if err != nil {
		return model.Pool{}, fmt.Errorf("pool %s: %w", address.Hex(), err)
	}

	values, err = callMethod(ctx, chainClient, address, poolABI, "tickSpacing", nil)
	if err != nil {
		return model.Pool{}, err
	}
	spacingInt, err := asBigInt(values[0])
	if err != nil {
		return model.Pool{}, fmt.Errorf("tick spacing: %w", err)
	}
	onchainSpacing, err := int24FromBig(spacingInt)
	if err != nil {
		return model.Pool{}, fmt.Errorf("tick spacing: %w", err)
	}
	if onchainSpacing != spacing {
		return model.Pool{}, fmt.Errorf("pool %s: tick spacing %d does not match fee tier %d", address.Hex(), onchainSpacing, fee)
	}

	return model.Pool{
		ChainID:     chainID,
		Address:     address,
		Token0:      token0,
		Token1:      token1,
		Fee:         fee,
		TickSpacing: spacing,
	}, nil
}

// FetchToken loads token metadata via ERC20 calls. Decimals are required;
// symbol and name are best effort.
func FetchToken(ctx context.Context, chainClient *chain.Client, address common.Address, logger *zap.Logger) (model.Token, error) {
	token := model.Token{Address: address}
	if chainClient == nil {
		return token, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	stringABI, err := ERC20ABI()
	if err != nil {
		return token, fmt.Errorf("parse erc20 abi: %w", err)
	}
	bytes32ABI, err := erc20Bytes32ABI.get()
	if err != nil {
		return token, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := callMethod(ctx, chainClient, address, stringABI, "decimals", nil)
	if err != nil {
		return token, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return token, err
	}
	token.Decimals = decimals

	token.Symbol = fetchText(ctx, chainClient, address, "symbol", stringABI, bytes32ABI, logger)
	token.Name = fetchText(ctx, chainClient, address, "name", stringABI, bytes32ABI, logger)
	return token, nil
}

func fetchText(ctx context.Context, chainClient *chain.Client, address common.Address, method string, stringABI, bytes32ABI abi.ABI, logger *zap.Logger) string {
	if values, err := callMethod(ctx, chainClient, address, stringABI, method, nil); err == nil {
		if s, ok := values[0].(string); ok {
			return s
		}
	}
	values, err := callMethod(ctx, chainClient, address, bytes32ABI, method, nil)
	if err == nil {
		if s, ok := bytes32ToString(values[0]); ok {
			return s
		}
	}
	logger.Debug(method+" call failed", zap.String("token", address.Hex()), zap.Error(err))
	return ""
}

func callMethod(ctx context.Context, chainClient *chain.Client, target common.Address, parsed abi.ABI, method string, block *big.Int, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &target, Data: data}
	resp, err := chainClient.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("uint8 overflow: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func int24FromBig(value *big.Int) (int32, error) {
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int32(value.Int64()), nil
}
