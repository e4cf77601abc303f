// Package position values concentrated-liquidity positions from live pool
// state and previews new ones from a price range.
package position

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"quoteScope/internal/clmath"
	"quoteScope/internal/model"
	"quoteScope/internal/pricing"
)

// ErrTokenMismatch is returned when the supplied tokens are not the pool's.
var ErrTokenMismatch = errors.New("tokens do not match pool")

// StateSource reads the pool state a valuation needs.
type StateSource interface {
	Slot0(ctx context.Context, pool common.Address) (model.PoolState, error)
	FeeGrowthSnapshot(ctx context.Context, pool common.Address, tickLower, tickUpper int32) (model.FeeGrowthSnapshot, error)
	Position(ctx context.Context, pool, owner common.Address, tickLower, tickUpper int32) (model.Position, error)
}

// Valuation is a position priced at the pool's current state.
type Valuation struct {
	Position model.Position
	State    model.PoolState
	InRange  bool
	Amount0  *big.Int
	Amount1  *big.Int
	Fees0    *big.Int
	Fees1    *big.Int
	// Price is human token1 per token0.
	Price decimal.Decimal
}

// Valuer values positions of a single pool's tokens.
type Valuer struct {
	state  StateSource
	logger *zap.Logger
}

func NewValuer(state StateSource, logger *zap.Logger) *Valuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Valuer{state: state, logger: logger}
}

// Target identifies a position on a pool.
type Target struct {
	Pool      model.Pool
	Token0    model.Token
	Token1    model.Token
	Owner     common.Address
	TickLower int32
	TickUpper int32
}

func (t Target) validate() error {
	if t.Token0.Address != t.Pool.Token0 || t.Token1.Address != t.Pool.Token1 {
		return fmt.Errorf("%w: pool %s", ErrTokenMismatch, t.Pool.Address.Hex())
	}
	if t.TickLower >= t.TickUpper {
		return fmt.Errorf("%w: [%d, %d)", clmath.ErrInvalidTickRange, t.TickLower, t.TickUpper)
	}
	if t.Pool.TickSpacing > 0 && (t.TickLower%t.Pool.TickSpacing != 0 || t.TickUpper%t.Pool.TickSpacing != 0) {
		return fmt.Errorf("%w: [%d, %d) not aligned to spacing %d", clmath.ErrInvalidTickRange, t.TickLower, t.TickUpper, t.Pool.TickSpacing)
	}
	return nil
}

// Value reads the position and pool state and returns token amounts plus
// uncollected fees.
func (v *Valuer) Value(ctx context.Context, target Target) (Valuation, error) {
	if err := target.validate(); err != nil {
		return Valuation{}, err
	}
	poolAddr := target.Pool.Address

	state, err := v.state.Slot0(ctx, poolAddr)
	if err != nil {
		return Valuation{}, fmt.Errorf("read slot0: %w", err)
	}
	pos, err := v.state.Position(ctx, poolAddr, target.Owner, target.TickLower, target.TickUpper)
	if err != nil {
		return Valuation{}, fmt.Errorf("read position: %w", err)
	}
	growth, err := v.state.FeeGrowthSnapshot(ctx, poolAddr, target.TickLower, target.TickUpper)
	if err != nil {
		return Valuation{}, fmt.Errorf("read fee growth: %w", err)
	}

	amount0, amount1, err := clmath.AmountsForLiquidity(pos.Liquidity, pos.TickLower, pos.TickUpper, state.Tick, state.SqrtPriceX96)
	if err != nil {
		return Valuation{}, fmt.Errorf("position amounts: %w", err)
	}
	fees0, fees1, err := clmath.FeesEarned(pos, growth, state.Tick)
	if err != nil {
		return Valuation{}, fmt.Errorf("position fees: %w", err)
	}

	out := Valuation{
		Position: pos,
		State:    state,
		InRange:  state.Tick >= pos.TickLower && state.Tick < pos.TickUpper,
		Amount0:  amount0,
		Amount1:  amount1,
		Fees0:    fees0,
		Fees1:    fees1,
		Price:    spotPrice(state.SqrtPriceX96, target.Token0.Decimals, target.Token1.Decimals),
	}
	v.logger.Debug("position valued",
		zap.String("pool", poolAddr.Hex()),
		zap.String("owner", target.Owner.Hex()),
		zap.Bool("in_range", out.InRange),
	)
	return out, nil
}

// PreviewRequest describes a prospective deposit. Nil percents select the
// full usable range.
type PreviewRequest struct {
	Pool           model.Pool
	Token0         model.Token
	Token1         model.Token
	MinPercent     *float64
	MaxPercent     *float64
	Amount         decimal.Decimal
	AmountIsToken0 bool
}

// Preview is the aligned range and deposit amounts for a PreviewRequest.
type Preview struct {
	TickLower   int32
	TickUpper   int32
	CurrentTick int32
	Amount0     *big.Int
	Amount1     *big.Int
	Liquidity   *big.Int
	Price       decimal.Decimal
	PriceLower  decimal.Decimal
	PriceUpper  decimal.Decimal
}

// Preview aligns a percent range around the current tick, derives the counter
// amount at spot price and the liquidity both amounts can back.
func (v *Valuer) Preview(ctx context.Context, req PreviewRequest) (Preview, error) {
	if req.Token0.Address != req.Pool.Token0 || req.Token1.Address != req.Pool.Token1 {
		return Preview{}, fmt.Errorf("%w: pool %s", ErrTokenMismatch, req.Pool.Address.Hex())
	}
	state, err := v.state.Slot0(ctx, req.Pool.Address)
	if err != nil {
		return Preview{}, fmt.Errorf("read slot0: %w", err)
	}

	lower, upper, err := clmath.AlignTickRangeFromPercent(state.Tick, req.MinPercent, req.MaxPercent, req.Pool.TickSpacing)
	if err != nil {
		return Preview{}, err
	}
	counter, err := clmath.CounterAmountAtSpotPrice(req.Amount, req.AmountIsToken0, state.SqrtPriceX96, req.Token0.Decimals, req.Token1.Decimals)
	if err != nil {
		return Preview{}, err
	}

	human0, human1 := req.Amount, counter
	if !req.AmountIsToken0 {
		human0, human1 = counter, req.Amount
	}
	amount0, err := pricing.ParseAmount(human0.String(), req.Token0.Decimals)
	if err != nil {
		return Preview{}, err
	}
	amount1, err := pricing.ParseAmount(human1.String(), req.Token1.Decimals)
	if err != nil {
		return Preview{}, err
	}

	sqrtA, err := clmath.SqrtRatioAtTick(lower)
	if err != nil {
		return Preview{}, err
	}
	sqrtB, err := clmath.SqrtRatioAtTick(upper)
	if err != nil {
		return Preview{}, err
	}
	liquidity, err := clmath.LiquidityForAmounts(state.SqrtPriceX96, sqrtA, sqrtB, amount0, amount1)
	if err != nil {
		return Preview{}, err
	}

	return Preview{
		TickLower:   lower,
		TickUpper:   upper,
		CurrentTick: state.Tick,
		Amount0:     amount0,
		Amount1:     amount1,
		Liquidity:   liquidity,
		Price:       spotPrice(state.SqrtPriceX96, req.Token0.Decimals, req.Token1.Decimals),
		PriceLower:  spotPrice(sqrtA, req.Token0.Decimals, req.Token1.Decimals),
		PriceUpper:  spotPrice(sqrtB, req.Token0.Decimals, req.Token1.Decimals),
	}, nil
}

// spotPrice degrades to zero on malformed state.
func spotPrice(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) decimal.Decimal {
	price, err := clmath.SqrtPriceToPrice(sqrtPriceX96, decimals0, decimals1)
	if err != nil {
		return decimal.Zero
	}
	out, err := decimal.NewFromString(price.Text('f', 18))
	if err != nil {
		return decimal.Zero
	}
	return out
}
