package position

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"quoteScope/internal/clmath"
	"quoteScope/internal/model"
)

var (
	token0 = model.Token{Address: common.HexToAddress("0x0000000000000000000000000000000000000a01"), Decimals: 18, Symbol: "AAA"}
	token1 = model.Token{Address: common.HexToAddress("0x0000000000000000000000000000000000000b02"), Decimals: 18, Symbol: "BBB"}
	owner  = common.HexToAddress("0x00000000000000000000000000000000000000ff")
	pool   = model.Pool{
		Address:     common.HexToAddress("0x0000000000000000000000000000000000000c03"),
		Token0:      token0.Address,
		Token1:      token1.Address,
		Fee:         3000,
		TickSpacing: 60,
	}
)

type fakeState struct {
	slot0    model.PoolState
	slot0Err error
	position model.Position
	growth   model.FeeGrowthSnapshot
}

func (f *fakeState) Slot0(ctx context.Context, addr common.Address) (model.PoolState, error) {
	return f.slot0, f.slot0Err
}

func (f *fakeState) FeeGrowthSnapshot(ctx context.Context, addr common.Address, lower, upper int32) (model.FeeGrowthSnapshot, error) {
	return f.growth, nil
}

func (f *fakeState) Position(ctx context.Context, addr, who common.Address, lower, upper int32) (model.Position, error) {
	pos := f.position
	pos.Pool, pos.Owner, pos.TickLower, pos.TickUpper = addr, who, lower, upper
	return pos, nil
}

func unitPriceState() model.PoolState {
	return model.PoolState{SqrtPriceX96: new(big.Int).Set(clmath.Q96), Tick: 0, Liquidity: big.NewInt(1)}
}

func TestValueInRangePosition(t *testing.T) {
	liquidity := big.NewInt(1_000_000_000_000_000_000)
	state := &fakeState{
		slot0: unitPriceState(),
		position: model.Position{
			Liquidity:                liquidity,
			FeeGrowthInside0LastX128: big.NewInt(0),
			FeeGrowthInside1LastX128: big.NewInt(0),
			TokensOwed0:              big.NewInt(3),
			TokensOwed1:              big.NewInt(7),
		},
		growth: model.FeeGrowthSnapshot{
			Global0X128: new(big.Int).Mul(clmath.Q128, big.NewInt(10)),
			Global1X128: big.NewInt(0),
			Lower:       model.TickFeeGrowth{Outside0X128: big.NewInt(0), Outside1X128: big.NewInt(0)},
			Upper:       model.TickFeeGrowth{Outside0X128: big.NewInt(0), Outside1X128: big.NewInt(0)},
		},
	}
	valuer := NewValuer(state, nil)

	got, err := valuer.Value(context.Background(), Target{Pool: pool, Token0: token0, Token1: token1, Owner: owner, TickLower: -60, TickUpper: 60})
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if !got.InRange {
		t.Fatalf("expected in range")
	}
	if got.Amount0.Sign() <= 0 || got.Amount1.Sign() <= 0 {
		t.Fatalf("in-range position should hold both tokens: %s %s", got.Amount0, got.Amount1)
	}
	wantFees0 := new(big.Int).Mul(liquidity, big.NewInt(10))
	wantFees0.Add(wantFees0, big.NewInt(3))
	if got.Fees0.Cmp(wantFees0) != 0 {
		t.Fatalf("fees0: got %s want %s", got.Fees0, wantFees0)
	}
	if got.Fees1.Int64() != 7 {
		t.Fatalf("fees1: got %s", got.Fees1)
	}
	if !got.Price.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("price: got %s", got.Price)
	}
	if got.Position.Owner != owner || got.Position.Pool != pool.Address {
		t.Fatalf("position identity not filled: %+v", got.Position)
	}
}

func TestValueOutOfRangeHoldsOneToken(t *testing.T) {
	state := &fakeState{
		slot0: unitPriceState(),
		position: model.Position{
			Liquidity: big.NewInt(1_000_000),
		},
		growth: model.FeeGrowthSnapshot{Global0X128: big.NewInt(0), Global1X128: big.NewInt(0)},
	}
	valuer := NewValuer(state, nil)

	got, err := valuer.Value(context.Background(), Target{Pool: pool, Token0: token0, Token1: token1, Owner: owner, TickLower: 120, TickUpper: 600})
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if got.InRange {
		t.Fatalf("expected out of range")
	}
	if got.Amount0.Sign() <= 0 || got.Amount1.Sign() != 0 {
		t.Fatalf("above-price range should hold token0 only: %s %s", got.Amount0, got.Amount1)
	}
}

func TestValueRejects(t *testing.T) {
	valuer := NewValuer(&fakeState{slot0: unitPriceState()}, nil)
	ctx := context.Background()

	_, err := valuer.Value(ctx, Target{Pool: pool, Token0: token1, Token1: token0, TickLower: -60, TickUpper: 60})
	if !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch, got %v", err)
	}
	_, err = valuer.Value(ctx, Target{Pool: pool, Token0: token0, Token1: token1, TickLower: -50, TickUpper: 60})
	if !errors.Is(err, clmath.ErrInvalidTickRange) {
		t.Fatalf("expected unaligned range to fail, got %v", err)
	}
	_, err = valuer.Value(ctx, Target{Pool: pool, Token0: token0, Token1: token1, TickLower: 60, TickUpper: 60})
	if !errors.Is(err, clmath.ErrInvalidTickRange) {
		t.Fatalf("expected empty range to fail, got %v", err)
	}

	boom := errors.New("rpc down")
	failing := NewValuer(&fakeState{slot0Err: boom}, nil)
	_, err = failing.Value(ctx, Target{Pool: pool, Token0: token0, Token1: token1, TickLower: -60, TickUpper: 60})
	if !errors.Is(err, boom) {
		t.Fatalf("expected slot0 error, got %v", err)
	}
}

func TestPreview(t *testing.T) {
	valuer := NewValuer(&fakeState{slot0: unitPriceState()}, nil)
	minPct, maxPct := -10.0, 10.0

	got, err := valuer.Preview(context.Background(), PreviewRequest{
		Pool:           pool,
		Token0:         token0,
		Token1:         token1,
		MinPercent:     &minPct,
		MaxPercent:     &maxPct,
		Amount:         decimal.NewFromInt(1),
		AmountIsToken0: true,
	})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if got.TickLower != -1080 || got.TickUpper != 960 {
		t.Fatalf("range: got [%d, %d)", got.TickLower, got.TickUpper)
	}
	one := big.NewInt(1_000_000_000_000_000_000)
	if got.Amount0.Cmp(one) != 0 || got.Amount1.Cmp(one) != 0 {
		t.Fatalf("amounts at parity: got %s %s", got.Amount0, got.Amount1)
	}
	if got.Liquidity.Sign() <= 0 {
		t.Fatalf("liquidity should be positive: %s", got.Liquidity)
	}
	if !got.PriceLower.LessThan(got.Price) || !got.Price.LessThan(got.PriceUpper) {
		t.Fatalf("price bounds out of order: %s %s %s", got.PriceLower, got.Price, got.PriceUpper)
	}
}

func TestPreviewFromToken1Amount(t *testing.T) {
	valuer := NewValuer(&fakeState{slot0: unitPriceState()}, nil)

	got, err := valuer.Preview(context.Background(), PreviewRequest{
		Pool:   pool,
		Token0: token0,
		Token1: token1,
		Amount: decimal.RequireFromString("2.5"),
	})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if got.TickLower != -887220 || got.TickUpper != 887220 {
		t.Fatalf("full range expected, got [%d, %d)", got.TickLower, got.TickUpper)
	}
	want := big.NewInt(2_500_000_000_000_000_000)
	if got.Amount0.Cmp(want) != 0 || got.Amount1.Cmp(want) != 0 {
		t.Fatalf("amounts: got %s %s", got.Amount0, got.Amount1)
	}
}
