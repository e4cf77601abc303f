package main

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quoteScope/internal/clmath"
	"quoteScope/internal/config"
	"quoteScope/internal/dex"
	"quoteScope/internal/model"
	"quoteScope/internal/position"
	"quoteScope/internal/pricing"
)

// runPosition values an existing position, or previews a deposit when
// --amount is set.
func runPosition(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPosition(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	poolAddr, err := config.ParseAddress("pool", cfg.Pool)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, chainID, err := connect(ctx, cfg.Chain)
	if err != nil {
		return err
	}
	defer client.Close()

	pool, err := dex.FetchPool(ctx, client, chainID, poolAddr)
	if err != nil {
		return err
	}
	tokens := dex.NewTokenCache()
	token0, err := dex.ResolveToken(ctx, client, tokens, pool.Token0, logger)
	if err != nil {
		return err
	}
	token1, err := dex.ResolveToken(ctx, client, tokens, pool.Token1, logger)
	if err != nil {
		return err
	}

	// Pin every read to one block so slot0, ticks and positions agree.
	if cfg.Block == 0 {
		latest, err := client.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("latest block: %w", err)
		}
		cfg.Block = latest
	}
	state := dex.NewStateReader(client, retryPolicy(cfg.Chain))
	state.Block = new(big.Int).SetUint64(cfg.Block)
	valuer := position.NewValuer(state, logger)

	logger.Info("position start",
		zap.String("pool", pool.Address.Hex()),
		zap.Uint32("fee", pool.Fee),
		zap.String("token0", token0.Label()),
		zap.String("token1", token1.Label()),
		zap.Uint64("block", cfg.Block),
	)

	w := cmd.OutOrStdout()
	if strings.TrimSpace(cfg.Amount) != "" {
		return previewPosition(ctx, w, valuer, cfg, pool, token0, token1)
	}

	owner, err := config.ParseAddress("owner", cfg.Owner)
	if err != nil {
		return err
	}
	valuation, err := valuer.Value(ctx, position.Target{
		Pool:      pool,
		Token0:    token0,
		Token1:    token1,
		Owner:     owner,
		TickLower: cfg.TickLower,
		TickUpper: cfg.TickUpper,
	})
	if err != nil {
		return err
	}

	printValuation(w, pool, token0, token1, valuation, cfg.TickLower, cfg.TickUpper)

	reserve0, reserve1, err := state.Reserves(ctx, pool)
	if err != nil {
		logger.Warn("pool reserves unavailable", zap.Error(err))
		return nil
	}
	fmt.Fprintf(w, "pool reserves: %s %s / %s %s\n",
		pricing.FormatAmount(reserve0, token0.Decimals), token0.Label(),
		pricing.FormatAmount(reserve1, token1.Decimals), token1.Label())
	return nil
}

func printValuation(w io.Writer, pool model.Pool, token0, token1 model.Token, valuation position.Valuation, tickLower, tickUpper int32) {
	fmt.Fprintf(w, "pool:          %s (%s/%s, fee %d)\n", pool.Address.Hex(), token0.Label(), token1.Label(), pool.Fee)
	fmt.Fprintf(w, "range:         [%d, %d)  current tick %d  in range: %t\n", tickLower, tickUpper, valuation.State.Tick, valuation.InRange)
	fmt.Fprintf(w, "price:         %s %s per %s\n", valuation.Price.StringFixed(8), token1.Label(), token0.Label())
	// slot0's tick sits one below this after a downward swap ending on a tick boundary.
	if tick, err := clmath.TickAtSqrtRatio(valuation.State.SqrtPriceX96); err == nil {
		fmt.Fprintf(w, "sqrt price:    %s (tick %d)\n", bigString(valuation.State.SqrtPriceX96), tick)
	}
	fmt.Fprintf(w, "liquidity:     %s\n", bigString(valuation.Position.Liquidity))
	fmt.Fprintf(w, "amount0:       %s %s\n", pricing.FormatAmount(valuation.Amount0, token0.Decimals), token0.Label())
	fmt.Fprintf(w, "amount1:       %s %s\n", pricing.FormatAmount(valuation.Amount1, token1.Decimals), token1.Label())
	fmt.Fprintf(w, "fees0:         %s %s\n", pricing.FormatAmount(valuation.Fees0, token0.Decimals), token0.Label())
	fmt.Fprintf(w, "fees1:         %s %s\n", pricing.FormatAmount(valuation.Fees1, token1.Decimals), token1.Label())
}

func previewPosition(ctx context.Context, w io.Writer, valuer *position.Valuer, cfg config.PositionConfig, pool model.Pool, token0, token1 model.Token) error {
	amount, err := pricing.ParseDecimal(cfg.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", cfg.Amount, err)
	}
	minPercent, err := parsePercent(cfg.MinPercent)
	if err != nil {
		return err
	}
	maxPercent, err := parsePercent(cfg.MaxPercent)
	if err != nil {
		return err
	}
	var isToken0 bool
	switch cfg.AmountSide {
	case "0", "token0":
		isToken0 = true
	case "1", "token1":
	default:
		return fmt.Errorf("amount-side must be 0 or 1, got %q", cfg.AmountSide)
	}

	preview, err := valuer.Preview(ctx, position.PreviewRequest{
		Pool:           pool,
		Token0:         token0,
		Token1:         token1,
		MinPercent:     minPercent,
		MaxPercent:     maxPercent,
		Amount:         amount,
		AmountIsToken0: isToken0,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "pool:          %s (%s/%s, fee %d)\n", pool.Address.Hex(), token0.Label(), token1.Label(), pool.Fee)
	fmt.Fprintf(w, "range:         [%d, %d)  current tick %d\n", preview.TickLower, preview.TickUpper, preview.CurrentTick)
	fmt.Fprintf(w, "price:         %s (range %s .. %s)\n", preview.Price.StringFixed(8), preview.PriceLower.StringFixed(8), preview.PriceUpper.StringFixed(8))
	fmt.Fprintf(w, "deposit0:      %s %s\n", pricing.FormatAmount(preview.Amount0, token0.Decimals), token0.Label())
	fmt.Fprintf(w, "deposit1:      %s %s\n", pricing.FormatAmount(preview.Amount1, token1.Decimals), token1.Label())
	fmt.Fprintf(w, "liquidity:     %s\n", bigString(preview.Liquidity))
	return nil
}

// parsePercent maps an empty flag to nil.
func parsePercent(text string) (*float64, error) {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "%"))
	if text == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid percent %q: %w", text, err)
	}
	return &v, nil
}
