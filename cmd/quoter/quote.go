package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quoteScope/internal/config"
	"quoteScope/internal/model"
	"quoteScope/internal/pricing"
	"quoteScope/internal/quote"
	"quoteScope/internal/storage"
)

func loadQuoteCommand(cmd *cobra.Command) (config.QuoteConfig, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return config.QuoteConfig{}, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.QuoteConfig{}, nil, err
	}
	return cfg, logger, nil
}

func runQuote(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadQuoteCommand(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	kindFlag, _ := cmd.Flags().GetString("kind")
	kind, err := model.ParseTradeKind(kindFlag)
	if err != nil {
		return err
	}
	userSlippage, err := pricing.ParseSlippage(cfg.Slippage)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := newRoutingEnv(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer env.Close()

	tokenIn, err := env.token(ctx, args[0])
	if err != nil {
		return err
	}
	tokenOut, err := env.token(ctx, args[1])
	if err != nil {
		return err
	}
	req, err := env.request(ctx, kind, tokenIn, tokenOut, args[2])
	if err != nil {
		return err
	}

	out := env.aggregator(nil).Quote(ctx, req)
	bound, err := printOutcome(cmd.OutOrStdout(), out, userSlippage)
	if err != nil {
		return err
	}
	if out.State != quote.Success {
		return fmt.Errorf("quote %s: %w", out.State, out.Reason)
	}

	record, err := storage.NewQuoteRecord(env.chainID, out.Quotation, bound, time.Now())
	if err != nil {
		return err
	}
	var journals []storage.Journal
	if cfg.Journal != "" {
		journals = append(journals, storage.NewJsonlJournal(cfg.Journal))
	}
	if env.store != nil {
		journals = append(journals, env.store)
	}
	for _, journal := range journals {
		if err := journal.PutQuoteBatch(ctx, []model.QuoteRecord{record}); err != nil {
			return fmt.Errorf("journal quote: %w", err)
		}
	}
	return nil
}

func runPaths(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadQuoteCommand(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := newRoutingEnv(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer env.Close()

	tokenIn, err := config.ParseAddress("token in", args[0])
	if err != nil {
		return err
	}
	tokenOut, err := config.ParseAddress("token out", args[1])
	if err != nil {
		return err
	}
	candidates, err := env.graph.Candidates(ctx, env.routeToken(tokenIn), env.routeToken(tokenOut))
	if err != nil {
		return err
	}

	printPaths(cmd.OutOrStdout(), candidates, len(env.graph.Pools()))
	return nil
}

// printPaths lists candidate routes, one line per path and one per hop.
func printPaths(w io.Writer, candidates []model.QuotePath, indexed int) {
	if len(candidates) == 0 {
		fmt.Fprintf(w, "no candidate paths among %d indexed pool(s)\n", indexed)
		return
	}
	fmt.Fprintf(w, "%d candidate path(s) among %d indexed pool(s)\n", len(candidates), indexed)
	for i, path := range candidates {
		fmt.Fprintf(w, "%d\t%d hop(s)\t%s\n", i, len(path), path)
		for _, hop := range path {
			fmt.Fprintf(w, "\tpool %s fee %d sqrtPriceX96 %s\n", hop.PoolAddress.Hex(), hop.FeeTier, bigString(hop.SqrtPriceBefore))
		}
	}
}

// printOutcome writes a human summary of out and returns the slippage bound
// of a successful quotation.
func printOutcome(w io.Writer, out quote.Outcome, userSlippage *decimal.Decimal) (model.SlippageBound, error) {
	switch out.State {
	case quote.Success:
	case quote.Empty, quote.Failed:
		fmt.Fprintf(w, "%s: %v\n", out.State, out.Reason)
		for _, failure := range out.Failures {
			fmt.Fprintf(w, "\tpath %s: %v\n", failure.Path, failure.Err)
		}
		return nil, nil
	default:
		fmt.Fprintln(w, out.State)
		return nil, nil
	}

	q := out.Quotation
	base := q.Base()
	slippage := pricing.ResolveSlippage(q, userSlippage)
	bound, err := pricing.Bound(q, slippage)
	if err != nil {
		return nil, err
	}

	impact := base.PriceImpactPercent
	fmt.Fprintf(w, "kind:          %s\n", q.Kind())
	fmt.Fprintf(w, "path:          %s\n", base.Path)
	fmt.Fprintf(w, "amount in:     %s %s\n", pricing.FormatAmount(base.AmountIn, base.TokenIn.Decimals), base.TokenIn.Label())
	fmt.Fprintf(w, "amount out:    %s %s\n", pricing.FormatAmount(base.AmountOut, base.TokenOut.Decimals), base.TokenOut.Label())
	fmt.Fprintf(w, "price:         %s\n", base.PricePerToken.StringFixed(8))
	fmt.Fprintf(w, "price impact:  %s%% (%s)\n", impact.StringFixed(4), pricing.SeverityFor(impact))
	fmt.Fprintf(w, "slippage:      %s%%\n", slippage.String())
	switch b := bound.(type) {
	case model.MinimumReceived:
		fmt.Fprintf(w, "min received:  %s %s\n", pricing.FormatAmount(b.Amount, base.TokenOut.Decimals), base.TokenOut.Label())
	case model.MaximumSent:
		fmt.Fprintf(w, "max sent:      %s %s\n", pricing.FormatAmount(b.Amount, base.TokenIn.Decimals), base.TokenIn.Label())
	}
	fmt.Fprintf(w, "gas estimate:  %s\n", bigString(base.GasEstimate))
	if n := len(out.Failures); n > 0 {
		fmt.Fprintf(w, "failed paths:  %d\n", n)
	}
	return bound, nil
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
