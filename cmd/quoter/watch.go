package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quoteScope/internal/metrics"
	"quoteScope/internal/model"
	"quoteScope/internal/pricing"
	"quoteScope/internal/quote"
)

// runWatch reads one amount per stdin line and requotes through the
// debounced pipeline. Only the latest amount's outcome is printed.
func runWatch(cmd *cobra.Command, args []string) error {
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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	quoteMetrics := metrics.NewQuoteMetrics(reg)
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	w := cmd.OutOrStdout()
	var (
		printMu   sync.Mutex
		published uint64
	)
	notify := make(chan struct{}, 1)
	pipeline := quote.NewPipeline(quote.PipelineConfig{
		Debounce: cfg.Debounce,
		Metrics:  quoteMetrics,
	}, env.aggregator(quoteMetrics), func(update quote.Update) {
		printMu.Lock()
		defer printMu.Unlock()
		if update.Outcome.State == quote.Fetching {
			fmt.Fprintf(w, "[%d] fetching\n", update.Generation)
			return
		}
		fmt.Fprintf(w, "[%d]\n", update.Generation)
		if _, err := printOutcome(w, update.Outcome, userSlippage); err != nil {
			logger.Warn("render outcome failed", zap.Error(err))
		}
		published = update.Generation
		select {
		case notify <- struct{}{}:
		default:
		}
	}, logger)
	defer pipeline.Close()

	logger.Info("watch start",
		zap.String("kind", kind.String()),
		zap.String("token_in", tokenIn.Label()),
		zap.String("token_out", tokenOut.Label()),
		zap.Duration("debounce", cfg.Debounce),
		zap.String("metrics_addr", cfg.MetricsAddr),
	)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				scanErr <- nil
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return err
				}
				return waitPublished(ctx, pipeline, &printMu, &published, notify)
			}
			req, err := env.request(ctx, kind, tokenIn, tokenOut, line)
			if err != nil {
				if isCancelled(err) {
					return nil
				}
				logger.Warn("build request failed", zap.String("amount", line), zap.Error(err))
				continue
			}
			gen := pipeline.Submit(req)
			logger.Debug("request submitted", zap.Uint64("generation", gen), zap.String("amount", line))
		}
	}
}

// waitPublished blocks until the latest submitted generation has a final
// outcome printed.
func waitPublished(ctx context.Context, pipeline *quote.Pipeline, mu *sync.Mutex, published *uint64, notify <-chan struct{}) error {
	for {
		mu.Lock()
		done := *published >= pipeline.Generation()
		mu.Unlock()
		if done {
			return nil
		}
		select {
		case <-notify:
		case <-ctx.Done():
			return nil
		}
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
