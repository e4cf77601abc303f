package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "quoter",
		Short:        "Uniswap V3 quote router and position calculator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote <token-in> <token-out> <amount>",
		Short: "Quote the best path for a swap and print its slippage bound",
		Args:  cobra.ExactArgs(3),
		RunE:  runQuote,
	}
	addChainFlags(quoteCmd)
	addRoutingFlags(quoteCmd)
	quoteCmd.Flags().String("kind", "in", "trade kind: in (exact input) or out (exact output)")
	quoteCmd.Flags().String("slippage", "auto", "slippage percent, or auto")
	quoteCmd.Flags().String("journal", "", "append the quotation to this JSONL file")
	root.AddCommand(quoteCmd)

	pathsCmd := &cobra.Command{
		Use:   "paths <token-in> <token-out>",
		Short: "List candidate paths between two tokens",
		Args:  cobra.ExactArgs(2),
		RunE:  runPaths,
	}
	addChainFlags(pathsCmd)
	addRoutingFlags(pathsCmd)
	root.AddCommand(pathsCmd)

	watchCmd := &cobra.Command{
		Use:   "watch <token-in> <token-out>",
		Short: "Read amounts from stdin and requote as they change",
		Args:  cobra.ExactArgs(2),
		RunE:  runWatch,
	}
	addChainFlags(watchCmd)
	addRoutingFlags(watchCmd)
	watchCmd.Flags().String("kind", "in", "trade kind: in (exact input) or out (exact output)")
	watchCmd.Flags().String("slippage", "auto", "slippage percent, or auto")
	watchCmd.Flags().Duration("debounce", 300*time.Millisecond, "delay before requoting after input changes")
	watchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")
	root.AddCommand(watchCmd)

	positionCmd := &cobra.Command{
		Use:   "position",
		Short: "Value a liquidity position or preview a new one",
		RunE:  runPosition,
	}
	addChainFlags(positionCmd)
	positionCmd.Flags().String("pool", "", "pool address")
	positionCmd.Flags().String("owner", "", "position owner (the NFT manager for minted positions)")
	positionCmd.Flags().Int32("tick-lower", 0, "position lower tick")
	positionCmd.Flags().Int32("tick-upper", 0, "position upper tick")
	positionCmd.Flags().String("min-percent", "", "preview: lower bound as percent from current price")
	positionCmd.Flags().String("max-percent", "", "preview: upper bound as percent from current price")
	positionCmd.Flags().String("amount", "", "preview: deposit amount of one token")
	positionCmd.Flags().String("amount-side", "0", "preview: which token the amount is in (0 or 1)")
	positionCmd.Flags().Uint64("block", 0, "read state at this block, 0 means latest")
	root.AddCommand(positionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "Ethereum RPC URL")
	cmd.Flags().Uint64("chain-id", 0, "chain id, 0 means ask the node")
	cmd.Flags().Int("max-retries", 3, "maximum retry attempts per call")
	cmd.Flags().Duration("retry-backoff", 250*time.Millisecond, "initial retry backoff")
	cmd.Flags().Duration("call-timeout", 10*time.Second, "timeout per contract call")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func addRoutingFlags(cmd *cobra.Command) {
	cmd.Flags().String("quoter", "", "QuoterV2 contract address")
	cmd.Flags().StringSlice("pool", nil, "pool addresses to route through (comma-separated)")
	cmd.Flags().Bool("pools-from-db", false, "load the pool registry from Postgres")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for the pool registry and quote journal")
	cmd.Flags().Int("max-candidates", 8, "maximum candidate paths per request")
	cmd.Flags().Int("concurrency", 8, "maximum concurrent quoter calls")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
