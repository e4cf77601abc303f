package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
)

func TestLoadQuoteDefaults(t *testing.T) {
	cfg, err := LoadQuote("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quoter != DefaultQuoterV2 || cfg.WrappedNative != DefaultWrappedNative {
		t.Fatalf("unexpected addresses %+v", cfg)
	}
	if cfg.MaxCandidates != 8 || cfg.Concurrency != 8 || cfg.Slippage != "auto" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Debounce != 300*time.Millisecond || cfg.MaxRetries != 3 || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadQuoteEnvAndFlags(t *testing.T) {
	t.Setenv("QUOTER_RPC", "http://env:8545")
	t.Setenv("QUOTER_POOL", " 0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640 , ,0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8")
	t.Setenv("QUOTER_MAX_CANDIDATES", "4")

	flags := pflag.NewFlagSet("quote", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("slippage", "auto", "")
	if err := flags.Parse([]string{"--rpc", "http://flag:8545", "--slippage", "0.5"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadQuote("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "http://flag:8545" {
		t.Fatalf("flag should win over env, got %s", cfg.RPCURL)
	}
	if cfg.Slippage != "0.5" || cfg.MaxCandidates != 4 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.Pools) != 2 {
		t.Fatalf("expected 2 cleaned pools, got %q", cfg.Pools)
	}
}

func TestLoadPositionFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "position.yaml")
	content := "rpc: http://file:8545\npool: \"0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640\"\ntick-lower: -600\ntick-upper: 600\nmin-percent: \"-5\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadPosition(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "http://file:8545" || cfg.TickLower != -600 || cfg.TickUpper != 600 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.MinPercent != "-5" || cfg.AmountSide != "0" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if _, err := LoadPosition(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected missing explicit config file to fail")
	}
}

func TestParseAddresses(t *testing.T) {
	got, err := ParseAddresses([]string{" 0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640", "", "0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 || got[0] != common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640") {
		t.Fatalf("unexpected addresses %v", got)
	}
	if _, err := ParseAddresses([]string{"0x1234"}); err == nil {
		t.Fatalf("expected invalid address to fail")
	}
	if _, err := ParseAddress("owner", ""); err == nil {
		t.Fatalf("expected empty address to fail")
	}
}
