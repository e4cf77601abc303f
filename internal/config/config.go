package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Mainnet defaults.
const (
	DefaultQuoterV2      = "0x61fFE014bA17989E743c5F6cB21bF9697530B21e"
	DefaultNativeToken   = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"
	DefaultWrappedNative = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
)

// Chain holds settings shared by every command that talks to a node.
type Chain struct {
	RPCURL       string
	ChainID      uint64
	MaxRetries   int
	RetryBackoff time.Duration
	CallTimeout  time.Duration
	LogLevel     string
}

// QuoteConfig holds configuration for the quote, paths and watch commands.
type QuoteConfig struct {
	Chain
	Quoter        string
	Pools         []string
	PoolsFromDB   bool
	PGDSN         string
	NativeToken   string
	WrappedNative string
	MaxCandidates int
	Concurrency   int
	Slippage      string
	Journal       string
	Debounce      time.Duration
	MetricsAddr   string
}

// PositionConfig holds configuration for the position command.
type PositionConfig struct {
	Chain
	Pool       string
	Owner      string
	TickLower  int32
	TickUpper  int32
	MinPercent string
	MaxPercent string
	Amount     string
	AmountSide string
	Block      uint64
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("quoter", DefaultQuoterV2)
		v.SetDefault("native-token", DefaultNativeToken)
		v.SetDefault("wrapped-native", DefaultWrappedNative)
		v.SetDefault("max-candidates", 8)
		v.SetDefault("concurrency", 8)
		v.SetDefault("slippage", "auto")
		v.SetDefault("debounce", 300*time.Millisecond)
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	cfg := QuoteConfig{
		Chain:         loadChain(v),
		Quoter:        v.GetString("quoter"),
		Pools:         getStringSlice(v, "pool"),
		PoolsFromDB:   v.GetBool("pools-from-db"),
		PGDSN:         v.GetString("pg-dsn"),
		NativeToken:   v.GetString("native-token"),
		WrappedNative: v.GetString("wrapped-native"),
		MaxCandidates: v.GetInt("max-candidates"),
		Concurrency:   v.GetInt("concurrency"),
		Slippage:      v.GetString("slippage"),
		Journal:       v.GetString("journal"),
		Debounce:      v.GetDuration("debounce"),
		MetricsAddr:   v.GetString("metrics-addr"),
	}
	return cfg, nil
}

// LoadPosition merges config file, environment variables, and flags into PositionConfig.
func LoadPosition(cfgFile string, flags *pflag.FlagSet) (PositionConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("amount-side", "0")
	})
	if err != nil {
		return PositionConfig{}, err
	}

	cfg := PositionConfig{
		Chain:      loadChain(v),
		Pool:       v.GetString("pool"),
		Owner:      v.GetString("owner"),
		TickLower:  v.GetInt32("tick-lower"),
		TickUpper:  v.GetInt32("tick-upper"),
		MinPercent: v.GetString("min-percent"),
		MaxPercent: v.GetString("max-percent"),
		Amount:     v.GetString("amount"),
		AmountSide: v.GetString("amount-side"),
		Block:      v.GetUint64("block"),
	}
	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults func(*viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("QUOTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 250*time.Millisecond)
	v.SetDefault("call-timeout", 10*time.Second)
	v.SetDefault("log-level", "info")
	if defaults != nil {
		defaults(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func loadChain(v *viper.Viper) Chain {
	return Chain{
		RPCURL:       v.GetString("rpc"),
		ChainID:      v.GetUint64("chain-id"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		CallTimeout:  v.GetDuration("call-timeout"),
		LogLevel:     v.GetString("log-level"),
	}
}

// ParseAddresses converts string addresses into common.Address.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	return addresses, nil
}

// ParseAddress converts one required address.
func ParseAddress(name, input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return common.Address{}, fmt.Errorf("%s address is required", name)
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid %s address: %s", name, input)
	}
	return common.HexToAddress(input), nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
