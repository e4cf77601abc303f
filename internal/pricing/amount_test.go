package pricing

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"quoteScope/internal/model"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		text     string
		decimals uint8
		want     string
	}{
		{"100", 6, "100000000"},
		{"1.5", 18, "1500000000000000000"},
		{" 0.000001 ", 6, "1"},
		{"0", 6, "0"},
		{"1.50", 1, "15"},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.text, tc.decimals)
		if err != nil {
			t.Fatalf("%q: %v", tc.text, err)
		}
		if got.String() != tc.want {
			t.Fatalf("%q: got %s want %s", tc.text, got, tc.want)
		}
	}
}

func TestParseAmountRejects(t *testing.T) {
	rejects := []string{
		"", "abc", "-1", "0.0000001", "1,5",
		"1e400000000", "1e2147483640", "1e-2147483640", "1e-400000000",
		"1e73", "1" + strings.Repeat("0", 80),
	}
	for _, text := range rejects {
		if _, err := ParseAmount(text, 6); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q: expected ErrInvalidAmount, got %v", text, err)
		}
	}
}

func TestParseAmountLargestRaw(t *testing.T) {
	maxUint := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	got, err := ParseAmount(maxUint.String(), 0)
	if err != nil {
		t.Fatalf("max uint256: %v", err)
	}
	if got.Cmp(maxUint) != 0 {
		t.Fatalf("got %s want %s", got, maxUint)
	}
	if _, err := ParseAmount(new(big.Int).Add(maxUint, big.NewInt(1)).String(), 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("2^256: expected ErrInvalidAmount, got %v", err)
	}
	got, err = ParseAmount("1e50", 18)
	if err != nil {
		t.Fatalf("1e50: %v", err)
	}
	if got.String() != "1"+strings.Repeat("0", 68) {
		t.Fatalf("1e50 scaled: got %s", got)
	}
	if _, err := ParseAmount("1e60", 18); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("1e60 scaled past 2^256: expected ErrInvalidAmount, got %v", err)
	}
}

func TestParseDecimalBoundsExponent(t *testing.T) {
	for _, text := range []string{"1e79", "1e-79", "5e400000000"} {
		if _, err := ParseDecimal(text); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q: expected ErrInvalidAmount, got %v", text, err)
		}
	}
	v, err := ParseDecimal(" 2.5e3 ")
	if err != nil {
		t.Fatalf("2.5e3: %v", err)
	}
	if v.String() != "2500" {
		t.Fatalf("got %s want 2500", v)
	}
}

func TestFormatAmount(t *testing.T) {
	raw, _ := new(big.Int).SetString("1500000000000000000", 10)
	if got := FormatAmount(raw, 18); got != "1.5" {
		t.Fatalf("got %s want 1.5", got)
	}
	if got := FormatAmount(big.NewInt(100000000), 6); got != "100" {
		t.Fatalf("got %s want 100", got)
	}
	if got := FormatAmount(nil, 6); got != "0" {
		t.Fatalf("got %s want 0", got)
	}
}

func TestPricePerToken(t *testing.T) {
	usdc := model.Token{Decimals: 6}
	weth := model.Token{Decimals: 18}
	in := big.NewInt(100_000_000)
	out, _ := new(big.Int).SetString("50000000000000000", 10)

	got := PricePerToken(model.ExactInput, usdc, weth, in, out)
	if !got.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("exact input: got %s want 2000", got)
	}
	got = PricePerToken(model.ExactOutput, usdc, weth, in, out)
	if !got.Equal(decimal.RequireFromString("0.0005")) {
		t.Fatalf("exact output: got %s want 0.0005", got)
	}
	if !PricePerToken(model.ExactInput, usdc, weth, in, big.NewInt(0)).IsZero() {
		t.Fatalf("zero divisor should yield 0")
	}
}
