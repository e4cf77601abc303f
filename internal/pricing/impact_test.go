package pricing

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"

	"quoteScope/internal/model"
)

var q96 = new(big.Int).Lsh(big.NewInt(1), 96)

func TestHopPriceImpact(t *testing.T) {
	after := new(big.Int).Mul(q96, big.NewInt(11))
	after.Quo(after, big.NewInt(10))
	// (1.1)^2 - 1 = 21%.
	got := HopPriceImpact(q96, after)
	if !got.Round(6).Equal(decimal.NewFromInt(21)) {
		t.Fatalf("got %s want 21", got)
	}

	if !HopPriceImpact(q96, q96).IsZero() {
		t.Fatalf("unchanged price should have zero impact")
	}
	if !HopPriceImpact(big.NewInt(0), q96).IsZero() {
		t.Fatalf("zero before should degrade to 0")
	}
	if !HopPriceImpact(nil, q96).IsZero() || !HopPriceImpact(q96, nil).IsZero() {
		t.Fatalf("nil input should degrade to 0")
	}
	if !HopPriceImpact(big.NewInt(-5), q96).IsZero() {
		t.Fatalf("negative before should degrade to 0")
	}
}

func TestHopPriceImpactNonNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		before := big.NewInt(rapid.Int64Range(1, 1<<62).Draw(t, "before"))
		after := big.NewInt(rapid.Int64Range(0, 1<<62).Draw(t, "after"))
		if HopPriceImpact(before, after).IsNegative() {
			t.Fatalf("negative impact for %s -> %s", before, after)
		}
		if !HopPriceImpact(before, before).IsZero() {
			t.Fatalf("non-zero impact for unchanged price %s", before)
		}
	})
}

func TestPathPriceImpactSumsAndCaps(t *testing.T) {
	up := new(big.Int).Mul(q96, big.NewInt(11))
	up.Quo(up, big.NewInt(10))
	path := model.QuotePath{
		{SqrtPriceBefore: q96, SqrtPriceAfter: up},
		{SqrtPriceBefore: q96, SqrtPriceAfter: up},
	}
	if got := PathPriceImpact(path); !got.Round(6).Equal(decimal.NewFromInt(42)) {
		t.Fatalf("got %s want 42", got)
	}

	huge := new(big.Int).Mul(q96, big.NewInt(10))
	capped := model.QuotePath{{SqrtPriceBefore: q96, SqrtPriceAfter: huge}}
	if got := PathPriceImpact(capped); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("got %s want 100", got)
	}

	if !PathPriceImpact(model.QuotePath{{SqrtPriceBefore: q96}}).IsZero() {
		t.Fatalf("unquoted hop should contribute 0")
	}
}

func TestPathPriceImpactBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, model.MaxPathHops).Draw(t, "hops")
		path := make(model.QuotePath, n)
		for i := range path {
			path[i].SqrtPriceBefore = big.NewInt(rapid.Int64Range(0, 1<<62).Draw(t, "before"))
			path[i].SqrtPriceAfter = big.NewInt(rapid.Int64Range(0, 1<<62).Draw(t, "after"))
		}
		got := PathPriceImpact(path)
		if got.IsNegative() || got.GreaterThan(decimal.NewFromInt(100)) {
			t.Fatalf("impact %s outside [0, 100]", got)
		}
	})
}

func TestSeverityFor(t *testing.T) {
	cases := map[string]Severity{
		"0":    SeverityNone,
		"0.99": SeverityNone,
		"1":    SeverityLow,
		"3":    SeverityModerate,
		"7.5":  SeverityHigh,
		"10":   SeverityExtreme,
		"100":  SeverityExtreme,
	}
	for in, want := range cases {
		if got := SeverityFor(decimal.RequireFromString(in)); got != want {
			t.Fatalf("%s: got %s want %s", in, got, want)
		}
	}
}
