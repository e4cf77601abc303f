package clmath

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func ptr(v float64) *float64 { return &v }

func TestTickSpacingForFeeTier(t *testing.T) {
	want := map[uint32]int32{100: 1, 500: 10, 3000: 60, 10000: 200}
	for fee, spacing := range want {
		got, err := TickSpacingForFeeTier(fee)
		if err != nil {
			t.Fatalf("fee %d: %v", fee, err)
		}
		if got != spacing {
			t.Fatalf("fee %d: got %d want %d", fee, got, spacing)
		}
	}
	for _, fee := range []uint32{0, 250, 2500, 1000000} {
		if _, err := TickSpacingForFeeTier(fee); !errors.Is(err, ErrInvalidFeeTier) {
			t.Fatalf("fee %d: expected ErrInvalidFeeTier, got %v", fee, err)
		}
	}
}

func TestUsableTickBounds(t *testing.T) {
	lo, hi, err := UsableTickBounds(60)
	if err != nil {
		t.Fatalf("usable bounds: %v", err)
	}
	if lo != -887220 || hi != 887220 {
		t.Fatalf("got [%d, %d]", lo, hi)
	}
	if _, _, err := UsableTickBounds(0); !errors.Is(err, ErrInvalidTickSpacing) {
		t.Fatalf("expected ErrInvalidTickSpacing, got %v", err)
	}
}

func TestAlignTickRangeFromPercent(t *testing.T) {
	lower, upper, err := AlignTickRangeFromPercent(0, ptr(-10), ptr(10), 60)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if lower != -1080 || upper != 960 {
		t.Fatalf("got [%d, %d] want [-1080, 960]", lower, upper)
	}

	lower, upper, err = AlignTickRangeFromPercent(1234, nil, nil, 10)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if lower != -887270 || upper != 887270 {
		t.Fatalf("full range: got [%d, %d]", lower, upper)
	}
}

func TestAlignTickRangeWidensCollapsedRange(t *testing.T) {
	lower, upper, err := AlignTickRangeFromPercent(60, ptr(0), ptr(0), 60)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if lower != 60 || upper != 120 {
		t.Fatalf("got [%d, %d] want [60, 120]", lower, upper)
	}

	lower, upper, err = AlignTickRangeFromPercent(MaxTick, ptr(0), ptr(0), 60)
	if err != nil {
		t.Fatalf("align at max: %v", err)
	}
	if lower != 887160 || upper != 887220 {
		t.Fatalf("at max: got [%d, %d]", lower, upper)
	}
}

func TestAlignTickRangeRejects(t *testing.T) {
	if _, _, err := AlignTickRangeFromPercent(0, ptr(-100), nil, 60); !errors.Is(err, ErrInvalidPercent) {
		t.Fatalf("-100%%: expected ErrInvalidPercent, got %v", err)
	}
	if _, _, err := AlignTickRangeFromPercent(0, ptr(-150), nil, 60); !errors.Is(err, ErrInvalidPercent) {
		t.Fatalf("-150%%: expected ErrInvalidPercent, got %v", err)
	}
	if _, _, err := AlignTickRangeFromPercent(0, ptr(5), ptr(-5), 60); !errors.Is(err, ErrInvalidTickRange) {
		t.Fatalf("inverted: expected ErrInvalidTickRange, got %v", err)
	}
	if _, _, err := AlignTickRangeFromPercent(0, nil, nil, -1); !errors.Is(err, ErrInvalidTickSpacing) {
		t.Fatalf("spacing: expected ErrInvalidTickSpacing, got %v", err)
	}
	if _, _, err := AlignTickRangeFromPercent(MaxTick+1, nil, nil, 60); !errors.Is(err, ErrTickOutOfBounds) {
		t.Fatalf("tick: expected ErrTickOutOfBounds, got %v", err)
	}
}

func TestAlignTickRangeProperties(t *testing.T) {
	spacings := []int32{1, 10, 60, 200}
	rapid.Check(t, func(t *rapid.T) {
		spacing := rapid.SampledFrom(spacings).Draw(t, "spacing")
		current := rapid.Int32Range(-800000, 800000).Draw(t, "current")
		minPct := rapid.Float64Range(-99, 0).Draw(t, "minPct")
		maxPct := rapid.Float64Range(0, 500).Draw(t, "maxPct")

		lower, upper, err := AlignTickRangeFromPercent(current, &minPct, &maxPct, spacing)
		if err != nil {
			t.Fatalf("align: %v", err)
		}
		usableMin, usableMax, _ := UsableTickBounds(spacing)
		if lower%spacing != 0 || upper%spacing != 0 {
			t.Fatalf("[%d, %d] not on grid %d", lower, upper, spacing)
		}
		if lower >= upper {
			t.Fatalf("empty range [%d, %d]", lower, upper)
		}
		if lower < usableMin || upper > usableMax {
			t.Fatalf("[%d, %d] outside usable bounds", lower, upper)
		}
		if lower > current || upper < current {
			t.Fatalf("[%d, %d] does not contain current tick %d", lower, upper, current)
		}
	})
}
