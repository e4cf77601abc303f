package clmath

import (
	"fmt"
	"math"
)

// TickSpacingForFeeTier maps a pool fee (hundredths of a bip) to its tick spacing.
func TickSpacingForFeeTier(fee uint32) (int32, error) {
	switch fee {
	case 100:
		return 1, nil
	case 500:
		return 10, nil
	case 3000:
		return 60, nil
	case 10000:
		return 200, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidFeeTier, fee)
	}
}

// UsableTickBounds returns the lowest and highest ticks on the spacing grid
// that lie inside [MinTick, MaxTick].
func UsableTickBounds(spacing int32) (int32, int32, error) {
	if spacing <= 0 {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidTickSpacing, spacing)
	}
	return MinTick / spacing * spacing, MaxTick / spacing * spacing, nil
}

// AlignTickRangeFromPercent turns percentage offsets from the current price
// into a tick range on the spacing grid. A nil bound selects the usable
// minimum or maximum tick. The lower tick is rounded down and the upper tick
// rounded up, so the resulting price range always covers the requested one.
func AlignTickRangeFromPercent(currentTick int32, minPercent, maxPercent *float64, spacing int32) (int32, int32, error) {
	if currentTick < MinTick || currentTick > MaxTick {
		return 0, 0, fmt.Errorf("%w: %d", ErrTickOutOfBounds, currentTick)
	}
	usableMin, usableMax, err := UsableTickBounds(spacing)
	if err != nil {
		return 0, 0, err
	}
	if minPercent != nil && maxPercent != nil && *minPercent > *maxPercent {
		return 0, 0, fmt.Errorf("%w: min percent %v above max percent %v", ErrInvalidTickRange, *minPercent, *maxPercent)
	}

	lower := usableMin
	if minPercent != nil {
		offset, err := percentToTickOffset(*minPercent)
		if err != nil {
			return 0, 0, err
		}
		lower = floorToSpacing(clampTick(math.Floor(float64(currentTick)+offset)), spacing)
	}

	upper := usableMax
	if maxPercent != nil {
		offset, err := percentToTickOffset(*maxPercent)
		if err != nil {
			return 0, 0, err
		}
		upper = ceilToSpacing(clampTick(math.Ceil(float64(currentTick)+offset)), spacing)
	}

	if lower < usableMin {
		lower = usableMin
	}
	if lower > usableMax {
		lower = usableMax
	}
	if upper > usableMax {
		upper = usableMax
	}
	if upper < usableMin {
		upper = usableMin
	}

	if lower >= upper {
		upper = lower + spacing
		if upper > usableMax {
			upper = usableMax
			lower = upper - spacing
		}
	}
	return lower, upper, nil
}

func percentToTickOffset(percent float64) (float64, error) {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPercent, percent)
	}
	ratio := (100 + percent) / 100
	if ratio <= 0 {
		return 0, fmt.Errorf("%w: %v%% would make the price non-positive", ErrInvalidPercent, percent)
	}
	return math.Log(ratio) / math.Log(1.0001), nil
}

func clampTick(t float64) int32 {
	if t < float64(MinTick) {
		return MinTick
	}
	if t > float64(MaxTick) {
		return MaxTick
	}
	return int32(t)
}

func floorToSpacing(tick, spacing int32) int32 {
	q := tick / spacing
	if tick%spacing != 0 && tick < 0 {
		q--
	}
	return q * spacing
}

func ceilToSpacing(tick, spacing int32) int32 {
	q := tick / spacing
	if tick%spacing != 0 && tick > 0 {
		q++
	}
	return q * spacing
}
