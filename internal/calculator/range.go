package calculator

import (
	"errors"
	"math"

	"MarketReplay/internal/model"
)

// ErrEmptyWindow is returned when a window selects no bars.
var ErrEmptyWindow = errors.New("no bars in window")

// PriceRange scans bars[lo..hi] (inclusive, clamped to the slice) and returns
// the lowest low and highest high.
func PriceRange(bars []model.Bar, lo, hi int) (low, high float64, err error) {
	if lo < 0 {
		lo = 0
	}
	if hi > len(bars)-1 {
		hi = len(bars) - 1
	}
	if len(bars) == 0 || lo > hi {
		return 0, 0, ErrEmptyWindow
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := lo; i <= hi; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return low, high, nil
}

// PaddedRange widens [low, high] by pad (a fraction of the span) on both
// sides so candles do not touch the chart edges. A flat range gets a 1%
// band around the price.
func PaddedRange(low, high, pad float64) (float64, float64) {
	span := high - low
	if span <= 0 {
		band := math.Abs(high) * 0.01
		if band == 0 {
			band = 1
		}
		return low - band, high + band
	}
	return low - span*pad, high + span*pad
}

// Position returns where price sits within [low, high], clamped to 0.0~1.0.
func Position(price, low, high float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (price - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
