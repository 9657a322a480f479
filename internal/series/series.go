// Package series holds the Displayed Series: the append-only list of
// finalized bars the chart renders.
package series

import "MarketReplay/internal/model"

// Series is an append-only, time-ordered list of finalized bars.
// It is not safe for concurrent use; its owner serializes access.
type Series struct {
	bars []model.Bar
}

// New returns an empty series with room for capacity bars.
func New(capacity int) *Series {
	if capacity < 0 {
		capacity = 0
	}
	return &Series{bars: make([]model.Bar, 0, capacity)}
}

// Append adds b to the end of the series and returns its index.
func (s *Series) Append(b model.Bar) int {
	s.bars = append(s.bars, b)
	return len(s.bars) - 1
}

// Len returns the number of finalized bars.
func (s *Series) Len() int { return len(s.bars) }

// Last returns the most recently appended bar.
func (s *Series) Last() (model.Bar, bool) {
	if len(s.bars) == 0 {
		return model.Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

// Snapshot returns a copy of the finalized bars.
func (s *Series) Snapshot() []model.Bar {
	out := make([]model.Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

// Merge returns a copy of bars followed by the in-progress candle, when
// there is one. This is what a chart draws.
func Merge(bars []model.Bar, active *model.ActiveCandle) []model.Bar {
	n := len(bars)
	if active != nil {
		n++
	}
	out := make([]model.Bar, 0, n)
	out = append(out, bars...)
	if active != nil {
		out = append(out, active.Bar())
	}
	return out
}
