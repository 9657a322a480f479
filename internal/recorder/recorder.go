package recorder

import "MarketReplay/internal/model"

// BarEvent records a bar entering the Displayed Series.
type BarEvent struct {
	Index      int
	Bar        model.Bar
	Superseded bool // finalized because the next bar arrived, not on DONE
}

// Recorder persists trades and replay history for later analysis.
type Recorder interface {
	RecordTrade(t *model.Trade) error
	RecordBar(evt *BarEvent) error
	ListTrades(limit int) ([]model.Trade, error)
	Close() error
}
