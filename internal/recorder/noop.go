package recorder

import "MarketReplay/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTrade(_ *model.Trade) error        { return nil }
func (n *NoopRecorder) RecordBar(_ *BarEvent) error             { return nil }
func (n *NoopRecorder) ListTrades(_ int) ([]model.Trade, error) { return nil, nil }
func (n *NoopRecorder) Close() error                            { return nil }
