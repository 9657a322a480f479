package notifier

import (
	"fmt"

	"MarketReplay/internal/model"
	"MarketReplay/internal/scheduler"
	"MarketReplay/internal/viewport"
)

// Message types sent to dashboard clients.
const (
	TypeStatus   = "status"
	TypeSnapshot = "snapshot"
	TypeTick     = "tick"
	TypeBarStart = "bar_start"
	TypeAppend   = "append"
	TypeDone     = "done"
	TypeWindow   = "window"
	TypeTrade    = "trade"
	TypeProfile  = "profile"
	TypeFinished = "finished"
	TypeControl  = "control"
)

// Toast levels, matching the dashboard's notification severities.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

type StatusMsg struct {
	Type  string `json:"type"` // "status"
	Level string `json:"level"`
	Text  string `json:"text"`
}

type SnapshotMsg struct {
	Type   string             `json:"type"` // "snapshot"
	Symbol string             `json:"symbol"`
	State  scheduler.Snapshot `json:"state"`
	Window viewport.Window    `json:"window"`
}

type CandleMsg struct {
	Type   string             `json:"type"` // "tick" | "bar_start"
	Candle model.ActiveCandle `json:"candle"`
}

type AppendMsg struct {
	Type string              `json:"type"` // "append"
	Bar  scheduler.Finalized `json:"bar"`
}

type DoneMsg struct {
	Type string    `json:"type"` // "done"
	Bar  model.Bar `json:"bar"`
}

type WindowMsg struct {
	Type   string          `json:"type"` // "window"
	Window viewport.Window `json:"window"`
}

type TradeMsg struct {
	Type  string      `json:"type"` // "trade"
	Trade model.Trade `json:"trade"`
}

type ProfileMsg struct {
	Type           string           `json:"type"` // "profile"
	Name           string           `json:"name"`
	CurrentBalance float64          `json:"currentBalance"`
	AvailableFunds float64          `json:"availableFunds"`
	Positions      map[string]int64 `json:"positions"`
}

type FinishedMsg struct {
	Type string `json:"type"` // "finished"
	Bars int    `json:"bars"`
}

// ControlMsg is sent by clients, e.g. {"type":"control","action":"zoom","value":-120}.
type ControlMsg struct {
	Type   string `json:"type"`   // "control"
	Action string `json:"action"` // zoom, pan, trade, snapshot
	Value  any    `json:"value,omitempty"`
}

// Status builds a toast message.
func Status(level, format string, args ...any) StatusMsg {
	return StatusMsg{Type: TypeStatus, Level: level, Text: fmt.Sprintf(format, args...)}
}

// FormatTradeSuccess is the toast shown after an accepted order.
func FormatTradeSuccess(t *model.Trade) string {
	return fmt.Sprintf("%s order for %d shares of %s placed successfully!", t.Action, t.Quantity, t.Symbol)
}

// FormatTradeFailure is the toast shown when an order is rejected.
func FormatTradeFailure(action model.Action, quantity int64, symbol string, err error) string {
	if quantity > 0 {
		return fmt.Sprintf("Failed to place %s order for %d shares of %s: %v", action, quantity, symbol, err)
	}
	return fmt.Sprintf("Failed to place %s order for %s: %v", action, symbol, err)
}
