package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundState is the simulated trading account.
type FundState struct {
	Name           string           `json:"name"`
	InitialBalance decimal.Decimal  `json:"initial_balance"`
	Cash           decimal.Decimal  `json:"cash"`
	Positions      map[string]int64 `json:"positions"`
	TradeCount     int              `json:"trade_count"`
	LastTradeAt    time.Time        `json:"last_trade_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
