package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidAction is returned for trade actions other than Buy and Sell.
var ErrInvalidAction = errors.New("invalid trade action")

// Action is the side of a simulated order.
type Action string

const (
	ActionBuy  Action = "Buy"
	ActionSell Action = "Sell"
)

// ParseAction accepts "buy"/"sell" in any case.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return ActionBuy, nil
	case "sell":
		return ActionSell, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}

// Trade is a simulated order priced at the replay's current close.
type Trade struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Symbol   string    `json:"stock"`
	Action   Action    `json:"action"`
	Quantity int64     `json:"quantity"`
	Price    float64   `json:"price"`
}
