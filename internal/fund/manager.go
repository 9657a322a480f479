package fund

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"MarketReplay/internal/model"
)

var (
	// ErrInsufficientFunds is returned when a buy costs more than the cash balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientPosition is returned when a sell exceeds the shares held.
	ErrInsufficientPosition = errors.New("insufficient position")
)

// Manager holds the simulated account with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *model.FundState
	filePath string
}

// NewManager creates a Manager, loading or initializing state from disk.
// An empty filePath keeps the account in memory only.
func NewManager(filePath, name string, initialBalance float64) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}

	// Initialize if fresh state
	if state.InitialBalance.IsZero() && state.TradeCount == 0 {
		state.Name = name
		state.InitialBalance = decimal.NewFromFloat(initialBalance)
		state.Cash = state.InitialBalance
	}
	if state.Positions == nil {
		state.Positions = make(map[string]int64)
	}

	m := &Manager{state: state, filePath: filePath}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// GetState returns a copy of the current fund state.
func (m *Manager) GetState() model.FundState {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := *m.state
	st.Positions = make(map[string]int64, len(m.state.Positions))
	for k, v := range m.state.Positions {
		st.Positions[k] = v
	}
	return st
}

// Position returns the shares held in symbol.
func (m *Manager) Position(symbol string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Positions[symbol]
}

// Apply books a trade against the account. A buy needs enough cash for the
// notional; a sell needs enough shares.
func (m *Manager) Apply(t *model.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	notional := Notional(t)
	switch t.Action {
	case model.ActionBuy:
		if m.state.Cash.LessThan(notional) {
			return fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, notional.StringFixed(2), m.state.Cash.StringFixed(2))
		}
		m.state.Cash = m.state.Cash.Sub(notional)
		m.state.Positions[t.Symbol] += t.Quantity
	case model.ActionSell:
		if held := m.state.Positions[t.Symbol]; held < t.Quantity {
			return fmt.Errorf("%w: selling %d %s, holding %d", ErrInsufficientPosition, t.Quantity, t.Symbol, held)
		}
		m.state.Cash = m.state.Cash.Add(notional)
		m.state.Positions[t.Symbol] -= t.Quantity
	default:
		return fmt.Errorf("%w: %q", model.ErrInvalidAction, t.Action)
	}
	m.state.TradeCount++
	m.state.LastTradeAt = t.Time

	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save fund state: %v", err)
	}
	return nil
}

// Revert undoes a trade previously accepted by Apply.
func (m *Manager) Revert(t *model.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()

	notional := Notional(t)
	switch t.Action {
	case model.ActionBuy:
		m.state.Cash = m.state.Cash.Add(notional)
		m.state.Positions[t.Symbol] -= t.Quantity
	case model.ActionSell:
		m.state.Cash = m.state.Cash.Sub(notional)
		m.state.Positions[t.Symbol] += t.Quantity
	default:
		return
	}
	if m.state.Positions[t.Symbol] == 0 {
		delete(m.state.Positions, t.Symbol)
	}
	m.state.TradeCount--

	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save fund state after revert: %v", err)
	}
}

// Equity values cash plus positions at the given prices.
func (m *Manager) Equity(prices map[string]float64) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()

	eq := m.state.Cash
	for sym, qty := range m.state.Positions {
		if p, ok := prices[sym]; ok {
			eq = eq.Add(decimal.NewFromFloat(p).Mul(decimal.NewFromInt(qty)))
		}
	}
	return eq
}

// Notional is price times quantity.
func Notional(t *model.Trade) decimal.Decimal {
	return decimal.NewFromFloat(t.Price).Mul(decimal.NewFromInt(t.Quantity))
}

func (m *Manager) save() error {
	if m.filePath == "" {
		m.state.UpdatedAt = time.Now()
		return nil
	}
	return SaveState(m.filePath, m.state)
}
