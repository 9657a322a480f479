package trade

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"MarketReplay/internal/model"
	"MarketReplay/internal/recorder"
)

// ErrNoQuote is returned when there is no price to trade at yet.
var ErrNoQuote = errors.New("no quote available")

// MaxRandomQuantity bounds the share count picked when none is given.
const MaxRandomQuantity = 10

// Quoter supplies the current replay price.
type Quoter interface {
	Quote() (float64, bool)
}

// Account books trades against a balance.
type Account interface {
	Apply(t *model.Trade) error
	Revert(t *model.Trade)
}

// Desk turns buy/sell requests into priced, recorded trades.
type Desk struct {
	Symbol   string
	Quoter   Quoter
	Account  Account
	Recorder recorder.Recorder

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewDesk creates a Desk. A nil recorder records nothing.
func NewDesk(symbol string, q Quoter, acct Account, rec recorder.Recorder) *Desk {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Desk{
		Symbol:   symbol,
		Quoter:   q,
		Account:  acct,
		Recorder: rec,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// Submit prices a trade at the current quote rounded to cents. A quantity
// <= 0 picks a random size from 1 to MaxRandomQuantity.
func (d *Desk) Submit(action model.Action, quantity int64) (*model.Trade, error) {
	if action != model.ActionBuy && action != model.ActionSell {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidAction, action)
	}
	q, ok := d.Quoter.Quote()
	if !ok {
		return nil, ErrNoQuote
	}

	d.mu.Lock()
	if quantity <= 0 {
		quantity = int64(d.rng.Intn(MaxRandomQuantity)) + 1
	}
	now := d.now()
	d.mu.Unlock()

	t := &model.Trade{
		ID:       uuid.NewString(),
		Time:     now,
		Symbol:   d.Symbol,
		Action:   action,
		Quantity: quantity,
		Price:    decimal.NewFromFloat(q).Round(2).InexactFloat64(),
	}

	if d.Account != nil {
		if err := d.Account.Apply(t); err != nil {
			return nil, fmt.Errorf("%s %d %s: %w", t.Action, t.Quantity, t.Symbol, err)
		}
	}
	if err := d.Recorder.RecordTrade(t); err != nil {
		if d.Account != nil {
			d.Account.Revert(t)
		}
		return nil, fmt.Errorf("record trade: %w", err)
	}

	log.Printf("[INFO] trade %s: %s %d %s @ %.2f", t.ID, t.Action, t.Quantity, t.Symbol, t.Price)
	return t, nil
}
