// Package dashboard connects a playback run to its viewers: scheduler events
// become feed messages and viewport updates, and viewer controls become
// zoom, pan and trade requests.
package dashboard

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"MarketReplay/internal/metrics"
	"MarketReplay/internal/model"
	"MarketReplay/internal/notifier"
	"MarketReplay/internal/recorder"
	"MarketReplay/internal/scheduler"
	"MarketReplay/internal/viewport"
)

// Broadcaster delivers a message to every viewer.
type Broadcaster interface {
	Broadcast(v any)
}

// Replier delivers a message to the viewer that sent a control.
type Replier interface {
	Send(v any) bool
}

// Snapshotter exposes the replay's displayed state.
type Snapshotter interface {
	Snapshot() scheduler.Snapshot
}

// Submitter places trades.
type Submitter interface {
	Submit(action model.Action, quantity int64) (*model.Trade, error)
}

// Profiler reports the simulated account.
type Profiler interface {
	GetState() model.FundState
}

// Dashboard implements scheduler.Listener. Listener methods run on the
// scheduler's loop; control methods may run on any goroutine.
type Dashboard struct {
	Symbol   string
	Out      Broadcaster
	View     *viewport.Controller
	Replay   Snapshotter
	Desk     Submitter
	Account  Profiler
	Recorder recorder.Recorder

	appended int
	active   bool
	noData   *notifier.StatusMsg
}

// New creates a Dashboard whose viewport starts empty and follows the series.
func New(symbol string, out Broadcaster) *Dashboard {
	return &Dashboard{
		Symbol:   symbol,
		Out:      out,
		View:     viewport.New(0),
		Recorder: recorder.NewNoopRecorder(),
	}
}

var _ scheduler.Listener = (*Dashboard)(nil)

func (d *Dashboard) OnBarStart(c model.ActiveCandle) {
	metrics.BarsStartedTotal.Inc()
	d.active = true
	d.Out.Broadcast(notifier.CandleMsg{Type: notifier.TypeBarStart, Candle: c})
	d.resize()
}

func (d *Dashboard) OnTick(c model.ActiveCandle) {
	metrics.TicksTotal.Inc()
	metrics.LastPrice.Set(c.Close)
	d.Out.Broadcast(notifier.CandleMsg{Type: notifier.TypeTick, Candle: c})
}

func (d *Dashboard) OnDone(final model.Bar) {
	d.Out.Broadcast(notifier.DoneMsg{Type: notifier.TypeDone, Bar: final})
}

func (d *Dashboard) OnSeriesAppend(f scheduler.Finalized) {
	cause := "done"
	switch {
	case f.Preloaded:
		cause = "preload"
	case f.Superseded:
		cause = "superseded"
	}
	metrics.BarsAppendedTotal.WithLabelValues(cause).Inc()
	metrics.DisplayedBars.Set(float64(f.Index + 1))

	d.appended = f.Index + 1
	d.active = false
	if !f.Preloaded {
		if err := d.Recorder.RecordBar(&recorder.BarEvent{Index: f.Index, Bar: f.Bar, Superseded: f.Superseded}); err != nil {
			log.Printf("[ERROR] record bar %d: %v", f.Index, err)
		}
	}
	d.Out.Broadcast(notifier.AppendMsg{Type: notifier.TypeAppend, Bar: f})
	d.resize()
}

// Finish tells viewers that playback has ended.
func (d *Dashboard) Finish(bars int) {
	d.Out.Broadcast(notifier.FinishedMsg{Type: notifier.TypeFinished, Bars: bars})
	d.Out.Broadcast(notifier.Status(notifier.LevelInfo, "Replay finished after %d bars", bars))
}

// resize keeps the viewport's index space equal to the chart's point count.
func (d *Dashboard) resize() {
	n := d.appended
	if d.active {
		n++
	}
	before := d.View.Window()
	if w := d.View.SetLength(n); w != before {
		d.Out.Broadcast(notifier.WindowMsg{Type: notifier.TypeWindow, Window: w})
	}
}

// Zoom applies a scroll gesture and broadcasts the new window.
func (d *Dashboard) Zoom(dy float64) viewport.Window {
	w := d.View.Zoom(dy)
	d.Out.Broadcast(notifier.WindowMsg{Type: notifier.TypeWindow, Window: w})
	return w
}

// Pan applies a drag gesture and broadcasts the new window.
func (d *Dashboard) Pan(ox float64) viewport.Window {
	w := d.View.Pan(ox)
	d.Out.Broadcast(notifier.WindowMsg{Type: notifier.TypeWindow, Window: w})
	return w
}

// Trade submits an order. Accepted trades are broadcast with a success toast
// and the updated profile.
func (d *Dashboard) Trade(action model.Action, quantity int64) (*model.Trade, error) {
	if d.Desk == nil {
		return nil, fmt.Errorf("trading is disabled")
	}
	t, err := d.Desk.Submit(action, quantity)
	if err != nil {
		metrics.TradesTotal.WithLabelValues(string(action), "rejected").Inc()
		log.Printf("[WARN] %s order rejected: %v", action, err)
		return nil, err
	}
	metrics.TradesTotal.WithLabelValues(string(action), "accepted").Inc()
	d.Out.Broadcast(notifier.TradeMsg{Type: notifier.TypeTrade, Trade: *t})
	d.Out.Broadcast(notifier.Status(notifier.LevelSuccess, "%s", notifier.FormatTradeSuccess(t)))
	if p, ok := d.Profile(); ok {
		d.Out.Broadcast(p)
	}
	return t, nil
}

// Profile reports the simulated account valued at the latest close.
func (d *Dashboard) Profile() (notifier.ProfileMsg, bool) {
	if d.Account == nil {
		return notifier.ProfileMsg{}, false
	}
	st := d.Account.GetState()
	cash := st.Cash.InexactFloat64()
	balance := cash
	if d.Replay != nil {
		pts := d.Replay.Snapshot().Points()
		if len(pts) > 0 {
			balance += float64(st.Positions[d.Symbol]) * pts[len(pts)-1].Close
		}
	}
	return notifier.ProfileMsg{
		Type:           notifier.TypeProfile,
		Name:           st.Name,
		CurrentBalance: balance,
		AvailableFunds: cash,
		Positions:      st.Positions,
	}, true
}

// NoData marks the replay as unavailable: playback never starts, and every
// viewer, current or future, is told so.
func (d *Dashboard) NoData() {
	st := notifier.Status(notifier.LevelError, "No data available for %s", d.Symbol)
	d.noData = &st
	d.Out.Broadcast(st)
}

// Greeting returns the messages a newly connected viewer needs to draw the chart.
func (d *Dashboard) Greeting() []any {
	var msgs []any
	if d.noData != nil {
		msgs = append(msgs, *d.noData)
	}
	msgs = append(msgs, d.SnapshotMsg())
	if p, ok := d.Profile(); ok {
		msgs = append(msgs, p)
	}
	return msgs
}

// SnapshotMsg captures the displayed state and window.
func (d *Dashboard) SnapshotMsg() notifier.SnapshotMsg {
	m := notifier.SnapshotMsg{Type: notifier.TypeSnapshot, Symbol: d.Symbol, Window: d.View.Window()}
	if d.Replay != nil {
		m.State = d.Replay.Snapshot()
	}
	return m
}

// HandleControl dispatches a viewer's control message.
func (d *Dashboard) HandleControl(r Replier, ctrl notifier.ControlMsg) {
	switch ctrl.Action {
	case "zoom":
		dy, ok := toFloat(ctrl.Value)
		if !ok {
			r.Send(notifier.Status(notifier.LevelWarning, "zoom needs a numeric value"))
			return
		}
		d.Zoom(dy)
	case "pan":
		ox, ok := toFloat(ctrl.Value)
		if !ok {
			r.Send(notifier.Status(notifier.LevelWarning, "pan needs a numeric value"))
			return
		}
		d.Pan(ox)
	case "trade":
		action, qty, err := parseTrade(ctrl.Value)
		if err != nil {
			r.Send(notifier.Status(notifier.LevelError, "%v", err))
			return
		}
		if _, err := d.Trade(action, qty); err != nil {
			r.Send(notifier.Status(notifier.LevelError, "%s", notifier.FormatTradeFailure(action, qty, d.Symbol, err)))
		}
	case "snapshot":
		r.Send(d.SnapshotMsg())
	default:
		r.Send(notifier.Status(notifier.LevelWarning, "unknown action %q", ctrl.Action))
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// parseTrade accepts "Buy", {"action":"Sell"} or {"action":"Buy","quantity":3}.
func parseTrade(v any) (model.Action, int64, error) {
	switch x := v.(type) {
	case string:
		a, err := model.ParseAction(x)
		return a, 0, err
	case map[string]any:
		s, _ := x["action"].(string)
		a, err := model.ParseAction(s)
		if err != nil {
			return "", 0, err
		}
		var qty int64
		if q, ok := toFloat(x["quantity"]); ok {
			qty = int64(q)
		}
		return a, qty, nil
	default:
		return "", 0, fmt.Errorf("%w: missing", model.ErrInvalidAction)
	}
}
