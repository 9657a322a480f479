package dashboard

import (
	"errors"
	"testing"
	"time"

	"MarketReplay/internal/animator"
	"MarketReplay/internal/clock"
	"MarketReplay/internal/fund"
	"MarketReplay/internal/model"
	"MarketReplay/internal/notifier"
	"MarketReplay/internal/scheduler"
	"MarketReplay/internal/trade"
	"MarketReplay/internal/viewport"
)

type sink struct {
	msgs []any
}

func (s *sink) Broadcast(v any) { s.msgs = append(s.msgs, v) }
func (s *sink) Send(v any) bool { s.msgs = append(s.msgs, v); return true }

func (s *sink) count(typ string) int {
	n := 0
	for _, m := range s.msgs {
		if msgType(m) == typ {
			n++
		}
	}
	return n
}

func (s *sink) last() any {
	if len(s.msgs) == 0 {
		return nil
	}
	return s.msgs[len(s.msgs)-1]
}

func msgType(m any) string {
	switch v := m.(type) {
	case notifier.StatusMsg:
		return v.Type
	case notifier.SnapshotMsg:
		return v.Type
	case notifier.CandleMsg:
		return v.Type
	case notifier.AppendMsg:
		return v.Type
	case notifier.DoneMsg:
		return v.Type
	case notifier.WindowMsg:
		return v.Type
	case notifier.TradeMsg:
		return v.Type
	case notifier.ProfileMsg:
		return v.Type
	case notifier.FinishedMsg:
		return v.Type
	}
	return ""
}

type constRand float64

func (c constRand) Float64() float64 { return float64(c) }

func bars() []model.Bar {
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return []model.Bar{
		{Time: t0, Open: 10, High: 12, Low: 9, Close: 11, Volume: 100},
		{Time: t0.AddDate(0, 0, 1), Open: 11, High: 13, Low: 10, Close: 12, Volume: 100},
		{Time: t0.AddDate(0, 0, 2), Open: 12, High: 14, Low: 11, Close: 13, Volume: 100},
	}
}

func startReplay(t *testing.T, d *Dashboard, clk *clock.Manual) *scheduler.Scheduler {
	t.Helper()
	s, err := scheduler.New(bars(), scheduler.Options{
		Cadence:   60 * time.Second,
		Tick:      time.Second,
		Animator:  animator.Config{SnapEpsilon: 0.005},
		Preload:   1,
		BarClock:  clk,
		TickClock: clk,
		Rand:      constRand(0.5),
		Listener:  d,
	})
	if err != nil {
		t.Fatal(err)
	}
	d.Replay = s
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Stop)
	return s
}

func TestDashboard_FollowsSeries(t *testing.T) {
	out := &sink{}
	d := New("AAPL", out)
	clk := clock.NewManual()
	startReplay(t, d, clk)

	// preloaded bar + active candle
	if n := d.View.Len(); n != 2 {
		t.Fatalf("expected 2 chart points after start, got %d", n)
	}
	if w := d.View.Window(); w != (viewport.Window{XStart: 0, XEnd: 1}) {
		t.Errorf("expected window 0..1, got %+v", w)
	}
	if out.count(notifier.TypeAppend) != 1 || out.count(notifier.TypeBarStart) != 1 {
		t.Errorf("unexpected start messages: %d append, %d bar_start",
			out.count(notifier.TypeAppend), out.count(notifier.TypeBarStart))
	}

	clk.Advance(60 * time.Second)
	if n := d.View.Len(); n != 3 {
		t.Fatalf("expected 3 chart points after one period, got %d", n)
	}
	if w := d.View.Window(); w.XEnd != 2 {
		t.Errorf("expected window to follow the tail, got %+v", w)
	}
	if got := out.count(notifier.TypeTick); got != 60 {
		t.Errorf("expected 60 tick messages, got %d", got)
	}

	var superseded int
	for _, m := range out.msgs {
		if a, ok := m.(notifier.AppendMsg); ok && a.Bar.Superseded {
			superseded++
		}
	}
	if superseded != 1 {
		t.Errorf("expected 1 superseded append, got %d", superseded)
	}
}

func TestDashboard_Controls(t *testing.T) {
	out := &sink{}
	d := New("AAPL", out)
	clk := clock.NewManual()
	s := startReplay(t, d, clk)
	clk.Advance(60 * time.Second)

	acct, _ := fund.NewManager("", "John Doe", 1000)
	d.Account = acct
	d.Desk = trade.NewDesk("AAPL", s, acct, nil)

	reply := &sink{}
	d.HandleControl(reply, notifier.ControlMsg{Type: "control", Action: "zoom", Value: float64(-120)})
	if w := out.last().(notifier.WindowMsg).Window; w != (viewport.Window{XStart: 0, XEnd: 1.8}) {
		t.Errorf("expected zoomed window 0..1.8, got %+v", w)
	}
	d.HandleControl(reply, notifier.ControlMsg{Type: "control", Action: "pan", Value: "-10"})
	if w := out.last().(notifier.WindowMsg).Window; w != (viewport.Window{XStart: 1, XEnd: 2}) {
		t.Errorf("expected panned window 1..2, got %+v", w)
	}

	d.HandleControl(reply, notifier.ControlMsg{Type: "control", Action: "trade", Value: map[string]any{"action": "buy", "quantity": float64(3)}})
	if out.count(notifier.TypeTrade) != 1 || out.count(notifier.TypeProfile) != 1 {
		t.Fatalf("expected trade and profile broadcasts, got %d and %d",
			out.count(notifier.TypeTrade), out.count(notifier.TypeProfile))
	}
	if acct.Position("AAPL") != 3 {
		t.Errorf("expected 3 shares, got %d", acct.Position("AAPL"))
	}

	d.HandleControl(reply, notifier.ControlMsg{Type: "control", Action: "trade", Value: "Sell"})
	d.HandleControl(reply, notifier.ControlMsg{Type: "control", Action: "trade", Value: map[string]any{"action": "sell", "quantity": float64(100)}})
	if st, ok := reply.last().(notifier.StatusMsg); !ok || st.Level != notifier.LevelError {
		t.Errorf("expected error toast for oversized sell, got %+v", reply.last())
	}

	d.HandleControl(reply, notifier.ControlMsg{Type: "control", Action: "snapshot"})
	snap, ok := reply.last().(notifier.SnapshotMsg)
	if !ok || snap.Symbol != "AAPL" || snap.State.Len() != 3 {
		t.Errorf("unexpected snapshot reply: %+v", reply.last())
	}

	d.HandleControl(reply, notifier.ControlMsg{Type: "control", Action: "zoom", Value: "lots"})
	if st := reply.last().(notifier.StatusMsg); st.Level != notifier.LevelWarning {
		t.Errorf("expected warning for bad zoom value, got %+v", st)
	}
	d.HandleControl(reply, notifier.ControlMsg{Type: "control", Action: "rewind"})
	if st := reply.last().(notifier.StatusMsg); st.Level != notifier.LevelWarning {
		t.Errorf("expected warning for unknown action, got %+v", st)
	}
}

func TestDashboard_TradeDisabled(t *testing.T) {
	d := New("AAPL", &sink{})
	if _, err := d.Trade(model.ActionBuy, 1); err == nil {
		t.Error("expected error without a desk")
	}
}

func TestParseTrade(t *testing.T) {
	tests := []struct {
		in      any
		action  model.Action
		qty     int64
		wantErr bool
	}{
		{"Buy", model.ActionBuy, 0, false},
		{map[string]any{"action": "Sell", "quantity": float64(4)}, model.ActionSell, 4, false},
		{map[string]any{"action": "hold"}, "", 0, true},
		{nil, "", 0, true},
	}
	for _, tt := range tests {
		a, q, err := parseTrade(tt.in)
		if tt.wantErr {
			if !errors.Is(err, model.ErrInvalidAction) {
				t.Errorf("parseTrade(%v): expected ErrInvalidAction, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || a != tt.action || q != tt.qty {
			t.Errorf("parseTrade(%v) = %v, %d, %v", tt.in, a, q, err)
		}
	}
}
