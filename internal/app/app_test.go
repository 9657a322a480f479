package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"MarketReplay/internal/clock"
	"MarketReplay/internal/config"
	"MarketReplay/internal/dashboard"
	"MarketReplay/internal/notifier"
	"MarketReplay/internal/recorder"
	"MarketReplay/internal/scheduler"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	for _, k := range []string{"SYMBOL", "SOURCE_KIND", "SOURCE_PATH", "PLAYBACK_CADENCE", "PLAYBACK_TICK", "SQLITE_PATH"} {
		t.Setenv(k, "")
	}
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestLoadBars_Mock(t *testing.T) {
	cfg := testConfig(t)
	bars, rep, err := LoadBars(cfg)
	if err != nil {
		t.Fatalf("LoadBars: %v", err)
	}
	if len(bars) == 0 || rep.Source != "mock" {
		t.Errorf("expected mock bars, got %d from %q", len(bars), rep.Source)
	}
}

func TestSchedulerOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Playback.Finalize = "animated"
	cfg.Playback.Seed = 42
	clk := clock.NewManual()

	opts, err := SchedulerOptions(cfg, clk, clk, nil)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Finalize != scheduler.FinalizeAnimated || opts.Preload != 10 {
		t.Errorf("unexpected options: %+v", opts)
	}
	if !opts.Animator.ConvergeAndStop || opts.Animator.SnapEpsilon != 0.005 || opts.Animator.Tolerance != 0.1 {
		t.Errorf("unexpected animator config: %+v", opts.Animator)
	}
	if opts.Cadence != 60*time.Second || opts.Tick != time.Second {
		t.Errorf("unexpected timing: %s %s", opts.Cadence, opts.Tick)
	}

	cfg.Playback.Finalize = "latest"
	if _, err := SchedulerOptions(cfg, clk, clk, nil); err == nil {
		t.Error("expected error for unknown finalize policy")
	}
}

func TestNewScheduler_Runs(t *testing.T) {
	cfg := testConfig(t)
	bars, _, err := LoadBars(cfg)
	if err != nil {
		t.Fatal(err)
	}
	clk := clock.NewManual()
	s, err := NewScheduler(cfg, bars, clk, clk, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()
	clk.Advance(2 * time.Minute)
	if got := s.Snapshot().Len(); got < 12 {
		t.Errorf("expected preload plus replayed bars, got %d points", got)
	}
}

type sink struct{ msgs []any }

func (s *sink) Broadcast(v any) { s.msgs = append(s.msgs, v) }

func TestPlayback_NoData(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("Date,Open,High,Low,Close,Volume\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg.Source.Kind = "csv"
	cfg.Source.Path = path

	out := &sink{}
	d := dashboard.New(cfg.Symbol, out)
	clk := clock.NewManual()
	s, err := Playback(cfg, clk, clk, d)
	if err != nil {
		t.Fatalf("no data should not be fatal: %v", err)
	}
	if s != nil {
		t.Fatal("expected no scheduler without data")
	}
	if clk.Live() != 0 {
		t.Errorf("expected no timers, have %d", clk.Live())
	}

	want := "No data available for " + cfg.Symbol
	if len(out.msgs) != 1 {
		t.Fatalf("expected one broadcast, got %v", out.msgs)
	}
	if st, ok := out.msgs[0].(notifier.StatusMsg); !ok || st.Level != notifier.LevelError || st.Text != want {
		t.Errorf("unexpected broadcast %+v", out.msgs[0])
	}
	greeting := d.Greeting()
	if st, ok := greeting[0].(notifier.StatusMsg); !ok || st.Text != want {
		t.Errorf("expected greeting to lead with the no-data status, got %+v", greeting)
	}
}

func TestPlayback_Mock(t *testing.T) {
	cfg := testConfig(t)
	d := dashboard.New(cfg.Symbol, &sink{})
	clk := clock.NewManual()
	s, err := Playback(cfg, clk, clk, d)
	if err != nil || s == nil {
		t.Fatalf("Playback: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()
	if d.View.Len() == 0 {
		t.Error("expected dashboard to follow the scheduler")
	}
}

func TestOpenRecorder(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.SQLitePath = ""
	if _, ok := OpenRecorder(cfg).(*recorder.NoopRecorder); !ok {
		t.Error("expected noop recorder without a path")
	}
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "data", "replay.db")
	rec := OpenRecorder(cfg)
	defer rec.Close()
	if _, ok := rec.(*recorder.SQLiteRecorder); !ok {
		t.Errorf("expected sqlite recorder, got %T", rec)
	}
}
