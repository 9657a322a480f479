package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SYMBOL", "SOURCE_KIND", "SOURCE_PATH", "SUPABASE_URL", "SUPABASE_KEY",
		"PLAYBACK_CADENCE", "PLAYBACK_TICK", "LISTEN_ADDR", "SQLITE_PATH", "EXPORT_PARQUET", "HTTPS_PROXY"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Symbol != "AAPL" || cfg.Source.Kind != "mock" {
		t.Errorf("unexpected defaults: symbol %q kind %q", cfg.Symbol, cfg.Source.Kind)
	}
	if cfg.Playback.Cadence != 60*time.Second || cfg.Playback.Tick != time.Second {
		t.Errorf("unexpected timing defaults: %s / %s", cfg.Playback.Cadence, cfg.Playback.Tick)
	}
	if !*cfg.Playback.ConvergeAndStop || cfg.Playback.Tolerance != 0.1 || *cfg.Playback.SnapEpsilon != 0.005 {
		t.Errorf("unexpected animator defaults: %+v", cfg.Playback)
	}
	if *cfg.Playback.Preload != 10 || cfg.Playback.Finalize != "source" {
		t.Errorf("unexpected playback defaults: %+v", cfg.Playback)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
symbol: MSFT
source:
  kind: SQLite
  path: data/market.db
playback:
  cadence: 5s
  tick: 100ms
  converge_and_stop: false
  snap_epsilon: 0
  finalize: animated
  preload: 0
server:
  addr: ":9090"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PLAYBACK_TICK", "250ms")
	t.Setenv("LISTEN_ADDR", ":7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Symbol != "MSFT" || cfg.Source.Kind != "sqlite" || cfg.Source.Path != "data/market.db" {
		t.Errorf("unexpected source: %+v", cfg.Source)
	}
	if cfg.Playback.Cadence != 5*time.Second || cfg.Playback.Tick != 250*time.Millisecond {
		t.Errorf("unexpected timing: %s / %s", cfg.Playback.Cadence, cfg.Playback.Tick)
	}
	if *cfg.Playback.ConvergeAndStop || *cfg.Playback.SnapEpsilon != 0 || *cfg.Playback.Preload != 0 {
		t.Errorf("explicit zero values were replaced by defaults: %+v", cfg.Playback)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("expected env override of addr, got %q", cfg.Server.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_BadEnvDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("PLAYBACK_CADENCE", "soon")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for bad duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"unknown kind", func(c *Config) { c.Source.Kind = "ftp" }, "source.kind"},
		{"sqlite without path", func(c *Config) { c.Source.Kind = "sqlite" }, "source.path"},
		{"rest without url", func(c *Config) { c.Source.Kind = "rest" }, "base_url"},
		{"sub-second cadence", func(c *Config) { c.Playback.Cadence = 500 * time.Millisecond }, "at least 1s"},
		{"tick too long", func(c *Config) { c.Playback.Tick = time.Minute }, "must exceed"},
		{"zero tolerance", func(c *Config) { c.Playback.Tolerance = -1 }, "tolerance"},
		{"bad finalize", func(c *Config) { c.Playback.Finalize = "latest" }, "finalize"},
		{"negative preload", func(c *Config) { n := -1; c.Playback.Preload = &n }, "preload"},
	}
	clearEnv(t)
	for _, tt := range tests {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		tt.mutate(cfg)
		err = cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: expected error containing %q, got %v", tt.name, tt.want, err)
		}
	}
}
