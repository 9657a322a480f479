package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Symbol string `yaml:"symbol"`
	Source struct {
		Kind    string `yaml:"kind"`
		Path    string `yaml:"path"`
		Table   string `yaml:"table"`
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Range   string `yaml:"range"`
	} `yaml:"source"`
	Playback struct {
		Cadence         time.Duration `yaml:"cadence"`
		Tick            time.Duration `yaml:"tick"`
		ConvergeAndStop *bool         `yaml:"converge_and_stop"`
		Tolerance       float64       `yaml:"tolerance"`
		SnapEpsilon     *float64      `yaml:"snap_epsilon"`
		Finalize        string        `yaml:"finalize"`
		Preload         *int          `yaml:"preload"`
		Seed            int64         `yaml:"seed"`
	} `yaml:"playback"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Fund struct {
		StateFile      string  `yaml:"state_file"`
		Name           string  `yaml:"name"`
		InitialBalance float64 `yaml:"initial_balance"`
	} `yaml:"fund"`
	Export struct {
		ParquetPath string `yaml:"parquet_path"`
	} `yaml:"export"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.Symbol = v
	}
	if v := os.Getenv("SOURCE_KIND"); v != "" {
		cfg.Source.Kind = v
	}
	if v := os.Getenv("SOURCE_PATH"); v != "" {
		cfg.Source.Path = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv("SUPABASE_KEY"); v != "" {
		cfg.Source.APIKey = v
	}
	if v := os.Getenv("PLAYBACK_CADENCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("PLAYBACK_CADENCE: %w", err)
		}
		cfg.Playback.Cadence = d
	}
	if v := os.Getenv("PLAYBACK_TICK"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("PLAYBACK_TICK: %w", err)
		}
		cfg.Playback.Tick = d
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("EXPORT_PARQUET"); v != "" {
		cfg.Export.ParquetPath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Symbol == "" {
		cfg.Symbol = "AAPL"
	}
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = "mock"
	}
	cfg.Source.Kind = strings.ToLower(cfg.Source.Kind)
	if cfg.Playback.Cadence == 0 {
		cfg.Playback.Cadence = 60 * time.Second
	}
	if cfg.Playback.Tick == 0 {
		cfg.Playback.Tick = time.Second
	}
	if cfg.Playback.ConvergeAndStop == nil {
		stop := true
		cfg.Playback.ConvergeAndStop = &stop
	}
	if cfg.Playback.Tolerance == 0 {
		cfg.Playback.Tolerance = 0.1
	}
	if cfg.Playback.SnapEpsilon == nil {
		eps := 0.005
		cfg.Playback.SnapEpsilon = &eps
	}
	if cfg.Playback.Finalize == "" {
		cfg.Playback.Finalize = "source"
	}
	if cfg.Playback.Preload == nil {
		preload := 10
		cfg.Playback.Preload = &preload
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/replay.db"
	}
	if cfg.Fund.StateFile == "" {
		cfg.Fund.StateFile = "data/fund_state.json"
	}
	if cfg.Fund.Name == "" {
		cfg.Fund.Name = "John Doe"
	}
	if cfg.Fund.InitialBalance == 0 {
		cfg.Fund.InitialBalance = 10000
	}

	return cfg, nil
}

var sourceKinds = map[string]bool{
	"sqlite": true, "rest": true, "yahoo": true, "parquet": true, "csv": true, "mock": true,
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if !sourceKinds[c.Source.Kind] {
		return fmt.Errorf("source.kind %q is not one of sqlite, rest, yahoo, parquet, csv, mock", c.Source.Kind)
	}
	switch c.Source.Kind {
	case "sqlite", "parquet", "csv":
		if c.Source.Path == "" {
			return fmt.Errorf("source.path is required for %s sources", c.Source.Kind)
		}
	case "rest":
		if c.Source.BaseURL == "" {
			return fmt.Errorf("source.base_url is required for rest sources")
		}
	}
	if c.Playback.Cadence < time.Second {
		return fmt.Errorf("playback.cadence must be at least 1s, got %s", c.Playback.Cadence)
	}
	if c.Playback.Tick <= 0 {
		return fmt.Errorf("playback.tick must be positive")
	}
	if c.Playback.Cadence <= c.Playback.Tick {
		return fmt.Errorf("playback.cadence (%s) must exceed playback.tick (%s)", c.Playback.Cadence, c.Playback.Tick)
	}
	if c.Playback.Tolerance <= 0 {
		return fmt.Errorf("playback.tolerance must be positive")
	}
	if c.Playback.SnapEpsilon != nil && *c.Playback.SnapEpsilon < 0 {
		return fmt.Errorf("playback.snap_epsilon must not be negative")
	}
	switch strings.ToLower(c.Playback.Finalize) {
	case "source", "animated":
	default:
		return fmt.Errorf("playback.finalize must be source or animated, got %q", c.Playback.Finalize)
	}
	if c.Playback.Preload != nil && *c.Playback.Preload < 0 {
		return fmt.Errorf("playback.preload must not be negative")
	}
	if c.Fund.InitialBalance < 0 {
		return fmt.Errorf("fund.initial_balance must not be negative")
	}
	return nil
}
