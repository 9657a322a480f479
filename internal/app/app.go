// Package app assembles a replay from configuration; both binaries share it.
package app

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"MarketReplay/internal/animator"
	"MarketReplay/internal/clock"
	"MarketReplay/internal/collector"
	"MarketReplay/internal/config"
	"MarketReplay/internal/dashboard"
	"MarketReplay/internal/metrics"
	"MarketReplay/internal/model"
	"MarketReplay/internal/recorder"
	"MarketReplay/internal/scheduler"
)

// LoadBars fetches and normalizes the configured symbol's history.
func LoadBars(cfg *config.Config) ([]model.Bar, *collector.Report, error) {
	src, err := collector.NewSource(collector.SourceConfig{
		Kind:    cfg.Source.Kind,
		Path:    cfg.Source.Path,
		Table:   cfg.Source.Table,
		BaseURL: cfg.Source.BaseURL,
		APIKey:  cfg.Source.APIKey,
		Range:   cfg.Source.Range,
		Proxy:   cfg.Proxy,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[INFO] data source: %s", src.Name())

	bars, rep, err := collector.NewCollector(src, cfg.Symbol).Collect()
	if rep != nil {
		metrics.RowsSkippedTotal.Add(float64(len(rep.Skipped)))
	}
	return bars, rep, err
}

// OpenRecorder opens the SQLite recorder, falling back to a no-op recorder
// when no path is configured or the database cannot be opened.
func OpenRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	if dir := filepath.Dir(cfg.Database.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Printf("[WARN] create %s: %v", dir, err)
		}
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

// SchedulerOptions translates the playback section into scheduler options.
func SchedulerOptions(cfg *config.Config, barClock, tickClock clock.Clock, l scheduler.Listener) (scheduler.Options, error) {
	policy, err := scheduler.ParseFinalizePolicy(cfg.Playback.Finalize)
	if err != nil {
		return scheduler.Options{}, err
	}
	seed := cfg.Playback.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	opts := scheduler.Options{
		Cadence: cfg.Playback.Cadence,
		Tick:    cfg.Playback.Tick,
		Animator: animator.Config{
			Tolerance: cfg.Playback.Tolerance,
		},
		Finalize:  policy,
		BarClock:  barClock,
		TickClock: tickClock,
		Rand:      rand.New(rand.NewSource(seed)),
		Listener:  l,
	}
	if cfg.Playback.ConvergeAndStop != nil {
		opts.Animator.ConvergeAndStop = *cfg.Playback.ConvergeAndStop
	}
	if cfg.Playback.SnapEpsilon != nil {
		opts.Animator.SnapEpsilon = *cfg.Playback.SnapEpsilon
	}
	if cfg.Playback.Preload != nil {
		opts.Preload = *cfg.Playback.Preload
	}
	return opts, nil
}

// NewScheduler builds a scheduler over bars with the configured options.
func NewScheduler(cfg *config.Config, bars []model.Bar, barClock, tickClock clock.Clock, l scheduler.Listener) (*scheduler.Scheduler, error) {
	opts, err := SchedulerOptions(cfg, barClock, tickClock, l)
	if err != nil {
		return nil, err
	}
	s, err := scheduler.New(bars, opts)
	if err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}
	return s, nil
}

// Playback loads the configured bars and builds a scheduler reporting to d.
// When the source has no usable data, d is told so and Playback returns a nil
// scheduler and a nil error: the viewers stay up without a replay.
func Playback(cfg *config.Config, barClock, tickClock clock.Clock, d *dashboard.Dashboard) (*scheduler.Scheduler, error) {
	bars, _, err := LoadBars(cfg)
	if errors.Is(err, collector.ErrNoData) {
		log.Printf("[WARN] %v, playback not started", err)
		d.NoData()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	return NewScheduler(cfg, bars, barClock, tickClock, d)
}
