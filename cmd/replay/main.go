package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"MarketReplay/internal/app"
	"MarketReplay/internal/clock"
	"MarketReplay/internal/config"
	"MarketReplay/internal/dashboard"
	"MarketReplay/internal/fund"
	"MarketReplay/internal/metrics"
	"MarketReplay/internal/notifier"
	"MarketReplay/internal/recorder"
	"MarketReplay/internal/trade"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] MarketReplay starting...")

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	// Load config
	cfgPath := config.DefaultPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	metrics.Register()

	// Init recorder
	rec := app.OpenRecorder(cfg)
	defer rec.Close()

	// Init fund manager
	fm, err := fund.NewManager(cfg.Fund.StateFile, cfg.Fund.Name, cfg.Fund.InitialBalance)
	if err != nil {
		log.Fatalf("[FATAL] init fund manager: %v", err)
	}

	// Init dashboard feed
	hub := notifier.NewHub()
	hub.OnClients = func(n int) { metrics.WSClients.Set(float64(n)) }
	dash := dashboard.New(cfg.Symbol, hub)
	dash.Recorder = rec
	dash.Account = fm

	// Init scheduler: cron drives the bar cadence, a ticker drives the animator.
	// Without data the server still runs and tells every viewer so.
	barClock := clock.NewCron()
	sched, err := app.Playback(cfg, barClock, clock.NewTicker(), dash)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	if sched != nil {
		dash.Replay = sched
		dash.Desk = trade.NewDesk(cfg.Symbol, sched, fm, rec)
	}
	hub.OnConnect = dash.Greeting

	// HTTP server
	mux := http.NewServeMux()
	mux.Handle("/ws", hub.ServeWS(func(c *notifier.Client, ctrl notifier.ControlMsg) {
		dash.HandleControl(c, ctrl)
	}))
	mux.HandleFunc("/api/snapshot", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, dash.SnapshotMsg())
	})
	mux.HandleFunc("/api/profile", func(w http.ResponseWriter, r *http.Request) {
		p, _ := dash.Profile()
		writeJSON(w, p)
	})
	mux.HandleFunc("/api/trades", tradesHandler(rec))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Printf("[INFO] listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	if sched != nil {
		if err := sched.Start(); err != nil {
			log.Fatalf("[FATAL] start playback: %v", err)
		}
		go func() {
			<-sched.Done()
			if snap := sched.Snapshot(); snap.Finished {
				dash.Finish(len(snap.Series))
			}
		}()
	}

	log.Println("[INFO] MarketReplay is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	if sched != nil {
		sched.Stop()
	}
	<-barClock.Stop().Done()

	if sched != nil && cfg.Export.ParquetPath != "" {
		series := sched.Snapshot().Series
		if err := recorder.ExportSeries(cfg.Export.ParquetPath, series); err != nil {
			log.Printf("[ERROR] export series: %v", err)
		} else {
			log.Printf("[INFO] exported %d bars to %s", len(series), cfg.Export.ParquetPath)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	log.Println("[INFO] MarketReplay stopped")
}

func tradesHandler(rec recorder.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				http.Error(w, "limit must be an integer", http.StatusBadRequest)
				return
			}
			limit = n
		}
		trades, err := rec.ListTrades(limit)
		if err != nil {
			log.Printf("[ERROR] list trades: %v", err)
			http.Error(w, "list trades failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, trades)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] write response: %v", err)
	}
}
