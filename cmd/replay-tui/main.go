package main

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"MarketReplay/internal/app"
	"MarketReplay/internal/clock"
	"MarketReplay/internal/config"
	"MarketReplay/internal/dashboard"
	"MarketReplay/internal/fund"
	"MarketReplay/internal/trade"
)

// feed queues dashboard messages for the UI loop. Like the websocket hub it
// drops messages rather than block the replay.
type feed chan any

func (f feed) Broadcast(v any) {
	select {
	case f <- v:
	default:
	}
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	// The terminal belongs to the UI; logs go to a file.
	logPath := getEnv("TUI_LOG", "replay-tui.log")
	lf, err := tea.LogToFile(logPath, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		os.Exit(1)
	}
	defer lf.Close()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := getEnv("CONFIG_PATH", config.DefaultPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	rec := app.OpenRecorder(cfg)
	defer rec.Close()

	fm, err := fund.NewManager(cfg.Fund.StateFile, cfg.Fund.Name, cfg.Fund.InitialBalance)
	if err != nil {
		log.Fatalf("[FATAL] init fund manager: %v", err)
	}

	out := make(feed, 1024)
	dash := dashboard.New(cfg.Symbol, out)
	dash.Recorder = rec
	dash.Account = fm

	barClock := clock.NewCron()
	sched, err := app.Playback(cfg, barClock, clock.NewTicker(), dash)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		log.Fatalf("[FATAL] %v", err)
	}
	if sched != nil {
		dash.Replay = sched
		dash.Desk = trade.NewDesk(cfg.Symbol, sched, fm, rec)
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

	p := tea.NewProgram(
		newModel(cfg.Symbol, dash, out),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, runErr := p.Run()

	if sched != nil {
		sched.Stop()
	}
	<-barClock.Stop().Done()
	if runErr != nil {
		log.Fatalf("[FATAL] tui: %v", runErr)
	}
	log.Println("[INFO] replay viewer stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
