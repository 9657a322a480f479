package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"MarketReplay/internal/model"
)

// SQLiteRecorder persists trades and finalized bars to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so the dashboard's trade list can read while trades are written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			stock     TEXT NOT NULL,
			action    TEXT NOT NULL,
			quantity  INTEGER NOT NULL,
			price     REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_ts ON transactions(timestamp)`,

		`CREATE TABLE IF NOT EXISTS replay_bars (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at INTEGER NOT NULL,
			idx         INTEGER NOT NULL,
			bar_time    INTEGER NOT NULL,
			open        REAL,
			high        REAL,
			low         REAL,
			close       REAL,
			volume      INTEGER,
			superseded  INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_replay_bars_time ON replay_bars(bar_time)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTrade(t *model.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO transactions
		(id, timestamp, stock, action, quantity, price)
		VALUES (?,?,?,?,?,?)`,
		t.ID, t.Time.UnixMilli(), t.Symbol, string(t.Action), t.Quantity, t.Price,
	)
	return err
}

func (r *SQLiteRecorder) RecordBar(evt *BarEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	superseded := 0
	if evt.Superseded {
		superseded = 1
	}
	b := evt.Bar
	_, err := r.db.Exec(`INSERT INTO replay_bars
		(recorded_at, idx, bar_time, open, high, low, close, volume, superseded)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Index, b.Time.Unix(),
		b.Open, b.High, b.Low, b.Close, int64(b.Volume), superseded,
	)
	return err
}

// ListTrades returns the most recent trades, newest first. limit <= 0 means all.
func (r *SQLiteRecorder) ListTrades(limit int) ([]model.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(`SELECT id, timestamp, stock, action, quantity, price
		FROM transactions ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Trade
	for rows.Next() {
		var t model.Trade
		var ts int64
		var action string
		if err := rows.Scan(&t.ID, &ts, &t.Symbol, &action, &t.Quantity, &t.Price); err != nil {
			return nil, err
		}
		t.Time = time.UnixMilli(ts)
		t.Action = model.Action(action)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
