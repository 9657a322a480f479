package collector

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sort"
	"time"

	"MarketReplay/internal/model"
)

// ErrNoData is returned when a source fails or yields no usable bars.
var ErrNoData = errors.New("no data")

// Source fetches raw feed rows for a symbol, newest first.
type Source interface {
	FetchRows(symbol string) ([]Row, error)
	Name() string
}

// Report summarizes one ingestion run.
type Report struct {
	Source  string
	Symbol  string
	Rows    int
	Bars    int
	Skipped []*RowError
	Sorted  bool // rows were not in date order and had to be sorted
}

// Collector turns a Source's rows into an oldest-first Bar Source.
type Collector struct {
	Source Source
	Symbol string
}

// NewCollector creates a new Collector.
func NewCollector(src Source, symbol string) *Collector {
	return &Collector{Source: src, Symbol: symbol}
}

// Collect fetches and normalizes rows. Malformed rows and rows violating the
// bar invariant are logged and skipped. There are no retries.
func (c *Collector) Collect() ([]model.Bar, *Report, error) {
	rep := &Report{Source: c.Source.Name(), Symbol: c.Symbol}

	rows, err := c.Source.FetchRows(c.Symbol)
	if err != nil {
		return nil, rep, fmt.Errorf("fetch %s from %s: %w: %w", c.Symbol, rep.Source, ErrNoData, err)
	}
	rep.Rows = len(rows)
	if len(rows) == 0 {
		return nil, rep, fmt.Errorf("%s from %s: %w", c.Symbol, rep.Source, ErrNoData)
	}

	bars := make([]model.Bar, 0, len(rows))
	for i, row := range rows {
		b, err := NormalizeRow(row)
		if err == nil {
			err = b.Validate()
		}
		if err != nil {
			var re *RowError
			if !errors.As(err, &re) {
				re = &RowError{Err: err}
			}
			re.Index = i
			rep.Skipped = append(rep.Skipped, re)
			log.Printf("[WARN] skip %s %v", c.Symbol, re)
			continue
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, rep, fmt.Errorf("%s from %s: all %d rows invalid: %w", c.Symbol, rep.Source, len(rows), ErrNoData)
	}

	// Rows arrive newest first; playback runs forward in time.
	slices.Reverse(bars)
	if !sort.SliceIsSorted(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) }) {
		log.Printf("[WARN] %s rows from %s not in date order, sorting", c.Symbol, rep.Source)
		sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
		rep.Sorted = true
	}
	rep.Bars = len(bars)

	log.Printf("[INFO] collected %d bars for %s from %s (%d skipped)", rep.Bars, c.Symbol, rep.Source, len(rep.Skipped))
	return bars, rep, nil
}

// MockSource returns fixed rows, or generated ones when Rows is nil.
type MockSource struct {
	Rows  []Row
	Err   error
	Price float64
	Count int
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) FetchRows(_ string) ([]Row, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Rows != nil {
		return m.Rows, nil
	}
	return generateMockRows(m.Price, m.Count), nil
}

// generateMockRows produces newest-first rows formatted like the raw feed.
func generateMockRows(basePrice float64, count int) []Row {
	if basePrice <= 0 {
		basePrice = 180
	}
	if count <= 0 {
		count = 30
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	rows := make([]Row, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(count/2-i)*0.002)
		rows[i] = Row{
			ColDate:   end.AddDate(0, 0, -i).Format("01/02/2006"),
			ColOpen:   formatDollars(p * 0.999),
			ColHigh:   formatDollars(p * 1.006),
			ColLow:    formatDollars(p * 0.994),
			ColClose:  formatDollars(p),
			ColVolume: formatThousands(uint64(48_000_000 + i*137_000)),
		}
	}
	return rows
}
