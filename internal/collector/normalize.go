package collector

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"MarketReplay/internal/model"
)

// Column names of the raw feed.
const (
	ColDate   = "Date"
	ColOpen   = "Open"
	ColHigh   = "High"
	ColLow    = "Low"
	ColClose  = "Close"
	ColVolume = "Volume"
)

// Columns lists the feed columns in display order.
var Columns = []string{ColDate, ColOpen, ColHigh, ColLow, ColClose, ColVolume}

// Row is one raw feed row keyed by column name, e.g. {"Open": "$1,234.56"}.
type Row map[string]string

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// RowError describes a row that failed normalization.
type RowError struct {
	Index int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("row %d: %s=%q: %v", e.Index, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ParsePrice strips "$" and "," and parses a base-10 float. NaN and Inf are rejected.
func ParsePrice(s string) (float64, error) {
	clean := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return 0, fmt.Errorf("empty price")
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price: %w", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("price is not finite")
	}
	return v, nil
}

// ParseVolume strips "," and parses a base-10 unsigned integer.
func ParseVolume(s string) (uint64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return 0, fmt.Errorf("empty volume")
	}
	v, err := strconv.ParseUint(clean, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse volume: %w", err)
	}
	return v, nil
}

// ParseDate accepts the date layouts seen in exported price tables.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// NormalizeRow converts a raw row into a Bar. It does not check the OHLC
// invariant; see model.Bar.Validate.
func NormalizeRow(r Row) (model.Bar, error) {
	var b model.Bar
	var err error

	if b.Time, err = ParseDate(r[ColDate]); err != nil {
		return b, &RowError{Field: ColDate, Value: r[ColDate], Err: err}
	}
	prices := []struct {
		col string
		dst *float64
	}{
		{ColOpen, &b.Open},
		{ColHigh, &b.High},
		{ColLow, &b.Low},
		{ColClose, &b.Close},
	}
	for _, p := range prices {
		if *p.dst, err = ParsePrice(r[p.col]); err != nil {
			return b, &RowError{Field: p.col, Value: r[p.col], Err: err}
		}
	}
	if b.Volume, err = ParseVolume(r[ColVolume]); err != nil {
		return b, &RowError{Field: ColVolume, Value: r[ColVolume], Err: err}
	}
	return b, nil
}
