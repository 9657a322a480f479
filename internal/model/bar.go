package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidBar is returned for bars that cannot be animated or displayed.
var ErrInvalidBar = errors.New("invalid bar")

// Bar represents a single OHLCV candlestick bar.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume uint64    `json:"volume"`
}

// Validate checks that every price is finite and that low <= open,close <= high.
func (b Bar) Validate() error {
	if b.Time.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidBar)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidBar, f.name, f.v)
		}
	}
	if b.Low > b.High {
		return fmt.Errorf("%w: low %.4f > high %.4f", ErrInvalidBar, b.Low, b.High)
	}
	if b.Open < b.Low || b.Open > b.High {
		return fmt.Errorf("%w: open %.4f outside [%.4f, %.4f]", ErrInvalidBar, b.Open, b.Low, b.High)
	}
	if b.Close < b.Low || b.Close > b.High {
		return fmt.Errorf("%w: close %.4f outside [%.4f, %.4f]", ErrInvalidBar, b.Close, b.Low, b.High)
	}
	return nil
}
