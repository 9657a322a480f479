package clock

import (
	"sync"
	"time"
)

// Ticker runs each timer on its own goroutine driven by a time.Ticker.
type Ticker struct{}

// NewTicker returns a Ticker clock.
func NewTicker() Ticker { return Ticker{} }

func (Ticker) Every(d time.Duration, fn func()) Stopper {
	t := time.NewTicker(d)
	quit := make(chan struct{})
	go func() {
		defer t.Stop()
		for {
			select {
			case <-quit:
				return
			case <-t.C:
				// Stop may race with a pending tick; quit wins.
				select {
				case <-quit:
					return
				default:
				}
				fn()
			}
		}
	}()

	var once sync.Once
	return StopFunc(func() {
		once.Do(func() { close(quit) })
	})
}
