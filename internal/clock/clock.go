// Package clock provides the periodic timers that drive a replay: a cron
// backed clock for bar cadence, a ticker clock for sub-second animation ticks
// and a manual clock for deterministic tests.
package clock

import "time"

// Stopper cancels a periodic timer. Stop is idempotent and does not block;
// once it returns no new firing of the timer will start.
type Stopper interface {
	Stop()
}

// Clock schedules fn to run every d.
type Clock interface {
	Every(d time.Duration, fn func()) Stopper
}

// StopFunc adapts a function to the Stopper interface.
type StopFunc func()

func (f StopFunc) Stop() { f() }
