package clock

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Cron schedules timers on a shared robfig/cron runner. Intervals below one
// second are rounded up to one second.
type Cron struct {
	c *cron.Cron

	mu      sync.Mutex
	started bool
}

// NewCron creates a Cron clock. Panicking jobs are recovered and logged.
func NewCron() *Cron {
	logger := cron.PrintfLogger(log.New(log.Writer(), "[CRON] ", log.LstdFlags))
	return &Cron{
		c: cron.New(cron.WithChain(cron.Recover(logger))),
	}
}

// Every registers fn on a constant-delay schedule and starts the runner on first use.
func (k *Cron) Every(d time.Duration, fn func()) Stopper {
	id := k.c.Schedule(cron.Every(d), cron.FuncJob(fn))

	k.mu.Lock()
	if !k.started {
		k.c.Start()
		k.started = true
	}
	k.mu.Unlock()

	var once sync.Once
	return StopFunc(func() {
		once.Do(func() { k.c.Remove(id) })
	})
}

// Stop halts the runner. The returned context is done once running jobs finish.
func (k *Cron) Stop() context.Context {
	return k.c.Stop()
}
