package clock

import (
	"sync"
	"time"
)

// Manual is a virtual-time clock. Nothing fires until Advance is called;
// Advance runs due callbacks in time order on the caller's goroutine.
// Callbacks may register or stop timers.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	nextID  uint64
	entries map[uint64]*manualEntry
}

type manualEntry struct {
	id     uint64
	period time.Duration
	next   time.Duration
	fn     func()
}

// NewManual returns a Manual clock at virtual time zero.
func NewManual() *Manual {
	return &Manual{entries: make(map[uint64]*manualEntry)}
}

func (m *Manual) Every(d time.Duration, fn func()) Stopper {
	if d <= 0 {
		d = time.Nanosecond
	}
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.entries[id] = &manualEntry{id: id, period: d, next: m.now + d, fn: fn}
	m.mu.Unlock()

	return StopFunc(func() {
		m.mu.Lock()
		delete(m.entries, id)
		m.mu.Unlock()
	})
}

// Now returns the elapsed virtual time.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Live returns the number of registered timers.
func (m *Manual) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Advance moves virtual time forward by d, firing every timer that comes due.
// Timers due at the same instant fire in registration order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		var due *manualEntry
		for _, e := range m.entries {
			if e.next > target {
				continue
			}
			if due == nil || e.next < due.next || (e.next == due.next && e.id < due.id) {
				due = e
			}
		}
		if due == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = due.next
		due.next += due.period
		fn := due.fn
		m.mu.Unlock()

		fn()
	}
}
