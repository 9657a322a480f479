package scheduler

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"MarketReplay/internal/animator"
	"MarketReplay/internal/clock"
	"MarketReplay/internal/model"
	"MarketReplay/internal/series"
)

var (
	// ErrNoBars is returned when there is nothing to replay.
	ErrNoBars = errors.New("no bars to replay")
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("playback already started")
)

// FinalizePolicy selects which version of a bar is stored when it is finalized.
type FinalizePolicy int

const (
	// FinalizeSource stores the original source bar.
	FinalizeSource FinalizePolicy = iota
	// FinalizeAnimated stores the animated trajectory's open, extrema and last close.
	FinalizeAnimated
)

func (p FinalizePolicy) String() string {
	if p == FinalizeAnimated {
		return "animated"
	}
	return "source"
}

// ParseFinalizePolicy parses "source" or "animated".
func ParseFinalizePolicy(s string) (FinalizePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "source":
		return FinalizeSource, nil
	case "animated":
		return FinalizeAnimated, nil
	default:
		return FinalizeSource, fmt.Errorf("unknown finalize policy %q", s)
	}
}

// Options configures a Scheduler. Zero values fall back to defaults.
type Options struct {
	Cadence   time.Duration // time between source bars (T)
	Tick      time.Duration // animator tick period
	Animator  animator.Config
	Finalize  FinalizePolicy
	Preload   int
	BarClock  clock.Clock
	TickClock clock.Clock
	Rand      animator.Rand
	Listener  Listener
}

func (o *Options) applyDefaults() {
	if o.Cadence <= 0 {
		o.Cadence = 60 * time.Second
	}
	if o.Tick <= 0 {
		o.Tick = time.Second
	}
	if o.BarClock == nil {
		o.BarClock = clock.NewTicker()
	}
	if o.TickClock == nil {
		o.TickClock = clock.NewTicker()
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.Listener == nil {
		o.Listener = ListenerFuncs{}
	}
	if o.Preload < 0 {
		o.Preload = 0
	}
}

type state int

const (
	stateIdle state = iota
	stateRunning
	stateExhausted
	stateFinished
	stateStopped
)

// Stats counts what a playback run has done so far.
type Stats struct {
	Ticks         int
	BarsStarted   int
	BarsAppended  int
	Superseded    int
	LiveAnimators int
	MaxLive       int
}

// handle owns one animator and its tick timer. Once live is false the
// handle's ticks are ignored even if its timer still fires.
type handle struct {
	index int
	anim  *animator.Animator
	timer clock.Stopper
	live  bool
}

// Scheduler replays a fixed list of bars: a new bar every Cadence, each one
// animated by a Candle Animator ticking every Tick. At most one animator is
// live at any time.
type Scheduler struct {
	opts Options
	bars []model.Bar

	// loop serializes timer callbacks and their event delivery, the way a
	// single-threaded event loop would. mu guards state for readers.
	loop sync.Mutex
	mu   sync.Mutex

	series   *series.Series
	active   *handle
	next     int
	state    state
	barTimer clock.Stopper
	stats    Stats

	done     chan struct{}
	doneOnce sync.Once
}

// New validates bars and returns a Scheduler ready to Start. The bars are
// copied; the caller's slice is never modified.
func New(bars []model.Bar, opts Options) (*Scheduler, error) {
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("bar %d: %w", i, err)
		}
	}
	opts.applyDefaults()
	if opts.Preload > len(bars)-1 {
		log.Printf("[WARN] preload %d leaves nothing to replay, clamping to %d", opts.Preload, len(bars)-1)
		opts.Preload = len(bars) - 1
	}

	src := make([]model.Bar, len(bars))
	copy(src, bars)
	return &Scheduler{
		opts:   opts,
		bars:   src,
		series: series.New(len(src)),
		done:   make(chan struct{}),
	}, nil
}

// Start preloads the configured history, starts animating the first replayed
// bar immediately and schedules the bar cadence.
func (s *Scheduler) Start() error {
	s.loop.Lock()
	defer s.loop.Unlock()

	s.mu.Lock()
	if s.state != stateIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = stateRunning

	var evs []event
	for s.next < s.opts.Preload {
		b := s.bars[s.next]
		idx := s.series.Append(b)
		s.stats.BarsAppended++
		evs = append(evs, appendEvent(Finalized{Index: idx, Bar: b, Source: b, Animated: b, Policy: s.opts.Finalize, Preloaded: true}))
		s.next++
	}
	evs = append(evs, s.startNextLocked()...)
	s.barTimer = s.opts.BarClock.Every(s.opts.Cadence, s.advance)
	s.mu.Unlock()

	log.Printf("[INFO] playback started: %d bars, %d preloaded, cadence %s, tick %s",
		len(s.bars), s.opts.Preload, s.opts.Cadence, s.opts.Tick)
	s.emit(evs)
	return nil
}

// Stop cancels the bar timer and the live animator. It is safe to call more
// than once. No listener event is delivered after Stop returns.
// Stop must not be called from a Listener.
func (s *Scheduler) Stop() {
	s.loop.Lock()
	defer s.loop.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateStopped {
		return
	}
	wasFinished := s.state == stateFinished
	s.state = stateStopped
	if s.barTimer != nil {
		s.barTimer.Stop()
	}
	if s.active != nil && s.active.live {
		s.retireLocked(s.active)
	}
	s.closeDone()
	if !wasFinished {
		log.Printf("[INFO] playback stopped after %d of %d bars", s.series.Len(), len(s.bars))
	}
}

// Done is closed when every bar has been finalized or the scheduler is stopped.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Snapshot is a consistent copy of the replay's displayed state.
type Snapshot struct {
	Series    []model.Bar         `json:"series"`
	Active    *model.ActiveCandle `json:"active,omitempty"`
	Remaining int                 `json:"remaining"`
	Finished  bool                `json:"finished"`
}

// Points returns the finalized bars followed by the in-progress candle.
func (sn Snapshot) Points() []model.Bar {
	return series.Merge(sn.Series, sn.Active)
}

// Len is the number of chart points.
func (sn Snapshot) Len() int {
	if sn.Active != nil {
		return len(sn.Series) + 1
	}
	return len(sn.Series)
}

// Snapshot returns the current displayed state.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn := Snapshot{
		Series:    s.series.Snapshot(),
		Remaining: len(s.bars) - s.next,
		Finished:  s.state == stateFinished,
	}
	if s.active != nil {
		c := s.active.anim.Candle()
		sn.Active = &c
	}
	return sn
}

// Quote returns the price a trade would execute at: the active candle's
// close, or the last finalized close when no candle is animating.
func (s *Scheduler) Quote() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return s.active.anim.Candle().Close, true
	}
	if b, ok := s.series.Last(); ok {
		return b.Close, true
	}
	return 0, false
}

// Stats returns playback counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// advance runs every Cadence.
func (s *Scheduler) advance() {
	s.loop.Lock()
	defer s.loop.Unlock()

	s.mu.Lock()
	if s.state != stateRunning {
		s.mu.Unlock()
		return
	}
	if s.next >= len(s.bars) {
		s.state = stateExhausted
		s.barTimer.Stop()
		if s.active == nil {
			s.finishLocked()
		} else {
			log.Printf("[INFO] source exhausted, last candle still animating")
		}
		s.mu.Unlock()
		return
	}
	evs := s.startNextLocked()
	s.mu.Unlock()
	s.emit(evs)
}

// tick runs every Tick for the animator owned by h.
func (s *Scheduler) tick(h *handle) {
	s.loop.Lock()
	defer s.loop.Unlock()

	s.mu.Lock()
	if !h.live || s.active != h {
		s.mu.Unlock()
		return
	}
	c := h.anim.Step()
	s.stats.Ticks++
	evs := []event{tickEvent(c)}
	if c.Phase == model.PhaseDone {
		evs = append(evs, doneEvent(h.anim.Final()))
		evs = append(evs, s.finalizeLocked(false))
		if s.next >= len(s.bars) {
			s.finishLocked()
		}
	}
	s.mu.Unlock()
	s.emit(evs)
}

// startNextLocked finalizes the active candle, if any, and starts animating
// the next source bar. The old handle is invalidated before the new one exists.
func (s *Scheduler) startNextLocked() []event {
	var evs []event
	if s.active != nil {
		evs = append(evs, s.finalizeLocked(true))
	}

	idx := s.next
	s.next++
	a, err := animator.New(s.bars[idx], s.opts.Animator, s.opts.Rand)
	if err != nil {
		// Bars are validated in New, so this only guards against misuse.
		log.Printf("[ERROR] bar %d: %v", idx, err)
		return evs
	}
	h := &handle{index: idx, anim: a, live: true}
	s.active = h
	h.timer = s.opts.TickClock.Every(s.opts.Tick, func() { s.tick(h) })

	s.stats.BarsStarted++
	s.stats.LiveAnimators++
	if s.stats.LiveAnimators > s.stats.MaxLive {
		s.stats.MaxLive = s.stats.LiveAnimators
	}
	return append(evs, barStartEvent(a.Candle()))
}

// finalizeLocked appends the active candle to the series and clears the slot.
func (s *Scheduler) finalizeLocked(superseded bool) event {
	h := s.active
	s.retireLocked(h)
	s.active = nil

	f := Finalized{
		Source:     s.bars[h.index],
		Animated:   h.anim.Final(),
		Policy:     s.opts.Finalize,
		Superseded: superseded,
	}
	f.Bar = f.Source
	if s.opts.Finalize == FinalizeAnimated {
		f.Bar = f.Animated
	}
	f.Index = s.series.Append(f.Bar)
	s.stats.BarsAppended++
	if superseded {
		s.stats.Superseded++
	}
	return appendEvent(f)
}

func (s *Scheduler) retireLocked(h *handle) {
	h.live = false
	if h.timer != nil {
		h.timer.Stop()
	}
	s.stats.LiveAnimators--
}

func (s *Scheduler) finishLocked() {
	s.state = stateFinished
	if s.barTimer != nil {
		s.barTimer.Stop()
	}
	s.closeDone()
	log.Printf("[INFO] playback finished: %d bars displayed", s.series.Len())
}

func (s *Scheduler) closeDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

// emit delivers events in order. Callers hold loop but not mu.
func (s *Scheduler) emit(evs []event) {
	for _, e := range evs {
		e(s.opts.Listener)
	}
}
