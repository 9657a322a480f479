package animator

import (
	"fmt"
	"math"

	"MarketReplay/internal/model"
)

// DefaultTolerance is the distance from the target close at which the
// converge phase snaps and finishes.
const DefaultTolerance = 0.1

// Rand is the source of uniform [0,1) draws. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Config controls how an animation ends.
type Config struct {
	// ConvergeAndStop finishes the animation once the price is within
	// Tolerance of the bar's close. Without it CONVERGE never ends.
	ConvergeAndStop bool
	Tolerance       float64
	// SnapEpsilon treats a remaining seek gap <= SnapEpsilon as reached.
	// Zero keeps the exact current >= high / current <= low rule.
	SnapEpsilon float64
}

// Animator walks one bar's price from its open through its high and low and
// towards its close, one Step per tick.
type Animator struct {
	cfg     Config
	rng     Rand
	candle  model.ActiveCandle
	current float64
}

// New returns an animator positioned at b.Open in PhaseSeekHigh.
// Invalid bars are rejected.
func New(b model.Bar, cfg Config, rng Rand) (*Animator, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("animate %s: %w", b.Time.Format("2006-01-02"), err)
	}
	if rng == nil {
		return nil, fmt.Errorf("animate %s: nil random source", b.Time.Format("2006-01-02"))
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if cfg.SnapEpsilon < 0 {
		cfg.SnapEpsilon = 0
	}
	return &Animator{
		cfg:     cfg,
		rng:     rng,
		current: b.Open,
		candle: model.ActiveCandle{
			Base:  b,
			Close: b.Open,
			High:  b.Open,
			Low:   b.Open,
			Phase: model.PhaseSeekHigh,
		},
	}, nil
}

// Candle returns the current state without advancing it.
func (a *Animator) Candle() model.ActiveCandle {
	return a.candle
}

// Done reports whether the animation has finished.
func (a *Animator) Done() bool {
	return a.candle.Phase == model.PhaseDone
}

// Step advances the animation by one tick and returns the new state.
// Stepping a finished animator returns the final state unchanged.
func (a *Animator) Step() model.ActiveCandle {
	if a.Done() {
		return a.candle
	}
	b := a.candle.Base
	next := a.current

	switch a.candle.Phase {
	case model.PhaseSeekHigh:
		next = a.current + a.rng.Float64()*(b.High-a.current)
		if next >= b.High || b.High-next <= a.cfg.SnapEpsilon {
			next = b.High
			a.candle.Phase = model.PhaseSeekLow
		}
	case model.PhaseSeekLow:
		next = a.current - a.rng.Float64()*(a.current-b.Low)
		if next <= b.Low || next-b.Low <= a.cfg.SnapEpsilon {
			next = b.Low
			a.candle.Phase = model.PhaseConverge
		}
	case model.PhaseConverge:
		dir := 1.0
		if a.rng.Float64() < 0.5 {
			dir = -1
		}
		next = math.Max(b.Low, math.Min(b.High, a.current+dir*a.rng.Float64()))
		if a.cfg.ConvergeAndStop && math.Abs(next-b.Close) < a.cfg.Tolerance {
			next = b.Close
			a.candle.Phase = model.PhaseDone
		}
	}

	a.current = next
	a.candle.Close = next
	a.candle.High = math.Max(a.candle.High, next)
	a.candle.Low = math.Min(a.candle.Low, next)
	a.candle.Ticks++
	return a.candle
}

// Final returns the bar as animated so far: the source open and volume with
// the running extrema and the latest close.
func (a *Animator) Final() model.Bar {
	return a.candle.Bar()
}
