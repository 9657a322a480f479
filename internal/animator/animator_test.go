package animator

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"MarketReplay/internal/model"
)

// seqRand replays a fixed sequence of draws, cycling when exhausted.
type seqRand struct {
	vals []float64
	i    int
}

func (s *seqRand) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func testBar(open, high, low, close float64) model.Bar {
	return model.Bar{
		Time:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: 1000,
	}
}

func TestNew_RejectsInvalidBars(t *testing.T) {
	tests := []struct {
		name string
		bar  model.Bar
	}{
		{"low above high", testBar(10, 9, 11, 10)},
		{"nan open", testBar(math.NaN(), 12, 9, 11)},
		{"inf close", testBar(10, 12, 9, math.Inf(1))},
		{"open outside range", testBar(13, 12, 9, 11)},
		{"close outside range", testBar(10, 12, 9, 8)},
		{"missing time", model.Bar{Open: 10, High: 12, Low: 9, Close: 11}},
	}
	for _, tt := range tests {
		if _, err := New(tt.bar, Config{}, rand.New(rand.NewSource(1))); !errors.Is(err, model.ErrInvalidBar) {
			t.Errorf("%s: expected ErrInvalidBar, got %v", tt.name, err)
		}
	}
}

func TestNew_StartsAtOpen(t *testing.T) {
	a, err := New(testBar(10, 12, 9, 11), Config{}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	c := a.Candle()
	if c.Close != 10 || c.High != 10 || c.Low != 10 {
		t.Errorf("expected opening candle at 10, got close=%.2f high=%.2f low=%.2f", c.Close, c.High, c.Low)
	}
	if c.Phase != model.PhaseSeekHigh {
		t.Errorf("expected SEEK_HIGH, got %s", c.Phase)
	}
}

func TestStep_ScriptedWalk(t *testing.T) {
	a, err := New(testBar(10, 12, 9, 11), Config{ConvergeAndStop: true, Tolerance: 0.1}, &seqRand{vals: []float64{1}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	// A full-gap draw reaches each target in one tick.
	if c := a.Step(); c.Close != 12 || c.Phase != model.PhaseSeekLow {
		t.Fatalf("tick 1: expected 12 in SEEK_LOW, got %.2f %s", c.Close, c.Phase)
	}
	if c := a.Step(); c.Close != 9 || c.Phase != model.PhaseConverge {
		t.Fatalf("tick 2: expected 9 in CONVERGE, got %.2f %s", c.Close, c.Phase)
	}
	// Direction draw 1 (>= 0.5) is up, magnitude 1.
	if c := a.Step(); c.Close != 10 {
		t.Fatalf("tick 3: expected 10, got %.2f", c.Close)
	}
	c := a.Step()
	if c.Close != 11 || c.Phase != model.PhaseDone {
		t.Fatalf("tick 4: expected snap to 11 and DONE, got %.2f %s", c.Close, c.Phase)
	}
	if c.High != 12 || c.Low != 9 {
		t.Errorf("expected extrema [9, 12], got [%.2f, %.2f]", c.Low, c.High)
	}
	if again := a.Step(); again != c {
		t.Errorf("step after DONE changed state: %+v -> %+v", c, again)
	}
}

func TestStep_SnapEpsilon(t *testing.T) {
	// Half the gap each tick: 2, 1, 0.5, ... reaches 0.005 after a handful of ticks.
	a, err := New(testBar(10, 12, 9, 11), Config{SnapEpsilon: 0.005}, &seqRand{vals: []float64{0.5}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 20 && a.Candle().Phase == model.PhaseSeekHigh; i++ {
		a.Step()
	}
	c := a.Candle()
	if c.Phase != model.PhaseSeekLow || c.Close != 12 {
		t.Fatalf("expected high reached and clamped, got %.6f %s", c.Close, c.Phase)
	}
}

func TestStep_ConvergeForeverWithoutStopPolicy(t *testing.T) {
	a, err := New(testBar(10, 12, 9, 11), Config{SnapEpsilon: 0.005}, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 5000; i++ {
		a.Step()
	}
	if a.Done() {
		t.Fatal("animator finished without converge-and-stop policy")
	}
	if a.Candle().Phase != model.PhaseConverge {
		t.Errorf("expected CONVERGE, got %s", a.Candle().Phase)
	}
}

func TestStep_Properties(t *testing.T) {
	bars := []model.Bar{
		testBar(10, 12, 9, 11),
		testBar(100.5, 101.25, 99.75, 100),
		testBar(50, 50, 50, 50),
		testBar(20, 21, 19, 21),
		testBar(9, 12, 9, 12),
	}
	for seed := int64(1); seed <= 20; seed++ {
		for _, b := range bars {
			rng := rand.New(rand.NewSource(seed))
			a, err := New(b, Config{ConvergeAndStop: true, Tolerance: 0.1, SnapEpsilon: 0.005}, rng)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			prev := a.Candle()
			seekHighEntries := 1
			for i := 0; i < 200000 && !a.Done(); i++ {
				c := a.Step()
				if c.Phase < prev.Phase {
					t.Fatalf("seed %d: phase went backwards %s -> %s", seed, prev.Phase, c.Phase)
				}
				if c.Phase == model.PhaseSeekHigh && prev.Phase != model.PhaseSeekHigh {
					seekHighEntries++
				}
				if c.High < prev.High || c.Low > prev.Low {
					t.Fatalf("seed %d: extrema narrowed [%.4f, %.4f] -> [%.4f, %.4f]", seed, prev.Low, prev.High, c.Low, c.High)
				}
				if c.Low > c.Close || c.Close > c.High {
					t.Fatalf("seed %d: close %.4f outside [%.4f, %.4f]", seed, c.Close, c.Low, c.High)
				}
				prev = c
			}
			if !a.Done() {
				t.Fatalf("seed %d: bar %+v did not converge", seed, b)
			}
			if seekHighEntries != 1 {
				t.Errorf("seed %d: SEEK_HIGH entered %d times", seed, seekHighEntries)
			}
			final := a.Final()
			if math.Abs(final.Close-b.Close) >= 0.1 {
				t.Errorf("seed %d: final close %.4f not within 0.1 of %.4f", seed, final.Close, b.Close)
			}
			if final.High != b.High || final.Low != b.Low {
				t.Errorf("seed %d: expected animated range to visit [%.2f, %.2f], got [%.2f, %.2f]",
					seed, b.Low, b.High, final.Low, final.High)
			}
		}
	}
}
