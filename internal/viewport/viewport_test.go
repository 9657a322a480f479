package viewport

import (
	"math/rand"
	"testing"
)

func TestZoom(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		start     Window
		dy        float64
		wantStart float64
		wantEnd   float64
	}{
		{"zoom in scales towards origin", 100, Window{10, 50}, -1, 9, 45},
		{"zoom out scales away from origin", 100, Window{10, 50}, 1, 11, 55},
		{"zero delta zooms out", 100, Window{10, 50}, 0, 11, 55},
		{"zoom out clamps end", 100, Window{10, 95}, 3, 11, 99},
		{"single point", 1, Window{0, 0}, 1, 0, 0},
	}
	for _, tt := range tests {
		c := New(tt.n)
		c.w = tt.start
		w := c.Zoom(tt.dy)
		if !approx(w.XStart, tt.wantStart) || !approx(w.XEnd, tt.wantEnd) {
			t.Errorf("%s: expected [%.2f, %.2f], got [%.2f, %.2f]", tt.name, tt.wantStart, tt.wantEnd, w.XStart, w.XEnd)
		}
	}
}

func TestPan(t *testing.T) {
	tests := []struct {
		name      string
		ox        float64
		wantStart float64
		wantEnd   float64
	}{
		{"drag right moves window left", 30, 7, 17},
		{"drag left moves window right", -30, 13, 23},
		{"half rounds up", 25, 8, 18},
		{"negative half rounds up", -25, 13, 23},
		{"small drag is ignored", 4, 10, 20},
		{"large drag clamps start", 500, 0, 0},
		{"large drag clamps end", -1000, 49, 49},
	}
	for _, tt := range tests {
		c := New(50)
		c.w = Window{10, 20}
		w := c.Pan(tt.ox)
		if w.XStart != tt.wantStart || w.XEnd != tt.wantEnd {
			t.Errorf("%s: expected [%.1f, %.1f], got [%.1f, %.1f]", tt.name, tt.wantStart, tt.wantEnd, w.XStart, w.XEnd)
		}
	}
}

func TestClampHoldsForRandomGestures(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{0, 1, 2, 10, 500} {
		c := New(n)
		for i := 0; i < 2000; i++ {
			switch rng.Intn(3) {
			case 0:
				c.Zoom(rng.Float64()*200 - 100)
			case 1:
				c.Pan(rng.Float64()*4000 - 2000)
			default:
				c.SetLength(n)
			}
			w := c.Window()
			hi := float64(n - 1)
			if n <= 1 {
				hi = 0
			}
			if w.XStart < 0 || w.XEnd < 0 || w.XStart > hi || w.XEnd > hi {
				t.Fatalf("n=%d step %d: window [%.3f, %.3f] outside [0, %.0f]", n, i, w.XStart, w.XEnd, hi)
			}
		}
	}
}

func TestSetLength_FollowsTail(t *testing.T) {
	c := New(10)
	c.SetLength(11)
	if w := c.Window(); w.XEnd != 10 {
		t.Errorf("expected window to follow the tail, got %+v", w)
	}

	c.Pan(30) // move away from the tail
	c.SetLength(12)
	if w := c.Window(); w.XEnd != 7 {
		t.Errorf("expected detached window to stay, got %+v", w)
	}
}

func TestRange(t *testing.T) {
	c := New(0)
	if _, _, ok := c.Range(); ok {
		t.Error("expected no range for an empty series")
	}
	c.SetLength(20)
	c.w = Window{2.4, 7.2}
	lo, hi, ok := c.Range()
	if !ok || lo != 2 || hi != 8 {
		t.Errorf("expected 2..8, got %d..%d", lo, hi)
	}
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
