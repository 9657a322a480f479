// Package viewport keeps the visible index window over the displayed series
// and applies zoom and pan gestures to it.
package viewport

import (
	"math"
	"sync"
)

const (
	zoomIn       = 0.9
	zoomOut      = 1.1
	pixelsPerBar = 10
)

// Window is the visible index range [XStart, XEnd]. Indices need not be integral.
type Window struct {
	XStart float64 `json:"xStart"`
	XEnd   float64 `json:"xEnd"`
}

// Controller owns a Window over a series of n points. Every result is
// clamped to [0, n-1]; gestures are never rejected.
type Controller struct {
	mu sync.Mutex
	w  Window
	n  int
}

// New returns a controller showing all n points.
func New(n int) *Controller {
	c := &Controller{}
	c.n = max(n, 0)
	c.w = Window{XStart: 0, XEnd: c.maxIndex()}
	return c
}

// Window returns the current window.
func (c *Controller) Window() Window {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w
}

// Len returns the number of points the window ranges over.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Zoom scales both endpoints from the origin: by 0.9 for a negative scroll
// delta and by 1.1 otherwise.
func (c *Controller) Zoom(dy float64) Window {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := zoomOut
	if dy < 0 {
		f = zoomIn
	}
	c.w.XStart = c.clamp(c.w.XStart * f)
	c.w.XEnd = c.clamp(c.w.XEnd * f)
	return c.w
}

// Pan shifts both endpoints by round(-ox/10) bars, clamping each independently.
func (c *Controller) Pan(ox float64) Window {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Half-up rounding, so a -2.5 offset moves by -2.
	off := math.Floor(-ox/pixelsPerBar + 0.5)
	c.w.XStart = c.clamp(c.w.XStart + off)
	c.w.XEnd = c.clamp(c.w.XEnd + off)
	return c.w
}

// SetLength updates the number of points. A window whose end sat on the
// last point keeps following the tail.
func (c *Controller) SetLength(n int) Window {
	c.mu.Lock()
	defer c.mu.Unlock()

	n = max(n, 0)
	following := c.w.XEnd >= c.maxIndex()
	c.n = n
	if following {
		c.w.XEnd = c.maxIndex()
	}
	c.w.XStart = c.clamp(c.w.XStart)
	c.w.XEnd = c.clamp(c.w.XEnd)
	return c.w
}

// Range returns the inclusive integral bounds covering the window, suitable
// for slicing: floor(XStart) .. ceil(XEnd). ok is false when there are no points.
func (c *Controller) Range() (lo, hi int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.n == 0 {
		return 0, 0, false
	}
	lo = int(math.Floor(c.w.XStart))
	hi = int(math.Ceil(c.w.XEnd))
	if hi > c.n-1 {
		hi = c.n - 1
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi, true
}

func (c *Controller) maxIndex() float64 {
	if c.n <= 1 {
		return 0
	}
	return float64(c.n - 1)
}

func (c *Controller) clamp(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(c.maxIndex(), x))
}
