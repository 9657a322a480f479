package model

// Phase is the stage of a candle animation. Phases only move forward.
type Phase int

const (
	PhaseSeekHigh Phase = iota
	PhaseSeekLow
	PhaseConverge
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseSeekHigh:
		return "SEEK_HIGH"
	case PhaseSeekLow:
		return "SEEK_LOW"
	case PhaseConverge:
		return "CONVERGE"
	case PhaseDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// MarshalText lets phases appear by name in JSON payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ActiveCandle is the working copy of the bar currently being animated.
// High and Low are running extrema of the synthetic closes shown so far.
type ActiveCandle struct {
	Base  Bar     `json:"base"`
	Close float64 `json:"close"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Phase Phase   `json:"phase"`
	Ticks int     `json:"ticks"`
}

// Bar returns the candle as it is currently displayed.
func (c ActiveCandle) Bar() Bar {
	return Bar{
		Time:   c.Base.Time,
		Open:   c.Base.Open,
		High:   c.High,
		Low:    c.Low,
		Close:  c.Close,
		Volume: c.Base.Volume,
	}
}
