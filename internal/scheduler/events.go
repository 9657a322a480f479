package scheduler

import "MarketReplay/internal/model"

// Finalized describes a bar appended to the Displayed Series. Both the source
// bar and the animated bar are reported; Bar is the one that was stored.
type Finalized struct {
	Index      int            `json:"index"`
	Bar        model.Bar      `json:"bar"`
	Source     model.Bar      `json:"source"`
	Animated   model.Bar      `json:"animated"`
	Policy     FinalizePolicy `json:"-"`
	Superseded bool           `json:"superseded"`
	Preloaded  bool           `json:"preloaded,omitempty"`
}

// Listener receives playback events in order. Implementations may read the
// Scheduler (Snapshot, Quote) but must not call Start or Stop.
type Listener interface {
	// OnBarStart reports a new bar entering the active slot at its open.
	OnBarStart(c model.ActiveCandle)
	// OnTick reports each animator step.
	OnTick(c model.ActiveCandle)
	// OnDone reports an animator reaching DONE, with the animated bar.
	OnDone(final model.Bar)
	// OnSeriesAppend reports a bar appended to the Displayed Series.
	OnSeriesAppend(f Finalized)
}

// ListenerFuncs is a Listener built from optional functions.
type ListenerFuncs struct {
	BarStart     func(c model.ActiveCandle)
	Tick         func(c model.ActiveCandle)
	Done         func(final model.Bar)
	SeriesAppend func(f Finalized)
}

func (l ListenerFuncs) OnBarStart(c model.ActiveCandle) {
	if l.BarStart != nil {
		l.BarStart(c)
	}
}

func (l ListenerFuncs) OnTick(c model.ActiveCandle) {
	if l.Tick != nil {
		l.Tick(c)
	}
}

func (l ListenerFuncs) OnDone(final model.Bar) {
	if l.Done != nil {
		l.Done(final)
	}
}

func (l ListenerFuncs) OnSeriesAppend(f Finalized) {
	if l.SeriesAppend != nil {
		l.SeriesAppend(f)
	}
}

type event func(Listener)

func barStartEvent(c model.ActiveCandle) event {
	return func(l Listener) { l.OnBarStart(c) }
}

func tickEvent(c model.ActiveCandle) event {
	return func(l Listener) { l.OnTick(c) }
}

func doneEvent(b model.Bar) event {
	return func(l Listener) { l.OnDone(b) }
}

func appendEvent(f Finalized) event {
	return func(l Listener) { l.OnSeriesAppend(f) }
}
