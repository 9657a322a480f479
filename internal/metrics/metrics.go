package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// TicksTotal counts animator steps.
	TicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "replay",
		Subsystem: "animator",
		Name:      "ticks_total",
		Help:      "Total number of candle animator ticks",
	})

	// BarsStartedTotal counts bars that entered the active slot.
	BarsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "replay",
		Subsystem: "scheduler",
		Name:      "bars_started_total",
		Help:      "Total number of bars that started animating",
	})

	// BarsAppendedTotal counts bars appended to the displayed series, by cause.
	BarsAppendedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "replay",
		Subsystem: "scheduler",
		Name:      "bars_appended_total",
		Help:      "Total number of bars appended to the displayed series",
	}, []string{"cause"}) // done | superseded | preload

	// DisplayedBars is the length of the displayed series.
	DisplayedBars = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "replay",
		Subsystem: "scheduler",
		Name:      "displayed_bars",
		Help:      "Number of finalized bars in the displayed series",
	})

	// LastPrice is the most recent synthetic close.
	LastPrice = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "replay",
		Subsystem: "animator",
		Name:      "last_price",
		Help:      "Close of the active candle at the last tick",
	})

	// RowsSkippedTotal counts malformed source rows dropped at ingestion.
	RowsSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "replay",
		Subsystem: "collector",
		Name:      "rows_skipped_total",
		Help:      "Total number of source rows skipped as malformed",
	})

	// TradesTotal counts trade submissions by action and result.
	TradesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "replay",
		Subsystem: "trade",
		Name:      "submissions_total",
		Help:      "Total number of trade submissions",
	}, []string{"action", "result"}) // result: accepted | rejected

	// WSClients is the number of connected dashboards.
	WSClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "replay",
		Subsystem: "ws",
		Name:      "clients",
		Help:      "Number of connected dashboard websocket clients",
	})
)

// Register registers every metric with the given registerer, or with
// prometheus.DefaultRegisterer when none is given. Later calls are no-ops.
func Register(registerers ...prometheus.Registerer) {
	once.Do(func() {
		var reg prometheus.Registerer
		if len(registerers) > 0 && registerers[0] != nil {
			reg = registerers[0]
		} else {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			TicksTotal,
			BarsStartedTotal,
			BarsAppendedTotal,
			DisplayedBars,
			LastPrice,
			RowsSkippedTotal,
			TradesTotal,
			WSClients,
		)
	})
}
