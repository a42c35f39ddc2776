package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MarketEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "market_events_total", Help: "Market observations consumed by traders"},
		[]string{"instrument"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Signals generated by strategies"},
		[]string{"instrument", "decision"},
	)
	FractalTiesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fractal_ties_skipped_total", Help: "Outside-bar pivots dropped because both sides scored equally"},
		[]string{"instrument"},
	)
	EventsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "events_dispatched_total", Help: "Engine events dispatched by the router"},
		[]string{"kind"},
	)
	EventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "events_dropped_total", Help: "Engine events dropped or rejected by the queue overflow policy"},
		[]string{"policy"},
	)
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "event_queue_depth", Help: "Events waiting in the engine queue"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"instrument", "side"},
	)
)

func init() {
	prometheus.MustRegister(MarketEventsTotal, SignalsTotal, FractalTiesSkipped, EventsDispatched, EventsDropped, QueueDepth, OrdersTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
