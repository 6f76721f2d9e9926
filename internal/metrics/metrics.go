package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "futureswatch_ticks_total", Help: "Poll cycles by outcome"},
		[]string{"group", "outcome"},
	)
	AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "futureswatch_alerts_total", Help: "Live signals by kind and mode"},
		[]string{"group", "kind", "mode"},
	)
	SpreadZScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "futureswatch_spread_zscore", Help: "Latest spread z-score"},
		[]string{"group", "spread"},
	)
	LastPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "futureswatch_last_price", Help: "Latest instrument price"},
		[]string{"group", "instrument"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, AlertsTotal, SpreadZScore, LastPrice)
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
