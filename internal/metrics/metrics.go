// Package metrics exposes the Prometheus collectors the simulator updates
// during operation:
//   - solpaper_provider_lookups_total{provider,outcome} – adapter calls (hit|miss|error)
//   - solpaper_resolutions_total{result}                – resolver outcomes (cache|provider|not_found)
//   - solpaper_trades_total{type}                       – ledger mutations by history type
//
// They are registered in init() and served at /metrics by internal/web.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ProviderLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solpaper_provider_lookups_total",
			Help: "Price provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	Resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solpaper_resolutions_total",
			Help: "Quote resolutions by result",
		},
		[]string{"result"},
	)

	Trades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solpaper_trades_total",
			Help: "Ledger mutations by trade type",
		},
		[]string{"type"},
	)
)

const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"

	ResultCache    = "cache"
	ResultProvider = "provider"
	ResultNotFound = "not_found"
)

func init() {
	prometheus.MustRegister(ProviderLookups, Resolutions, Trades)
}
