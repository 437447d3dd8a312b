package player

import "github.com/prometheus/client_golang/prometheus"

// Metrics
var (
	binds = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vertigo_player_binds_total", Help: "Decoder source attaches"},
	)
	sourceReuse = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vertigo_player_source_reuse_total", Help: "Rebinds skipped because the URL was unchanged"},
	)
	transitions = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vertigo_player_slot_swaps_total", Help: "Visible-slot swaps"},
	)
	autoplayRejected = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vertigo_player_autoplay_rejected_total", Help: "Play calls refused by the backend"},
	)
	attachFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vertigo_player_attach_failures_total", Help: "Decoder attach errors"},
	)
)

// RegisterMetrics registers the player metrics with the default registry.
func RegisterMetrics() {
	prometheus.MustRegister(binds, sourceReuse, transitions, autoplayRejected, attachFailures)
}
