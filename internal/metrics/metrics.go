// Package metrics registers the Prometheus collectors of the seating
// service.  Collectors are package globals registered through promauto,
// the handler is mounted at /metrics by the router.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// mutationsTotal counts engine mutations by operation and result
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seating_mutations_total",
		Help: "Total layout mutations by operation and result",
	}, []string{"op", "result"})

	// mutationDuration tracks mutation latency including validation
	mutationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seating_mutation_duration_seconds",
		Help:    "Layout mutation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
	}, []string{"op"})

	// lockRequests counts advisory lock requests by outcome
	lockRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seating_lock_requests_total",
		Help: "Advisory table lock requests by result",
	}, []string{"result"})

	// conflictsGauge holds the current conflict count per plan, tab and type
	conflictsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "seating_conflicts",
		Help: "Current conflicts by plan, tab and type",
	}, []string{"plan", "tab", "type"})

	// unplacedGuests counts guests the auto-assigner could not seat
	unplacedGuests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seating_autoassign_unplaced_total",
		Help: "Guests left unassigned by the auto-assigner, by reason",
	}, []string{"reason"})

	// historyDepth tracks undo stack sizes
	historyDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "seating_history_depth",
		Help: "Undo history entries by plan and tab",
	}, []string{"plan", "tab"})

	// relayEvents counts collaboration events crossing the relay
	relayEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seating_relay_events_total",
		Help: "Collaboration events relayed by direction and kind",
	}, []string{"direction", "kind"})
)

// ObserveMutation records one mutation.
func ObserveMutation(op string, err error, started time.Time) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	mutationsTotal.WithLabelValues(op, result).Inc()
	mutationDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// ObserveLock records a lock request outcome: granted, denied or
// unavailable.
func ObserveLock(result string) { lockRequests.WithLabelValues(result).Inc() }

// SetConflicts replaces the conflict gauges of a plan tab.
func SetConflicts(plan, tab string, counts map[string]int, known []string) {
	for _, typ := range known {
		conflictsGauge.WithLabelValues(plan, tab, typ).Set(float64(counts[typ]))
	}
}

// ObserveUnplaced records guests left unassigned.
func ObserveUnplaced(reason string, n int) {
	if n > 0 {
		unplacedGuests.WithLabelValues(reason).Add(float64(n))
	}
}

// SetHistoryDepth records the undo stack size.
func SetHistoryDepth(plan, tab string, n int) {
	historyDepth.WithLabelValues(plan, tab).Set(float64(n))
}

// ObserveRelay records a relayed event; direction is "out" or "in".
func ObserveRelay(direction, kind string) { relayEvents.WithLabelValues(direction, kind).Inc() }

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
