package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRuns counts sync attempts per provider and result (success, failure, rejected)
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_ingest_sync_runs_total",
		Help: "Total number of provider sync attempts",
	}, []string{"provider", "result"})

	// SyncDuration observes how long a provider sync took
	SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_ingest_sync_duration_seconds",
		Help:    "Duration of provider syncs",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"provider"})

	// LastSuccess holds the unix time of the last successful sync per provider
	LastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "catalog_ingest_last_success_timestamp_seconds",
		Help: "Unix time of the last successful sync",
	}, []string{"provider"})

	// Records holds the record counts of the last successful sync
	Records = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "catalog_ingest_records",
		Help: "Records stored by the last successful sync",
	}, []string{"provider", "kind"})

	// Warnings counts recoverable problems reported by parsers
	Warnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_ingest_warnings_total",
		Help: "Total number of parser warnings",
	}, []string{"provider"})

	// DroppedEntries counts Xtream entries skipped for missing required keys
	DroppedEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_ingest_dropped_entries_total",
		Help: "Total number of provider entries dropped without a warning",
	}, []string{"kind"})

	// FetchErrors counts failed downloads by error kind
	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_ingest_fetch_errors_total",
		Help: "Total number of failed feed downloads",
	}, []string{"kind"})

	// CircuitBreakerState tracks the current state of circuit breakers
	// 0=closed, 1=open, 2=half-open
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "catalog_ingest_circuit_breaker_state",
		Help: "Current state of circuit breaker (0=closed, 1=open, 2=half-open)",
	}, []string{"provider"})

	// CircuitBreakerTrips tracks how many times a circuit breaker transitioned to OPEN
	CircuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_ingest_circuit_breaker_trips_total",
		Help: "Total number of times circuit breaker transitioned to OPEN state",
	}, []string{"provider"})
)

// RecordSync records the result and duration of one provider sync.
func RecordSync(provider, result string, elapsed time.Duration) {
	SyncRuns.WithLabelValues(provider, result).Inc()
	SyncDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// RecordSuccess stores the record counts and time of a successful sync.
func RecordSuccess(provider string, at time.Time, counts map[string]int) {
	LastSuccess.WithLabelValues(provider).Set(float64(at.Unix()))
	for kind, n := range counts {
		Records.WithLabelValues(provider, kind).Set(float64(n))
	}
}

// RecordWarnings adds n parser warnings for a provider
func RecordWarnings(provider string, n int) {
	if n > 0 {
		Warnings.WithLabelValues(provider).Add(float64(n))
	}
}

// RecordDroppedEntries adds n silently dropped entries of the given kind
func RecordDroppedEntries(kind string, n int) {
	if n > 0 {
		DroppedEntries.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordFetchError increments the fetch error counter for a kind
func RecordFetchError(kind string) {
	FetchErrors.WithLabelValues(kind).Inc()
}

// SetCircuitBreakerState updates the circuit breaker state metric
// state should be one of: "CLOSED" (0), "OPEN" (1), "HALF-OPEN" (2)
func SetCircuitBreakerState(provider, state string) {
	var value float64
	switch state {
	case "CLOSED":
		value = 0
	case "OPEN":
		value = 1
	case "HALF-OPEN":
		value = 2
	}
	CircuitBreakerState.WithLabelValues(provider).Set(value)
}

// RecordCircuitBreakerTrip increments the circuit breaker trip counter
func RecordCircuitBreakerTrip(provider string) {
	CircuitBreakerTrips.WithLabelValues(provider).Inc()
}
