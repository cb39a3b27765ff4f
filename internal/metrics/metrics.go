package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Curation console metrics
var (
	// HTTP
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taxacurator",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taxacurator",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	// Remote Data Gateway calls
	GatewayCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taxacurator",
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Gateway calls by driver, operation, target and outcome",
		},
		[]string{"driver", "operation", "target", "outcome"},
	)

	GatewayCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taxacurator",
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Gateway call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"driver", "operation"},
	)

	// Console fetch strategies (RPC path, table path)
	FetchStrategyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taxacurator",
			Subsystem: "console",
			Name:      "fetch_strategy_total",
			Help:      "Fetch strategy attempts by console, strategy and outcome",
		},
		[]string{"console", "strategy", "outcome"},
	)

	// Audit log writes
	AuditWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taxacurator",
			Subsystem: "audit",
			Name:      "writes_total",
			Help:      "Audit log writes by action and outcome",
		},
		[]string{"action", "outcome"},
	)
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Outcome maps an error to its label value.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
