package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fincept/analytics/internal/contracts"
)

// Bounded label values
const (
	OutcomeOK            = "ok"
	OutcomeAnalysisError = "analysis_error"
	OutcomeError         = "error"

	SourceDatabase = "database"
	SourceAPI      = "api"
	SourceCache    = "cache"
)

var (
	analysisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fincept_analysis_requests_total",
			Help: "Analytics operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	analysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fincept_analysis_duration_seconds",
			Help:    "Analytics operation latency",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"operation"},
	)

	apiRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fincept_api_requests_total",
			Help: "HTTP requests by method, route template and status",
		},
		[]string{"method", "route", "status"},
	)

	apiDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fincept_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	priceLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fincept_price_loads_total",
			Help: "Price series loads by source",
		},
		[]string{"source"},
	)

	reportRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fincept_report_refreshes_total",
			Help: "Scheduled report refreshes by outcome",
		},
		[]string{"outcome"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Outcome classifies an operation error into a bounded label value
func Outcome(err error) string {
	var ae contracts.AnalysisError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &ae):
		return OutcomeAnalysisError
	default:
		return OutcomeError
	}
}

// ObserveAnalysis records one analytics operation
func ObserveAnalysis(operation string, start time.Time, err error) {
	analysisRequests.WithLabelValues(operation, Outcome(err)).Inc()
	analysisDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordAPIRequest records one HTTP request
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	apiRequests.WithLabelValues(method, route, status).Inc()
	apiDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordPriceLoad records where a price series came from
func RecordPriceLoad(source string) {
	priceLoads.WithLabelValues(source).Inc()
}

// RecordReportRefresh records a scheduled refresh outcome
func RecordReportRefresh(err error) {
	reportRefreshes.WithLabelValues(Outcome(err)).Inc()
}
