package handlers

import (
	"net/http"
	"time"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/internal/metrics"
	"github.com/fincept/analytics/internal/performance"
	"github.com/fincept/analytics/pkg/logger"
)

// AnalyticsHandler exposes the stateless performance operations
// ⭐ SSOT: 분석 API 핸들러는 이 구조체에서만
type AnalyticsHandler struct {
	analyzer      *performance.Analyzer
	defaultWindow int
	logger        *logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
// defaultWindow applies to rolling requests that omit window_months.
func NewAnalyticsHandler(analyzer *performance.Analyzer, defaultWindow int, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyzer:      analyzer,
		defaultWindow: defaultWindow,
		logger:        log,
	}
}

func (h *AnalyticsHandler) finish(w http.ResponseWriter, op string, start time.Time, result interface{}, err error) {
	metrics.ObserveAnalysis(op, start, err)
	if err != nil {
		respondFailure(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// TWR computes the time-weighted return
// POST /api/analytics/twr
func (h *AnalyticsHandler) TWR(w http.ResponseWriter, r *http.Request) {
	var req contracts.TWRRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start := time.Now()
	m, err := h.analyzer.TimeWeightedReturn(req.Prices, req.CashFlows)
	h.finish(w, "twr", start, m, err)
}

// MWR computes the money-weighted return
// POST /api/analytics/mwr
func (h *AnalyticsHandler) MWR(w http.ResponseWriter, r *http.Request) {
	var req contracts.MWRRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start := time.Now()
	m, err := h.analyzer.MoneyWeightedReturn(req.CashFlows)
	h.finish(w, "mwr", start, m, err)
}

// Risk computes risk-adjusted return metrics
// POST /api/analytics/risk
func (h *AnalyticsHandler) Risk(w http.ResponseWriter, r *http.Request) {
	var req contracts.RiskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start := time.Now()
	m, err := h.analyzer.RiskAdjustedReturns(req.Returns, req.BenchmarkReturns)
	h.finish(w, "risk", start, m, err)
}

// Attribution computes active-return attribution
// POST /api/analytics/attribution
func (h *AnalyticsHandler) Attribution(w http.ResponseWriter, r *http.Request) {
	var req contracts.AttributionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start := time.Now()
	m, err := h.analyzer.PerformanceAttribution(req.PortfolioReturns, req.BenchmarkReturns, req.SectorWeights)
	h.finish(w, "attribution", start, m, err)
}

// Downside computes downside-risk metrics
// POST /api/analytics/downside
func (h *AnalyticsHandler) Downside(w http.ResponseWriter, r *http.Request) {
	var req contracts.DownsideRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start := time.Now()
	m, err := h.analyzer.DownsideMetrics(req.Returns, req.TargetReturn)
	h.finish(w, "downside", start, m, err)
}

// Rolling computes trailing-window summaries. Never fails on short input.
// POST /api/analytics/rolling
func (h *AnalyticsHandler) Rolling(w http.ResponseWriter, r *http.Request) {
	var req contracts.RollingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.WindowMonths == 0 {
		req.WindowMonths = h.defaultWindow
	}
	start := time.Now()
	windows := h.analyzer.RollingPerformance(req.Prices, req.WindowMonths)
	h.finish(w, "rolling", start, windows, nil)
}

// Factors regresses portfolio returns on factor returns
// POST /api/analytics/factors
func (h *AnalyticsHandler) Factors(w http.ResponseWriter, r *http.Request) {
	var req contracts.FactorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start := time.Now()
	m := h.analyzer.FactorExposures(req.PortfolioReturns, req.FactorReturns)
	h.finish(w, "factors", start, m, nil)
}

// Benchmark compares portfolio and benchmark returns
// POST /api/analytics/benchmark
func (h *AnalyticsHandler) Benchmark(w http.ResponseWriter, r *http.Request) {
	var req contracts.BenchmarkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start := time.Now()
	m, err := h.analyzer.BenchmarkAnalysis(req.PortfolioReturns, req.BenchmarkReturns)
	h.finish(w, "benchmark", start, m, err)
}

// Persistence measures rank persistence across periods
// POST /api/analytics/persistence
func (h *AnalyticsHandler) Persistence(w http.ResponseWriter, r *http.Request) {
	var req contracts.PersistenceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start := time.Now()
	res, err := h.analyzer.PerformancePersistence(req.ReturnsByPeriod)
	h.finish(w, "persistence", start, res, err)
}
