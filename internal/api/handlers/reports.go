package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/internal/report"
	"github.com/fincept/analytics/pkg/logger"
)

const dateLayout = "2006-01-02"

// ReportService is the slice of report.Service the API needs
type ReportService interface {
	Get(ctx context.Context, symbol string, from, to time.Time) (*report.Report, error)
	PortfolioMWR(ctx context.Context, portfolioID string) (contracts.Metrics, error)
}

// ReportHandler serves cached performance reports
type ReportHandler struct {
	service ReportService
	logger  *logger.Logger
	now     func() time.Time
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  log,
		now:     time.Now,
	}
}

// GetReport returns the performance report for a symbol.
// to defaults to today, from to one year before to.
// GET /api/reports/{symbol}?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	q := r.URL.Query()
	to := h.now().UTC().Truncate(24 * time.Hour)
	if s := q.Get("to"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid to date (YYYY-MM-DD)")
			return
		}
		to = t
	}

	from := to.AddDate(-1, 0, 0)
	if s := q.Get("from"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid from date (YYYY-MM-DD)")
			return
		}
		from = t
	}

	if !from.Before(to) {
		respondError(w, http.StatusBadRequest, "from must be before to")
		return
	}

	rep, err := h.service.Get(r.Context(), symbol, from, to)
	if err != nil {
		respondFailure(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, rep)
}

// PortfolioMWR returns money-weighted return metrics for a stored portfolio
// GET /api/portfolios/{id}/mwr
func (h *ReportHandler) PortfolioMWR(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		respondError(w, http.StatusBadRequest, "portfolio id is required")
		return
	}

	m, err := h.service.PortfolioMWR(r.Context(), id)
	if err != nil {
		respondFailure(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, m)
}
