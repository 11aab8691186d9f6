package handlers

import (
	"net/http"
	"time"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/internal/fees"
	"github.com/fincept/analytics/internal/metrics"
	"github.com/fincept/analytics/pkg/logger"
)

// FeeHandler handles fee impact endpoints
type FeeHandler struct {
	analyzer  *fees.Analyzer
	schedules *fees.ScheduleFile
	logger    *logger.Logger
}

// NewFeeHandler creates a new fee handler. schedules may be nil when no
// profile file is configured.
func NewFeeHandler(analyzer *fees.Analyzer, schedules *fees.ScheduleFile, log *logger.Logger) *FeeHandler {
	return &FeeHandler{
		analyzer:  analyzer,
		schedules: schedules,
		logger:    log,
	}
}

// Impact simulates fees over a gross return series.
// With ?profile=<id> the named profile replaces the schedule in the body.
// POST /api/fees/impact
func (h *FeeHandler) Impact(w http.ResponseWriter, r *http.Request) {
	var req contracts.FeeImpactRequest
	if !decodeBody(w, r, &req) {
		return
	}

	schedule := fees.ScheduleFromRequest(req)
	if id := r.URL.Query().Get("profile"); id != "" {
		if h.schedules == nil {
			respondError(w, http.StatusNotFound, "No fee profiles configured")
			return
		}
		profile, err := h.schedules.Profile(id)
		if err != nil {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		schedule = profile.Schedule()
	}

	start := time.Now()
	impact, err := h.analyzer.CalculateFeeImpact(req.GrossReturns, schedule)
	metrics.ObserveAnalysis("fee_impact", start, err)
	if err != nil {
		respondFailure(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, impact)
}

// ProfileSummary is a fee profile with its content hash
type ProfileSummary struct {
	fees.Profile
	Hash string `json:"hash"`
}

// Profiles lists configured fee profiles
// GET /api/fees/profiles
func (h *FeeHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	out := []ProfileSummary{}
	if h.schedules != nil {
		for _, p := range h.schedules.Profiles {
			hash, err := fees.Hash(p)
			if err != nil {
				respondFailure(w, h.logger, err)
				return
			}
			out = append(out, ProfileSummary{Profile: p, Hash: hash})
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": out,
		"count":    len(out),
	})
}
