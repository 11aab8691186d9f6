package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/internal/external/quotes"
	"github.com/fincept/analytics/pkg/logger"
)

const maxBodyBytes = 10 << 20

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// decodeBody parses a JSON request body into dst and writes a 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondFailure maps an operation error onto a status code.
// Analysis errors are the caller's fault and keep their message.
func respondFailure(w http.ResponseWriter, log *logger.Logger, err error) {
	switch {
	case contracts.IsAnalysisError(err):
		var ae contracts.AnalysisError
		errors.As(err, &ae)
		respondJSON(w, http.StatusUnprocessableEntity, contracts.ErrorBody(ae))
	case errors.Is(err, quotes.ErrUnknownSymbol):
		respondError(w, http.StatusNotFound, "Unknown symbol")
	default:
		log.WithError(err).Error("Request failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
