package api

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/fincept/analytics/internal/api/handlers"
	"github.com/fincept/analytics/internal/metrics"
	"github.com/fincept/analytics/pkg/logger"
	"github.com/fincept/analytics/pkg/redis"
)

// Handlers groups the endpoint handlers. Reports may be nil when no price
// source is configured.
type Handlers struct {
	Health    *handlers.HealthHandler
	Analytics *handlers.AnalyticsHandler
	Fees      *handlers.FeeHandler
	Reports   *handlers.ReportHandler
}

// Options controls optional router features
type Options struct {
	Limiter        *redis.RateLimiter
	RateLimit      int // requests per client per minute, 0 = unlimited
	MetricsEnabled bool
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, opts Options, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", h.Health.Health).Methods("GET")
	if opts.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	// 경로는 맞고 메서드만 다르면 405 (서브라우터도 별도 지정 필요)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	// Analytics endpoints
	api.HandleFunc("/analytics/twr", h.Analytics.TWR).Methods("POST")
	api.HandleFunc("/analytics/mwr", h.Analytics.MWR).Methods("POST")
	api.HandleFunc("/analytics/risk", h.Analytics.Risk).Methods("POST")
	api.HandleFunc("/analytics/attribution", h.Analytics.Attribution).Methods("POST")
	api.HandleFunc("/analytics/downside", h.Analytics.Downside).Methods("POST")
	api.HandleFunc("/analytics/rolling", h.Analytics.Rolling).Methods("POST")
	api.HandleFunc("/analytics/factors", h.Analytics.Factors).Methods("POST")
	api.HandleFunc("/analytics/benchmark", h.Analytics.Benchmark).Methods("POST")
	api.HandleFunc("/analytics/persistence", h.Analytics.Persistence).Methods("POST")

	// Fee endpoints
	api.HandleFunc("/fees/impact", h.Fees.Impact).Methods("POST")
	api.HandleFunc("/fees/profiles", h.Fees.Profiles).Methods("GET")

	// Report endpoints
	if h.Reports != nil {
		api.HandleFunc("/reports/{symbol}", h.Reports.GetReport).Methods("GET")
		api.HandleFunc("/portfolios/{id}/mwr", h.Reports.PortfolioMWR).Methods("GET")
	}

	if opts.Limiter != nil && opts.RateLimit > 0 {
		api.Use(rateLimitMiddleware(opts.Limiter, opts.RateLimit, log))
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	if opts.MetricsEnabled {
		r.Use(metrics.HTTPMiddleware)
	}

	return r
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					writeError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware applies a per-client sliding one-minute window of
// limit requests. Redis failures let the request through.
func rateLimitMiddleware(limiter *redis.RateLimiter, limit int, log *logger.Logger) mux.MiddlewareFunc {
	cfg := redis.RateLimitConfig{Limit: limit, Window: time.Minute}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, err := limiter.Allow(r.Context(), clientIP(r), cfg)
			if err != nil {
				log.WithError(err).Warn("Rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
