package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/selah-app/selah-server/internal/auth"
	"github.com/selah-app/selah-server/internal/ratelimit"
	"github.com/selah-app/selah-server/internal/repository/postgres"
)

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	db        *sql.DB
	emails    *postgres.EmailRepo
	feedback  *postgres.FeedbackRepo
	analytics *postgres.AnalyticsRepo
	guard     *auth.Guard
	limiter   *ratelimit.Limiter
}

// NewHandlers creates a new Handlers instance. limiter may be nil, which
// disables rate limiting on the public endpoints.
func NewHandlers(db *sql.DB, guard *auth.Guard, limiter *ratelimit.Limiter) *Handlers {
	return &Handlers{
		db:        db,
		emails:    postgres.NewEmailRepo(db),
		feedback:  postgres.NewFeedbackRepo(db),
		analytics: postgres.NewAnalyticsRepo(db),
		guard:     guard,
		limiter:   limiter,
	}
}

// Envelope is the shared response shape for every endpoint.
type Envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// Error codes surfaced to clients.
const (
	errInvalidPayload     = "invalid_payload"
	errInvalidFormat      = "invalid_format"
	errTooLong            = "too_long"
	errMessageTooShort    = "message_too_short"
	errInvalidEmailFormat = "invalid_email_format"
	errMissingFields      = "missing_fields"
	errInvalidStatus      = "invalid_status"
	errInvalidID          = "invalid_id"
	errInvalidCredentials = "invalid_credentials"
	errRateLimited        = "rate_limited"
	errDatabase           = "database_error"
)

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}, message string) {
	writeEnvelope(w, status, Envelope{
		Success: status < 400,
		Data:    data,
		Message: message,
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeEnvelope(w, status, Envelope{
		Success: false,
		Error:   code,
		Message: message,
	})
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	env.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

// clientIP derives the submitting client's address: first entry of a
// comma-separated X-Forwarded-For list, else X-Real-IP, else "unknown".
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	return "unknown"
}

// rateLimited wraps public submission endpoints with the per-IP limiter.
// A nil limiter passes everything through.
func (h *Handlers) rateLimited(scope string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow(r.Context(), scope, clientIP(r)) {
			respondError(w, http.StatusTooManyRequests, errRateLimited, "Too many requests. Please slow down.")
			return
		}
		next(w, r)
	}
}

// HealthCheck reports process and database health. No auth required.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if err := h.db.PingContext(r.Context()); err != nil {
		status = "degraded"
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": status}, "")
}
