package api

import (
	"encoding/json"
	"net/http"

	"github.com/selah-app/selah-server/internal/domain"
)

type analyticsSubmission struct {
	SessionID          string          `json:"sessionId"`
	TimeSpent          int             `json:"timeSpent"`
	MaxScroll          int             `json:"maxScroll"`
	BreathInteractions int             `json:"breathInteractions"`
	Engagement         json.RawMessage `json:"engagementData"`
}

// SubmitAnalytics handles POST /api/analytics: fire-and-forget session
// summaries from the landing page.
func (h *Handlers) SubmitAnalytics(w http.ResponseWriter, r *http.Request) {
	var req analyticsSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidPayload, "Invalid request body")
		return
	}

	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, errMissingFields, "Session ID is required")
		return
	}

	rec := &domain.AnalyticsRecord{
		SessionID:          req.SessionID,
		TimeSpent:          req.TimeSpent,
		MaxScroll:          req.MaxScroll,
		BreathInteractions: req.BreathInteractions,
		Engagement:         req.Engagement,
	}
	if err := h.analytics.Create(r.Context(), rec); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"id": rec.ID}, "Session recorded")
}
