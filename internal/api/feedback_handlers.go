package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/selah-app/selah-server/internal/domain"
	"github.com/selah-app/selah-server/internal/repository/postgres"
	"github.com/selah-app/selah-server/internal/validate"
)

type feedbackSubmission struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Source  string `json:"source"`
}

// SubmitFeedback handles POST /api/feedback. Every valid submission creates
// a new row with status "new".
func (h *Handlers) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidPayload, "Invalid request body")
		return
	}

	message := strings.TrimSpace(req.Message)
	if utf8.RuneCountInString(message) < 5 {
		respondError(w, http.StatusBadRequest, errMessageTooShort, "Please provide a message with at least 5 characters")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email != "" && !validate.EmailFormatOK(email) {
		respondError(w, http.StatusBadRequest, errInvalidEmailFormat, "Please provide a valid email address")
		return
	}

	// Unknown types are folded into the generic bucket rather than rejected.
	fbType := req.Type
	if !domain.ValidFeedbackType(fbType) {
		fbType = domain.FeedbackTypeFeedback
	}
	source := req.Source
	if source == "" {
		source = "unknown"
	}

	rec := &domain.FeedbackRecord{
		Type:    fbType,
		Name:    strings.TrimSpace(req.Name),
		Email:   email,
		Subject: strings.TrimSpace(req.Subject),
		Message: message,
		Source:  source,
		Status:  domain.FeedbackStatusNew,
		Metadata: domain.FeedbackMetadata{
			UserAgent:   r.Header.Get("User-Agent"),
			Referer:     r.Header.Get("Referer"),
			IPAddress:   clientIP(r),
			Source:      source,
			SubmittedAt: time.Now().UTC(),
		},
	}

	if err := h.feedback.Create(r.Context(), rec); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, rec, "Thank you for your feedback")
}

// ListFeedback handles GET /api/feedback (admin only): a filtered page of
// feedback with page-local type and status counts.
func (h *Handlers) ListFeedback(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r, 20, 100)
	q := r.URL.Query()

	records, total, err := h.feedback.List(r.Context(), postgres.FeedbackFilter{
		Type:   q.Get("type"),
		Status: q.Get("status"),
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	byType := make(map[string]int)
	byStatus := make(map[string]int)
	for _, rec := range records {
		byType[rec.Type]++
		byStatus[rec.Status]++
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"feedback":   records,
		"pagination": newPaginationMeta(p, total),
		"summary": map[string]interface{}{
			"totalFeedback": total,
			"byType":        byType,
			"byStatus":      byStatus,
		},
	}, "")
}

type feedbackStatusUpdate struct {
	ID     json.RawMessage `json:"id"`
	Status string          `json:"status"`
}

// UpdateFeedbackStatus handles PATCH /api/feedback (admin only). The id may
// arrive as a JSON number or string; updating an id that matches no row is
// still reported as success.
func (h *Handlers) UpdateFeedbackStatus(w http.ResponseWriter, r *http.Request) {
	var req feedbackStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidPayload, "Invalid request body")
		return
	}

	// A literal JSON null id is as absent as a missing key.
	if len(req.ID) == 0 || string(req.ID) == "null" || req.Status == "" {
		respondError(w, http.StatusBadRequest, errMissingFields, "ID and status are required")
		return
	}

	id, err := parseFeedbackID(req.ID)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidID, "Invalid feedback ID")
		return
	}

	if !domain.ValidFeedbackStatus(req.Status) {
		respondError(w, http.StatusBadRequest, errInvalidStatus, "Status must be one of: new, read, responded")
		return
	}

	if _, err := h.feedback.UpdateStatus(r.Context(), id, req.Status); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":     id,
		"status": req.Status,
	}, "Feedback status updated")
}

// parseFeedbackID accepts either a JSON number or a numeric string.
func parseFeedbackID(raw json.RawMessage) (int64, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	return strconv.ParseInt(s, 10, 64)
}
