package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/selah-app/selah-server/internal/auth"
)

type adminLogin struct {
	Password string `json:"password"`
}

// AdminLogin handles POST /api/admin: exchange the configured password for
// a session token.
func (h *Handlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLogin
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidPayload, "Invalid request body")
		return
	}

	if !h.guard.CheckPassword(req.Password) {
		respondError(w, http.StatusUnauthorized, errInvalidCredentials, "Incorrect password")
		return
	}

	session, err := h.guard.IssueToken(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":     session.Token,
		"expiresAt": session.ExpiresAt.UTC().Format(time.RFC3339),
	}, "Authentication successful")
}

// AdminLogout handles DELETE /api/admin (admin only): revoke the presented
// session token.
func (h *Handlers) AdminLogout(w http.ResponseWriter, r *http.Request) {
	bearer, _ := auth.BearerToken(r)
	if err := h.guard.Revoke(r.Context(), bearer); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil, "Session revoked")
}

// AdminDashboard handles GET /api/admin (admin only): cross-table totals
// for the dashboard landing view.
func (h *Handlers) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	totalEmails, err := h.emails.Count(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	sources, err := h.emails.TopSources(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	type sourceShare struct {
		Source     string  `json:"source"`
		Count      int     `json:"count"`
		Percentage float64 `json:"percentage"`
	}
	shares := make([]sourceShare, 0, len(sources))
	for _, sc := range sources {
		pct := 0.0
		if totalEmails > 0 {
			pct = float64(sc.Count) * 100 / float64(totalEmails)
		}
		shares = append(shares, sourceShare{Source: sc.Source, Count: sc.Count, Percentage: pct})
	}

	statusCounts, err := h.feedback.StatusCounts(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	sessions, err := h.analytics.Summary(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"emails": map[string]interface{}{
			"total":     totalEmails,
			"bySources": shares,
		},
		"feedback": map[string]interface{}{
			"byStatus": statusCounts,
		},
		"sessions":    sessions,
		"lastUpdated": time.Now().UTC().Format(time.RFC3339),
	}, "")
}
