package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/selah-app/selah-server/internal/domain"
	"github.com/selah-app/selah-server/internal/repository/postgres"
	"github.com/selah-app/selah-server/internal/validate"
)

type emailSubmission struct {
	Email   string                    `json:"email"`
	Source  string                    `json:"source"`
	Context *domain.SubmissionContext `json:"context"`
}

// SubmitEmail handles POST /api/emails: validate, normalize, insert-or-touch.
// A brand new address gets 201; a repeat submission gets 200 and, if it
// carries a changed platform preference, an engagement update.
func (h *Handlers) SubmitEmail(w http.ResponseWriter, r *http.Request) {
	var req emailSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidPayload, "Invalid request body")
		return
	}

	v := validate.Email(req.Email)
	if !v.Valid {
		env := Envelope{Success: false, Error: v.Error, Message: emailErrorMessage(v.Error)}
		if len(v.Suggestions) > 0 {
			env.Data = map[string]interface{}{"suggestions": v.Suggestions}
		}
		writeEnvelope(w, http.StatusBadRequest, env)
		return
	}

	source := req.Source
	if source == "" {
		source = domain.SourceLandingPage
	}

	rec := &domain.EmailRecord{
		Email:      v.Normalized,
		Source:     source,
		Engagement: buildEngagement(r, source, req.Context),
	}

	created, err := h.emails.Create(r.Context(), rec)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	if created {
		respondJSON(w, http.StatusCreated, map[string]interface{}{
			"id":          rec.ID,
			"email":       rec.Email,
			"source":      rec.Source,
			"suggestions": v.Suggestions,
		}, welcomeMessage(source, platformOf(req.Context)))
		return
	}

	// Repeat submission. Touch the stored record only when the client sent a
	// platform preference that differs from what we already hold.
	existing, err := h.emails.GetByEmail(r.Context(), v.Normalized)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	platform := platformOf(req.Context)
	if platform != "" && platform != existing.Engagement.PlatformPreference {
		eng := mergeEngagement(existing.Engagement, rec.Engagement)
		eng.UpdateHistory = append(eng.UpdateHistory, domain.UpdateHistoryEntry{
			Timestamp:          time.Now().UTC(),
			Source:             source,
			PlatformPreference: platform,
			Location:           eng.Location,
			Action:             "platform_preference_updated",
		})
		if err := h.emails.UpdateEngagement(r.Context(), existing.ID, eng); err != nil {
			respondStoreError(w, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":     existing.ID,
		"email":  existing.Email,
		"source": existing.Source,
	}, repeatMessage(source, platform))
}

// ListEmails handles GET /api/emails (admin only): a filtered page of
// signups with page-local analytics.
func (h *Handlers) ListEmails(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r, 50, 200)
	q := r.URL.Query()

	records, total, err := h.emails.List(r.Context(), postgres.EmailFilter{
		Source:   q.Get("source"),
		Platform: q.Get("platform"),
		Location: q.Get("location"),
		Limit:    p.Limit,
		Offset:   p.Offset,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"emails":     records,
		"pagination": newPaginationMeta(p, total),
		"analytics":  pageAnalytics(records),
	}, "")
}

// buildEngagement snapshots the request context into the JSONB blob stored
// with a new signup.
func buildEngagement(r *http.Request, source string, ctx *domain.SubmissionContext) domain.EngagementData {
	eng := domain.EngagementData{
		UserAgent:   r.Header.Get("User-Agent"),
		Referer:     r.Header.Get("Referer"),
		IPAddress:   clientIP(r),
		Source:      source,
		SubmittedAt: time.Now().UTC(),
		SourceContext: &domain.SourceContext{
			FromHero:     source == domain.SourceHeroSection,
			FromOrb:      source == domain.SourceOrbInteraction,
			FromChambers: source == domain.SourceChambersDemo,
			FromContract: source == domain.SourceContract,
		},
	}
	if ctx != nil {
		eng.Context = ctx
		eng.PlatformPreference = ctx.PlatformPreference
		eng.Location = ctx.Location
		eng.SessionMetrics = &domain.SessionMetrics{
			TimeSpent:          ctx.SessionTime,
			BreathInteractions: ctx.BreathInteractions,
			ScrollDepth:        ctx.ScrollDepth,
		}
	}
	return eng
}

// mergeEngagement folds a fresh submission snapshot into a stored blob.
// Fresh values win; fields the new submission left empty keep their stored
// values, and the update history is carried over intact.
func mergeEngagement(old, fresh domain.EngagementData) domain.EngagementData {
	merged := fresh
	if merged.PlatformPreference == "" {
		merged.PlatformPreference = old.PlatformPreference
	}
	if merged.Location == "" {
		merged.Location = old.Location
	}
	if merged.UserAgent == "" {
		merged.UserAgent = old.UserAgent
	}
	if merged.Referer == "" {
		merged.Referer = old.Referer
	}
	if merged.SessionMetrics == nil {
		merged.SessionMetrics = old.SessionMetrics
	}
	merged.UpdateHistory = old.UpdateHistory
	return merged
}

func platformOf(ctx *domain.SubmissionContext) string {
	if ctx == nil {
		return ""
	}
	return ctx.PlatformPreference
}

// welcomeMessage picks the success copy for a first-time signup. Platform
// preference wins over source.
func welcomeMessage(source, platform string) string {
	switch platform {
	case domain.PlatformAndroid:
		return "Welcome aboard! You're on the Android beta list and we'll reach out soon."
	case domain.PlatformIOS:
		return "Welcome aboard! You're on the iOS waitlist and we'll let you know the moment it opens."
	}
	switch source {
	case domain.SourceHeroSection:
		return "Your journey with Selah begins. Welcome."
	case domain.SourceOrbInteraction:
		return "The orb heard you. Welcome to Selah."
	}
	return "Welcome to Selah. We'll keep you posted."
}

// repeatMessage picks the copy for an address we already hold.
func repeatMessage(source, platform string) string {
	switch platform {
	case domain.PlatformAndroid:
		return "Got it. Your Android preference is saved."
	case domain.PlatformIOS:
		return "Got it. Your iOS preference is saved."
	}
	if source == domain.SourceHeroSection {
		return "Welcome back. Your journey continues."
	}
	return "You're already on the list. Nothing more to do."
}

func emailErrorMessage(code string) string {
	switch code {
	case validate.ErrEmpty:
		return "Email is required"
	case validate.ErrTooLong:
		return "Email is too long"
	default:
		return "Please enter a valid email address"
	}
}
