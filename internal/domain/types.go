// Package domain defines the core types shared by handlers and
// repositories: the capture records, their JSONB blobs, and the fixed
// vocabularies for sources, platforms, and feedback states.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Known email capture sources. The list is marketing-driven; unknown values
// are stored as-is rather than rejected.
const (
	SourceLandingPage    = "landing-page"
	SourceHeroSection    = "hero-section"
	SourceOrbInteraction = "orb-interaction"
	SourceContract       = "contract-section"
	SourceChambersDemo   = "chambers-demo"
)

// KnownSources is the fixed key set used for page-local source stats.
var KnownSources = []string{
	SourceLandingPage,
	SourceHeroSection,
	SourceOrbInteraction,
	SourceContract,
	SourceChambersDemo,
}

// Platform preference values. Empty string means the visitor never picked one.
const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
)

// Feedback types.
const (
	FeedbackTypeFeedback = "feedback"
	FeedbackTypeQuestion = "question"
	FeedbackTypeContact  = "contact"
	FeedbackTypeBug      = "bug-report"
	FeedbackTypeFeature  = "feature-request"
)

// Feedback statuses.
const (
	FeedbackStatusNew       = "new"
	FeedbackStatusRead      = "read"
	FeedbackStatusResponded = "responded"
)

// ValidFeedbackType reports whether t is one of the known feedback types.
func ValidFeedbackType(t string) bool {
	switch t {
	case FeedbackTypeFeedback, FeedbackTypeQuestion, FeedbackTypeContact,
		FeedbackTypeBug, FeedbackTypeFeature:
		return true
	}
	return false
}

// ValidFeedbackStatus reports whether s is one of the known statuses.
func ValidFeedbackStatus(s string) bool {
	switch s {
	case FeedbackStatusNew, FeedbackStatusRead, FeedbackStatusResponded:
		return true
	}
	return false
}

// SessionMetrics carries the client-reported session numbers inside the
// engagement blob.
type SessionMetrics struct {
	TimeSpent          int `json:"timeSpent"`
	BreathInteractions int `json:"breathInteractions"`
	ScrollDepth        int `json:"scrollDepth"`
}

// SourceContext classifies where on the page the submission came from.
type SourceContext struct {
	FromHero     bool `json:"fromHero,omitempty"`
	FromOrb      bool `json:"fromOrb,omitempty"`
	FromChambers bool `json:"fromChambers,omitempty"`
	FromContract bool `json:"fromContract,omitempty"`
}

// UpdateHistoryEntry records one mutation of an existing email record.
// Entries are append-only; the blob is never rewritten from scratch.
type UpdateHistoryEntry struct {
	Timestamp          time.Time `json:"timestamp"`
	Source             string    `json:"source"`
	PlatformPreference string    `json:"platformPreference,omitempty"`
	Location           string    `json:"location,omitempty"`
	Action             string    `json:"action"`
}

// SubmissionContext is the free-form context object the landing page sends
// with an email submission. All fields are optional.
type SubmissionContext struct {
	SessionTime        int    `json:"sessionTime"`
	BreathInteractions int    `json:"breathInteractions"`
	ScrollDepth        int    `json:"scrollDepth"`
	PlatformPreference string `json:"platformPreference"`
	Location           string `json:"location"`
}

// EngagementData is the JSONB blob attached to an email record. It captures
// the request context at submission time plus everything the client told us.
type EngagementData struct {
	UserAgent          string               `json:"userAgent,omitempty"`
	Referer            string               `json:"referer,omitempty"`
	IPAddress          string               `json:"ipAddress,omitempty"`
	Source             string               `json:"source,omitempty"`
	PlatformPreference string               `json:"platformPreference,omitempty"`
	Location           string               `json:"location,omitempty"`
	Context            *SubmissionContext   `json:"context,omitempty"`
	SourceContext      *SourceContext       `json:"sourceContext,omitempty"`
	SessionMetrics     *SessionMetrics      `json:"sessionMetrics,omitempty"`
	UpdateHistory      []UpdateHistoryEntry `json:"updateHistory,omitempty"`
	SubmittedAt        time.Time            `json:"submittedAt"`
}

// Value implements driver.Valuer so the blob round-trips through a JSONB column.
func (e EngagementData) Value() (driver.Value, error) {
	return json.Marshal(e)
}

// Scan implements sql.Scanner for JSONB columns. NULL scans to the zero value.
func (e *EngagementData) Scan(src interface{}) error {
	if src == nil {
		*e = EngagementData{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("engagement_data: unsupported scan type %T", src)
	}
	return json.Unmarshal(b, e)
}

// FeedbackMetadata is the JSONB blob attached to a feedback row.
type FeedbackMetadata struct {
	UserAgent   string    `json:"userAgent,omitempty"`
	Referer     string    `json:"referer,omitempty"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	Source      string    `json:"source,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func (m FeedbackMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *FeedbackMetadata) Scan(src interface{}) error {
	if src == nil {
		*m = FeedbackMetadata{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("metadata: unsupported scan type %T", src)
	}
	return json.Unmarshal(b, m)
}

// EmailRecord is one row of the emails table. Email is stored in canonical
// (trimmed, lower-cased) form and is unique.
type EmailRecord struct {
	ID         int64          `json:"id"`
	Email      string         `json:"email"`
	Source     string         `json:"source"`
	Engagement EngagementData `json:"engagement"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// FeedbackRecord is one row of the feedback table.
type FeedbackRecord struct {
	ID        int64            `json:"id"`
	Type      string           `json:"type"`
	Name      string           `json:"name,omitempty"`
	Email     string           `json:"email,omitempty"`
	Subject   string           `json:"subject,omitempty"`
	Message   string           `json:"message"`
	Source    string           `json:"source"`
	Metadata  FeedbackMetadata `json:"metadata"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// AnalyticsRecord is one row of the analytics table (session summary sink).
type AnalyticsRecord struct {
	ID                 int64           `json:"id"`
	SessionID          string          `json:"sessionId"`
	TimeSpent          int             `json:"timeSpent"`
	MaxScroll          int             `json:"maxScroll"`
	BreathInteractions int             `json:"breathInteractions"`
	Engagement         json.RawMessage `json:"engagementData,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// AdminSession is one issued admin bearer token.
type AdminSession struct {
	ID        string    `json:"id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
