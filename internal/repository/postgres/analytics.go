package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/selah-app/selah-server/internal/domain"
)

// AnalyticsRepo persists session summary rows. This table is an optional
// sink; nothing in the request path reads it back except the admin dashboard.
type AnalyticsRepo struct{ db *sql.DB }

// NewAnalyticsRepo creates a Postgres-backed analytics repository.
func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

// Create inserts a session summary row.
func (r *AnalyticsRepo) Create(ctx context.Context, rec *domain.AnalyticsRecord) error {
	var engagement interface{}
	if len(rec.Engagement) > 0 {
		engagement = []byte(rec.Engagement)
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO analytics (session_id, time_spent, max_scroll, breath_interactions, engagement_data, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`, rec.SessionID, rec.TimeSpent, rec.MaxScroll, rec.BreathInteractions, engagement,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("create analytics: %w", err)
	}
	return nil
}

// SessionSummary aggregates the analytics table for the admin dashboard.
type SessionSummary struct {
	TotalSessions           int `json:"totalSessions"`
	AverageTimeSpent        int `json:"averageTimeSpent"`
	TotalBreathInteractions int `json:"totalBreathInteractions"`
}

// Summary computes totals over all recorded sessions.
func (r *AnalyticsRepo) Summary(ctx context.Context) (SessionSummary, error) {
	var s SessionSummary
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(ROUND(AVG(time_spent)), 0),
		       COALESCE(SUM(breath_interactions), 0)
		FROM analytics
	`).Scan(&s.TotalSessions, &s.AverageTimeSpent, &s.TotalBreathInteractions)
	if err != nil {
		return SessionSummary{}, fmt.Errorf("analytics summary: %w", err)
	}
	return s, nil
}
