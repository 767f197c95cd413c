// Package postgres implements the store repositories against PostgreSQL
// using database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/selah-app/selah-server/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// EmailRepo persists email signups.
type EmailRepo struct{ db *sql.DB }

// NewEmailRepo creates a Postgres-backed email repository.
func NewEmailRepo(db *sql.DB) *EmailRepo { return &EmailRepo{db: db} }

// Create inserts a new signup row. The emails.email unique index is the only
// arbiter of duplicates: ON CONFLICT DO NOTHING makes the insert atomic, and
// a missing RETURNING row is the already-exists signal. On success the
// record's ID and timestamps are filled in and created is true.
func (r *EmailRepo) Create(ctx context.Context, rec *domain.EmailRecord) (created bool, err error) {
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO emails (email, source, engagement_data, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (email) DO NOTHING
		RETURNING id, created_at, updated_at
	`, rec.Email, rec.Source, rec.Engagement).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create email: %w", err)
	}
	return true, nil
}

// GetByEmail fetches a record by its canonical address.
func (r *EmailRepo) GetByEmail(ctx context.Context, email string) (*domain.EmailRecord, error) {
	var rec domain.EmailRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, source, engagement_data, created_at, updated_at
		FROM emails WHERE email = $1
	`, email).Scan(&rec.ID, &rec.Email, &rec.Source, &rec.Engagement, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get email: %w", err)
	}
	return &rec, nil
}

// UpdateEngagement replaces the engagement blob and bumps updated_at.
// The caller is responsible for merging the new snapshot into the existing
// blob and appending to updateHistory before calling this.
func (r *EmailRepo) UpdateEngagement(ctx context.Context, id int64, eng domain.EngagementData) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE emails SET engagement_data = $2, updated_at = NOW() WHERE id = $1
	`, id, eng)
	if err != nil {
		return fmt.Errorf("update engagement: %w", err)
	}
	return nil
}

// EmailFilter narrows List results. Zero values mean "no filter".
type EmailFilter struct {
	Source   string
	Platform string
	Location string
	Limit    int
	Offset   int
}

// List returns a page of signups ordered newest first, plus the total count
// for the same filters. Platform and location filter inside the JSONB blob.
func (r *EmailRepo) List(ctx context.Context, f EmailFilter) ([]domain.EmailRecord, int, error) {
	where := ""
	args := []interface{}{}
	n := 0

	add := func(clause string, val interface{}) {
		n++
		if where == "" {
			where = "WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(clause, n)
		args = append(args, val)
	}

	if f.Source != "" {
		add("source = $%d", f.Source)
	}
	if f.Platform != "" {
		add("engagement_data->>'platformPreference' = $%d", f.Platform)
	}
	if f.Location != "" {
		add("engagement_data->>'location' = $%d", f.Location)
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM emails "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count emails: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, email, source, engagement_data, created_at, updated_at
		FROM emails %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, n+1, n+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list emails: %w", err)
	}
	defer rows.Close()

	var out []domain.EmailRecord
	for rows.Next() {
		var rec domain.EmailRecord
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.Source, &rec.Engagement, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan email: %w", err)
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

// SourceCount is one row of the top-sources breakdown.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// TopSources returns signup counts grouped by source, largest first.
func (r *EmailRepo) TopSources(ctx context.Context) ([]SourceCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT source, COUNT(*) FROM emails GROUP BY source ORDER BY COUNT(*) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("top sources: %w", err)
	}
	defer rows.Close()

	var out []SourceCount
	for rows.Next() {
		var sc SourceCount
		if err := rows.Scan(&sc.Source, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan source count: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Count returns the total number of signups.
func (r *EmailRepo) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM emails`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count emails: %w", err)
	}
	return total, nil
}
