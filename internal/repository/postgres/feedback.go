package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/selah-app/selah-server/internal/domain"
)

// FeedbackRepo persists visitor feedback and inquiries.
type FeedbackRepo struct{ db *sql.DB }

// NewFeedbackRepo creates a Postgres-backed feedback repository.
func NewFeedbackRepo(db *sql.DB) *FeedbackRepo { return &FeedbackRepo{db: db} }

// Create inserts a feedback row. Every submission creates a new row; there
// is no uniqueness constraint on feedback.
func (r *FeedbackRepo) Create(ctx context.Context, rec *domain.FeedbackRecord) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO feedback (type, name, email, subject, message, source, metadata, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, rec.Type, nullable(rec.Name), nullable(rec.Email), nullable(rec.Subject),
		rec.Message, rec.Source, rec.Metadata, rec.Status,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// FeedbackFilter narrows List results. Zero values mean "no filter".
type FeedbackFilter struct {
	Type   string
	Status string
	Limit  int
	Offset int
}

// List returns a page of feedback ordered newest first plus the total count
// for the same filters.
func (r *FeedbackRepo) List(ctx context.Context, f FeedbackFilter) ([]domain.FeedbackRecord, int, error) {
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

	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM feedback "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count feedback: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, type, name, email, subject, message, source, metadata, status, created_at, updated_at
		FROM feedback %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, n+1, n+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []domain.FeedbackRecord
	for rows.Next() {
		var rec domain.FeedbackRecord
		var name, email, subject sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Type, &name, &email, &subject,
			&rec.Message, &rec.Source, &rec.Metadata, &rec.Status,
			&rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan feedback: %w", err)
		}
		rec.Name, rec.Email, rec.Subject = name.String, email.String, subject.String
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

// UpdateStatus sets the status of one feedback row and bumps updated_at.
// Updating an unknown id is not an error; the affected-row count is returned
// so callers can tell the difference if they care.
func (r *FeedbackRepo) UpdateStatus(ctx context.Context, id int64, status string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE feedback SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return 0, fmt.Errorf("update feedback status: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// StatusCounts returns feedback totals grouped by status.
func (r *FeedbackRepo) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM feedback GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("feedback status counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		out[status] = count
	}
	return out, rows.Err()
}

// nullable maps empty strings to NULL so optional columns stay NULL rather
// than collecting empty strings.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
