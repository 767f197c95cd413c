package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/selah-app/selah-server/internal/domain"
)

// SessionRepo persists issued admin bearer tokens.
type SessionRepo struct{ db *sql.DB }

// NewSessionRepo creates a Postgres-backed admin session repository.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// Create stores a freshly issued token.
func (r *SessionRepo) Create(ctx context.Context, token string, expiresAt time.Time) (*domain.AdminSession, error) {
	s := &domain.AdminSession{
		ID:        uuid.New().String(),
		Token:     token,
		ExpiresAt: expiresAt,
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO admin_sessions (id, session_token, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`, s.ID, s.Token, s.ExpiresAt).Scan(&s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create admin session: %w", err)
	}
	return s, nil
}

// Get looks up a token. Expired tokens are deleted on sight and reported as
// not found.
func (r *SessionRepo) Get(ctx context.Context, token string) (*domain.AdminSession, error) {
	var s domain.AdminSession
	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_token, expires_at, created_at
		FROM admin_sessions WHERE session_token = $1
	`, token).Scan(&s.ID, &s.Token, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin session: %w", err)
	}

	if time.Now().After(s.ExpiresAt) {
		_, _ = r.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE session_token = $1`, token)
		return nil, ErrNotFound
	}
	return &s, nil
}

// Delete revokes a token. Revoking an unknown token is a no-op.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE session_token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete admin session: %w", err)
	}
	return nil
}

// DeleteExpired prunes every expired token and returns how many were removed.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
