// Package auth implements the admin access guard: a single configured
// secret compared in constant time, plus database-backed bearer tokens
// issued at login with a TTL and explicit revocation.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/selah-app/selah-server/internal/domain"
	"github.com/selah-app/selah-server/internal/repository/postgres"
)

// Guard verification errors.
var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// SessionStore persists issued bearer tokens.
type SessionStore interface {
	Create(ctx context.Context, token string, expiresAt time.Time) (*domain.AdminSession, error)
	Get(ctx context.Context, token string) (*domain.AdminSession, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// Guard gates the admin API.
type Guard struct {
	secret   []byte
	ttl      time.Duration
	sessions SessionStore
}

// NewGuard creates a guard around the configured admin secret.
func NewGuard(secret string, ttl time.Duration, sessions SessionStore) *Guard {
	return &Guard{secret: []byte(secret), ttl: ttl, sessions: sessions}
}

// CheckPassword compares a login attempt against the configured secret in
// constant time.
func (g *Guard) CheckPassword(password string) bool {
	return subtle.ConstantTimeCompare([]byte(password), g.secret) == 1
}

// IssueToken mints a random session token and persists it with the
// configured TTL.
func (g *Guard) IssueToken(ctx context.Context) (*domain.AdminSession, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return g.sessions.Create(ctx, token, time.Now().Add(g.ttl))
}

// Verify accepts either the configured secret itself or a live session
// token as the bearer value. A store failure is not a credential failure
// and is returned as-is.
func (g *Guard) Verify(ctx context.Context, bearer string) error {
	if bearer == "" {
		return ErrMissingCredentials
	}
	if subtle.ConstantTimeCompare([]byte(bearer), g.secret) == 1 {
		return nil
	}
	_, err := g.sessions.Get(ctx, bearer)
	if err == nil {
		return nil
	}
	if errors.Is(err, postgres.ErrNotFound) {
		return ErrInvalidCredentials
	}
	return fmt.Errorf("verify session: %w", err)
}

// Revoke deletes a session token. Revoking the configured secret or an
// unknown token is a no-op.
func (g *Guard) Revoke(ctx context.Context, bearer string) error {
	return g.sessions.Delete(ctx, bearer)
}

// RequireAdmin is middleware for bearer-guarded endpoints: a missing or
// malformed Authorization header is 401, a wrong value is 403.
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer, ok := BearerToken(r)
		if !ok {
			denyJSON(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}
		if err := g.Verify(r.Context(), bearer); err != nil {
			if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrMissingCredentials) {
				denyJSON(w, http.StatusForbidden, "forbidden", "Access denied")
				return
			}
			log.Printf("ERROR [500]: %v", err)
			denyJSON(w, http.StatusInternalServerError, "database_error", "An error occurred. Please try again.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SweepExpired prunes expired session rows on a ticker until ctx is done.
func (g *Guard) SweepExpired(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := g.sessions.DeleteExpired(ctx); err != nil {
				log.Printf("[auth] sweep expired sessions: %v", err)
			} else if n > 0 {
				log.Printf("[auth] pruned %d expired admin sessions", n)
			}
		}
	}
}

// BearerToken extracts the value of an "Authorization: Bearer x" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(h[len("Bearer "):])
	return token, token != ""
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// denyJSON writes an auth failure in the shared response envelope without
// importing the api package.
func denyJSON(w http.ResponseWriter, status int, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":   false,
		"error":     errMsg,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
