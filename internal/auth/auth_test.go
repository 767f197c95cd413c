package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/selah-app/selah-server/internal/domain"
	"github.com/selah-app/selah-server/internal/repository/postgres"
)

// memStore is an in-memory SessionStore for guard tests.
type memStore struct {
	sessions map[string]*domain.AdminSession
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*domain.AdminSession)}
}

func (m *memStore) Create(_ context.Context, token string, expiresAt time.Time) (*domain.AdminSession, error) {
	s := &domain.AdminSession{ID: token, Token: token, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	m.sessions[token] = s
	return s, nil
}

func (m *memStore) Get(_ context.Context, token string) (*domain.AdminSession, error) {
	s, ok := m.sessions[token]
	if !ok || time.Now().After(s.ExpiresAt) {
		delete(m.sessions, token)
		return nil, postgres.ErrNotFound
	}
	return s, nil
}

func (m *memStore) Delete(_ context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func (m *memStore) DeleteExpired(_ context.Context) (int64, error) {
	var n int64
	for token, s := range m.sessions {
		if time.Now().After(s.ExpiresAt) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

func TestCheckPassword(t *testing.T) {
	g := NewGuard("super-secret", time.Hour, newMemStore())

	if !g.CheckPassword("super-secret") {
		t.Error("CheckPassword rejected the configured secret")
	}
	if g.CheckPassword("wrong") {
		t.Error("CheckPassword accepted a wrong password")
	}
	if g.CheckPassword("") {
		t.Error("CheckPassword accepted an empty password")
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	g := NewGuard("super-secret", time.Hour, newMemStore())
	ctx := context.Background()

	s, err := g.IssueToken(ctx)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if s.Token == "" {
		t.Fatal("IssueToken() returned empty token")
	}

	if err := g.Verify(ctx, s.Token); err != nil {
		t.Errorf("Verify(issued token) = %v, want nil", err)
	}
	if err := g.Verify(ctx, "super-secret"); err != nil {
		t.Errorf("Verify(secret itself) = %v, want nil", err)
	}
	if err := g.Verify(ctx, "bogus"); err != ErrInvalidCredentials {
		t.Errorf("Verify(bogus) = %v, want ErrInvalidCredentials", err)
	}
	if err := g.Verify(ctx, ""); err != ErrMissingCredentials {
		t.Errorf("Verify(empty) = %v, want ErrMissingCredentials", err)
	}

	if err := g.Revoke(ctx, s.Token); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if err := g.Verify(ctx, s.Token); err != ErrInvalidCredentials {
		t.Errorf("Verify(revoked token) = %v, want ErrInvalidCredentials", err)
	}
}

func TestTokensAreUnique(t *testing.T) {
	g := NewGuard("super-secret", time.Hour, newMemStore())
	ctx := context.Background()

	a, err := g.IssueToken(ctx)
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.IssueToken(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if a.Token == b.Token {
		t.Error("IssueToken generated duplicate tokens")
	}
}

// failStore simulates a session store whose backing database is down.
type failStore struct{}

func (failStore) Create(context.Context, string, time.Time) (*domain.AdminSession, error) {
	return nil, errors.New("connection refused")
}
func (failStore) Get(context.Context, string) (*domain.AdminSession, error) {
	return nil, errors.New("connection refused")
}
func (failStore) Delete(context.Context, string) error { return errors.New("connection refused") }
func (failStore) DeleteExpired(context.Context) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestVerifyStoreFailure(t *testing.T) {
	g := NewGuard("super-secret", time.Hour, failStore{})
	ctx := context.Background()

	// The secret itself never touches the store.
	if err := g.Verify(ctx, "super-secret"); err != nil {
		t.Errorf("Verify(secret) with store down = %v, want nil", err)
	}

	err := g.Verify(ctx, "some-token")
	if err == nil {
		t.Fatal("Verify() with store down = nil, want error")
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Error("store failure was reported as invalid credentials")
	}
}

func TestRequireAdminStoreFailure(t *testing.T) {
	g := NewGuard("super-secret", time.Hour, failStore{})
	handler := g.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/emails", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestRequireAdmin(t *testing.T) {
	g := NewGuard("super-secret", time.Hour, newMemStore())
	handler := g.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"malformed header", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"wrong value", "Bearer nope", http.StatusForbidden},
		{"exact secret", "Bearer super-secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/emails", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}
