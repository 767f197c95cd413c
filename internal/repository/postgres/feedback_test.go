package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/selah-app/selah-server/internal/domain"
)

func TestFeedbackRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO feedback").
		WithArgs("bug-report", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"the orb stopped breathing", "contact-page", sqlmock.AnyArg(), "new").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(3), now, now))

	repo := NewFeedbackRepo(db)
	rec := &domain.FeedbackRecord{
		Type:    "bug-report",
		Message: "the orb stopped breathing",
		Source:  "contact-page",
		Status:  domain.FeedbackStatusNew,
	}
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.ID != 3 {
		t.Errorf("record ID = %d, want 3", rec.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFeedbackRepoUpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE feedback SET status").
		WithArgs(int64(123), "read").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewFeedbackRepo(db)
	n, err := repo.UpdateStatus(context.Background(), 123, "read")
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if n != 1 {
		t.Errorf("rows affected = %d, want 1", n)
	}

	// Unknown id: zero rows affected is still success.
	mock.ExpectExec("UPDATE feedback SET status").
		WithArgs(int64(999), "read").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err = repo.UpdateStatus(context.Background(), 999, "read")
	if err != nil {
		t.Fatalf("UpdateStatus() on unknown id error = %v", err)
	}
	if n != 0 {
		t.Errorf("rows affected = %d, want 0", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFeedbackRepoList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM feedback WHERE status = \\$1").
		WithArgs("new").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	now := time.Now()
	mock.ExpectQuery("SELECT id, type, name, email, subject, message").
		WithArgs("new", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "type", "name", "email", "subject", "message", "source", "metadata", "status", "created_at", "updated_at",
		}).AddRow(int64(1), "feedback", nil, nil, nil, "lovely site", "unknown", nil, "new", now, now))

	repo := NewFeedbackRepo(db)
	recs, total, err := repo.List(context.Background(), FeedbackFilter{Status: "new", Limit: 20})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 || len(recs) != 1 {
		t.Fatalf("List() = %d records, total %d", len(recs), total)
	}
	if recs[0].Name != "" {
		t.Errorf("NULL name should scan to empty string, got %q", recs[0].Name)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSessionRepoGet_Expired(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	expired := time.Now().Add(-time.Hour)
	mock.ExpectQuery("SELECT id, session_token, expires_at").
		WithArgs("stale-token").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_token", "expires_at", "created_at"}).
			AddRow("3f1b3c9a-0000-0000-0000-000000000000", "stale-token", expired, expired.Add(-time.Hour)))
	mock.ExpectExec("DELETE FROM admin_sessions").
		WithArgs("stale-token").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSessionRepo(db)
	if _, err := repo.Get(context.Background(), "stale-token"); err != ErrNotFound {
		t.Errorf("Get() on expired token = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
