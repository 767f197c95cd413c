package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/selah-app/selah-server/internal/domain"
)

func TestEmailRepoCreate_New(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO emails").
		WithArgs("test@example.com", "hero-section", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(1), now, now))

	repo := NewEmailRepo(db)
	rec := &domain.EmailRecord{
		Email:  "test@example.com",
		Source: "hero-section",
	}
	created, err := repo.Create(context.Background(), rec)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !created {
		t.Error("Create() created = false, want true")
	}
	if rec.ID != 1 {
		t.Errorf("record ID = %d, want 1", rec.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestEmailRepoCreate_Conflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	// ON CONFLICT DO NOTHING returns no rows for an existing address.
	mock.ExpectQuery("INSERT INTO emails").
		WithArgs("dup@example.com", "landing-page", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))

	repo := NewEmailRepo(db)
	created, err := repo.Create(context.Background(), &domain.EmailRecord{
		Email:  "dup@example.com",
		Source: "landing-page",
	})
	if err != nil {
		t.Fatalf("Create() on conflict should not error, got %v", err)
	}
	if created {
		t.Error("Create() created = true for existing email, want false")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestEmailRepoGetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	blob, _ := json.Marshal(domain.EngagementData{PlatformPreference: "android"})
	now := time.Now()
	mock.ExpectQuery("SELECT id, email, source, engagement_data").
		WithArgs("test@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "source", "engagement_data", "created_at", "updated_at"}).
			AddRow(int64(7), "test@example.com", "hero-section", blob, now, now))

	repo := NewEmailRepo(db)
	rec, err := repo.GetByEmail(context.Background(), "test@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if rec.Engagement.PlatformPreference != "android" {
		t.Errorf("platform = %q, want android", rec.Engagement.PlatformPreference)
	}

	mock.ExpectQuery("SELECT id, email, source, engagement_data").
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "source", "engagement_data", "created_at", "updated_at"}))

	if _, err := repo.GetByEmail(context.Background(), "missing@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByEmail() on missing row = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestEmailRepoList_Filters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM emails WHERE source = \\$1 AND engagement_data->>'platformPreference' = \\$2").
		WithArgs("hero-section", "ios").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	now := time.Now()
	blob, _ := json.Marshal(domain.EngagementData{PlatformPreference: "ios"})
	mock.ExpectQuery("SELECT id, email, source, engagement_data").
		WithArgs("hero-section", "ios", 2, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "source", "engagement_data", "created_at", "updated_at"}).
			AddRow(int64(1), "a@example.com", "hero-section", blob, now, now).
			AddRow(int64(2), "b@example.com", "hero-section", blob, now, now))

	repo := NewEmailRepo(db)
	recs, total, err := repo.List(context.Background(), EmailFilter{
		Source:   "hero-section",
		Platform: "ios",
		Limit:    2,
		Offset:   0,
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(recs) != 2 {
		t.Errorf("page size = %d, want 2", len(recs))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestEmailRepoTopSources(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT source, COUNT\\(\\*\\) FROM emails GROUP BY source").
		WillReturnRows(sqlmock.NewRows([]string{"source", "count"}).
			AddRow("hero-section", 40).
			AddRow("landing-page", 10))

	repo := NewEmailRepo(db)
	sources, err := repo.TopSources(context.Background())
	if err != nil {
		t.Fatalf("TopSources() error = %v", err)
	}
	if len(sources) != 2 || sources[0].Source != "hero-section" || sources[0].Count != 40 {
		t.Errorf("TopSources() = %+v", sources)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
