package generations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var pgColumns = []string{
	"id", "user_id", "analysis_id", "company_name", "job_title", "storage_key", "file_name", "render_path",
	"ats_before", "ats_after", "keywords_added", "created_at", "expired_at",
}

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateEncodesKeywords(t *testing.T) {
	repo, mock := newMockRepo(t)
	gen := Generation{
		ID:            "gen-1",
		UserID:        "user-1",
		AnalysisID:    "analysis-1",
		CompanyName:   "Acme",
		JobTitle:      "Backend Engineer",
		StorageKey:    "temp/abc/gen-1.pdf",
		FileName:      "resume_Acme_2024-05-01_12-00-00.pdf",
		RenderPath:    "assembled",
		ATSBefore:     5,
		ATSAfter:      8,
		KeywordsAdded: []string{"Docker", "React"},
		CreatedAt:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO generations").
		WithArgs(
			gen.ID,
			gen.UserID,
			gen.AnalysisID,
			gen.CompanyName,
			gen.JobTitle,
			gen.StorageKey,
			gen.FileName,
			gen.RenderPath,
			gen.ATSBefore,
			gen.ATSAfter,
			[]byte(`["Docker","React"]`),
			gen.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), gen); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDChecksOwner(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	expired := created.Add(time.Hour)

	rows := sqlmock.NewRows(pgColumns).AddRow(
		"gen-1", "user-1", "analysis-1", "Acme", "Engineer", "temp/abc/gen-1.pdf", "resume.pdf", "direct",
		5, 8, []byte(`["Go"]`), created, expired,
	)
	mock.ExpectQuery("SELECT (.+) FROM generations").WithArgs("gen-1").WillReturnRows(rows)

	gen, err := repo.GetByID(context.Background(), "user-1", "gen-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(gen.KeywordsAdded) != 1 || gen.KeywordsAdded[0] != "Go" {
		t.Fatalf("unexpected keywords: %v", gen.KeywordsAdded)
	}
	if gen.ExpiredAt == nil || !gen.ExpiredAt.Equal(expired) {
		t.Fatalf("expected expired_at to be scanned, got %v", gen.ExpiredAt)
	}

	rows = sqlmock.NewRows(pgColumns).AddRow(
		"gen-1", "user-1", "analysis-1", "Acme", "Engineer", "k", "f", "direct",
		5, 8, []byte(`[]`), created, nil,
	)
	mock.ExpectQuery("SELECT (.+) FROM generations").WithArgs("gen-1").WillReturnRows(rows)
	if _, err := repo.GetByID(context.Background(), "user-2", "gen-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	mock.ExpectQuery("SELECT (.+) FROM generations").WithArgs("missing").WillReturnRows(sqlmock.NewRows(pgColumns))
	if _, err := repo.GetByID(context.Background(), "user-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListByUserClampsLimit(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(pgColumns).
		AddRow("gen-2", "user-1", "a", "Acme", "Eng", "k2", "f2", "html", 5, 7, []byte(`[]`), created.Add(time.Minute), nil).
		AddRow("gen-1", "user-1", "a", "Acme", "Eng", "k1", "f1", "direct", 5, 8, nil, created, nil)
	mock.ExpectQuery("SELECT (.+) FROM generations").WithArgs("user-1", 100, 0).WillReturnRows(rows)

	gens, err := repo.ListByUser(context.Background(), "user-1", 500, -3)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(gens) != 2 || gens[0].ID != "gen-2" {
		t.Fatalf("unexpected rows: %+v", gens)
	}
	if gens[1].KeywordsAdded == nil {
		t.Fatalf("expected empty keywords slice for NULL column")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoMarkExpired(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE generations SET expired_at").
		WithArgs("gen-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkExpired(context.Background(), "gen-1", at); err != nil {
		t.Fatalf("MarkExpired: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
