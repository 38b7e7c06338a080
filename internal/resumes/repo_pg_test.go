package resumes

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	res := Resume{
		ID:              "resume-1",
		UserID:          "user-1",
		FileName:        "cv.pdf",
		MimeType:        "application/pdf",
		SizeBytes:       42,
		StorageProvider: "s3",
		StorageKey:      "abc/cv.pdf",
		ExtractedText:   "text",
		IsActive:        true,
		CreatedAt:       time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO resumes").
		WithArgs(res.ID, res.UserID, res.FileName, "cv.pdf", res.MimeType, res.SizeBytes, "s3", res.StorageKey, res.ExtractedText, true, res.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), res); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM resumes").
		WithArgs("resume-1", "user-1").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "user-1", "resume-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListByUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "user_id", "file_name", "original_filename", "mime_type", "size_bytes", "storage_provider", "storage_key", "extracted_text", "is_active", "created_at"}).
		AddRow("r2", "user-1", "b.txt", nil, "text/plain", 3, "local", "k2", "bbb", true, now).
		AddRow("r1", "user-1", "a.txt", "A.txt", "text/plain", 3, "local", "k1", nil, true, now.Add(-time.Hour))
	mock.ExpectQuery("SELECT (.+) FROM resumes").
		WithArgs("user-1", 10, 0).
		WillReturnRows(rows)

	list, err := repo.ListByUser(context.Background(), "user-1", 10, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 || list[0].ID != "r2" || list[1].OriginalFilename != "A.txt" || list[1].ExtractedText != "" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestPGRepoDeleteMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("DELETE FROM resumes").
		WithArgs("resume-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "user-1", "resume-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoGetByIDMalformedID(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM resumes").
		WithArgs("abc", "user-1").
		WillReturnError(&pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"})

	if _, err := repo.GetByID(context.Background(), "user-1", "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	mock.ExpectExec("DELETE FROM resumes").
		WithArgs("abc", "user-1").
		WillReturnError(&pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"})
	if err := repo.Delete(context.Background(), "user-1", "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
