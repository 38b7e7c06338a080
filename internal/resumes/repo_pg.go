package resumes

import (
	"context"
	"database/sql"
	"errors"

	"resume-analyzer/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const resumeColumns = `id, user_id, file_name, original_filename, mime_type, size_bytes, storage_provider, storage_key, extracted_text, is_active, created_at`

// Create inserts a new resume.
func (r *PGRepo) Create(ctx context.Context, res Resume) error {
	const query = `
INSERT INTO resumes (
    id,
    user_id,
    file_name,
    original_filename,
    mime_type,
    size_bytes,
    storage_provider,
    storage_key,
    extracted_text,
    is_active,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	originalName := res.OriginalFilename
	if originalName == "" {
		originalName = res.FileName
	}
	storageProvider := res.StorageProvider
	if storageProvider == "" {
		storageProvider = "local"
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		res.ID,
		res.UserID,
		res.FileName,
		originalName,
		res.MimeType,
		res.SizeBytes,
		storageProvider,
		res.StorageKey,
		res.ExtractedText,
		res.IsActive,
		res.CreatedAt,
	)
	return err
}

// GetByID returns an active resume owned by userID.
func (r *PGRepo) GetByID(ctx context.Context, userID, resumeID string) (Resume, error) {
	query := `
SELECT ` + resumeColumns + `
FROM resumes
WHERE id = $1 AND user_id = $2 AND is_active = TRUE`

	res, err := scanResume(r.DB.QueryRowContext(ctx, query, resumeID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || db.IsInvalidText(err) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	return res, nil
}

// ListByUser returns active resumes for a user, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Resume, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + resumeColumns + `
FROM resumes
WHERE user_id = $1 AND is_active = TRUE
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Resume, 0)
	for rows.Next() {
		res, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a resume row; its analyses cascade.
func (r *PGRepo) Delete(ctx context.Context, userID, resumeID string) error {
	const query = `DELETE FROM resumes WHERE id = $1 AND user_id = $2`
	result, err := r.DB.ExecContext(ctx, query, resumeID, userID)
	if err != nil {
		if db.IsInvalidText(err) {
			return ErrNotFound
		}
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResume(row rowScanner) (Resume, error) {
	var res Resume
	var originalName sql.NullString
	var extracted sql.NullString
	err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.FileName,
		&originalName,
		&res.MimeType,
		&res.SizeBytes,
		&res.StorageProvider,
		&res.StorageKey,
		&extracted,
		&res.IsActive,
		&res.CreatedAt,
	)
	if err != nil {
		return Resume{}, err
	}
	if originalName.Valid {
		res.OriginalFilename = originalName.String
	}
	if extracted.Valid {
		res.ExtractedText = extracted.String
	}
	return res, nil
}

var _ Repo = (*PGRepo)(nil)
