package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"resume-analyzer/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

var analysisColumns = []string{
	"id", "resume_id", "user_id", "job_title", "job_description", "company_name", "status",
	"overall_score", "ats_score", "tone_style_score", "content_score", "structure_score", "skills_score",
	"result", "cache_key", "cached", "fallback", "error_message", "ai_model", "analysis_version",
	"created_at", "completed_at",
}

func qb() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// Create inserts a new analysis.
func (r *PGRepo) Create(ctx context.Context, a Analysis) error {
	const query = `
INSERT INTO analyses (
    id, resume_id, user_id, job_title, job_description, company_name, status,
    overall_score, ats_score, tone_style_score, content_score, structure_score, skills_score,
    result, cache_key, cached, fallback, error_message, ai_model, analysis_version,
    created_at, completed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::jsonb, $15, $16, $17, $18, $19, $20, $21, $22)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		a.ID,
		a.ResumeID,
		a.UserID,
		nullString(a.JobTitle),
		nullString(a.JobDescription),
		nullString(a.CompanyName),
		a.Status,
		nullInt(a.Scores.Overall),
		nullInt(a.Scores.ATS),
		nullInt(a.Scores.ToneStyle),
		nullInt(a.Scores.Content),
		nullInt(a.Scores.Structure),
		nullInt(a.Scores.Skills),
		jsonPayload(a.Result),
		a.CacheKey,
		a.Cached,
		a.Fallback,
		nullString(a.ErrorMessage),
		nullString(a.AIModel),
		a.AnalysisVersion,
		a.CreatedAt,
		a.CompletedAt,
	)
	return err
}

// GetByID returns an analysis by ID.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	query, args, err := qb().Select(analysisColumns...).
		From("analyses").
		Where(sq.Eq{"id": analysisID}).
		ToSql()
	if err != nil {
		return Analysis{}, err
	}
	a, err := scanAnalysis(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || db.IsInvalidText(err) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}
	return a, nil
}

// MarkProcessing claims a queued analysis with a conditional update.
func (r *PGRepo) MarkProcessing(ctx context.Context, analysisID string) (bool, error) {
	const query = `UPDATE analyses SET status = $1 WHERE id = $2 AND status = $3`
	res, err := r.DB.ExecContext(ctx, query, StatusProcessing, analysisID, StatusQueued)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Complete records the result of a finished analysis.
func (r *PGRepo) Complete(ctx context.Context, a Analysis) error {
	const query = `
UPDATE analyses
SET status = $1,
    overall_score = $2,
    ats_score = $3,
    tone_style_score = $4,
    content_score = $5,
    structure_score = $6,
    skills_score = $7,
    result = $8::jsonb,
    cached = $9,
    fallback = $10,
    ai_model = $11,
    error_message = NULL,
    completed_at = $12
WHERE id = $13`

	res, err := r.DB.ExecContext(
		ctx,
		query,
		StatusCompleted,
		nullInt(a.Scores.Overall),
		nullInt(a.Scores.ATS),
		nullInt(a.Scores.ToneStyle),
		nullInt(a.Scores.Content),
		nullInt(a.Scores.Structure),
		nullInt(a.Scores.Skills),
		jsonPayload(a.Result),
		a.Cached,
		a.Fallback,
		nullString(a.AIModel),
		a.CompletedAt,
		a.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Fail marks an analysis failed.
func (r *PGRepo) Fail(ctx context.Context, analysisID, message string, at time.Time) error {
	const query = `UPDATE analyses SET status = $1, error_message = $2, completed_at = $3 WHERE id = $4`
	res, err := r.DB.ExecContext(ctx, query, StatusFailed, message, at, analysisID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns analyses matching f, newest first.
func (r *PGRepo) List(ctx context.Context, f ListFilter) ([]Analysis, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	sb := qb().Select(analysisColumns...).
		From("analyses").
		Where(sq.Eq{"user_id": f.UserID})
	if f.ResumeID != "" {
		sb = sb.Where(sq.Eq{"resume_id": f.ResumeID})
	}
	if f.Status != "" {
		sb = sb.Where(sq.Eq{"status": f.Status})
	}
	sb = sb.OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	query, args, err := sb.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Analysis, 0)
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var a Analysis
	var jobTitle, jobDescription, companyName, errorMessage, aiModel sql.NullString
	var overall, ats, tone, content, structure, skills sql.NullInt64
	var result []byte
	var completedAt sql.NullTime
	err := row.Scan(
		&a.ID,
		&a.ResumeID,
		&a.UserID,
		&jobTitle,
		&jobDescription,
		&companyName,
		&a.Status,
		&overall,
		&ats,
		&tone,
		&content,
		&structure,
		&skills,
		&result,
		&a.CacheKey,
		&a.Cached,
		&a.Fallback,
		&errorMessage,
		&aiModel,
		&a.AnalysisVersion,
		&a.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return Analysis{}, err
	}
	a.JobTitle = jobTitle.String
	a.JobDescription = jobDescription.String
	a.CompanyName = companyName.String
	a.ErrorMessage = errorMessage.String
	a.AIModel = aiModel.String
	a.Scores = Scores{
		Overall:   intFromNull(overall),
		ATS:       intFromNull(ats),
		ToneStyle: intFromNull(tone),
		Content:   intFromNull(content),
		Structure: intFromNull(structure),
		Skills:    intFromNull(skills),
	}
	if len(result) > 0 {
		a.Result = json.RawMessage(result)
	}
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	return a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return intPtr(int(v.Int64))
}

func jsonPayload(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

var _ Repo = (*PGRepo)(nil)
