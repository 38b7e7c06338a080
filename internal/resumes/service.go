package resumes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/shared/storage/object"
	"resume-analyzer/internal/shared/telemetry"
)

// MaxUploadBytes bounds a single resume upload.
const MaxUploadBytes = 10 << 20

const downloadURLTTL = 15 * time.Minute

// CacheInvalidator drops cached analyses for a user.
type CacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) (int, error)
}

// DependentCleaner removes records tied to a deleted resume when the
// repository does not cascade deletes itself.
type DependentCleaner interface {
	DeleteByResume(ctx context.Context, resumeID string) (int, error)
}

// UploadInput carries a resume upload.
type UploadInput struct {
	UserID      string
	FileName    string
	ContentType string
	Data        []byte
}

// Download is either a redirect URL or a readable body.
type Download struct {
	Resume Resume
	URL    string
	Body   io.ReadCloser
}

// Service contains business logic for resumes.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
	Cache CacheInvalidator
	// Dependents is set for in-memory repos only.
	Dependents DependentCleaner
	now        func() time.Time
}

// NewService constructs a Service.
func NewService(store object.ObjectStore, repo Repo, cache CacheInvalidator) *Service {
	return &Service{Store: store, Repo: repo, Cache: cache, now: time.Now}
}

// Upload validates the file, extracts its text, stores the original and records the resume.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Resume, error) {
	fileName := strings.TrimSpace(in.FileName)
	if in.UserID == "" || fileName == "" || len(in.Data) == 0 {
		return Resume{}, ErrInvalidInput
	}
	if len(in.Data) > MaxUploadBytes {
		return Resume{}, ErrTooLarge
	}

	mimeType := extract.DetectType(in.ContentType, fileName, in.Data)
	if !extract.Allowed(mimeType) {
		return Resume{}, fmt.Errorf("%w: %s", extract.ErrUnsupportedType, mimeType)
	}

	text, err := extract.Text(ctx, in.Data, mimeType, fileName)
	if err != nil {
		return Resume{}, err
	}

	stored, err := s.Store.Save(ctx, in.UserID, fileName, bytes.NewReader(in.Data))
	if err != nil {
		return Resume{}, fmt.Errorf("store resume: %w", err)
	}

	res := Resume{
		ID:               uuid.NewString(),
		UserID:           in.UserID,
		FileName:         fileName,
		OriginalFilename: in.FileName,
		MimeType:         mimeType,
		SizeBytes:        stored.SizeBytes,
		StorageProvider:  s.Store.Provider(),
		StorageKey:       stored.Key,
		ExtractedText:    text,
		IsActive:         true,
		CreatedAt:        s.clock().UTC(),
	}

	if err := s.Repo.Create(ctx, res); err != nil {
		if delErr := s.Store.Delete(ctx, stored.Key); delErr != nil {
			telemetry.Error("resume.orphan_object", map[string]any{
				"user_id":     in.UserID,
				"storage_key": stored.Key,
				"error":       delErr,
			})
		}
		return Resume{}, fmt.Errorf("create resume: %w", err)
	}

	telemetry.Info("resume.uploaded", map[string]any{
		"user_id":    in.UserID,
		"resume_id":  res.ID,
		"mime_type":  mimeType,
		"size_bytes": res.SizeBytes,
		"text_chars": len([]rune(text)),
	})
	return res, nil
}

// Get returns a resume owned by userID.
func (s *Service) Get(ctx context.Context, userID, resumeID string) (Resume, error) {
	if userID == "" || strings.TrimSpace(resumeID) == "" {
		return Resume{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID, resumeID)
}

// List returns a page of the user's resumes, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Resume, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Download returns a presigned URL when the store supports it, otherwise the object body.
func (s *Service) Download(ctx context.Context, userID, resumeID string) (Download, error) {
	res, err := s.Get(ctx, userID, resumeID)
	if err != nil {
		return Download{}, err
	}
	if signer, ok := s.Store.(object.URLSigner); ok {
		url, err := signer.PresignGet(ctx, res.StorageKey, res.FileName, downloadURLTTL)
		if err != nil {
			return Download{}, fmt.Errorf("presign resume: %w", err)
		}
		return Download{Resume: res, URL: url}, nil
	}
	body, err := s.Store.Open(ctx, res.StorageKey)
	if err != nil {
		return Download{}, fmt.Errorf("open resume: %w", err)
	}
	return Download{Resume: res, Body: body}, nil
}

// Delete removes the resume, its analyses, its stored object and the user's
// cached analyses.
func (s *Service) Delete(ctx context.Context, userID, resumeID string) error {
	res, err := s.Get(ctx, userID, resumeID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, userID, resumeID); err != nil {
		return err
	}
	if s.Dependents != nil {
		if _, err := s.Dependents.DeleteByResume(ctx, resumeID); err != nil {
			telemetry.Warn("resume.dependents_delete_failed", map[string]any{
				"user_id":   userID,
				"resume_id": resumeID,
				"error":     err,
			})
		}
	}
	if err := s.Store.Delete(ctx, res.StorageKey); err != nil && !errors.Is(err, context.Canceled) {
		telemetry.Error("resume.object_delete_failed", map[string]any{
			"user_id":     userID,
			"resume_id":   resumeID,
			"storage_key": res.StorageKey,
			"error":       err,
		})
	}
	if s.Cache != nil {
		cleared, err := s.Cache.InvalidateUser(ctx, userID)
		if err != nil {
			telemetry.Warn("resume.cache_invalidate_failed", map[string]any{
				"user_id": userID,
				"error":   err,
			})
		} else {
			telemetry.Info("resume.deleted", map[string]any{
				"user_id":          userID,
				"resume_id":        resumeID,
				"analyses_cleared": cleared,
			})
		}
	}
	return nil
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
