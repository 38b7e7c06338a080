package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-analyzer/internal/cache"
	"resume-analyzer/internal/fingerprint"
	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/queue"
	"resume-analyzer/internal/resumes"
	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/telemetry"
)

// DefaultVersion tags analyses when no version is configured.
const DefaultVersion = "v1"

const (
	failedResumeGone = "resume is no longer available"
	failedInternal   = "analysis could not be completed, please try again"
)

// ResumeSource loads resumes owned by a user.
type ResumeSource interface {
	Get(ctx context.Context, userID, resumeID string) (resumes.Resume, error)
}

// Service contains business logic for analyses.
type Service struct {
	Repo         Repo
	Resumes      ResumeSource
	Cache        *cache.Gateway
	Analyzer     *llm.Analyzer
	Fingerprints fingerprint.Generator
	// Queue receives queued analyses. When nil they run in-process.
	Queue    queue.Client
	CacheTTL time.Duration
	Version  string

	now func() time.Time
	wg  sync.WaitGroup
}

// NewService constructs a Service.
func NewService(repo Repo, resumeSource ResumeSource, gateway *cache.Gateway, analyzer *llm.Analyzer) *Service {
	return &Service{
		Repo:     repo,
		Resumes:  resumeSource,
		Cache:    gateway,
		Analyzer: analyzer,
		Version:  DefaultVersion,
		now:      time.Now,
	}
}

// Start records an analysis of the resume against the job. A cached result
// completes it immediately; otherwise it is queued for Process.
func (s *Service) Start(ctx context.Context, userID, resumeID string, in JobInput) (Analysis, error) {
	if userID == "" || strings.TrimSpace(resumeID) == "" {
		return Analysis{}, ErrInvalidInput
	}
	in.normalize()
	if err := in.Validate(); err != nil {
		return Analysis{}, toValidationError(err)
	}

	res, err := s.Resumes.Get(ctx, userID, resumeID)
	if err != nil {
		if errors.Is(err, resumes.ErrNotFound) {
			return Analysis{}, ErrResumeNotFound
		}
		return Analysis{}, fmt.Errorf("load resume: %w", err)
	}
	if strings.TrimSpace(res.ExtractedText) == "" {
		return Analysis{}, ErrNoResumeText
	}

	resumeFP := s.Fingerprints.Resume(res.ExtractedText)
	jobFP := s.Fingerprints.Job(in.JobTitle, in.JobDescription)
	now := s.clock().UTC()
	a := Analysis{
		ID:              uuid.NewString(),
		ResumeID:        res.ID,
		UserID:          userID,
		JobTitle:        in.JobTitle,
		JobDescription:  in.JobDescription,
		CompanyName:     in.CompanyName,
		CacheKey:        cache.Key(userID, resumeFP, jobFP),
		AnalysisVersion: s.version(),
		CreatedAt:       now,
	}
	metrics.IncAnalysisStarted()

	if raw, ok := s.Cache.Lookup(ctx, userID, resumeFP, jobFP); ok {
		var result llm.Result
		if err := json.Unmarshal(raw, &result); err == nil {
			a.Status = StatusCompleted
			a.Cached = true
			a.Fallback = result.AnalysisError
			a.Result = raw
			a.Scores = scoresFrom(result)
			a.AIModel = s.model()
			a.CompletedAt = &now
			if err := s.Repo.Create(ctx, a); err != nil {
				return Analysis{}, fmt.Errorf("create analysis: %w", err)
			}
			metrics.IncAnalysisCompleted()
			telemetry.Info("analysis.cache_served", s.fields(ctx, a))
			return a, nil
		}
		telemetry.Warn("analysis.cache_value_invalid", s.fields(ctx, a))
	}

	a.Status = StatusQueued
	if err := s.Repo.Create(ctx, a); err != nil {
		return Analysis{}, fmt.Errorf("create analysis: %w", err)
	}
	s.dispatch(ctx, a)
	return a, nil
}

func (s *Service) dispatch(ctx context.Context, a Analysis) {
	if s.Queue != nil {
		msg := queue.NewMessage(a.ID, telemetry.RequestIDFromContext(ctx), s.clock())
		err := s.Queue.Send(ctx, msg)
		if err == nil {
			telemetry.Info("analysis.enqueued", s.fields(ctx, a))
			return
		}
		fields := s.fields(ctx, a)
		fields["error"] = err
		telemetry.Error("analysis.enqueue_failed", fields)
	}

	detached := telemetry.Detach(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Process(detached, a.ID); err != nil {
			telemetry.Error("analysis.process_failed", map[string]any{
				"request_id":  telemetry.RequestIDFromContext(detached),
				"analysis_id": a.ID,
				"error":       err,
			})
		}
	}()
}

// Wait blocks until in-process analyses finish or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Process runs a queued analysis. Analyses that are not queued are skipped,
// so redelivered messages are harmless.
func (s *Service) Process(ctx context.Context, analysisID string) error {
	a, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		return err
	}
	claimed, err := s.Repo.MarkProcessing(ctx, analysisID)
	if err != nil {
		return fmt.Errorf("claim analysis: %w", err)
	}
	if !claimed {
		fields := s.fields(ctx, a)
		fields["status"] = a.Status
		telemetry.Info("analysis.skipped", fields)
		return nil
	}

	start := s.clock()
	telemetry.Info("analysis.processing", s.fields(ctx, a))

	res, err := s.Resumes.Get(ctx, a.UserID, a.ResumeID)
	if err != nil {
		msg := failedInternal
		if errors.Is(err, resumes.ErrNotFound) {
			msg = failedResumeGone
		}
		return s.fail(ctx, a, msg, err)
	}

	resumeFP := s.Fingerprints.Resume(res.ExtractedText)
	jobFP := s.Fingerprints.Job(a.JobTitle, a.JobDescription)
	raw, cached, err := s.Cache.GetOrCompute(ctx, a.UserID, resumeFP, jobFP, s.CacheTTL, func(ctx context.Context) (json.RawMessage, bool, error) {
		out := s.Analyzer.Analyze(ctx, llm.AnalyzeInput{
			ResumeText:     res.ExtractedText,
			JobTitle:       a.JobTitle,
			JobDescription: a.JobDescription,
		})
		return out.Raw, !out.Fallback, nil
	})
	if err != nil {
		return s.fail(ctx, a, failedInternal, err)
	}

	var result llm.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return s.fail(ctx, a, failedInternal, fmt.Errorf("decode result: %w", err))
	}

	completedAt := s.clock().UTC()
	a.Status = StatusCompleted
	a.Result = raw
	a.Scores = scoresFrom(result)
	a.Cached = cached
	a.Fallback = result.AnalysisError
	a.AIModel = s.model()
	a.CompletedAt = &completedAt
	if err := s.Repo.Complete(ctx, a); err != nil {
		return s.fail(ctx, a, failedInternal, fmt.Errorf("save analysis: %w", err))
	}

	durationMs := float64(completedAt.Sub(start).Milliseconds())
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(durationMs)
	fields := s.fields(ctx, a)
	fields["overall_score"] = result.OverallScore
	fields["cached"] = cached
	fields["fallback"] = a.Fallback
	fields["duration_ms"] = durationMs
	telemetry.Info("analysis.completed", fields)
	return nil
}

func (s *Service) fail(ctx context.Context, a Analysis, message string, cause error) error {
	metrics.IncAnalysisFailed()
	fields := s.fields(ctx, a)
	fields["error"] = cause
	telemetry.Error("analysis.failed", fields)

	// Record the failure even when the caller's context is already gone.
	if err := s.Repo.Fail(telemetry.Detach(ctx), a.ID, message, s.clock().UTC()); err != nil {
		fields["error"] = err
		telemetry.Error("analysis.fail_update_failed", fields)
	}
	return cause
}

// Get returns an analysis owned by userID.
func (s *Service) Get(ctx context.Context, userID, analysisID string) (Analysis, error) {
	if userID == "" || strings.TrimSpace(analysisID) == "" {
		return Analysis{}, ErrInvalidInput
	}
	a, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		return Analysis{}, err
	}
	if a.UserID != userID {
		return Analysis{}, ErrNotFound
	}
	return a, nil
}

// ListByResume returns the analysis history of one resume, newest first.
func (s *Service) ListByResume(ctx context.Context, userID, resumeID string, limit, offset int) ([]Analysis, error) {
	if userID == "" || strings.TrimSpace(resumeID) == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.Resumes.Get(ctx, userID, resumeID); err != nil {
		if errors.Is(err, resumes.ErrNotFound) {
			return nil, ErrResumeNotFound
		}
		return nil, err
	}
	return s.Repo.List(ctx, ListFilter{UserID: userID, ResumeID: resumeID, Limit: limit, Offset: offset})
}

// ListByUser returns the user's analyses, optionally filtered by status.
func (s *Service) ListByUser(ctx context.Context, userID, status string, limit, offset int) ([]Analysis, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	switch status {
	case "", StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
	default:
		return nil, &ValidationError{Fields: map[string]string{"status": "must be one of queued, processing, completed, failed"}}
	}
	return s.Repo.List(ctx, ListFilter{UserID: userID, Status: status, Limit: limit, Offset: offset})
}

func (s *Service) fields(ctx context.Context, a Analysis) map[string]any {
	return map[string]any{
		"request_id":  telemetry.RequestIDFromContext(ctx),
		"analysis_id": a.ID,
		"resume_id":   a.ResumeID,
		"user_id":     a.UserID,
	}
}

func (s *Service) model() string {
	if s.Analyzer == nil {
		return ""
	}
	return s.Analyzer.Model()
}

func (s *Service) version() string {
	if s.Version == "" {
		return DefaultVersion
	}
	return s.Version
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
