package analyses

import (
	"encoding/json"
	"time"

	"resume-analyzer/internal/llm"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Scores are the per-section scores copied out of the result for listing.
type Scores struct {
	Overall   *int
	ATS       *int
	ToneStyle *int
	Content   *int
	Structure *int
	Skills    *int
}

// Analysis is one scoring of a resume against an optional job.
type Analysis struct {
	ID              string
	ResumeID        string
	UserID          string
	JobTitle        string
	JobDescription  string
	CompanyName     string
	Status          string
	Scores          Scores
	Result          json.RawMessage
	CacheKey        string
	Cached          bool
	Fallback        bool
	ErrorMessage    string
	AIModel         string
	AnalysisVersion string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// ListFilter narrows analysis listings. UserID is required.
type ListFilter struct {
	UserID   string
	ResumeID string
	Status   string
	Limit    int
	Offset   int
}

func scoresFrom(res llm.Result) Scores {
	return Scores{
		Overall:   intPtr(res.OverallScore),
		ATS:       intPtr(res.ATS.Score),
		ToneStyle: intPtr(res.ToneAndStyle.Score),
		Content:   intPtr(res.Content.Score),
		Structure: intPtr(res.Structure.Score),
		Skills:    intPtr(res.Skills.Score),
	}
}

func intPtr(v int) *int {
	return &v
}
