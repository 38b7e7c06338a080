package analyses

import (
	"encoding/json"
	"time"
)

// ScoresResponse lists the section scores; nil until the analysis completes.
type ScoresResponse struct {
	Overall      *int `json:"overall"`
	ATS          *int `json:"ats"`
	ToneAndStyle *int `json:"toneAndStyle"`
	Content      *int `json:"content"`
	Structure    *int `json:"structure"`
	Skills       *int `json:"skills"`
}

// Response is the outward-facing representation of an analysis.
type Response struct {
	AnalysisID      string          `json:"analysisId"`
	ResumeID        string          `json:"resumeId"`
	Status          string          `json:"status"`
	JobTitle        string          `json:"jobTitle,omitempty"`
	CompanyName     string          `json:"companyName,omitempty"`
	Scores          ScoresResponse  `json:"scores"`
	Result          json.RawMessage `json:"result,omitempty"`
	Cached          bool            `json:"cached"`
	Fallback        bool            `json:"fallback"`
	ErrorMessage    string          `json:"errorMessage,omitempty"`
	AIModel         string          `json:"aiModel,omitempty"`
	AnalysisVersion string          `json:"analysisVersion"`
	CreatedAt       time.Time       `json:"createdAt"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
}

// SummaryResponse omits the full result for list views.
type SummaryResponse struct {
	AnalysisID  string         `json:"analysisId"`
	ResumeID    string         `json:"resumeId"`
	Status      string         `json:"status"`
	JobTitle    string         `json:"jobTitle,omitempty"`
	CompanyName string         `json:"companyName,omitempty"`
	Scores      ScoresResponse `json:"scores"`
	Cached      bool           `json:"cached"`
	Fallback    bool           `json:"fallback"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

func toScores(s Scores) ScoresResponse {
	return ScoresResponse{
		Overall:      s.Overall,
		ATS:          s.ATS,
		ToneAndStyle: s.ToneStyle,
		Content:      s.Content,
		Structure:    s.Structure,
		Skills:       s.Skills,
	}
}

func toResponse(a Analysis) Response {
	return Response{
		AnalysisID:      a.ID,
		ResumeID:        a.ResumeID,
		Status:          a.Status,
		JobTitle:        a.JobTitle,
		CompanyName:     a.CompanyName,
		Scores:          toScores(a.Scores),
		Result:          a.Result,
		Cached:          a.Cached,
		Fallback:        a.Fallback,
		ErrorMessage:    a.ErrorMessage,
		AIModel:         a.AIModel,
		AnalysisVersion: a.AnalysisVersion,
		CreatedAt:       a.CreatedAt,
		CompletedAt:     a.CompletedAt,
	}
}

func toSummaries(items []Analysis) []SummaryResponse {
	out := make([]SummaryResponse, 0, len(items))
	for _, a := range items {
		out = append(out, SummaryResponse{
			AnalysisID:  a.ID,
			ResumeID:    a.ResumeID,
			Status:      a.Status,
			JobTitle:    a.JobTitle,
			CompanyName: a.CompanyName,
			Scores:      toScores(a.Scores),
			Cached:      a.Cached,
			Fallback:    a.Fallback,
			CreatedAt:   a.CreatedAt,
			CompletedAt: a.CompletedAt,
		})
	}
	return out
}
