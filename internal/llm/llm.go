package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts LLM providers for resume analysis. Implementations return
// the JSON object found in the model output; scoring and fallback handling
// live in Analyzer.
type Client interface {
	AnalyzeResume(ctx context.Context, input AnalyzeInput) (json.RawMessage, error)
}

// Prober is implemented by providers that can answer a free-form prompt. The
// health check uses it.
type Prober interface {
	Probe(ctx context.Context, prompt string) (string, error)
}

// AnalyzeInput captures the inputs needed for resume analysis.
type AnalyzeInput struct {
	ResumeText     string
	JobTitle       string
	JobDescription string
}

var (
	// ErrNotConfigured is returned by the placeholder client.
	ErrNotConfigured = errors.New("llm provider not configured")
	// ErrNoJSON means the model output held no JSON object.
	ErrNoJSON = errors.New("no JSON structure found")
)

// PlaceholderClient stands in when no provider key is configured. Every
// call fails, so analyses are answered by fallback mode.
type PlaceholderClient struct{}

// AnalyzeResume returns ErrNotConfigured.
func (PlaceholderClient) AnalyzeResume(ctx context.Context, input AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotConfigured
}

// Probe returns ErrNotConfigured.
func (PlaceholderClient) Probe(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}
