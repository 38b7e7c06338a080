package llm

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/telemetry"
)

// Outcome is what an analysis run produced.
type Outcome struct {
	Result   Result
	Raw      json.RawMessage
	Fallback bool
}

// HealthStatus reports whether the model endpoint answers.
type HealthStatus struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Model    string `json:"model,omitempty"`
	Response string `json:"response,omitempty"`
}

// Analyzer runs the provider with one retry and turns every failure into a
// fallback result, so callers always get a usable analysis.
type Analyzer struct {
	client Client
	model  string
}

// NewAnalyzer wraps client with retry. A nil client always falls back.
func NewAnalyzer(client Client, model string, retryDelay time.Duration) *Analyzer {
	return &Analyzer{client: WithRetry(client, retryDelay), model: model}
}

// Model returns the configured model name.
func (a *Analyzer) Model() string {
	return a.model
}

// Analyze scores a resume. It never returns an error: endpoint failures and
// unparseable output yield Fallback with Outcome.Fallback set.
func (a *Analyzer) Analyze(ctx context.Context, input AnalyzeInput) Outcome {
	if a.client == nil {
		return a.fallback(ctx, "Service initialization failed")
	}

	start := time.Now()
	raw, err := a.client.AnalyzeResume(ctx, input)
	metrics.ObserveLLMDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return a.fallback(ctx, err.Error())
	}

	res, err := ParseResult(raw)
	if err != nil {
		return a.fallback(ctx, "JSON parsing error: "+err.Error())
	}
	encoded, err := json.Marshal(res)
	if err != nil {
		return a.fallback(ctx, err.Error())
	}
	telemetry.Info("llm.analysis_completed", map[string]any{
		"request_id":    telemetry.RequestIDFromContext(ctx),
		"model":         a.model,
		"overall_score": res.OverallScore,
	})
	return Outcome{Result: res, Raw: encoded}
}

func (a *Analyzer) fallback(ctx context.Context, reason string) Outcome {
	reason = telemetry.Truncate(reason, 500)
	metrics.IncAnalysisFallback()
	telemetry.Error("llm.fallback", map[string]any{
		"request_id": telemetry.RequestIDFromContext(ctx),
		"model":      a.model,
		"error":      reason,
	})
	res := Fallback(reason)
	encoded, _ := json.Marshal(res)
	return Outcome{Result: res, Raw: encoded, Fallback: true}
}

// Health asks the model for a trivial JSON reply.
func (a *Analyzer) Health(ctx context.Context) HealthStatus {
	var prober Prober
	if rc, ok := a.client.(retryingClient); ok {
		prober, _ = rc.base.(Prober)
	} else if a.client != nil {
		prober, _ = a.client.(Prober)
	}
	if prober == nil {
		return HealthStatus{Status: "error", Message: "Service not initialized", Model: a.model}
	}

	text, err := prober.Probe(ctx, HealthPrompt)
	if err != nil {
		return HealthStatus{Status: "error", Message: "API health check failed: " + err.Error(), Model: a.model}
	}
	if strings.Contains(strings.ToLower(text), "ok") {
		return HealthStatus{Status: "healthy", Message: "AI API is working correctly", Model: a.model}
	}
	return HealthStatus{
		Status:   "unhealthy",
		Message:  "Unexpected API response",
		Model:    a.model,
		Response: telemetry.Truncate(text, 100),
	}
}
