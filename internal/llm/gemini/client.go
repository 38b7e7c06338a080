package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/shared/telemetry"
)

// DefaultModel is used when LLM_MODEL is empty.
const DefaultModel = "gemini-2.0-flash"

type generateFunc func(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error)

// Client implements llm.Client on the Gemini API.
type Client struct {
	model    string
	generate generateFunc
}

// NewClient constructs a Gemini client for the Gemini API backend.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}
	return newClient(model, func(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
		resp, err := gc.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
		if err != nil {
			return "", fmt.Errorf("gemini generate content: %w", err)
		}
		return responseText(resp), nil
	}), nil
}

func newClient(model string, generate generateFunc) *Client {
	return &Client{model: model, generate: generate}
}

// Model returns the model name.
func (c *Client) Model() string {
	return c.model
}

// AnalyzeResume sends the ATS prompt and returns the JSON object in the reply.
func (c *Client) AnalyzeResume(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.2),
	}
	text, err := c.generate(ctx, llm.BuildPrompt(input), cfg)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("gemini returned empty response")
	}
	telemetry.Info("llm.response", map[string]any{
		"provider":   "gemini",
		"model":      c.model,
		"request_id": telemetry.RequestIDFromContext(ctx),
		"chars":      len(text),
	})
	return llm.ExtractJSON(text)
}

// Probe sends a free-form prompt and returns the raw reply.
func (c *Client) Probe(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, nil)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}

var (
	_ llm.Client = (*Client)(nil)
	_ llm.Prober = (*Client)(nil)
)
