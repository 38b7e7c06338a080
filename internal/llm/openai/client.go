package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/shared/telemetry"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is used when LLM_MODEL is empty.
	DefaultModel   = "gpt-4o-mini"
	defaultTimeout = 120 * time.Second
)

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// Model returns the model name.
func (c *Client) Model() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

const systemPrompt = "You are an ATS resume reviewer. Reply with a single JSON object only."

// AnalyzeResume sends the ATS prompt and returns the JSON object in the reply.
// A reply without JSON is sent back once with a repair request.
func (c *Client) AnalyzeResume(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	messages := []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: llm.BuildPrompt(input)},
	}
	content, err := c.complete(ctx, messages, true)
	if err != nil {
		return nil, err
	}
	raw, err := llm.ExtractJSON(content)
	if err == nil && json.Valid(raw) {
		return raw, nil
	}

	fix := append(messages,
		chatMessage{Role: "assistant", Content: content},
		chatMessage{Role: "user", Content: "The previous reply was not valid JSON. Return the same analysis as one valid JSON object."},
	)
	content, err = c.complete(ctx, fix, true)
	if err != nil {
		return nil, err
	}
	raw, err = llm.ExtractJSON(content)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON from OpenAI")
	}
	return raw, nil
}

// Probe sends a free-form prompt and returns the raw reply.
func (c *Client) Probe(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, []chatMessage{{Role: "user", Content: prompt}}, false)
}

func (c *Client) complete(ctx context.Context, messages []chatMessage, jsonMode bool) (string, error) {
	temp := float32(0)
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: &temp,
	}
	if jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("openai request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 300 {
			return "", fmt.Errorf("openai http status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai error: http status %d: %s (%s)", resp.StatusCode, parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai http status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai response empty content")
	}
	logUsage(ctx, c.model, parsed.Usage)
	return content, nil
}

func logUsage(ctx context.Context, model string, usage *chatUsage) {
	fields := map[string]any{
		"provider":   "openai",
		"model":      model,
		"request_id": telemetry.RequestIDFromContext(ctx),
	}
	if usage != nil {
		fields["prompt_tokens"] = usage.PromptTokens
		fields["completion_tokens"] = usage.CompletionTokens
		fields["total_tokens"] = usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

var (
	_ llm.Client = (*Client)(nil)
	_ llm.Prober = (*Client)(nil)
)
