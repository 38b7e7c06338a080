package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"google.golang.org/genai"

	"resume-analyzer/internal/shared/telemetry"
)

const defaultRetryDelay = 300 * time.Millisecond

type retryingClient struct {
	base  Client
	delay time.Duration
}

// WithRetry wraps base so a transient failure is retried once after delay.
func WithRetry(base Client, delay time.Duration) Client {
	if base == nil {
		return nil
	}
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	return retryingClient{base: base, delay: delay}
}

func (r retryingClient) AnalyzeResume(ctx context.Context, input AnalyzeInput) (json.RawMessage, error) {
	resp, err := r.base.AnalyzeResume(ctx, input)
	if err == nil || !ShouldRetry(err) {
		return resp, err
	}

	telemetry.Warn("llm.retry", map[string]any{
		"attempt":    1,
		"request_id": telemetry.RequestIDFromContext(ctx),
		"error":      telemetry.Truncate(err.Error(), 300),
	})
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return r.base.AnalyzeResume(ctx, input)
}

// ShouldRetry reports whether err looks transient: timeouts, 5xx responses
// and dropped connections.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 500 || apiErr.Code == 429
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "unexpected eof") {
		return true
	}

	return false
}
