// Package workerproc turns queue payloads into analysis runs.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"resume-analyzer/internal/analyses"
	"resume-analyzer/internal/queue"
	"resume-analyzer/internal/shared/telemetry"
)

// Processor runs one queued analysis.
type Processor interface {
	Process(ctx context.Context, analysisID string) error
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body []byte) MessageMeta {
	if len(body) == 0 {
		return MessageMeta{}
	}
	sum := sha256.Sum256(body)
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingAnalysisID indicates a message missing the analysis id.
type ErrMissingAnalysisID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingAnalysisID) Error() string { return "missing analysis id" }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	AnalysisID string
	RequestID  string
	Err        error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process analysis"
	}
	return "process analysis: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body []byte) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(string(body)) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage(body)
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.AnalysisID) == "" {
		return msg, meta, ErrMissingAnalysisID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// HandleMessage parses a payload and runs the analysis it names.
func HandleMessage(ctx context.Context, processor Processor, body []byte) error {
	if processor == nil {
		return errors.New("analysis processor not configured")
	}
	msg, _, err := ParseMessage(body)
	if err != nil {
		return err
	}

	ctx = telemetry.WithRequestID(ctx, msg.RequestID)
	if err := processor.Process(ctx, msg.AnalysisID); err != nil {
		return ErrProcess{AnalysisID: msg.AnalysisID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}

// Handler adapts processor to a queue.Handler. Malformed payloads and
// analyses that no longer exist are dropped; other failures are retried.
func Handler(processor Processor) queue.Handler {
	return func(ctx context.Context, body []byte) error {
		err := HandleMessage(ctx, processor, body)
		if err == nil {
			return nil
		}

		var (
			empty   ErrEmptyBody
			decode  ErrDecode
			missing ErrMissingAnalysisID
			proc    ErrProcess
		)
		switch {
		case errors.As(err, &empty):
			telemetry.Error("worker.analysis.empty_body", map[string]any{"body_len": 0})
			return fmt.Errorf("%w: %v", queue.ErrDrop, err)
		case errors.As(err, &decode):
			telemetry.Error("worker.analysis.decode_failed", map[string]any{
				"body_len":    decode.Meta.BodyLen,
				"body_sha256": decode.Meta.BodySHA,
				"error":       err,
			})
			return fmt.Errorf("%w: %v", queue.ErrDrop, err)
		case errors.As(err, &missing):
			telemetry.Error("worker.analysis.missing_id", map[string]any{
				"request_id":  missing.RequestID,
				"body_len":    missing.Meta.BodyLen,
				"body_sha256": missing.Meta.BodySHA,
			})
			return fmt.Errorf("%w: %v", queue.ErrDrop, err)
		case errors.As(err, &proc) && errors.Is(err, analyses.ErrNotFound):
			telemetry.Error("worker.analysis.not_found", map[string]any{
				"analysis_id": proc.AnalysisID,
				"request_id":  proc.RequestID,
			})
			return fmt.Errorf("%w: %v", queue.ErrDrop, err)
		default:
			return err
		}
	}
}
