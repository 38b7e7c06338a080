package workerproc

import (
	"context"
	"errors"
	"testing"

	"resume-analyzer/internal/analyses"
	"resume-analyzer/internal/queue"
	"resume-analyzer/internal/shared/telemetry"
)

type fakeProcessor struct {
	err       error
	gotID     string
	gotReqID  string
	callCount int
}

func (f *fakeProcessor) Process(ctx context.Context, analysisID string) error {
	f.callCount++
	f.gotID = analysisID
	f.gotReqID = telemetry.RequestIDFromContext(ctx)
	return f.err
}

func encode(t *testing.T, msg queue.Message) []byte {
	t.Helper()
	body, err := queue.EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return body
}

func TestParseMessage(t *testing.T) {
	if _, _, err := ParseMessage([]byte("  ")); !errors.As(err, &ErrEmptyBody{}) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
	_, meta, err := ParseMessage([]byte("{bad-json"))
	var decodeErr ErrDecode
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if meta.BodyLen != len("{bad-json") || len(meta.BodySHA) != 64 {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if _, _, err := ParseMessage([]byte(`{"requestId":"r1"}`)); !errors.As(err, &ErrMissingAnalysisID{}) {
		t.Fatalf("expected ErrMissingAnalysisID, got %v", err)
	}
}

func TestHandlerPassesRequestID(t *testing.T) {
	p := &fakeProcessor{}
	body := encode(t, queue.Message{AnalysisID: "a1", RequestID: "req-1", Version: 1})

	if err := Handler(p)(context.Background(), body); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if p.gotID != "a1" || p.gotReqID != "req-1" {
		t.Fatalf("unexpected processor call id=%q req=%q", p.gotID, p.gotReqID)
	}
}

func TestHandlerDropsUnrecoverable(t *testing.T) {
	cases := map[string][]byte{
		"empty":      nil,
		"bad json":   []byte("{bad-json"),
		"missing id": []byte(`{"requestId":"r1"}`),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			p := &fakeProcessor{}
			err := Handler(p)(context.Background(), body)
			if !errors.Is(err, queue.ErrDrop) {
				t.Fatalf("expected ErrDrop, got %v", err)
			}
			if p.callCount != 0 {
				t.Fatal("processor must not run for a malformed message")
			}
		})
	}

	p := &fakeProcessor{err: analyses.ErrNotFound}
	err := Handler(p)(context.Background(), encode(t, queue.Message{AnalysisID: "gone"}))
	if !errors.Is(err, queue.ErrDrop) {
		t.Fatalf("expected missing analysis to be dropped, got %v", err)
	}
}

func TestHandlerRetriesProcessingFailure(t *testing.T) {
	p := &fakeProcessor{err: errors.New("db down")}
	err := Handler(p)(context.Background(), encode(t, queue.Message{AnalysisID: "a1"}))
	if err == nil || errors.Is(err, queue.ErrDrop) {
		t.Fatalf("expected retryable error, got %v", err)
	}
	var procErr ErrProcess
	if !errors.As(err, &procErr) || procErr.AnalysisID != "a1" {
		t.Fatalf("expected ErrProcess, got %v", err)
	}
}
