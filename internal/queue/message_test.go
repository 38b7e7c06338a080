package queue

import (
	"errors"
	"testing"
	"time"
)

func TestNewMessageEncodesAndDecodes(t *testing.T) {
	at := time.Date(2026, 1, 30, 22, 0, 0, 0, time.FixedZone("SAST", 2*3600))
	msg := NewMessage("analysis-123", "request-456", at)
	if msg.EnqueuedAt != "2026-01-30T20:00:00Z" {
		t.Fatalf("expected UTC timestamp, got %q", msg.EnqueuedAt)
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if got != msg {
		t.Fatalf("got %+v want %+v", got, msg)
	}
}

func TestDecodeMessageDefaultsVersion(t *testing.T) {
	got, err := DecodeMessage([]byte(`{"analysisId":"a1"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Version != MessageVersion {
		t.Fatalf("expected version %d, got %d", MessageVersion, got.Version)
	}
}

func TestDecodeMessageRejectsNewerVersion(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"analysisId":"a1","version":2}`))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}
