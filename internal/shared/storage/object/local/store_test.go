package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"resume-analyzer/internal/shared/storage/object"
)

func TestSaveOpenDelete(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	body := []byte("%PDF-1.4 fake pdf body")
	stored, err := store.Save(ctx, "user-1", "My CV.pdf", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if stored.SizeBytes != int64(len(body)) {
		t.Fatalf("expected size %d, got %d", len(body), stored.SizeBytes)
	}
	if !strings.HasSuffix(stored.Key, "_My CV.pdf") {
		t.Fatalf("unexpected key %q", stored.Key)
	}
	if stored.SniffedType != "application/pdf" {
		t.Fatalf("unexpected sniffed type %q", stored.SniffedType)
	}

	rc, err := store.Open(ctx, stored.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, body) {
		t.Fatalf("unexpected body %q", got)
	}

	if err := store.Delete(ctx, stored.Key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Open(ctx, stored.Key); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist after delete, got %v", err)
	}
	if err := store.Delete(ctx, stored.Key); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	store := New(t.TempDir())
	for _, key := range []string{"../etc/passwd", "/etc/passwd", ""} {
		if _, err := store.Open(context.Background(), key); !errors.Is(err, object.ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestSaveHonorsCanceledContext(t *testing.T) {
	store := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Save(ctx, "user-1", "cv.txt", strings.NewReader("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}
