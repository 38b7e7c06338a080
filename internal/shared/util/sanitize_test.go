package util

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: " resume.pdf ", want: "resume.pdf"},
		{in: "dir/cv.docx", want: "dir_cv.docx"},
		{in: `c:\cv.txt`, want: "c:_cv.txt"},
		{in: "../etc/passwd", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "cv\x00\n.pdf", want: "cv.pdf"},
	}
	for _, tc := range cases {
		got, err := SanitizeFileName(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileNameTruncatesKeepingExtension(t *testing.T) {
	long := strings.Repeat("é", 200) + ".docx"
	got, err := SanitizeFileName(long)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) > MaxFileNameBytes {
		t.Fatalf("expected at most %d bytes, got %d", MaxFileNameBytes, len(got))
	}
	if !strings.HasSuffix(got, ".docx") {
		t.Fatalf("expected extension kept, got %q", got)
	}
	if !strings.HasPrefix(got, "é") || strings.ContainsRune(got, '\uFFFD') {
		t.Fatalf("expected whole runes, got %q", got)
	}
}

func TestSanitizeFileNameSentinel(t *testing.T) {
	if _, err := SanitizeFileName("a/../b"); !errors.Is(err, ErrInvalidFileName) {
		t.Fatalf("expected ErrInvalidFileName, got %v", err)
	}
}
