package fingerprint

import (
	"fmt"
	"testing"
)

func TestResumeFingerprintKnownValues(t *testing.T) {
	cases := map[string]string{
		"John Doe, Engineer": "65829c402e6f6f91ca9a059c80e31b82",
		"":                   "d41d8cd98f00b204e9800998ecf8427e",
	}
	for in, want := range cases {
		if got := Resume(in); got != want {
			t.Fatalf("Resume(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestJobFingerprintKnownValues(t *testing.T) {
	if got := Job("Backend Dev", "Build APIs"); got != "211e18aaa18bbd80e91cea2580569299" {
		t.Fatalf("unexpected job fingerprint %s", got)
	}
	want := "385a940190343252919bf05c96e5932e"
	for _, pair := range [][2]string{{"", ""}, {"  ", "\t\n"}, {"not_specified", ""}} {
		if got := Job(pair[0], pair[1]); got != want {
			t.Fatalf("Job(%q, %q) = %s, want %s", pair[0], pair[1], got, want)
		}
	}
}

func TestJobFieldsTrimmed(t *testing.T) {
	if Job("  Backend Dev ", "Build APIs\n") != Job("Backend Dev", "Build APIs") {
		t.Fatalf("expected surrounding whitespace to be ignored")
	}
}

func TestResumeExactBytesByDefault(t *testing.T) {
	if Resume("John Doe, Engineer") == Resume("john doe,  engineer ") {
		t.Fatalf("expected exact-bytes fingerprint to differ on cosmetic edits")
	}
}

func TestResumeNormalized(t *testing.T) {
	g := Generator{NormalizeResume: true}
	got := g.Resume("  John   Doe,\nEngineer ")
	if got != "0b20f1a587f42bf6977b3b2c0b67e321" {
		t.Fatalf("unexpected normalized fingerprint %s", got)
	}
	if got != g.Resume("john doe, engineer") {
		t.Fatalf("expected normalized fingerprints to match")
	}
}

func TestFingerprintsDistinguishInputs(t *testing.T) {
	seen := map[string]string{}
	for i := 0; i < 500; i++ {
		in := fmt.Sprintf("resume body %d", i)
		fp := Resume(in)
		if len(fp) != 32 {
			t.Fatalf("expected 32 hex chars, got %d", len(fp))
		}
		if prev, ok := seen[fp]; ok {
			t.Fatalf("collision between %q and %q", prev, in)
		}
		seen[fp] = in
	}
	if Job("Dev", "A") == Job("Dev", "B") {
		t.Fatalf("expected different descriptions to differ")
	}
	if Job("Dev A", "x") == Job("Dev B", "x") {
		t.Fatalf("expected different titles to differ")
	}
}
