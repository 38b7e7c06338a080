package llm

import (
	"errors"
	"testing"
)

func TestParseResultFullResponse(t *testing.T) {
	raw := []byte("Sure!\n```json\n" + `{
		"overallScore": 78.6,
		"ATS": {"score": 120, "tips": [{"type": "GOOD", "tip": " Clear headings "}, {"type": "bad", "tip": "Add keywords"}, {"type": "good", "tip": "  "}]},
		"toneAndStyle": {"score": -4, "tips": []},
		"content": {"score": 70, "tips": [{"type": "improve", "tip": "Quantify", "explanation": "Add numbers"}]},
		"structure": {"score": 65, "tips": []},
		"skills": {"score": 80, "tips": [{"type": "good", "tip": "Go"}]}
	}` + "\n```")

	res, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OverallScore != 79 {
		t.Fatalf("expected rounded overall score 79, got %d", res.OverallScore)
	}
	if res.ATS.Score != 100 || res.ToneAndStyle.Score != 0 {
		t.Fatalf("expected clamped scores, got ATS=%d tone=%d", res.ATS.Score, res.ToneAndStyle.Score)
	}
	if len(res.ATS.Tips) != 2 {
		t.Fatalf("expected blank tip dropped, got %+v", res.ATS.Tips)
	}
	if res.ATS.Tips[0].Type != TipGood || res.ATS.Tips[0].Tip != "Clear headings" {
		t.Fatalf("unexpected first tip %+v", res.ATS.Tips[0])
	}
	if res.ATS.Tips[1].Type != TipImprove {
		t.Fatalf("expected unknown type to become improve, got %q", res.ATS.Tips[1].Type)
	}
	if res.AnalysisError {
		t.Fatalf("expected no analysis error")
	}
}

func TestParseResultFillsMissingSections(t *testing.T) {
	res, err := ParseResult([]byte(`{"ATS": {"score": 40, "tips": []}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fb := Fallback("")
	if res.OverallScore != fb.OverallScore {
		t.Fatalf("expected fallback overall score, got %d", res.OverallScore)
	}
	if res.ATS.Score != 40 {
		t.Fatalf("expected parsed ATS score, got %d", res.ATS.Score)
	}
	if res.Skills.Score != 50 || len(res.Skills.Tips) != 1 || res.Skills.Tips[0].Tip != "Analysis pending" {
		t.Fatalf("expected fallback skills section, got %+v", res.Skills)
	}
	if res.AnalysisError {
		t.Fatalf("missing sections should not flag the whole result")
	}
}

func TestParseResultErrors(t *testing.T) {
	if _, err := ParseResult([]byte("no json here")); !errors.Is(err, ErrNoJSON) {
		t.Fatalf("expected ErrNoJSON, got %v", err)
	}
	if _, err := ParseResult([]byte(`{"overallScore": "high"}`)); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := ParseResult([]byte(`{"overallScore": 1,}`)); err == nil {
		t.Fatalf("expected syntax error")
	}
}

func TestFallbackShape(t *testing.T) {
	fb := Fallback("boom")
	if !fb.AnalysisError || fb.ErrorMessage != "boom" {
		t.Fatalf("expected error flags, got %+v", fb)
	}
	for _, s := range []Section{fb.ATS, fb.ToneAndStyle, fb.Content, fb.Structure, fb.Skills} {
		if s.Score != 50 || len(s.Tips) != 1 || s.Tips[0].Type != TipImprove {
			t.Fatalf("unexpected fallback section %+v", s)
		}
	}
	if fb.ATS.Tips[0].Tip != "AI analysis temporarily unavailable" {
		t.Fatalf("unexpected ATS tip %q", fb.ATS.Tips[0].Tip)
	}
	fb.Content.Tips[0].Tip = "changed"
	if fb.Skills.Tips[0].Tip != "Analysis pending" {
		t.Fatalf("expected sections not to share tip slices")
	}
}

func TestExtractJSON(t *testing.T) {
	got, err := ExtractJSON("prefix {\"a\": {\"b\": 1}} suffix")
	if err != nil || string(got) != `{"a": {"b": 1}}` {
		t.Fatalf("unexpected extract %s %v", got, err)
	}
	if _, err := ExtractJSON("} {"); !errors.Is(err, ErrNoJSON) {
		t.Fatalf("expected ErrNoJSON for reversed braces, got %v", err)
	}
}
