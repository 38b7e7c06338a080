package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Tip is one piece of feedback within a section.
type Tip struct {
	Type        string `json:"type"`
	Tip         string `json:"tip"`
	Explanation string `json:"explanation,omitempty"`
}

// Section is a scored feedback category.
type Section struct {
	Score int   `json:"score"`
	Tips  []Tip `json:"tips"`
}

// Result is the structured analysis stored in the cache and on the analysis row.
type Result struct {
	OverallScore  int     `json:"overallScore"`
	ATS           Section `json:"ATS"`
	ToneAndStyle  Section `json:"toneAndStyle"`
	Content       Section `json:"content"`
	Structure     Section `json:"structure"`
	Skills        Section `json:"skills"`
	AnalysisError bool    `json:"analysisError,omitempty"`
	ErrorMessage  string  `json:"errorMessage,omitempty"`
}

// Tip types.
const (
	TipGood    = "good"
	TipImprove = "improve"
)

// ExtractJSON returns the text between the first '{' and the last '}'.
func ExtractJSON(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}
	return json.RawMessage(text[start : end+1]), nil
}

type rawSection struct {
	Score float64 `json:"score"`
	Tips  []Tip   `json:"tips"`
}

// ParseResult decodes model output into a Result. Missing sections are filled
// from the fallback template, scores are clamped to 0..100 and unknown tip
// types are treated as "improve".
func ParseResult(raw []byte) (Result, error) {
	body, err := ExtractJSON(string(raw))
	if err != nil {
		return Result{}, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Result{}, fmt.Errorf("decode analysis: %w", err)
	}

	fb := Fallback("")
	out := Result{}

	if v, ok := fields["overallScore"]; ok {
		var score float64
		if err := json.Unmarshal(v, &score); err != nil {
			return Result{}, fmt.Errorf("decode overallScore: %w", err)
		}
		out.OverallScore = clampScore(score)
	} else {
		out.OverallScore = fb.OverallScore
	}

	sections := []struct {
		name string
		dst  *Section
		def  Section
	}{
		{"ATS", &out.ATS, fb.ATS},
		{"toneAndStyle", &out.ToneAndStyle, fb.ToneAndStyle},
		{"content", &out.Content, fb.Content},
		{"structure", &out.Structure, fb.Structure},
		{"skills", &out.Skills, fb.Skills},
	}
	for _, s := range sections {
		v, ok := fields[s.name]
		if !ok {
			*s.dst = s.def
			continue
		}
		var rs rawSection
		if err := json.Unmarshal(v, &rs); err != nil {
			return Result{}, fmt.Errorf("decode %s: %w", s.name, err)
		}
		*s.dst = Section{Score: clampScore(rs.Score), Tips: normalizeTips(rs.Tips)}
	}
	return out, nil
}

// Fallback returns the result served when the model cannot produce one.
func Fallback(errorMessage string) Result {
	pending := Section{
		Score: 50,
		Tips: []Tip{{
			Type:        TipImprove,
			Tip:         "Analysis pending",
			Explanation: "AI service is currently unavailable. Please try again later.",
		}},
	}
	clone := func() Section {
		return Section{Score: pending.Score, Tips: append([]Tip(nil), pending.Tips...)}
	}
	return Result{
		OverallScore: 50,
		ATS: Section{
			Score: 50,
			Tips:  []Tip{{Type: TipImprove, Tip: "AI analysis temporarily unavailable"}},
		},
		ToneAndStyle:  clone(),
		Content:       clone(),
		Structure:     clone(),
		Skills:        clone(),
		AnalysisError: true,
		ErrorMessage:  errorMessage,
	}
}

func normalizeTips(tips []Tip) []Tip {
	out := make([]Tip, 0, len(tips))
	for _, t := range tips {
		t.Tip = strings.TrimSpace(t.Tip)
		if t.Tip == "" {
			continue
		}
		t.Type = strings.ToLower(strings.TrimSpace(t.Type))
		if t.Type != TipGood {
			t.Type = TipImprove
		}
		t.Explanation = strings.TrimSpace(t.Explanation)
		out = append(out, t)
	}
	return out
}

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
