package services

import (
	"strings"
	"testing"
)

func TestDecodeJSONResponse(t *testing.T) {
	type payload struct {
		Score  float64 `json:"score"`
		Reason string  `json:"reason"`
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"plain JSON", `{"score": 0.8, "reason": "clear advice"}`},
		{"fenced JSON", "```json\n{\"score\": 0.8, \"reason\": \"clear advice\"}\n```"},
		{"bare fence", "```\n{\"score\": 0.8, \"reason\": \"clear advice\"}\n```"},
		{"chatty preamble", "Here is my evaluation:\n{\"score\": 0.8, \"reason\": \"clear advice\"} Hope that helps!"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out payload
			if err := decodeJSONResponse(tc.raw, &out); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Score != 0.8 || out.Reason != "clear advice" {
				t.Errorf("unexpected payload: %+v", out)
			}
		})
	}
}

func TestDecodeJSONResponse_NoJSON(t *testing.T) {
	var out map[string]interface{}
	err := decodeJSONResponse("I could not produce a rating.", &out)
	if err == nil {
		t.Fatal("expected error for response without JSON")
	}
	if !strings.Contains(err.Error(), "no JSON") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFrustrationRecommendation(t *testing.T) {
	low := FrustrationRecommendation(0.1)
	mid := FrustrationRecommendation(0.45)
	high := FrustrationRecommendation(0.9)

	if low == mid || mid == high || low == high {
		t.Error("expected distinct recommendations per band")
	}

	// Band edges: 0.3 falls into the middle band, 0.6 into the high band.
	if FrustrationRecommendation(0.3) != mid {
		t.Error("expected 0.3 to fall into the middle band")
	}
	if FrustrationRecommendation(0.6) != high {
		t.Error("expected 0.6 to fall into the high band")
	}
}

func TestClampScore(t *testing.T) {
	if got := clampScore(-0.5); got != 0 {
		t.Errorf("expected negative score to clamp to 0, got %v", got)
	}
	if got := clampScore(1.7); got != 1 {
		t.Errorf("expected score above 1 to clamp to 1, got %v", got)
	}
	if got := clampScore(0.42); got != 0.42 {
		t.Errorf("expected in-range score to pass through, got %v", got)
	}
}

func TestSuggestTitleTrimming(t *testing.T) {
	got := trimTitle(`"Marathon Training Plan"`)
	if got != "Marathon Training Plan" {
		t.Errorf("expected surrounding quotes stripped, got %q", got)
	}

	long := trimTitle("one two three four five six seven eight nine ten")
	if len(strings.Fields(long)) > 8 {
		t.Errorf("expected title capped at 8 words, got %q", long)
	}
}
