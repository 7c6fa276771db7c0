package tos

import (
	"context"
	"testing"
)

func TestEvaluateSkipsWithNoAgentCallWhenURLEmpty(t *testing.T) {
	result := Evaluate(context.Background(), nil, nil, nil, "")
	if !result.Skipped {
		t.Fatal("expected Skipped=true when tosURL is empty")
	}
	if result.Reason == "" {
		t.Error("expected a non-empty skip reason")
	}
}

func TestLooksLikePrivacyOrCookie(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"", false},
		{"https://example.com/terms", false},
		{"https://example.com/terms-of-service", false},
		{"https://example.com/privacy-policy", true},
		{"https://example.com/cookie-policy", true},
		{"https://example.com/legal/PRIVACY", true},
	}
	for _, c := range cases {
		if got := looksLikePrivacyOrCookie(c.url); got != c.want {
			t.Errorf("looksLikePrivacyOrCookie(%q) = %v, want %v", c.url, got, c.want)
		}
	}
}

func TestExtractVisibleText(t *testing.T) {
	html := `<html><head><title>ToS</title></head><body><p>Scraping is prohibited.</p></body></html>`
	text := extractVisibleText(html)
	if text == "" {
		t.Fatal("expected non-empty text")
	}
	if text != "ToSScraping is prohibited." {
		t.Errorf("got %q", text)
	}
}

func TestExtractVisibleTextFallsBackToRawOnParseFailure(t *testing.T) {
	// goquery tolerates almost anything, so this mainly documents the
	// fallback path exists; an empty string round-trips to itself.
	if got := extractVisibleText(""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestEvaluationResultSkippedWhenNoURL(t *testing.T) {
	r := EvaluationResult{Skipped: true, Reason: "no tos_url discovered"}
	if !r.Skipped || r.Reason == "" {
		t.Fatal("expected skipped result to carry a reason")
	}
}
