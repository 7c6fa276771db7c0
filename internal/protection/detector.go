// Package protection detects WAF/bot-protection challenge responses so
// Fetch Strategy A can treat them as failures rather than successes.
package protection

import (
	"net/http"
	"strconv"
	"strings"
)

// SignalType identifies the type of protection detected.
type SignalType string

const (
	SignalNone         SignalType = ""
	SignalAccessDenied SignalType = "access_denied"
	SignalChallenge    SignalType = "challenge"
)

// DetectionResult contains the result of protection detection.
type DetectionResult struct {
	// Detected is true if any protection signal was found.
	Detected bool

	// Signal identifies the type of protection detected.
	Signal SignalType

	// Description provides a human-readable explanation.
	Description string
}

// Detector analyzes HTTP responses for the WAF/block signals that Fetch
// Strategy A must treat as failures rather than successes.
type Detector struct{}

// NewDetector creates a new protection detector.
func NewDetector() *Detector {
	return &Detector{}
}

// challengePatterns is the closed set of lowercased body substrings that mark
// a 2xx response as a WAF challenge rather than real content.
var challengePatterns = []string{
	"checking your browser",
	"cloudflare",
	"access denied",
	"just a moment",
	"cf-browser-verification",
	"ray id",
}

// DetectFromResponse analyzes an HTTP response for protection signals.
//
// HTTP 403 is always a block. A 2xx response is also a block when its
// lowercased body contains any of the closed set of challenge patterns.
func (d *Detector) DetectFromResponse(statusCode int, body []byte) DetectionResult {
	if statusCode == http.StatusForbidden {
		return DetectionResult{
			Detected:    true,
			Signal:      SignalAccessDenied,
			Description: "access denied (HTTP 403)",
		}
	}

	if statusCode < 200 || statusCode >= 300 {
		return DetectionResult{Detected: false}
	}

	contentLower := strings.ToLower(string(body))
	for _, pattern := range challengePatterns {
		if strings.Contains(contentLower, pattern) {
			return DetectionResult{
				Detected:    true,
				Signal:      SignalChallenge,
				Description: "challenge page detected: matched pattern " + strconv.Quote(pattern),
			}
		}
	}

	return DetectionResult{Detected: false}
}
