// Package tos implements the ToS-discovery and ToS-evaluation steps:
// extract a homepage's anchor tags, ask the ToS-discovery LLM collaborator
// for the canonical URL, then — when one was found — fetch that document
// and ask the ToS-evaluation collaborator for the eight-activity permission
// matrix.
package tos

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/pubscope/internal/fetch"
	"github.com/jmylchreest/pubscope/internal/llmagent"
	"github.com/jmylchreest/pubscope/internal/models"
)

// privacyCookiePatterns rejects a ToS URL returned by the discovery
// collaborator that points at an obvious privacy/cookie page; the anchor
// list handed to the collaborator is not filtered.
var privacyCookiePatterns = []string{"privacy", "cookie"}

// DiscoveryResult is the tos_discovery step's return value.
type DiscoveryResult struct {
	TosURL     string  `json:"tos_url,omitempty"`
	Confidence float64 `json:"confidence"`
	Notes      string  `json:"notes,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// EvaluationResult is the tos_evaluation step's return value.
type EvaluationResult struct {
	Skipped                bool                        `json:"skipped,omitempty"`
	Reason                 string                       `json:"reason,omitempty"`
	Permissions            []llmagent.PermissionEntry  `json:"permissions,omitempty"`
	DocumentType           string                       `json:"document_type,omitempty"`
	ConfidenceScore        float64                      `json:"confidence_score,omitempty"`
	TerritorialExceptions  string                       `json:"territorial_exceptions,omitempty"`
	ArbitrationClauses     string                       `json:"arbitration_clauses,omitempty"`
	Error                  string                       `json:"error,omitempty"`
}

// Discover parses the homepage's anchor tags and asks the ToS-discovery
// collaborator for the canonical ToS URL, resolving a relative href against
// the homepage.
func Discover(ctx context.Context, agent *llmagent.Agent, homepageHTML, homepageURL string) DiscoveryResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(homepageHTML))
	if err != nil {
		return DiscoveryResult{Error: err.Error()}
	}

	base, err := url.Parse(homepageURL)
	if err != nil {
		return DiscoveryResult{Error: err.Error()}
	}

	var anchors []llmagent.AnchorLink
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" {
			return
		}
		refURL, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(refURL).String()
		anchors = append(anchors, llmagent.AnchorLink{
			Href:        resolved,
			VisibleText: strings.TrimSpace(s.Text()),
		})
	})

	result, err := agent.DiscoverTos(ctx, anchors, homepageURL)
	if err != nil {
		return DiscoveryResult{Error: err.Error()}
	}

	if looksLikePrivacyOrCookie(result.TermsOfServiceURL) {
		return DiscoveryResult{Confidence: result.ConfidenceScore, Notes: result.Notes}
	}

	return DiscoveryResult{
		TosURL:     result.TermsOfServiceURL,
		Confidence: result.ConfidenceScore,
		Notes:      result.Notes,
	}
}

// Evaluate fetches the discovered ToS document and asks the ToS-evaluation
// collaborator for the permission matrix. Returns
// {skipped:true} when no ToS URL was discovered.
func Evaluate(ctx context.Context, agent *llmagent.Agent, manager *fetch.Manager, publisher *models.Publisher, tosURL string) EvaluationResult {
	if tosURL == "" {
		return EvaluationResult{Skipped: true, Reason: "no tos_url discovered"}
	}

	fetchResult, err := manager.Fetch(ctx, tosURL, publisher)
	if err != nil {
		return EvaluationResult{Error: err.Error()}
	}

	docText := extractVisibleText(string(fetchResult.Body))

	result, err := agent.EvaluateTos(ctx, docText)
	if err != nil {
		return EvaluationResult{Error: err.Error()}
	}

	return EvaluationResult{
		Permissions:           result.Permissions,
		DocumentType:          result.DocumentType,
		ConfidenceScore:       result.ConfidenceScore,
		TerritorialExceptions: result.TerritorialExceptions,
		ArbitrationClauses:    result.ArbitrationClauses,
	}
}

func looksLikePrivacyOrCookie(tosURL string) bool {
	if tosURL == "" {
		return false
	}
	lower := strings.ToLower(tosURL)
	for _, pattern := range privacyCookiePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// extractVisibleText strips tags to keep the LLM prompt to readable text
// rather than raw HTML, mirroring how the discovery step uses goquery.
func extractVisibleText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(doc.Text())
}
