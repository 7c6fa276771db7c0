// Package robots parses robots.txt per RFC 9309 and evaluates the AI-bot
// blocking matrix against it.
package robots

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"

	"github.com/jmylchreest/pubscope/internal/fetch"
	"github.com/jmylchreest/pubscope/internal/models"
)

// ScraperUserAgent is the identity used for robots.txt group matching
// (url_allowed and Crawl-delay).
const ScraperUserAgent = "itsascout"

// Result is the robots step's return value.
type Result struct {
	RobotsFound bool              `json:"robots_found"`
	URLAllowed  bool              `json:"url_allowed"`
	Sitemaps    []string          `json:"sitemaps"`
	CrawlDelay  float64           `json:"crawl_delay_seconds"`
	Licenses    []string          `json:"licenses"`
	RawText     string            `json:"-"` // retained for downstream steps, not serialized
	Error       string            `json:"error,omitempty"`
}

// Fetch retrieves and parses https://{domain}/robots.txt via the Fetch
// Manager, guards against WAF challenge pages masquerading as robots.txt,
// and evaluates url_allowed for canonicalURL under ScraperUserAgent.
func Fetch(ctx context.Context, manager *fetch.Manager, publisher *models.Publisher, domain, canonicalURL string) Result {
	robotsURL := fmt.Sprintf("https://%s/robots.txt", domain)

	fetchResult, err := manager.Fetch(ctx, robotsURL, publisher)
	if err != nil {
		return Result{RobotsFound: false, Error: err.Error()}
	}

	body := fetchResult.Body
	stripped := strings.TrimSpace(strings.ToLower(string(body)))
	if strings.HasPrefix(stripped, "<html") || strings.HasPrefix(stripped, "<!doctype") {
		return Result{RobotsFound: false, Error: "robots.txt request returned an HTML challenge page"}
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return Result{RobotsFound: false, Error: err.Error()}
	}

	group := data.FindGroup(ScraperUserAgent)

	return Result{
		RobotsFound: true,
		URLAllowed:  group.Test(requestPath(canonicalURL)),
		Sitemaps:    data.Sitemaps,
		CrawlDelay:  group.CrawlDelay.Seconds(),
		Licenses:    parseLicenseDirectives(string(body)),
		RawText:     string(body),
	}
}

// requestPath reduces a full URL to the path(+query) robotstxt.Group.Test
// expects: its rules are anchored at "/", so matching the scheme/host-qualified
// URL itself would never hit a Disallow rule. Falls back to the input
// unchanged if it doesn't parse as a URL.
func requestPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path
}

// parseLicenseDirectives extracts "License:" directive values, case-insensitive
// and line-anchored, since the robotstxt package only understands the
// standard RFC 9309 directives.
func parseLicenseDirectives(rawText string) []string {
	var licenses []string
	scanner := bufio.NewScanner(strings.NewReader(rawText))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lower := strings.ToLower(line)
		if !strings.HasPrefix(lower, "license:") {
			continue
		}
		value := strings.TrimSpace(line[len("license:"):])
		if value != "" {
			licenses = append(licenses, value)
		}
	}
	return licenses
}

// CanFetch evaluates can_fetch("/") for user agent under the robots text.
func CanFetch(rawText, userAgent string) (bool, error) {
	data, err := robotstxt.FromBytes([]byte(rawText))
	if err != nil {
		return false, err
	}
	return data.TestAgent("/", userAgent), nil
}
