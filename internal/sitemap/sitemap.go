// Package sitemap discovers a publisher's sitemap URLs:
// prefer the sitemaps already declared by robots.txt, falling back to a
// fixed, ordered set of well-known paths.
package sitemap

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/jmylchreest/pubscope/internal/fetch"
	"github.com/jmylchreest/pubscope/internal/models"
)

// Source identifies how the sitemap URLs were found.
const (
	SourceRobots = "robots.txt"
	SourceProbe  = "probe"
	SourceNone   = "none"
)

// probePaths is the ordered, fixed set tried when robots.txt declares no
// sitemaps. The first successful probe wins.
var probePaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemap/sitemap.xml",
	"/wp-sitemap.xml",
}

// Result is the sitemap_discovery step's return value.
type Result struct {
	SitemapURLs []string `json:"sitemap_urls"`
	Source      string   `json:"source"`
	Count       int      `json:"count"`
}

// Discover resolves robots-declared sitemaps against the homepage, falling
// back to probing the fixed path set in order. A probe succeeds iff the
// body starts with "<?xml" or contains "<urlset" or "<sitemapindex".
func Discover(ctx context.Context, manager *fetch.Manager, publisher *models.Publisher, homepageURL string, robotsSitemaps []string) Result {
	if len(robotsSitemaps) > 0 {
		resolved := resolveAgainst(homepageURL, robotsSitemaps)
		sort.Strings(resolved)
		return Result{SitemapURLs: resolved, Source: SourceRobots, Count: len(resolved)}
	}

	for _, path := range probePaths {
		probeURL := resolveOne(homepageURL, path)
		if probeURL == "" {
			continue
		}
		result, err := manager.Fetch(ctx, probeURL, publisher)
		if err != nil {
			continue
		}
		if looksLikeSitemap(result.Body) {
			return Result{SitemapURLs: []string{probeURL}, Source: SourceProbe, Count: 1}
		}
	}

	return Result{SitemapURLs: nil, Source: SourceNone, Count: 0}
}

func looksLikeSitemap(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "<?xml") {
		return true
	}
	return strings.Contains(trimmed, "<urlset") || strings.Contains(trimmed, "<sitemapindex")
}

func resolveAgainst(base string, refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if resolved := resolveOne(base, ref); resolved != "" {
			out = append(out, resolved)
		}
	}
	return out
}

func resolveOne(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(refURL).String()
}
