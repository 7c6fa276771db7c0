// Package rss discovers a homepage's syndication feeds.
package rss

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// feedTypes is the closed set of MIME types that mark a <link rel="alternate">
// as a syndication feed.
var feedTypes = map[string]struct{}{
	"application/rss+xml":  {},
	"application/atom+xml": {},
	"application/xml":      {},
	"text/xml":             {},
}

// Feed is one discovered syndication feed.
type Feed struct {
	URL   string `json:"url"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

// Result is the rss_discovery step's return value.
type Result struct {
	Feeds []Feed `json:"feeds"`
	Count int    `json:"count"`
}

// Discover parses homepage HTML for <link rel="alternate"> feed references,
// resolving relative hrefs against the homepage URL.
func Discover(homepageHTML, homepageURL string) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(homepageHTML))
	if err != nil {
		return Result{}
	}

	base, err := url.Parse(homepageURL)
	if err != nil {
		return Result{}
	}

	var feeds []Feed
	doc.Find(`link[rel="alternate"]`).Each(func(_ int, s *goquery.Selection) {
		typ, _ := s.Attr("type")
		if _, ok := feedTypes[strings.ToLower(typ)]; !ok {
			return
		}
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		refURL, err := url.Parse(href)
		if err != nil {
			return
		}
		title, _ := s.Attr("title")
		feeds = append(feeds, Feed{
			URL:   base.ResolveReference(refURL).String(),
			Type:  typ,
			Title: title,
		})
	})

	return Result{Feeds: feeds, Count: len(feeds)}
}
