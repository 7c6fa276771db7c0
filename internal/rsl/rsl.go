// Package rsl detects Really Simple Licensing indicators
// from three sources: robots License: directives, a homepage <link
// rel="license"> tag, and an HTTP Link response header.
package rsl

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Indicator is one detected RSL signal.
type Indicator struct {
	Source string `json:"source"` // "robots", "link_tag", "link_header"
	URL    string `json:"url"`
}

// Result is the rsl_detection step's return value.
type Result struct {
	RSLDetected bool        `json:"rsl_detected"`
	Indicators  []Indicator `json:"indicators"`
	Count       int         `json:"count"`
}

// linkHeaderURLPattern extracts the "<...>" URL from an HTTP Link header.
var linkHeaderURLPattern = regexp.MustCompile(`<([^>]+)>`)

// Detect evaluates all three RSL indicator sources and resolves each
// discovered reference against the homepage URL.
func Detect(robotsLicenses []string, homepageHTML, homepageURL string, homepageHeaders http.Header) Result {
	var indicators []Indicator

	for _, ref := range robotsLicenses {
		if resolved := resolve(homepageURL, ref); resolved != "" {
			indicators = append(indicators, Indicator{Source: "robots", URL: resolved})
		}
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(homepageHTML)); err == nil {
		doc.Find(`link[rel="license"]`).Each(func(_ int, s *goquery.Selection) {
			typ, _ := s.Attr("type")
			if !strings.EqualFold(typ, "application/rsl+xml") {
				return
			}
			href, ok := s.Attr("href")
			if !ok || href == "" {
				return
			}
			if resolved := resolve(homepageURL, href); resolved != "" {
				indicators = append(indicators, Indicator{Source: "link_tag", URL: resolved})
			}
		})
	}

	for _, value := range homepageHeaders.Values("Link") {
		if !strings.Contains(value, `rel="license"`) || !strings.Contains(value, "application/rsl+xml") {
			continue
		}
		match := linkHeaderURLPattern.FindStringSubmatch(value)
		if len(match) != 2 {
			continue
		}
		if resolved := resolve(homepageURL, match[1]); resolved != "" {
			indicators = append(indicators, Indicator{Source: "link_header", URL: resolved})
		}
	}

	return Result{
		RSLDetected: len(indicators) > 0,
		Indicators:  indicators,
		Count:       len(indicators),
	}
}

func resolve(base, ref string) string {
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
