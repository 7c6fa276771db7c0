// Package articleextract pulls article-level metadata out of an article
// page's HTML across the four competing structured-data vocabularies:
// JSON-LD, OpenGraph, microdata, and Twitter Cards.
package articleextract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// articleTypes is the closed @type set recognized as an article
// node; the first JSON-LD node whose @type matches any of these wins.
var articleTypes = map[string]struct{}{
	"Article":                 {},
	"NewsArticle":             {},
	"BlogPosting":             {},
	"TechArticle":             {},
	"ScholarlyArticle":        {},
	"OpinionNewsArticle":      {},
	"AnalysisNewsArticle":     {},
	"ReportageNewsArticle":    {},
	"ReviewNewsArticle":       {},
	"LiveBlogPosting":         {},
	"SocialMediaPosting":      {},
	"WebPage":                 {},
	"CreativeWork":            {},
}

// openGraphMapping is the exact OpenGraph property → article field mapping.
var openGraphMapping = map[string]string{
	"og:title":             "headline",
	"og:description":       "description",
	"og:image":             "image",
	"og:type":               "type",
	"og:site_name":         "publisher_name",
	"og:locale":            "inLanguage",
	"article:published_time": "datePublished",
	"article:modified_time":  "dateModified",
	"article:author":        "author",
	"article:section":       "articleSection",
}

// Result is the article_extraction step's return value.
type Result struct {
	JSONLDFields    map[string]any `json:"jsonld_fields,omitempty"`
	OpenGraphFields map[string]any `json:"opengraph_fields,omitempty"`
	MicrodataFields map[string]any `json:"microdata_fields,omitempty"`
	TwitterCards    map[string]any `json:"twitter_cards,omitempty"`
	FormatsFound    []string       `json:"formats_found"`
}

// Extract scans article HTML for JSON-LD Article nodes, OpenGraph
// properties, microdata itemprops, and Twitter Card meta tags.
func Extract(articleHTML string) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(articleHTML))
	if err != nil {
		return Result{FormatsFound: []string{}}
	}

	result := Result{}

	if fields := extractJSONLD(doc); len(fields) > 0 {
		result.JSONLDFields = fields
		result.FormatsFound = append(result.FormatsFound, "jsonld")
	}
	if fields := extractOpenGraph(doc); len(fields) > 0 {
		result.OpenGraphFields = fields
		result.FormatsFound = append(result.FormatsFound, "opengraph")
	}
	if fields := extractMicrodata(doc); len(fields) > 0 {
		result.MicrodataFields = fields
		result.FormatsFound = append(result.FormatsFound, "microdata")
	}
	if fields := extractTwitterCards(doc); len(fields) > 0 {
		result.TwitterCards = fields
		result.FormatsFound = append(result.FormatsFound, "twitter_cards")
	}

	if result.FormatsFound == nil {
		result.FormatsFound = []string{}
	}
	return result
}

func extractJSONLD(doc *goquery.Document) map[string]any {
	var found map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var parsed any
		if err := json.Unmarshal([]byte(s.Text()), &parsed); err != nil {
			return true
		}
		for _, n := range jsonLDNodes(parsed) {
			if isArticleNode(n) {
				found = flattenArticleNode(n)
				return false
			}
		}
		return true
	})
	return found
}

func jsonLDNodes(parsed any) []map[string]any {
	var out []map[string]any
	switch v := parsed.(type) {
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			for _, item := range graph {
				if m, ok := item.(map[string]any); ok {
					out = append(out, m)
				}
			}
		}
		if _, ok := v["@type"]; ok {
			out = append(out, v)
		}
	case []any:
		for _, item := range v {
			out = append(out, jsonLDNodes(item)...)
		}
	}
	return out
}

func isArticleNode(n map[string]any) bool {
	raw, ok := n["@type"]
	if !ok {
		return false
	}
	var values []string
	switch t := raw.(type) {
	case string:
		values = []string{t}
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok {
				values = append(values, s)
			}
		}
	}
	for _, v := range values {
		v = strings.TrimPrefix(v, "https://schema.org/")
		v = strings.TrimPrefix(v, "http://schema.org/")
		if _, ok := articleTypes[v]; ok {
			return true
		}
	}
	return false
}

// flattenArticleNode copies a node's fields, flattening nested
// publisher/author dicts to a name (falling back to @id).
func flattenArticleNode(n map[string]any) map[string]any {
	out := make(map[string]any, len(n))
	for k, v := range n {
		switch k {
		case "publisher", "author":
			out[k] = flattenEntity(v)
		default:
			out[k] = v
		}
	}
	return out
}

func flattenEntity(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if name, ok := val["name"].(string); ok && name != "" {
			return name
		}
		if id, ok := val["@id"].(string); ok && id != "" {
			return id
		}
		return val
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, flattenEntity(item))
		}
		return out
	default:
		return v
	}
}

func extractOpenGraph(doc *goquery.Document) map[string]any {
	fields := map[string]any{}
	var keywords []string

	doc.Find(`meta[property]`).Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		content, ok := s.Attr("content")
		if !ok || content == "" {
			return
		}
		if prop == "article:tag" {
			keywords = append(keywords, content)
			return
		}
		if field, ok := openGraphMapping[prop]; ok {
			fields[field] = content
		}
	})

	if len(keywords) > 0 {
		fields["keywords"] = keywords
	}
	return fields
}

func extractMicrodata(doc *goquery.Document) map[string]any {
	fields := map[string]any{}
	doc.Find(`[itemscope][itemtype]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		itemtype, _ := s.Attr("itemtype")
		if !strings.Contains(itemtype, "Article") && !strings.Contains(itemtype, "CreativeWork") {
			return true
		}
		s.Find("[itemprop]").Each(func(_ int, prop *goquery.Selection) {
			name, _ := prop.Attr("itemprop")
			if name == "" {
				return
			}
			if content, ok := prop.Attr("content"); ok && content != "" {
				fields[name] = content
				return
			}
			if text := strings.TrimSpace(prop.Text()); text != "" {
				fields[name] = text
			}
		})
		return false
	})
	return fields
}

func extractTwitterCards(doc *goquery.Document) map[string]any {
	fields := map[string]any{}
	doc.Find(`meta[name^="twitter:"]`).Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		content, ok := s.Attr("content")
		if !ok || content == "" {
			return
		}
		fields[name] = content
	})
	return fields
}
