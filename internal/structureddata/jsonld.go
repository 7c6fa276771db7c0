// Package structureddata scores JSON-LD (and, as a fallback, microdata)
// nodes on a homepage to identify the publisher's own Organization entity.
package structureddata

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// organizationTypes is the closed set of schema.org types (by bare name)
// that make a JSON-LD/microdata node an Organization candidate.
var organizationTypes = map[string]struct{}{
	"Organization":            {},
	"NewsMediaOrganization":   {},
	"Corporation":             {},
	"LocalBusiness":           {},
	"NGO":                     {},
	"EducationalOrganization": {},
}

// node is a flattened JSON-LD object.
type node map[string]any

// ExtractJSONLDNodes parses every <script type="application/ld+json"> block
// on the page and flattens @graph arrays into a single list of nodes.
func ExtractJSONLDNodes(html string) []node {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var nodes []node
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var parsed any
		if err := json.Unmarshal([]byte(s.Text()), &parsed); err != nil {
			return
		}
		nodes = append(nodes, flatten(parsed)...)
	})
	return nodes
}

// flatten expands a parsed JSON-LD value (object, or array of objects) into
// the set of nodes worth scoring: any item carrying @graph is expanded into
// its nested nodes; any item carrying @type is kept directly.
func flatten(parsed any) []node {
	var out []node
	switch v := parsed.(type) {
	case map[string]any:
		if graph, ok := v["@graph"]; ok {
			if list, ok := graph.([]any); ok {
				for _, item := range list {
					if m, ok := item.(map[string]any); ok {
						out = append(out, node(m))
					}
				}
			}
		}
		if _, ok := v["@type"]; ok {
			out = append(out, node(v))
		}
	case []any:
		for _, item := range v {
			out = append(out, flatten(item)...)
		}
	}
	return out
}

// typeStrings normalizes a node's @type field (string or list) to a slice
// of bare type names, stripping the "https://schema.org/" prefix form.
func typeStrings(n node) []string {
	raw, ok := n["@type"]
	if !ok {
		return nil
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

	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimPrefix(v, "https://schema.org/")
		v = strings.TrimPrefix(v, "http://schema.org/")
		out = append(out, v)
	}
	return out
}

// isOrganizationCandidate reports whether any of a node's types is in the
// closed Organization-type set.
func isOrganizationCandidate(n node) bool {
	for _, t := range typeStrings(n) {
		if _, ok := organizationTypes[t]; ok {
			return true
		}
	}
	return false
}

func hasType(n node, want string) bool {
	for _, t := range typeStrings(n) {
		if t == want {
			return true
		}
	}
	return false
}

func stringField(n node, key string) string {
	if v, ok := n[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// referenceStrings returns the @id and/or url of a nested reference field,
// which may be a string, an object carrying @id/url, or a list of those.
func referenceStrings(n node, key string) []string {
	v, ok := n[key]
	if !ok {
		return nil
	}
	var out []string
	switch val := v.(type) {
	case string:
		out = append(out, val)
	case map[string]any:
		if id, ok := val["@id"].(string); ok && id != "" {
			out = append(out, id)
		}
		if u, ok := val["url"].(string); ok && u != "" {
			out = append(out, u)
		}
	case []any:
		for _, item := range val {
			out = append(out, referenceStrings(node{key: item}, key)...)
		}
	}
	return out
}
