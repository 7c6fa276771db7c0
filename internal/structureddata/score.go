package structureddata

import (
	"sort"
	"strings"
)

// Organization is the resolved publisher identity.
type Organization struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	URL     string   `json:"url"`
	ID      string   `json:"id"`
	Logo    string   `json:"logo"`
	SameAs  []string `json:"same_as"`
	Source  string   `json:"source"` // "json-ld" or "microdata"
}

// Result is the publisher_details/organization step's return value.
type Result struct {
	Found          bool          `json:"found"`
	Source         string        `json:"source"`
	Score          int           `json:"score"`
	Organization   *Organization `json:"organization,omitempty"`
	CandidateCount int           `json:"candidate_count"`
}

// scored pairs a JSON-LD node with its computed score and tie-break facts.
type scored struct {
	n                  node
	score              int
	urlMatchesHomepage bool
	idIsOrgLike        bool
	index              int
}

// Resolve scores JSON-LD Organization candidates on the homepage, falling
// back to microdata only when JSON-LD produced no candidates at all.
func Resolve(html, homepageURL string) Result {
	nodes := ExtractJSONLDNodes(html)

	var candidates []node
	for _, n := range nodes {
		if isOrganizationCandidate(n) {
			candidates = append(candidates, n)
		}
	}

	if len(candidates) > 0 {
		return resolveFromJSONLD(candidates, nodes, homepageURL)
	}

	return resolveFromMicrodata(html, homepageURL)
}

func resolveFromJSONLD(candidates, allNodes []node, homepageURL string) Result {
	referenced := referencedAsOrg(allNodes)

	scoredCandidates := make([]scored, 0, len(candidates))
	for i, n := range candidates {
		s := scoreJSONLDNode(n, homepageURL, referenced)
		idLower := stringField(n, "@id")
		scoredCandidates = append(scoredCandidates, scored{
			n:                  n,
			score:              s,
			urlMatchesHomepage: stringField(n, "url") == homepageURL,
			idIsOrgLike:        containsAny(idLower, "#organization", "#publisher", "#brand"),
			index:              i,
		})
	}

	// Discard zero-score candidates that carry neither a url nor an @id —
	// too weak to identify anything.
	filtered := scoredCandidates[:0]
	for _, c := range scoredCandidates {
		if c.score == 0 && stringField(c.n, "url") == "" && stringField(c.n, "@id") == "" {
			continue
		}
		filtered = append(filtered, c)
	}
	scoredCandidates = filtered

	if len(scoredCandidates) == 0 {
		return Result{Found: false, CandidateCount: len(candidates)}
	}

	sort.SliceStable(scoredCandidates, func(i, j int) bool {
		a, b := scoredCandidates[i], scoredCandidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.urlMatchesHomepage != b.urlMatchesHomepage {
			return a.urlMatchesHomepage
		}
		if a.idIsOrgLike != b.idIsOrgLike {
			return a.idIsOrgLike
		}
		return a.index < b.index
	})

	winner := scoredCandidates[0]
	org := buildOrganization(winner.n, "json-ld")

	return Result{
		Found:          true,
		Source:         "json-ld",
		Score:          winner.score,
		Organization:   &org,
		CandidateCount: len(candidates),
	}
}

// referencedAsOrg returns the set of @id/url strings that some other node
// in the document references via publisher, author, or isPartOf.
func referencedAsOrg(allNodes []node) map[string]struct{} {
	refs := map[string]struct{}{}
	for _, n := range allNodes {
		for _, key := range []string{"publisher", "author", "isPartOf"} {
			for _, ref := range referenceStrings(n, key) {
				refs[ref] = struct{}{}
			}
		}
	}
	return refs
}

func scoreJSONLDNode(n node, homepageURL string, referenced map[string]struct{}) int {
	score := 0

	id := stringField(n, "@id")
	u := stringField(n, "url")

	if id != "" && sameURLSlashInsensitive(id, homepageURL) {
		score += 4
	}
	if u != "" && u == homepageURL {
		score += 3
	}
	if hasType(n, "NewsMediaOrganization") {
		score += 3
	}
	if containsAny(id, "#organization", "#publisher", "#brand") {
		score += 2
	}
	if id != "" {
		if _, ok := referenced[id]; ok {
			score += 2
		}
	}
	if u != "" {
		if _, ok := referenced[u]; ok {
			score += 2
		}
	}
	if stringField(n, "logo") != "" || hasObjectField(n, "logo") {
		score += 1
	}
	if hasSameAs(n) {
		score += 1
	}
	if _, ok := n["contactPoint"]; ok {
		score += 1
	}
	if _, ok := n["address"]; ok {
		score += 1
	}

	return score
}

func hasObjectField(n node, key string) bool {
	v, ok := n[key]
	if !ok {
		return false
	}
	_, isMap := v.(map[string]any)
	return isMap
}

func hasSameAs(n node) bool {
	v, ok := n["sameAs"]
	if !ok {
		return false
	}
	switch v.(type) {
	case string:
		return true
	case []any:
		return len(v.([]any)) > 0
	}
	return false
}

// sameURLSlashInsensitive compares two URLs ignoring a single trailing
// slash, per §4.5's "@id equals homepage URL (slash-insensitive)" rule.
func sameURLSlashInsensitive(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func buildOrganization(n node, source string) Organization {
	return Organization{
		Name:   stringField(n, "name"),
		Type:   firstOrEmpty(typeStrings(n)),
		URL:    stringField(n, "url"),
		ID:     stringField(n, "@id"),
		Logo:   logoString(n),
		SameAs: sameAsStrings(n),
		Source: source,
	}
}

func firstOrEmpty(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

func logoString(n node) string {
	v, ok := n["logo"]
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if u, ok := val["url"].(string); ok {
			return u
		}
	}
	return ""
}

func sameAsStrings(n node) []string {
	v, ok := n["sameAs"]
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
