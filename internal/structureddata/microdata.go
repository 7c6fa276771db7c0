package structureddata

import (
	"sort"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// microdataTypeSuffixes is the closed set of schema.org Organization
// itemtype suffixes recognized in the microdata fallback.
var microdataTypeSuffixes = map[string]struct{}{
	"Organization":          {},
	"NewsMediaOrganization": {},
	"Corporation":           {},
	"LocalBusiness":         {},
	"NGO":                   {},
}

type microdataCandidate struct {
	node   *html.Node
	score  int
	urlHit bool
	index  int
}

// resolveFromMicrodata is only reached when JSON-LD produced zero
// Organization candidates.
func resolveFromMicrodata(rawHTML, homepageURL string) Result {
	doc, err := htmlquery.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return Result{Found: false}
	}

	itemNodes := htmlquery.Find(doc, "//*[@itemscope and @itemtype]")

	var candidates []*html.Node
	for _, n := range itemNodes {
		if isMicrodataOrg(htmlquery.SelectAttr(n, "itemtype")) {
			candidates = append(candidates, n)
		}
	}

	if len(candidates) == 0 {
		return Result{Found: false}
	}

	scoredCandidates := make([]microdataCandidate, 0, len(candidates))
	for i, n := range candidates {
		s, urlHit := scoreMicrodataNode(n, doc, homepageURL)
		scoredCandidates = append(scoredCandidates, microdataCandidate{node: n, score: s, urlHit: urlHit, index: i})
	}

	sort.SliceStable(scoredCandidates, func(i, j int) bool {
		a, b := scoredCandidates[i], scoredCandidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.urlHit != b.urlHit {
			return a.urlHit
		}
		return a.index < b.index
	})

	winner := scoredCandidates[0]
	org := buildMicrodataOrganization(winner.node)

	return Result{
		Found:          true,
		Source:         "microdata",
		Score:          winner.score,
		Organization:   &org,
		CandidateCount: len(candidates),
	}
}

func isMicrodataOrg(itemtype string) bool {
	parts := strings.Split(itemtype, "/")
	suffix := parts[len(parts)-1]
	_, ok := microdataTypeSuffixes[suffix]
	return ok
}

func scoreMicrodataNode(n, doc *html.Node, homepageURL string) (int, bool) {
	score := 0

	itemURL := microdataProp(n, "url")
	urlHit := itemURL != "" && itemURL == homepageURL
	if urlHit {
		score += 3
	}
	if itemid := htmlquery.SelectAttr(n, "itemid"); itemid != "" && itemid == homepageURL {
		score += 2
	}
	if microdataProp(n, "logo") != "" {
		score += 1
	}
	if microdataProp(n, "sameAs") != "" {
		score += 1
	}
	if nestedPublisherMatches(n, doc) {
		score += 2
	}

	return score, urlHit
}

// nestedPublisherMatches reports whether a WebPage/WebSite node elsewhere in
// the document names this organization as its publisher by matching name.
func nestedPublisherMatches(orgNode, doc *html.Node) bool {
	orgName := microdataProp(orgNode, "name")
	if orgName == "" {
		return false
	}

	pages := htmlquery.Find(doc, "//*[@itemscope and @itemtype]")
	for _, p := range pages {
		suffix := lastPathSegment(htmlquery.SelectAttr(p, "itemtype"))
		if suffix != "WebPage" && suffix != "WebSite" {
			continue
		}
		pubNode := htmlquery.FindOne(p, `.//*[@itemprop="publisher"]`)
		if pubNode != nil && microdataProp(pubNode, "name") == orgName {
			return true
		}
	}
	return false
}

func microdataProp(n *html.Node, prop string) string {
	found := htmlquery.FindOne(n, `.//*[@itemprop="`+prop+`"]`)
	if found == nil {
		return ""
	}
	if content := htmlquery.SelectAttr(found, "content"); content != "" {
		return content
	}
	if href := htmlquery.SelectAttr(found, "href"); href != "" {
		return href
	}
	return strings.TrimSpace(htmlquery.InnerText(found))
}

func buildMicrodataOrganization(n *html.Node) Organization {
	var sameAs []string
	if s := microdataProp(n, "sameAs"); s != "" {
		sameAs = []string{s}
	}
	return Organization{
		Name:   microdataProp(n, "name"),
		Type:   lastPathSegment(htmlquery.SelectAttr(n, "itemtype")),
		URL:    microdataProp(n, "url"),
		ID:     htmlquery.SelectAttr(n, "itemid"),
		Logo:   microdataProp(n, "logo"),
		SameAs: sameAs,
		Source: "microdata",
	}
}

func lastPathSegment(s string) string {
	parts := strings.Split(s, "/")
	return parts[len(parts)-1]
}
