package articleextract

import "testing"

func TestExtractJSONLDArticle(t *testing.T) {
	html := `<html><head>
	<script type="application/ld+json">
	{"@type":"NewsArticle","headline":"Big Story","author":{"name":"Jane Doe"},"publisher":{"@id":"https://example.com/#organization"},"isAccessibleForFree":false}
	</script>
	</head><body></body></html>`

	result := Extract(html)
	if result.JSONLDFields == nil {
		t.Fatal("expected jsonld fields")
	}
	if result.JSONLDFields["headline"] != "Big Story" {
		t.Errorf("got headline %v", result.JSONLDFields["headline"])
	}
	if result.JSONLDFields["author"] != "Jane Doe" {
		t.Errorf("expected flattened author name, got %v", result.JSONLDFields["author"])
	}
	if result.JSONLDFields["publisher"] != "https://example.com/#organization" {
		t.Errorf("expected flattened publisher @id, got %v", result.JSONLDFields["publisher"])
	}
	found := false
	for _, f := range result.FormatsFound {
		if f == "jsonld" {
			found = true
		}
	}
	if !found {
		t.Error("expected jsonld in formats_found")
	}
}

func TestExtractOpenGraphMapping(t *testing.T) {
	html := `<html><head>
	<meta property="og:title" content="Headline Here">
	<meta property="og:type" content="article">
	<meta property="article:published_time" content="2026-01-01T00:00:00Z">
	<meta property="article:tag" content="politics">
	<meta property="article:tag" content="economy">
	</head></html>`

	result := Extract(html)
	if result.OpenGraphFields["headline"] != "Headline Here" {
		t.Errorf("got %v", result.OpenGraphFields["headline"])
	}
	if result.OpenGraphFields["datePublished"] != "2026-01-01T00:00:00Z" {
		t.Errorf("got %v", result.OpenGraphFields["datePublished"])
	}
	keywords, ok := result.OpenGraphFields["keywords"].([]string)
	if !ok || len(keywords) != 2 {
		t.Fatalf("expected 2 accumulated keywords, got %v", result.OpenGraphFields["keywords"])
	}
}

func TestExtractTwitterCards(t *testing.T) {
	html := `<html><head>
	<meta name="twitter:card" content="summary_large_image">
	<meta name="twitter:title" content="Big Story">
	</head></html>`

	result := Extract(html)
	if result.TwitterCards["twitter:card"] != "summary_large_image" {
		t.Errorf("got %v", result.TwitterCards["twitter:card"])
	}
}

func TestExtractNoneFound(t *testing.T) {
	result := Extract(`<html><body>plain page</body></html>`)
	if len(result.FormatsFound) != 0 {
		t.Errorf("expected no formats found, got %v", result.FormatsFound)
	}
}
