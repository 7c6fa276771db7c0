package sitemap

import "testing"

func TestLooksLikeSitemap(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"xml prolog", "<?xml version=\"1.0\"?><urlset></urlset>", true},
		{"urlset without prolog", "<urlset xmlns=\"...\"></urlset>", true},
		{"sitemapindex", "<sitemapindex></sitemapindex>", true},
		{"html challenge page", "<html><body>not a sitemap</body></html>", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := looksLikeSitemap([]byte(tt.body)); got != tt.want {
				t.Errorf("looksLikeSitemap(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}

func TestResolveOne(t *testing.T) {
	got := resolveOne("https://example.com", "/sitemap.xml")
	want := "https://example.com/sitemap.xml"
	if got != want {
		t.Errorf("resolveOne = %q, want %q", got, want)
	}
}
