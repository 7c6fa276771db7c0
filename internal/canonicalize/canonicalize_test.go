package canonicalize

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "strips www, sorts query, drops tracking and fragment",
			input: "http://WWW.Example.COM/a?utm_source=x&b=2&a=1#frag",
			want:  "https://example.com/a?a=1&b=2",
		},
		{
			name:  "preserves trailing slash",
			input: "https://example.com/news/",
			want:  "https://example.com/news/",
		},
		{
			name:  "preserves non-default port",
			input: "http://example.com:8443/a",
			want:  "https://example.com:8443/a",
		},
		{
			name:    "missing scheme and host fails",
			input:   "not a url with spaces and no scheme",
			wantErr: true,
		},
		{
			name:    "empty string fails",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	inputs := []string{
		"http://WWW.Example.COM/a?utm_source=x&b=2&a=1#frag",
		"https://www.bbc.co.uk/news",
		"https://example.com:8443/a/b/",
	}
	for _, in := range inputs {
		once, err := Canonicalize(in)
		if err != nil {
			t.Fatalf("Canonicalize(%q): %v", in, err)
		}
		twice, err := Canonicalize(once)
		if err != nil {
			t.Fatalf("Canonicalize(%q) second pass: %v", once, err)
		}
		if once != twice {
			t.Errorf("not idempotent: canonicalize(%q) = %q, canonicalize(that) = %q", in, once, twice)
		}
	}
}

func TestExtractDomain(t *testing.T) {
	domain, err := ExtractDomain("https://www.bbc.co.uk/news")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if domain != "bbc.co.uk" {
		t.Errorf("ExtractDomain = %q, want %q", domain, "bbc.co.uk")
	}
}
