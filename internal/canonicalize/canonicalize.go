// Package canonicalize normalizes submitted article URLs into a stable,
// deduplicable form and extracts their owning domain.
package canonicalize

import (
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when the input lacks a scheme or host once parsed.
type ErrInvalidURL struct {
	Input string
	Cause error
}

func (e *ErrInvalidURL) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid url %q: %v", e.Input, e.Cause)
	}
	return fmt.Sprintf("invalid url %q", e.Input)
}

func (e *ErrInvalidURL) Unwrap() error { return e.Cause }

// trackingParams is the closed set of known tracking query parameters
// stripped during canonicalization.
var trackingParams = map[string]struct{}{
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {}, "utm_term": {}, "utm_content": {},
	"fbclid": {}, "gclid": {}, "gclsrc": {}, "dclid": {}, "gbraid": {}, "wbraid": {}, "msclkid": {},
	"twclid": {}, "igshid": {}, "mc_cid": {}, "mc_eid": {}, "_openstat": {}, "vero_id": {},
	"wickedid": {}, "yclid": {}, "rb_clickid": {}, "s_cid": {}, "mkt_tok": {}, "trk": {},
	"trkCampaign": {}, "trkInfo": {}, "oly_anon_id": {}, "oly_enc_id": {},
}

// Canonicalize normalizes a submitted URL:
//   - lowercases scheme and host, forces scheme to https
//   - strips a leading "www." label from the host
//   - drops the fragment
//   - removes known tracking query parameters and sorts the remainder lexicographically
//   - preserves a trailing slash in the path and a non-default port
func Canonicalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", &ErrInvalidURL{Input: rawURL, Cause: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return "", &ErrInvalidURL{Input: rawURL}
	}

	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	u.Host = strings.TrimPrefix(u.Host, "www.")
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	for param := range q {
		if _, tracked := trackingParams[param]; tracked {
			q.Del(param)
		}
	}
	// url.Values.Encode sorts by key, giving us the required lexicographic order.
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ExtractDomain returns the host of the canonicalized form of rawURL.
func ExtractDomain(rawURL string) (string, error) {
	canonical, err := Canonicalize(rawURL)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(canonical)
	if err != nil {
		return "", &ErrInvalidURL{Input: rawURL, Cause: err}
	}
	return u.Hostname(), nil
}
