// Package paywall implements the Paywall Classifier (C6): combine
// schema.org isAccessibleForFree with HTML heuristics when the schema is
// silent.
package paywall

import "strings"

// Status is the closed set of paywall classifications.
type Status string

const (
	StatusFree      Status = "free"
	StatusPaywalled Status = "paywalled"
	StatusMetered   Status = "metered"
	StatusUnknown   Status = "unknown"
)

// Result is the paywall_detection step's return value.
type Result struct {
	PaywallStatus      Status   `json:"paywall_status"`
	Signals            []string `json:"signals,omitempty"`
	SchemaAccessible   *bool    `json:"schema_accessible"`
}

var loginWallPhrases = []string{
	"subscribe to continue reading",
	"sign in to read",
	"create an account to continue",
	"already a subscriber?",
	"subscription required",
	"members only",
}

var paywallClassSubstrings = []string{
	"paywall",
	"subscriber-only",
	"premium-content",
	"gated-content",
	"meter-",
	"regwall",
}

var meterPhrases = []string{
	"articles remaining",
	"free articles",
	"monthly limit",
	"article limit",
}

// Classify decides the paywall state of an article given its raw HTML and
// the jsonld_fields map extracted by the article extraction step.
func Classify(articleHTML string, jsonldFields map[string]any) Result {
	if accessible, ok := schemaAccessible(jsonldFields); ok {
		status := StatusPaywalled
		if accessible {
			status = StatusFree
		}
		return Result{PaywallStatus: status, SchemaAccessible: &accessible}
	}

	lower := strings.ToLower(articleHTML)

	var signals []string
	hasLoginWall := false
	hasPaywallClass := false
	hasMeter := false

	for _, phrase := range loginWallPhrases {
		if strings.Contains(lower, phrase) {
			signals = append(signals, phrase)
			hasLoginWall = true
		}
	}
	for _, class := range paywallClassSubstrings {
		if strings.Contains(lower, class) {
			signals = append(signals, class)
			hasPaywallClass = true
		}
	}
	for _, phrase := range meterPhrases {
		if strings.Contains(lower, phrase) {
			signals = append(signals, phrase)
			hasMeter = true
		}
	}

	var status Status
	switch {
	case hasMeter:
		status = StatusMetered
	case hasLoginWall && hasPaywallClass:
		status = StatusPaywalled
	case len(signals) == 0:
		status = StatusFree
	default:
		status = StatusUnknown
	}

	return Result{PaywallStatus: status, Signals: signals, SchemaAccessible: nil}
}

// schemaAccessible inspects isAccessibleForFree on the top-level node and,
// failing that, on the first child of hasPart that sets the field. Per §4.6
// step 1, mere presence of the field decides the outcome: true-like value →
// accessible, any other present value → not accessible. Only the field's
// total absence falls through to the heuristics.
func schemaAccessible(fields map[string]any) (bool, bool) {
	if fields == nil {
		return false, false
	}
	if v, ok := fields["isAccessibleForFree"]; ok {
		return isTrueLike(v), true
	}

	switch hasPart := fields["hasPart"].(type) {
	case map[string]any:
		if v, ok := hasPart["isAccessibleForFree"]; ok {
			return isTrueLike(v), true
		}
	case []any:
		for _, item := range hasPart {
			child, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if v, ok := child["isAccessibleForFree"]; ok {
				return isTrueLike(v), true
			}
		}
	}

	return false, false
}

// isTrueLike evaluates the schema.org "true-like" rule: boolean true, or the
// strings "true"/"yes"/"1" (case-insensitive). Anything else — including an
// unrecognized string, a number, or false-like values — is not true-like,
// which §4.6 step 1 treats as paywalled rather than absent.
func isTrueLike(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "1":
			return true
		}
		return false
	default:
		return false
	}
}
