// Package llmagent wraps the three LLM collaborators treated as opaque
// JSON-returning services: ToS discovery, ToS evaluation, and
// metadata profiling. Built on genkit/go: each collaborator is a
// genkit.DefineFlow backed by genkit.GenerateData[T] against a Genkit app
// configured with the Google GenAI plugin, one flow per JSON-shaped prompt.
package llmagent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	genkitcore "github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
)

// AnchorLink is one {href, visible_text} pair fed to the ToS-discovery
// collaborator.
type AnchorLink struct {
	Href        string `json:"href"`
	VisibleText string `json:"visible_text"`
}

// TosDiscoveryResult is the ToS-discovery collaborator's typed response.
type TosDiscoveryResult struct {
	TermsOfServiceURL string  `json:"terms_of_service_url,omitempty"`
	ConfidenceScore   float64 `json:"confidence_score"`
	Notes             string  `json:"notes,omitempty"`
}

// PermissionEntry is one row of the eight-activity permission matrix
// evaluated by the ToS-evaluation collaborator.
type PermissionEntry struct {
	Activity   string `json:"activity"`
	Permission string `json:"permission"` // explicitly_permitted | explicitly_prohibited | conditional_ambiguous
	Notes      string `json:"notes,omitempty"`
}

// TosEvaluationResult is the ToS-evaluation collaborator's typed response.
type TosEvaluationResult struct {
	Permissions           []PermissionEntry `json:"permissions"`
	DocumentType          string            `json:"document_type,omitempty"`
	ConfidenceScore        float64          `json:"confidence_score"`
	TerritorialExceptions string            `json:"territorial_exceptions,omitempty"`
	ArbitrationClauses    string            `json:"arbitration_clauses,omitempty"`
}

// MetadataProfileResult is the metadata-profile collaborator's typed response.
type MetadataProfileResult struct {
	Summary string `json:"summary"`
}

// activities is the closed, ordered set of eight activities the
// ToS-evaluation collaborator must score.
var activities = []string{
	"scraping", "ai_training", "manual_use", "archiving_caching",
	"tdm", "api_rss", "redistribution", "ugc",
}

// Agent hosts the three Genkit flows over a single Genkit app instance.
type Agent struct {
	app              *genkit.Genkit
	modelName        string
	timeout          time.Duration
	tosDiscoveryFlow *genkitcore.Flow[*tosDiscoveryRequest, *TosDiscoveryResult, struct{}]
	tosEvalFlow      *genkitcore.Flow[*tosEvaluationRequest, *TosEvaluationResult, struct{}]
	profileFlow      *genkitcore.Flow[*metadataProfileRequest, *MetadataProfileResult, struct{}]
}

type tosDiscoveryRequest struct {
	Anchors []AnchorLink
	BaseURL string
}

type tosEvaluationRequest struct {
	DocumentText string
}

type metadataProfileRequest struct {
	Extraction map[string]any
}

// New initializes a Genkit app against the Google GenAI plugin and defines
// the three collaborator flows. modelName is the bare model id (e.g.
// "gemini-2.5-flash"); genkit addresses it as "googleai/<modelName>".
func New(ctx context.Context, apiKey, modelName string, timeout time.Duration) *Agent {
	app := genkit.Init(ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: apiKey}),
		genkit.WithDefaultModel("googleai/"+modelName),
	)

	a := &Agent{app: app, modelName: "googleai/" + modelName, timeout: timeout}

	a.tosDiscoveryFlow = genkit.DefineFlow(app, "tosDiscoveryFlow",
		func(ctx context.Context, req *tosDiscoveryRequest) (*TosDiscoveryResult, error) {
			result, _, err := genkit.GenerateData[TosDiscoveryResult](ctx, app,
				ai.WithModelName(a.modelName),
				ai.WithPrompt(buildTosDiscoveryPrompt(req.Anchors, req.BaseURL)),
			)
			if err != nil {
				return nil, fmt.Errorf("tos discovery llm failed: %w", err)
			}
			return result, nil
		})

	a.tosEvalFlow = genkit.DefineFlow(app, "tosEvaluationFlow",
		func(ctx context.Context, req *tosEvaluationRequest) (*TosEvaluationResult, error) {
			result, _, err := genkit.GenerateData[TosEvaluationResult](ctx, app,
				ai.WithModelName(a.modelName),
				ai.WithPrompt(buildTosEvaluationPrompt(req.DocumentText)),
			)
			if err != nil {
				return nil, fmt.Errorf("tos evaluation llm failed: %w", err)
			}
			return result, nil
		})

	a.profileFlow = genkit.DefineFlow(app, "metadataProfileFlow",
		func(ctx context.Context, req *metadataProfileRequest) (*MetadataProfileResult, error) {
			result, _, err := genkit.GenerateData[MetadataProfileResult](ctx, app,
				ai.WithModelName(a.modelName),
				ai.WithPrompt(buildMetadataProfilePrompt(req.Extraction)),
			)
			if err != nil {
				return nil, fmt.Errorf("metadata profile llm failed: %w", err)
			}
			return result, nil
		})

	return a
}

// DiscoverTos asks the ToS-discovery collaborator for the single canonical
// ToS URL among a homepage's anchors, excluding privacy/cookie pages (the
// prompt instructs this; the collaborator is trusted to honor it). One retry
// on failure, per the "LLM-in-loop failure" design note.
func (a *Agent) DiscoverTos(ctx context.Context, anchors []AnchorLink, baseURL string) (TosDiscoveryResult, error) {
	result, err := callWithRetry(ctx, a.timeout, func(ctx context.Context) (*TosDiscoveryResult, error) {
		return a.tosDiscoveryFlow.Run(ctx, &tosDiscoveryRequest{Anchors: anchors, BaseURL: baseURL})
	})
	if err != nil {
		return TosDiscoveryResult{}, err
	}
	return *result, nil
}

// EvaluateTos asks the ToS-evaluation collaborator for the eight-activity
// permission matrix over a fetched ToS document's text.
func (a *Agent) EvaluateTos(ctx context.Context, documentText string) (TosEvaluationResult, error) {
	result, err := callWithRetry(ctx, a.timeout, func(ctx context.Context) (*TosEvaluationResult, error) {
		return a.tosEvalFlow.Run(ctx, &tosEvaluationRequest{DocumentText: documentText})
	})
	if err != nil {
		return TosEvaluationResult{}, err
	}
	return *result, nil
}

// ProfileMetadata asks the metadata-profile collaborator for a short summary
// of an article extraction result.
func (a *Agent) ProfileMetadata(ctx context.Context, extraction map[string]any) (MetadataProfileResult, error) {
	result, err := callWithRetry(ctx, a.timeout, func(ctx context.Context) (*MetadataProfileResult, error) {
		return a.profileFlow.Run(ctx, &metadataProfileRequest{Extraction: extraction})
	})
	if err != nil {
		return MetadataProfileResult{}, err
	}
	return *result, nil
}

// callWithRetry invokes fn under a per-call timeout and retries exactly once
// on failure, matching the "network services with per-call timeout and a
// single retry" design note.
func callWithRetry[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (*T, error)) (*T, error) {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		result, err := fn(callCtx)
		cancel()
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func buildTosDiscoveryPrompt(anchors []AnchorLink, baseURL string) string {
	var b strings.Builder
	b.WriteString("You are reviewing the anchor tags on a publisher's homepage (")
	b.WriteString(baseURL)
	b.WriteString(") to find the single canonical Terms of Service URL. ")
	b.WriteString("Exclude privacy policy and cookie policy pages. ")
	b.WriteString("Respond with terms_of_service_url (absolute, or omit if none found), ")
	b.WriteString("confidence_score between 0 and 1, and brief notes.\n\nAnchors:\n")
	for _, a := range anchors {
		fmt.Fprintf(&b, "- href=%q text=%q\n", a.Href, a.VisibleText)
	}
	return b.String()
}

func buildTosEvaluationPrompt(documentText string) string {
	var b strings.Builder
	b.WriteString("Read the following Terms of Service document and classify its stance on each ")
	b.WriteString("of these activities: ")
	b.WriteString(strings.Join(activities, ", "))
	b.WriteString(". For each, choose one of explicitly_permitted, explicitly_prohibited, or ")
	b.WriteString("conditional_ambiguous, with a short note. Also report document_type, ")
	b.WriteString("confidence_score (0-1), territorial_exceptions, and arbitration_clauses if present.\n\n")
	b.WriteString("Document:\n")
	b.WriteString(documentText)
	return b.String()
}

func buildMetadataProfilePrompt(extraction map[string]any) string {
	var b strings.Builder
	b.WriteString("Summarize the following article metadata extraction in two or three sentences ")
	b.WriteString("suitable for a publisher profile page.\n\nExtraction:\n")
	fmt.Fprintf(&b, "%v", extraction)
	return b.String()
}
