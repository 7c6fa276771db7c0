// Package pipeline implements the Pipeline Supervisor: the sequential,
// twelve-step orchestration that turns a submitted resolution job into a
// fully-populated publisher and article result. One job runs its steps
// strictly in order on a single goroutine, which is what lets later steps
// reuse variables (robots raw text, homepage HTML) fetched by earlier ones
// without any synchronization.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/pubscope/internal/articleextract"
	"github.com/jmylchreest/pubscope/internal/eventbus"
	"github.com/jmylchreest/pubscope/internal/fetch"
	"github.com/jmylchreest/pubscope/internal/llmagent"
	"github.com/jmylchreest/pubscope/internal/models"
	"github.com/jmylchreest/pubscope/internal/paywall"
	"github.com/jmylchreest/pubscope/internal/repository"
	"github.com/jmylchreest/pubscope/internal/robots"
	"github.com/jmylchreest/pubscope/internal/rsl"
	"github.com/jmylchreest/pubscope/internal/rss"
	"github.com/jmylchreest/pubscope/internal/sitemap"
	"github.com/jmylchreest/pubscope/internal/structureddata"
	"github.com/jmylchreest/pubscope/internal/tos"
	"github.com/jmylchreest/pubscope/internal/waf"
)

// publisherSteps is every step name emitted in the publisher-level block, in
// execution order, used for skip-event fan-out.
var publisherSteps = []models.StepName{
	models.StepWAF,
	models.StepTosDiscovery,
	models.StepTosEvaluation,
	models.StepRobots,
	models.StepAIBotBlocking,
	models.StepSitemap,
	models.StepRSS,
	models.StepRSL,
	models.StepPublisherDetails,
}

var articleSteps = []models.StepName{
	models.StepArticleExtraction,
	models.StepPaywallDetection,
	models.StepMetadataProfile,
}

// Supervisor owns one run of the twelve-step sequence per job.
type Supervisor struct {
	repos       *repository.Repositories
	bus         *eventbus.Bus
	fetcher     *fetch.Manager
	waf         *waf.Fingerprinter
	llm         *llmagent.Agent
	publisherTTL time.Duration
	articleTTL   time.Duration
	logger      *slog.Logger
}

// New builds a Supervisor. llm may be nil, in which case the ToS discovery
// and evaluation steps degrade to their {error} result rather than panicking,
// and the metadata profile step returns an empty summary; its result has no
// error field.
func New(
	repos *repository.Repositories,
	bus *eventbus.Bus,
	fetcher *fetch.Manager,
	fingerprinter *waf.Fingerprinter,
	llm *llmagent.Agent,
	publisherTTL, articleTTL time.Duration,
	logger *slog.Logger,
) *Supervisor {
	return &Supervisor{
		repos:        repos,
		bus:          bus,
		fetcher:      fetcher,
		waf:          fingerprinter,
		llm:          llm,
		publisherTTL: publisherTTL,
		articleTTL:   articleTTL,
		logger:       logger,
	}
}

// Run executes the full step sequence for jobID. Once the job row is loaded,
// any error returned leaves the job's status set to failed with the error
// recorded; the caller (the
// job runner) does not need to do anything further with it besides log it.
func (s *Supervisor) Run(ctx context.Context, jobID string) (err error) {
	job, err := s.repos.Job.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}
	if job == nil {
		return fmt.Errorf("job %s not found", jobID)
	}

	// Records failures that happen before the main handler below is installed.
	supervised := false
	defer func() {
		if err != nil && !supervised {
			if setErr := s.repos.Job.SetStatus(ctx, job.ID, models.JobStatusFailed, err.Error()); setErr != nil {
				s.logger.Error("failed to record job failure", "job_id", job.ID, "error", setErr)
			}
			s.bus.Publish(job.ID, models.StepPipeline, models.StepFailed, map[string]string{"error": err.Error()})
		}
	}()

	publisher, err := s.repos.Publisher.GetByID(ctx, job.PublisherID)
	if err != nil {
		return fmt.Errorf("load publisher: %w", err)
	}
	if publisher == nil {
		return fmt.Errorf("publisher %s not found", job.PublisherID)
	}

	if err := s.repos.Job.SetStatus(ctx, job.ID, models.JobStatusRunning, ""); err != nil {
		return fmt.Errorf("set job running: %w", err)
	}

	s.bus.Publish(job.ID, models.StepPublisherDetails, models.StepStarted, map[string]any{
		"id":           publisher.ID,
		"domain":       publisher.Domain,
		"name":         publisher.Name,
		"homepage_url": publisher.HomepageURL,
	})

	supervised = true
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
		if err != nil {
			if setErr := s.repos.Job.SetStatus(ctx, job.ID, models.JobStatusFailed, err.Error()); setErr != nil {
				s.logger.Error("failed to record job failure", "job_id", job.ID, "error", setErr)
			}
			s.bus.Publish(job.ID, models.StepPipeline, models.StepFailed, map[string]string{"error": err.Error()})
			return
		}
		if setErr := s.repos.Job.SetStatus(ctx, job.ID, models.JobStatusCompleted, ""); setErr != nil {
			s.logger.Error("failed to record job completion", "job_id", job.ID, "error", setErr)
			return
		}
		s.bus.Publish(job.ID, models.StepPipeline, models.StepCompleted, nil)
	}()

	if err = s.runPublisherSteps(ctx, job, publisher); err != nil {
		return err
	}
	if err = s.runArticleSteps(ctx, job, publisher); err != nil {
		return err
	}
	return nil
}

func (s *Supervisor) runPublisherSteps(ctx context.Context, job *models.ResolutionJob, publisher *models.Publisher) error {
	if s.shouldSkipPublisherSteps(publisher) {
		return s.skipPublisherSteps(ctx, job, publisher)
	}

	// Steps 7-9 (RSS, RSL, organization) all need the homepage body; fetch it
	// once here and thread it through rather than refetching per step.
	homepageFetch, homepageErr := s.fetcher.Fetch(ctx, publisher.HomepageURL, publisher)
	homepageHTML := string(homepageFetch.Body)
	if homepageErr != nil {
		s.logger.Warn("homepage fetch failed, downstream steps proceed with empty body",
			"publisher_id", publisher.ID, "error", homepageErr)
	}

	// Step 1: WAF
	s.bus.Publish(job.ID, models.StepWAF, models.StepStarted, nil)
	wafResult := s.waf.Detect(ctx, publisher.HomepageURL)
	if err := s.persistJSON(ctx, wafResult, s.repos.Job.SetWAFResultJSON, job.ID); err != nil {
		return err
	}
	if err := s.repos.Publisher.SetWAFResult(ctx, publisher.ID, wafResult.WAFDetected, wafResult.WAFType); err != nil {
		return fmt.Errorf("persist waf result: %w", err)
	}
	s.bus.Publish(job.ID, models.StepWAF, models.StepCompleted, wafResult)

	// Steps 2-3: ToS discovery + evaluation, merged into one tos_result.
	s.bus.Publish(job.ID, models.StepTosDiscovery, models.StepStarted, nil)
	discovery := s.discoverTos(ctx, homepageHTML, publisher.HomepageURL)
	s.bus.Publish(job.ID, models.StepTosDiscovery, models.StepCompleted, discovery)

	s.bus.Publish(job.ID, models.StepTosEvaluation, models.StepStarted, nil)
	evaluation := s.evaluateTos(ctx, publisher, discovery.TosURL)
	s.bus.Publish(job.ID, models.StepTosEvaluation, models.StepCompleted, evaluation)

	tosResultJSON, err := mergeJSON(discovery, evaluation)
	if err != nil {
		return fmt.Errorf("merge tos result: %w", err)
	}
	if err := s.repos.Job.SetTosResultJSON(ctx, job.ID, tosResultJSON); err != nil {
		return fmt.Errorf("persist tos result: %w", err)
	}
	if discovery.TosURL != "" {
		if err := s.repos.Publisher.SetTosURL(ctx, publisher.ID, discovery.TosURL); err != nil {
			return fmt.Errorf("persist tos url: %w", err)
		}
	}
	if !evaluation.Skipped && evaluation.Error == "" {
		permissionsJSON, err := json.Marshal(evaluation.Permissions)
		if err != nil {
			return fmt.Errorf("marshal tos permissions: %w", err)
		}
		if err := s.repos.Publisher.SetTosPermissions(ctx, publisher.ID, string(permissionsJSON)); err != nil {
			return fmt.Errorf("persist tos permissions: %w", err)
		}
	}

	// Step 4: robots.txt
	s.bus.Publish(job.ID, models.StepRobots, models.StepStarted, nil)
	robotsResult := robots.Fetch(ctx, s.fetcher, publisher, publisher.Domain, job.CanonicalURL)
	if err := s.persistJSON(ctx, robotsResult, s.repos.Job.SetRobotsResultJSON, job.ID); err != nil {
		return err
	}
	if err := s.repos.Publisher.SetRobotsFound(ctx, publisher.ID, robotsResult.RobotsFound); err != nil {
		return fmt.Errorf("persist robots_found: %w", err)
	}
	s.bus.Publish(job.ID, models.StepRobots, models.StepCompleted, robotsResult)

	// Step 5: AI-bot blocking matrix, evaluated over the same raw robots text.
	s.bus.Publish(job.ID, models.StepAIBotBlocking, models.StepStarted, nil)
	aiBotResult := robots.EvaluateAIBotBlocking(robotsResult.RawText)
	if err := s.persistJSON(ctx, aiBotResult, s.repos.Job.SetAIBotResultJSON, job.ID); err != nil {
		return err
	}
	aiBotJSON, err := json.Marshal(aiBotResult)
	if err != nil {
		return fmt.Errorf("marshal ai bot result: %w", err)
	}
	if err := s.repos.Publisher.SetAIBotBlock(ctx, publisher.ID, string(aiBotJSON)); err != nil {
		return fmt.Errorf("persist ai bot block: %w", err)
	}
	s.bus.Publish(job.ID, models.StepAIBotBlocking, models.StepCompleted, aiBotResult)

	// Step 6: sitemap discovery, preferring robots-declared sitemaps.
	s.bus.Publish(job.ID, models.StepSitemap, models.StepStarted, nil)
	sitemapResult := sitemap.Discover(ctx, s.fetcher, publisher, publisher.HomepageURL, robotsResult.Sitemaps)
	if err := s.persistJSON(ctx, sitemapResult, s.repos.Job.SetSitemapResultJSON, job.ID); err != nil {
		return err
	}
	sitemapURLsJSON, err := json.Marshal(sitemapResult.SitemapURLs)
	if err != nil {
		return fmt.Errorf("marshal sitemap urls: %w", err)
	}
	if err := s.repos.Publisher.SetSitemapURLs(ctx, publisher.ID, string(sitemapURLsJSON)); err != nil {
		return fmt.Errorf("persist sitemap urls: %w", err)
	}
	s.bus.Publish(job.ID, models.StepSitemap, models.StepCompleted, sitemapResult)

	// Step 7: RSS/Atom discovery from the homepage body already in hand.
	s.bus.Publish(job.ID, models.StepRSS, models.StepStarted, nil)
	rssResult := rss.Discover(homepageHTML, publisher.HomepageURL)
	if err := s.persistJSON(ctx, rssResult, s.repos.Job.SetRSSResultJSON, job.ID); err != nil {
		return err
	}
	rssFeedsJSON, err := json.Marshal(rssResult.Feeds)
	if err != nil {
		return fmt.Errorf("marshal rss feeds: %w", err)
	}
	if err := s.repos.Publisher.SetRSSFeeds(ctx, publisher.ID, string(rssFeedsJSON)); err != nil {
		return fmt.Errorf("persist rss feeds: %w", err)
	}
	s.bus.Publish(job.ID, models.StepRSS, models.StepCompleted, rssResult)

	// Step 8: RSL detection across robots licenses, link tag, and link header.
	s.bus.Publish(job.ID, models.StepRSL, models.StepStarted, nil)
	rslResult := rsl.Detect(robotsResult.Licenses, homepageHTML, publisher.HomepageURL, http.Header(homepageFetch.Headers))
	if err := s.persistJSON(ctx, rslResult, s.repos.Job.SetRSLResultJSON, job.ID); err != nil {
		return err
	}
	if err := s.repos.Publisher.SetRSLDetected(ctx, publisher.ID, rslResult.RSLDetected); err != nil {
		return fmt.Errorf("persist rsl_detected: %w", err)
	}
	s.bus.Publish(job.ID, models.StepRSL, models.StepCompleted, rslResult)

	// Step 9: organization identity from structured data on the homepage.
	s.bus.Publish(job.ID, models.StepPublisherDetails, models.StepStarted, nil)
	orgResult := structureddata.Resolve(homepageHTML, publisher.HomepageURL)
	if err := s.persistJSON(ctx, orgResult, s.repos.Job.SetMetadataResultJSON, job.ID); err != nil {
		return err
	}
	orgJSON, err := json.Marshal(orgResult)
	if err != nil {
		return fmt.Errorf("marshal organization result: %w", err)
	}
	if err := s.repos.Publisher.SetOrganization(ctx, publisher.ID, string(orgJSON)); err != nil {
		return fmt.Errorf("persist organization: %w", err)
	}
	if publisher.Name == publisher.Domain && orgResult.Organization != nil && orgResult.Organization.Name != "" {
		if err := s.repos.Publisher.SetName(ctx, publisher.ID, orgResult.Organization.Name); err != nil {
			return fmt.Errorf("persist promoted name: %w", err)
		}
		publisher.Name = orgResult.Organization.Name
	}
	s.bus.Publish(job.ID, models.StepPublisherDetails, models.StepCompleted, orgResult)

	if err := s.repos.Publisher.SetLastCheckedAt(ctx, publisher.ID, time.Now()); err != nil {
		return fmt.Errorf("persist last_checked_at: %w", err)
	}
	return nil
}

// shouldSkipPublisherSteps implements the Freshness/Dedup Layer's
// publisher-level rule: skip when the publisher was checked
// within publisherTTL.
func (s *Supervisor) shouldSkipPublisherSteps(publisher *models.Publisher) bool {
	if publisher.LastCheckedAt == nil {
		return false
	}
	return time.Since(*publisher.LastCheckedAt) < s.publisherTTL
}

// skipPublisherSteps emits a skipped event for every publisher-level step
// and copies the most recent prior completed job's publisher-level result
// fields onto the current job, so a fresh-skipped job still carries a full
// result set rather than eight nulls.
func (s *Supervisor) skipPublisherSteps(ctx context.Context, job *models.ResolutionJob, publisher *models.Publisher) error {
	for _, step := range publisherSteps {
		s.bus.Publish(job.ID, step, models.StepSkipped, map[string]string{"reason": "fresh"})
	}

	prior, err := s.repos.Job.MostRecentCompletedForPublisher(ctx, publisher.ID, job.ID)
	if err != nil {
		return fmt.Errorf("load prior completed job: %w", err)
	}
	if prior == nil {
		return nil
	}

	copies := []struct {
		value *string
		set   func(context.Context, string, string) error
	}{
		{prior.WAFResultJSON, s.repos.Job.SetWAFResultJSON},
		{prior.TosResultJSON, s.repos.Job.SetTosResultJSON},
		{prior.RobotsResultJSON, s.repos.Job.SetRobotsResultJSON},
		{prior.AIBotResultJSON, s.repos.Job.SetAIBotResultJSON},
		{prior.SitemapResultJSON, s.repos.Job.SetSitemapResultJSON},
		{prior.RSSResultJSON, s.repos.Job.SetRSSResultJSON},
		{prior.RSLResultJSON, s.repos.Job.SetRSLResultJSON},
		{prior.MetadataResultJSON, s.repos.Job.SetMetadataResultJSON},
	}
	for _, c := range copies {
		if c.value == nil {
			continue
		}
		if err := c.set(ctx, job.ID, *c.value); err != nil {
			return fmt.Errorf("copy prior publisher-level result: %w", err)
		}
	}
	return nil
}

func (s *Supervisor) runArticleSteps(ctx context.Context, job *models.ResolutionJob, publisher *models.Publisher) error {
	articleURL := job.CanonicalURL

	if fresh, err := s.freshArticleMetadata(ctx, articleURL); err != nil {
		return err
	} else if fresh != nil {
		for _, step := range articleSteps {
			s.bus.Publish(job.ID, step, models.StepSkipped, map[string]string{"reason": "fresh"})
		}
		articleResultJSON, err := json.Marshal(map[string]any{
			"jsonld_fields":    json.RawMessage(nonEmptyOrNull(fresh.JSONLDFields)),
			"opengraph_fields": json.RawMessage(nonEmptyOrNull(fresh.OpenGraphFields)),
			"microdata_fields": json.RawMessage(nonEmptyOrNull(fresh.MicrodataFields)),
			"twitter_cards":    json.RawMessage(nonEmptyOrNull(fresh.TwitterCards)),
			"paywall_status":   fresh.PaywallStatus,
			"llm_summary":      fresh.LLMSummary,
		})
		if err != nil {
			return fmt.Errorf("marshal reused article result: %w", err)
		}
		if err := s.repos.Job.SetArticleResultJSON(ctx, job.ID, string(articleResultJSON)); err != nil {
			return fmt.Errorf("persist reused article result: %w", err)
		}
		return nil
	}

	articleHTML, err := s.fetchArticleHTML(ctx, articleURL, publisher)
	if err != nil {
		return err
	}

	s.bus.Publish(job.ID, models.StepArticleExtraction, models.StepStarted, nil)
	extraction := articleextract.Extract(articleHTML)
	s.bus.Publish(job.ID, models.StepArticleExtraction, models.StepCompleted, extraction)

	s.bus.Publish(job.ID, models.StepPaywallDetection, models.StepStarted, nil)
	paywallResult := paywall.Classify(articleHTML, extraction.JSONLDFields)
	s.bus.Publish(job.ID, models.StepPaywallDetection, models.StepCompleted, paywallResult)

	s.bus.Publish(job.ID, models.StepMetadataProfile, models.StepStarted, nil)
	profile := s.profileMetadata(ctx, extraction)
	s.bus.Publish(job.ID, models.StepMetadataProfile, models.StepCompleted, profile)

	articleResult := map[string]any{
		"jsonld_fields":     extraction.JSONLDFields,
		"opengraph_fields":  extraction.OpenGraphFields,
		"microdata_fields":  extraction.MicrodataFields,
		"twitter_cards":     extraction.TwitterCards,
		"formats_found":     extraction.FormatsFound,
		"paywall_status":    paywallResult.PaywallStatus,
		"paywall_signals":   paywallResult.Signals,
		"schema_accessible": paywallResult.SchemaAccessible,
		"llm_summary":       profile.Summary,
	}
	articleResultJSON, err := json.Marshal(articleResult)
	if err != nil {
		return fmt.Errorf("marshal article result: %w", err)
	}
	if err := s.repos.Job.SetArticleResultJSON(ctx, job.ID, string(articleResultJSON)); err != nil {
		return fmt.Errorf("persist article result: %w", err)
	}

	am := &models.ArticleMetadata{
		ID:            ulid.Make().String(),
		JobID:         job.ID,
		ArticleURL:    articleURL,
		PaywallStatus: string(paywallResult.PaywallStatus),
		LLMSummary:    profile.Summary,
		CreatedAt:     time.Now(),
	}
	if b, err := json.Marshal(extraction.JSONLDFields); err == nil {
		am.JSONLDFields = b
	}
	if b, err := json.Marshal(extraction.OpenGraphFields); err == nil {
		am.OpenGraphFields = b
	}
	if b, err := json.Marshal(extraction.MicrodataFields); err == nil {
		am.MicrodataFields = b
	}
	if b, err := json.Marshal(extraction.TwitterCards); err == nil {
		am.TwitterCards = b
	}
	if b, err := json.Marshal(paywallResult.Signals); err == nil {
		am.SignalsJSON = string(b)
	}
	if err := s.repos.ArticleMetadata.Create(ctx, am); err != nil {
		return fmt.Errorf("persist article metadata: %w", err)
	}

	hasPaywall := paywallResult.PaywallStatus == paywall.StatusPaywalled || paywallResult.PaywallStatus == paywall.StatusMetered
	if err := s.repos.Publisher.SetHasPaywall(ctx, publisher.ID, hasPaywall); err != nil {
		return fmt.Errorf("persist has_paywall: %w", err)
	}

	return nil
}

// freshArticleMetadata implements the article-level half of the
// Freshness/Dedup Layer.
func (s *Supervisor) freshArticleMetadata(ctx context.Context, articleURL string) (*models.ArticleMetadata, error) {
	since := time.Now().Add(-s.articleTTL)
	am, err := s.repos.ArticleMetadata.FindFreshByURL(ctx, articleURL, since)
	if err != nil {
		return nil, fmt.Errorf("check article freshness: %w", err)
	}
	return am, nil
}

// fetchArticleHTML fetches the article URL through the Fetch Manager. When
// the article URL is the homepage itself (slash-insensitive) it fetches the
// homepage URL again; the body fetched during the publisher steps is not
// reused. A fetch failure degrades to an empty body rather than aborting the
// job — extraction and classification both tolerate that.
func (s *Supervisor) fetchArticleHTML(ctx context.Context, articleURL string, publisher *models.Publisher) (string, error) {
	if strings.TrimSuffix(articleURL, "/") == strings.TrimSuffix(publisher.HomepageURL, "/") {
		result, err := s.fetcher.Fetch(ctx, publisher.HomepageURL, publisher)
		if err != nil {
			s.logger.Warn("homepage refetch for article step failed", "publisher_id", publisher.ID, "error", err)
			return "", nil
		}
		return string(result.Body), nil
	}

	result, err := s.fetcher.Fetch(ctx, articleURL, publisher)
	if err != nil {
		s.logger.Warn("article fetch failed, continuing with empty body", "article_url", articleURL, "error", err)
		return "", nil
	}
	return string(result.Body), nil
}

// discoverTos and evaluateTos guard against an unconfigured LLM agent (no
// API key set): the step still runs and still persists a result, just one
// carrying {error} instead of a real collaborator response.
func (s *Supervisor) discoverTos(ctx context.Context, homepageHTML, homepageURL string) tos.DiscoveryResult {
	if s.llm == nil {
		return tos.DiscoveryResult{Error: "llm agent not configured"}
	}
	return tos.Discover(ctx, s.llm, homepageHTML, homepageURL)
}

func (s *Supervisor) evaluateTos(ctx context.Context, publisher *models.Publisher, tosURL string) tos.EvaluationResult {
	if tosURL == "" {
		return tos.EvaluationResult{Skipped: true, Reason: "no tos_url discovered"}
	}
	if s.llm == nil {
		return tos.EvaluationResult{Error: "llm agent not configured"}
	}
	return tos.Evaluate(ctx, s.llm, s.fetcher, publisher, tosURL)
}

func (s *Supervisor) profileMetadata(ctx context.Context, extraction articleextract.Result) llmagent.MetadataProfileResult {
	if s.llm == nil {
		return llmagent.MetadataProfileResult{}
	}
	combined := map[string]any{
		"jsonld_fields":    extraction.JSONLDFields,
		"opengraph_fields": extraction.OpenGraphFields,
		"microdata_fields": extraction.MicrodataFields,
		"twitter_cards":    extraction.TwitterCards,
	}
	profile, err := s.llm.ProfileMetadata(ctx, combined)
	if err != nil {
		s.logger.Warn("metadata profile llm call failed", "error", err)
		return llmagent.MetadataProfileResult{}
	}
	return profile
}

func (s *Supervisor) persistJSON(ctx context.Context, v any, set func(context.Context, string, string) error, jobID string) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal step result: %w", err)
	}
	if err := set(ctx, jobID, string(b)); err != nil {
		return fmt.Errorf("persist step result: %w", err)
	}
	return nil
}

// mergeJSON marshals both values to JSON objects and unions their top-level
// keys, with b's keys winning any collision.
func mergeJSON(a, b any) (string, error) {
	aBytes, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	bBytes, err := json.Marshal(b)
	if err != nil {
		return "", err
	}

	var merged map[string]any
	if err := json.Unmarshal(aBytes, &merged); err != nil {
		return "", err
	}
	var overlay map[string]any
	if err := json.Unmarshal(bBytes, &overlay); err != nil {
		return "", err
	}
	for k, v := range overlay {
		merged[k] = v
	}

	out, err := json.Marshal(merged)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func nonEmptyOrNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
