// Package models defines the domain models for the publisher/article
// resolution pipeline.
package models

import (
	"encoding/json"
	"time"
)

// JobStatus represents the status of a resolution job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Publisher is identified by a unique canonical domain. It accumulates
// cached analysis outputs that are shared across every job submitted for
// that domain.
type Publisher struct {
	ID                 string     `json:"id"`
	Domain             string     `json:"domain"` // case-folded, no leading "www."
	Name               string     `json:"name"`    // equals Domain until structured data names it
	HomepageURL        string     `json:"homepage_url"`
	WAFDetected         bool       `json:"waf_detected"`
	WAFType             string     `json:"waf_type,omitempty"`
	TosURL              string     `json:"tos_url,omitempty"`
	TosPermissionsJSON  string     `json:"tos_permissions_json,omitempty"`
	RobotsFound         bool       `json:"robots_found"`
	SitemapURLsJSON     string     `json:"sitemap_urls_json,omitempty"`
	RSSFeedsJSON        string     `json:"rss_feeds_json,omitempty"`
	RSLDetected         bool       `json:"rsl_detected"`
	AIBotBlockJSON      string     `json:"ai_bot_block_json,omitempty"`
	OrganizationJSON    string     `json:"organization_json,omitempty"`
	HasPaywall          bool       `json:"has_paywall"`
	FetchStrategy       string     `json:"fetch_strategy,omitempty"` // "" means unset
	LastCheckedAt       *time.Time `json:"last_checked_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ResolutionJob is the unit of work submitted by a caller: one job resolves
// one article URL and, lazily, its owning publisher.
type ResolutionJob struct {
	ID             string    `json:"id"` // opaque 128-bit, rendered as a ULID
	SubmittedURL   string    `json:"submitted_url"`
	CanonicalURL   string    `json:"canonical_url"`
	PublisherID    string    `json:"publisher_id"`
	Status         JobStatus `json:"status"`
	ErrorMessage   string    `json:"error_message,omitempty"`

	// One nullable result blob per step (§3). Stored as raw JSON so each
	// step's result shape can evolve independently (the supplemented
	// "schema-versioned JSON blob" design note).
	WAFResultJSON      *string `json:"waf_result_json,omitempty"`
	TosResultJSON      *string `json:"tos_result_json,omitempty"`
	RobotsResultJSON   *string `json:"robots_result_json,omitempty"`
	AIBotResultJSON    *string `json:"ai_bot_result_json,omitempty"`
	SitemapResultJSON  *string `json:"sitemap_result_json,omitempty"`
	RSSResultJSON      *string `json:"rss_result_json,omitempty"`
	RSLResultJSON      *string `json:"rsl_result_json,omitempty"`
	MetadataResultJSON *string `json:"metadata_result_json,omitempty"` // organization
	ArticleResultJSON  *string `json:"article_result_json,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArticleMetadata is one row per (job, article URL).
type ArticleMetadata struct {
	ID              string    `json:"id"`
	JobID           string    `json:"job_id"`
	ArticleURL      string    `json:"article_url"`
	JSONLDFields    json.RawMessage `json:"jsonld_fields,omitempty"`
	OpenGraphFields json.RawMessage `json:"opengraph_fields,omitempty"`
	MicrodataFields json.RawMessage `json:"microdata_fields,omitempty"`
	TwitterCards    json.RawMessage `json:"twitter_cards,omitempty"`
	PaywallStatus   string    `json:"paywall_status"` // free, paywalled, metered, unknown
	SignalsJSON     string    `json:"signals_json,omitempty"`
	LLMSummary      string    `json:"llm_summary,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// FetchResult is the value type returned by a Fetch Strategy (C2).
type FetchResult struct {
	Body       []byte `json:"-"`
	StatusCode int    `json:"status_code"`
	Strategy   string `json:"strategy"`
	FinalURL   string `json:"final_url"`
	Headers    map[string][]string `json:"headers,omitempty"`
}

// StepStatus is the status of a single step lifecycle event.
type StepStatus string

const (
	StepStarted   StepStatus = "started"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// StepName enumerates the closed set of step names used on the event bus.
type StepName string

const (
	StepWAF              StepName = "waf"
	StepTosDiscovery     StepName = "tos_discovery"
	StepTosEvaluation    StepName = "tos_evaluation"
	StepRobots           StepName = "robots"
	StepAIBotBlocking    StepName = "ai_bot_blocking"
	StepSitemap          StepName = "sitemap"
	StepRSS              StepName = "rss"
	StepRSL              StepName = "rsl"
	StepPublisherDetails StepName = "publisher_details"
	StepArticleExtraction StepName = "article_extraction"
	StepPaywallDetection StepName = "paywall_detection"
	StepMetadataProfile  StepName = "metadata_profile"
	StepPipeline         StepName = "pipeline"
)

// StepEvent is the value published on the per-job event channel.
type StepEvent struct {
	Step   StepName   `json:"step"`
	Status StepStatus `json:"status"`
	Data   any        `json:"data,omitempty"`
}
