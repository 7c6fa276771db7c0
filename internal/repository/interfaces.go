// Package repository provides narrow, field-scoped data access over the
// durable store (publishers, resolution jobs, article metadata). Writes are
// deliberately partial-column: the Pipeline Supervisor updates one result
// field at a time rather than rewriting a whole row, so concurrent jobs
// touching the same publisher never clobber each other's unrelated fields.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmylchreest/pubscope/internal/models"
)

// PublisherRepository defines data access for publishers. SetFetchStrategy
// satisfies fetch.StrategyMemory.
type PublisherRepository interface {
	GetByDomain(ctx context.Context, domain string) (*models.Publisher, error)
	GetByID(ctx context.Context, id string) (*models.Publisher, error)
	Create(ctx context.Context, publisher *models.Publisher) error
	GetOrCreate(ctx context.Context, domain, homepageURL string) (*models.Publisher, error)

	SetFetchStrategy(ctx context.Context, publisherID, strategy string) error
	SetWAFResult(ctx context.Context, publisherID string, detected bool, wafType string) error
	SetTosURL(ctx context.Context, publisherID, tosURL string) error
	SetTosPermissions(ctx context.Context, publisherID, permissionsJSON string) error
	SetRobotsFound(ctx context.Context, publisherID string, found bool) error
	SetSitemapURLs(ctx context.Context, publisherID, sitemapURLsJSON string) error
	SetRSSFeeds(ctx context.Context, publisherID, rssFeedsJSON string) error
	SetRSLDetected(ctx context.Context, publisherID string, detected bool) error
	SetAIBotBlock(ctx context.Context, publisherID, aiBotBlockJSON string) error
	SetOrganization(ctx context.Context, publisherID, organizationJSON string) error
	SetName(ctx context.Context, publisherID, name string) error
	SetHasPaywall(ctx context.Context, publisherID string, hasPaywall bool) error
	SetLastCheckedAt(ctx context.Context, publisherID string, at time.Time) error
}

// JobRepository defines data access for resolution jobs.
type JobRepository interface {
	Create(ctx context.Context, job *models.ResolutionJob) error
	GetByID(ctx context.Context, id string) (*models.ResolutionJob, error)
	// GetLiveByCanonicalURL returns a job for the canonical URL whose status is
	// one of pending/running/completed, for idempotent resubmission (§4.10).
	GetLiveByCanonicalURL(ctx context.Context, canonicalURL string) (*models.ResolutionJob, error)
	// MostRecentCompletedForPublisher returns the latest completed job for a
	// publisher other than excludeJobID, used by the freshness-copy path.
	MostRecentCompletedForPublisher(ctx context.Context, publisherID, excludeJobID string) (*models.ResolutionJob, error)

	SetStatus(ctx context.Context, id string, status models.JobStatus, errorMessage string) error

	SetWAFResultJSON(ctx context.Context, id, resultJSON string) error
	SetTosResultJSON(ctx context.Context, id, resultJSON string) error
	SetRobotsResultJSON(ctx context.Context, id, resultJSON string) error
	SetAIBotResultJSON(ctx context.Context, id, resultJSON string) error
	SetSitemapResultJSON(ctx context.Context, id, resultJSON string) error
	SetRSSResultJSON(ctx context.Context, id, resultJSON string) error
	SetRSLResultJSON(ctx context.Context, id, resultJSON string) error
	SetMetadataResultJSON(ctx context.Context, id, resultJSON string) error
	SetArticleResultJSON(ctx context.Context, id, resultJSON string) error

	// ClaimPending atomically claims the oldest pending job for a worker.
	ClaimPending(ctx context.Context) (*models.ResolutionJob, error)
	// MarkStaleRunningFailed fails jobs that have been running longer than
	// maxAge, cleaning up after a worker crash or restart.
	MarkStaleRunningFailed(ctx context.Context, maxAge time.Duration) (int64, error)
}

// ArticleMetadataRepository defines data access for per-article extraction
// results.
type ArticleMetadataRepository interface {
	Create(ctx context.Context, am *models.ArticleMetadata) error
	// FindFreshByURL returns the most recent row for articleURL created at or
	// after since, or nil if none qualifies (§4.8 should_skip_article_steps).
	FindFreshByURL(ctx context.Context, articleURL string, since time.Time) (*models.ArticleMetadata, error)
}

// Repositories bundles the concrete SQLite-backed repositories wired by the
// entrypoint.
type Repositories struct {
	Publisher       PublisherRepository
	Job             JobRepository
	ArticleMetadata ArticleMetadataRepository
}

// NewRepositories wires all repositories against a single database handle.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Publisher:       NewSQLitePublisherRepository(db),
		Job:             NewSQLiteJobRepository(db),
		ArticleMetadata: NewSQLiteArticleMetadataRepository(db),
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
