package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmylchreest/pubscope/internal/models"
)

// SQLiteJobRepository implements JobRepository for SQLite.
type SQLiteJobRepository struct {
	db *sql.DB
}

func NewSQLiteJobRepository(db *sql.DB) *SQLiteJobRepository {
	return &SQLiteJobRepository{db: db}
}

const jobColumns = `id, submitted_url, canonical_url, publisher_id, status, error_message,
	waf_result_json, tos_result_json, robots_result_json, ai_bot_result_json,
	sitemap_result_json, rss_result_json, rsl_result_json, metadata_result_json,
	article_result_json, created_at, updated_at`

func (r *SQLiteJobRepository) Create(ctx context.Context, job *models.ResolutionJob) error {
	query := `INSERT INTO resolution_jobs (` + jobColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.SubmittedURL, job.CanonicalURL, job.PublisherID, job.Status, nullString(job.ErrorMessage),
		nullStringPtr(job.WAFResultJSON), nullStringPtr(job.TosResultJSON), nullStringPtr(job.RobotsResultJSON),
		nullStringPtr(job.AIBotResultJSON), nullStringPtr(job.SitemapResultJSON), nullStringPtr(job.RSSResultJSON),
		nullStringPtr(job.RSLResultJSON), nullStringPtr(job.MetadataResultJSON), nullStringPtr(job.ArticleResultJSON),
		job.CreatedAt.Format(time.RFC3339), job.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create resolution job: %w", err)
	}
	return nil
}

func (r *SQLiteJobRepository) GetByID(ctx context.Context, id string) (*models.ResolutionJob, error) {
	query := `SELECT ` + jobColumns + ` FROM resolution_jobs WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteJobRepository) GetLiveByCanonicalURL(ctx context.Context, canonicalURL string) (*models.ResolutionJob, error) {
	query := `SELECT ` + jobColumns + ` FROM resolution_jobs
		WHERE canonical_url = ? AND status IN ('pending', 'running', 'completed')
		ORDER BY created_at DESC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, canonicalURL))
}

func (r *SQLiteJobRepository) MostRecentCompletedForPublisher(ctx context.Context, publisherID, excludeJobID string) (*models.ResolutionJob, error) {
	query := `SELECT ` + jobColumns + ` FROM resolution_jobs
		WHERE publisher_id = ? AND status = 'completed' AND id != ?
		ORDER BY updated_at DESC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, publisherID, excludeJobID))
}

func (r *SQLiteJobRepository) SetStatus(ctx context.Context, id string, status models.JobStatus, errorMessage string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE resolution_jobs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status, nullString(errorMessage), time.Now().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("set job status: %w", err)
	}
	return nil
}

func (r *SQLiteJobRepository) SetWAFResultJSON(ctx context.Context, id, resultJSON string) error {
	return r.setResultField(ctx, id, "waf_result_json", resultJSON)
}

func (r *SQLiteJobRepository) SetTosResultJSON(ctx context.Context, id, resultJSON string) error {
	return r.setResultField(ctx, id, "tos_result_json", resultJSON)
}

func (r *SQLiteJobRepository) SetRobotsResultJSON(ctx context.Context, id, resultJSON string) error {
	return r.setResultField(ctx, id, "robots_result_json", resultJSON)
}

func (r *SQLiteJobRepository) SetAIBotResultJSON(ctx context.Context, id, resultJSON string) error {
	return r.setResultField(ctx, id, "ai_bot_result_json", resultJSON)
}

func (r *SQLiteJobRepository) SetSitemapResultJSON(ctx context.Context, id, resultJSON string) error {
	return r.setResultField(ctx, id, "sitemap_result_json", resultJSON)
}

func (r *SQLiteJobRepository) SetRSSResultJSON(ctx context.Context, id, resultJSON string) error {
	return r.setResultField(ctx, id, "rss_result_json", resultJSON)
}

func (r *SQLiteJobRepository) SetRSLResultJSON(ctx context.Context, id, resultJSON string) error {
	return r.setResultField(ctx, id, "rsl_result_json", resultJSON)
}

func (r *SQLiteJobRepository) SetMetadataResultJSON(ctx context.Context, id, resultJSON string) error {
	return r.setResultField(ctx, id, "metadata_result_json", resultJSON)
}

func (r *SQLiteJobRepository) SetArticleResultJSON(ctx context.Context, id, resultJSON string) error {
	return r.setResultField(ctx, id, "article_result_json", resultJSON)
}

func (r *SQLiteJobRepository) setResultField(ctx context.Context, id, column, value string) error {
	query := fmt.Sprintf(`UPDATE resolution_jobs SET %s = ?, updated_at = ? WHERE id = ?`, column)
	_, err := r.db.ExecContext(ctx, query, nullString(value), time.Now().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("set job %s: %w", column, err)
	}
	return nil
}

// ClaimPending atomically claims the oldest pending job with a single
// UPDATE...RETURNING statement, simple FIFO ordering since this service has
// no tenancy or priority tiers to weigh.
func (r *SQLiteJobRepository) ClaimPending(ctx context.Context) (*models.ResolutionJob, error) {
	now := time.Now().Format(time.RFC3339)
	query := `UPDATE resolution_jobs
		SET status = 'running', updated_at = ?
		WHERE id = (
			SELECT id FROM resolution_jobs WHERE status = 'pending' ORDER BY created_at ASC LIMIT 1
		)
		RETURNING ` + jobColumns

	job, err := r.scanOne(r.db.QueryRowContext(ctx, query, now))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim pending job: %w", err)
	}
	return job, nil
}

func (r *SQLiteJobRepository) MarkStaleRunningFailed(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Format(time.RFC3339)
	now := time.Now().Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		`UPDATE resolution_jobs SET status = 'failed', error_message = ?, updated_at = ?
			WHERE status = 'running' AND updated_at < ?`,
		"job terminated: exceeded wall-clock timeout or worker restart", now, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("mark stale running jobs failed: %w", err)
	}
	count, _ := result.RowsAffected()
	return count, nil
}

func (r *SQLiteJobRepository) scanOne(row *sql.Row) (*models.ResolutionJob, error) {
	var job models.ResolutionJob
	var errorMessage sql.NullString
	var wafResult, tosResult, robotsResult, aiBotResult sql.NullString
	var sitemapResult, rssResult, rslResult, metadataResult, articleResult sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&job.ID, &job.SubmittedURL, &job.CanonicalURL, &job.PublisherID, &job.Status, &errorMessage,
		&wafResult, &tosResult, &robotsResult, &aiBotResult,
		&sitemapResult, &rssResult, &rslResult, &metadataResult, &articleResult,
		&createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan resolution job: %w", err)
	}

	job.ErrorMessage = errorMessage.String
	job.WAFResultJSON = nullStringToPtr(wafResult)
	job.TosResultJSON = nullStringToPtr(tosResult)
	job.RobotsResultJSON = nullStringToPtr(robotsResult)
	job.AIBotResultJSON = nullStringToPtr(aiBotResult)
	job.SitemapResultJSON = nullStringToPtr(sitemapResult)
	job.RSSResultJSON = nullStringToPtr(rssResult)
	job.RSLResultJSON = nullStringToPtr(rslResult)
	job.MetadataResultJSON = nullStringToPtr(metadataResult)
	job.ArticleResultJSON = nullStringToPtr(articleResult)
	job.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	job.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &job, nil
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullStringToPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
