package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/pubscope/internal/models"
)

// SQLitePublisherRepository implements PublisherRepository for SQLite.
type SQLitePublisherRepository struct {
	db *sql.DB
}

func NewSQLitePublisherRepository(db *sql.DB) *SQLitePublisherRepository {
	return &SQLitePublisherRepository{db: db}
}

const publisherColumns = `id, domain, name, homepage_url, waf_detected, waf_type, tos_url,
	tos_permissions_json, robots_found, sitemap_urls_json, rss_feeds_json, rsl_detected,
	ai_bot_block_json, organization_json, has_paywall, fetch_strategy, last_checked_at,
	created_at, updated_at`

func (r *SQLitePublisherRepository) Create(ctx context.Context, p *models.Publisher) error {
	query := `INSERT INTO publishers (` + publisherColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Domain, p.Name, p.HomepageURL,
		boolToInt(p.WAFDetected), nullString(p.WAFType), nullString(p.TosURL),
		nullString(p.TosPermissionsJSON), boolToInt(p.RobotsFound), nullString(p.SitemapURLsJSON),
		nullString(p.RSSFeedsJSON), boolToInt(p.RSLDetected), nullString(p.AIBotBlockJSON),
		nullString(p.OrganizationJSON), boolToInt(p.HasPaywall), nullString(p.FetchStrategy),
		nullTime(p.LastCheckedAt), p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	return nil
}

func (r *SQLitePublisherRepository) GetByDomain(ctx context.Context, domain string) (*models.Publisher, error) {
	query := `SELECT ` + publisherColumns + ` FROM publishers WHERE domain = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, domain))
}

func (r *SQLitePublisherRepository) GetByID(ctx context.Context, id string) (*models.Publisher, error) {
	query := `SELECT ` + publisherColumns + ` FROM publishers WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetOrCreate looks up a publisher by domain, creating one seeded with
// name == domain when none exists (§4.10, §3).
func (r *SQLitePublisherRepository) GetOrCreate(ctx context.Context, domain, homepageURL string) (*models.Publisher, error) {
	existing, err := r.GetByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()
	p := &models.Publisher{
		ID:          ulid.Make().String(),
		Domain:      domain,
		Name:        domain,
		HomepageURL: homepageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.Create(ctx, p); err != nil {
		// Lost the race against a concurrent submission for the same domain.
		if existing, getErr := r.GetByDomain(ctx, domain); getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *SQLitePublisherRepository) SetFetchStrategy(ctx context.Context, publisherID, strategy string) error {
	return r.setField(ctx, publisherID, "fetch_strategy", strategy)
}

func (r *SQLitePublisherRepository) SetWAFResult(ctx context.Context, publisherID string, detected bool, wafType string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE publishers SET waf_detected = ?, waf_type = ?, updated_at = ? WHERE id = ?`,
		boolToInt(detected), nullString(wafType), time.Now().Format(time.RFC3339), publisherID,
	)
	if err != nil {
		return fmt.Errorf("set publisher waf result: %w", err)
	}
	return nil
}

func (r *SQLitePublisherRepository) SetTosURL(ctx context.Context, publisherID, tosURL string) error {
	return r.setField(ctx, publisherID, "tos_url", tosURL)
}

func (r *SQLitePublisherRepository) SetTosPermissions(ctx context.Context, publisherID, permissionsJSON string) error {
	return r.setField(ctx, publisherID, "tos_permissions_json", permissionsJSON)
}

func (r *SQLitePublisherRepository) SetRobotsFound(ctx context.Context, publisherID string, found bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE publishers SET robots_found = ?, updated_at = ? WHERE id = ?`,
		boolToInt(found), time.Now().Format(time.RFC3339), publisherID,
	)
	if err != nil {
		return fmt.Errorf("set publisher robots_found: %w", err)
	}
	return nil
}

func (r *SQLitePublisherRepository) SetSitemapURLs(ctx context.Context, publisherID, sitemapURLsJSON string) error {
	return r.setField(ctx, publisherID, "sitemap_urls_json", sitemapURLsJSON)
}

func (r *SQLitePublisherRepository) SetRSSFeeds(ctx context.Context, publisherID, rssFeedsJSON string) error {
	return r.setField(ctx, publisherID, "rss_feeds_json", rssFeedsJSON)
}

func (r *SQLitePublisherRepository) SetRSLDetected(ctx context.Context, publisherID string, detected bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE publishers SET rsl_detected = ?, updated_at = ? WHERE id = ?`,
		boolToInt(detected), time.Now().Format(time.RFC3339), publisherID,
	)
	if err != nil {
		return fmt.Errorf("set publisher rsl_detected: %w", err)
	}
	return nil
}

func (r *SQLitePublisherRepository) SetAIBotBlock(ctx context.Context, publisherID, aiBotBlockJSON string) error {
	return r.setField(ctx, publisherID, "ai_bot_block_json", aiBotBlockJSON)
}

func (r *SQLitePublisherRepository) SetOrganization(ctx context.Context, publisherID, organizationJSON string) error {
	return r.setField(ctx, publisherID, "organization_json", organizationJSON)
}

func (r *SQLitePublisherRepository) SetName(ctx context.Context, publisherID, name string) error {
	return r.setField(ctx, publisherID, "name", name)
}

func (r *SQLitePublisherRepository) SetHasPaywall(ctx context.Context, publisherID string, hasPaywall bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE publishers SET has_paywall = ?, updated_at = ? WHERE id = ?`,
		boolToInt(hasPaywall), time.Now().Format(time.RFC3339), publisherID,
	)
	if err != nil {
		return fmt.Errorf("set publisher has_paywall: %w", err)
	}
	return nil
}

func (r *SQLitePublisherRepository) SetLastCheckedAt(ctx context.Context, publisherID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE publishers SET last_checked_at = ?, updated_at = ? WHERE id = ?`,
		at.Format(time.RFC3339), time.Now().Format(time.RFC3339), publisherID,
	)
	if err != nil {
		return fmt.Errorf("set publisher last_checked_at: %w", err)
	}
	return nil
}

// setField updates a single nullable text column plus updated_at. Column
// names passed here are always compile-time string literals from this file.
func (r *SQLitePublisherRepository) setField(ctx context.Context, publisherID, column, value string) error {
	query := fmt.Sprintf(`UPDATE publishers SET %s = ?, updated_at = ? WHERE id = ?`, column)
	_, err := r.db.ExecContext(ctx, query, nullString(value), time.Now().Format(time.RFC3339), publisherID)
	if err != nil {
		return fmt.Errorf("set publisher %s: %w", column, err)
	}
	return nil
}

func (r *SQLitePublisherRepository) scanOne(row *sql.Row) (*models.Publisher, error) {
	var p models.Publisher
	var wafType, tosURL, tosPermissionsJSON, sitemapURLsJSON, rssFeedsJSON sql.NullString
	var aiBotBlockJSON, organizationJSON, fetchStrategy sql.NullString
	var wafDetected, robotsFound, rslDetected, hasPaywall int
	var lastCheckedAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&p.ID, &p.Domain, &p.Name, &p.HomepageURL,
		&wafDetected, &wafType, &tosURL,
		&tosPermissionsJSON, &robotsFound, &sitemapURLsJSON,
		&rssFeedsJSON, &rslDetected, &aiBotBlockJSON,
		&organizationJSON, &hasPaywall, &fetchStrategy,
		&lastCheckedAt, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan publisher: %w", err)
	}

	p.WAFDetected = wafDetected == 1
	p.WAFType = wafType.String
	p.TosURL = tosURL.String
	p.TosPermissionsJSON = tosPermissionsJSON.String
	p.RobotsFound = robotsFound == 1
	p.SitemapURLsJSON = sitemapURLsJSON.String
	p.RSSFeedsJSON = rssFeedsJSON.String
	p.RSLDetected = rslDetected == 1
	p.AIBotBlockJSON = aiBotBlockJSON.String
	p.OrganizationJSON = organizationJSON.String
	p.HasPaywall = hasPaywall == 1
	p.FetchStrategy = fetchStrategy.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if lastCheckedAt.Valid {
		t, _ := time.Parse(time.RFC3339, lastCheckedAt.String)
		p.LastCheckedAt = &t
	}

	return &p, nil
}
