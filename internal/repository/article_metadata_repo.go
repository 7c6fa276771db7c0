package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmylchreest/pubscope/internal/models"
)

// SQLiteArticleMetadataRepository implements ArticleMetadataRepository for
// SQLite.
type SQLiteArticleMetadataRepository struct {
	db *sql.DB
}

func NewSQLiteArticleMetadataRepository(db *sql.DB) *SQLiteArticleMetadataRepository {
	return &SQLiteArticleMetadataRepository{db: db}
}

const articleMetadataColumns = `id, job_id, article_url, jsonld_fields, opengraph_fields,
	microdata_fields, twitter_cards, paywall_status, signals_json, llm_summary, created_at`

func (r *SQLiteArticleMetadataRepository) Create(ctx context.Context, am *models.ArticleMetadata) error {
	query := `INSERT INTO article_metadata (` + articleMetadataColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		am.ID, am.JobID, am.ArticleURL,
		nullRawMessage(am.JSONLDFields), nullRawMessage(am.OpenGraphFields),
		nullRawMessage(am.MicrodataFields), nullRawMessage(am.TwitterCards),
		am.PaywallStatus, nullString(am.SignalsJSON), nullString(am.LLMSummary),
		am.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create article metadata: %w", err)
	}
	return nil
}

func (r *SQLiteArticleMetadataRepository) FindFreshByURL(ctx context.Context, articleURL string, since time.Time) (*models.ArticleMetadata, error) {
	query := `SELECT ` + articleMetadataColumns + ` FROM article_metadata
		WHERE article_url = ? AND created_at >= ?
		ORDER BY created_at DESC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, articleURL, since.Format(time.RFC3339))

	var am models.ArticleMetadata
	var jsonldFields, openGraphFields, microdataFields, twitterCards sql.NullString
	var signalsJSON, llmSummary sql.NullString
	var createdAt string

	err := row.Scan(
		&am.ID, &am.JobID, &am.ArticleURL,
		&jsonldFields, &openGraphFields, &microdataFields, &twitterCards,
		&am.PaywallStatus, &signalsJSON, &llmSummary, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan article metadata: %w", err)
	}

	if jsonldFields.Valid {
		am.JSONLDFields = []byte(jsonldFields.String)
	}
	if openGraphFields.Valid {
		am.OpenGraphFields = []byte(openGraphFields.String)
	}
	if microdataFields.Valid {
		am.MicrodataFields = []byte(microdataFields.String)
	}
	if twitterCards.Valid {
		am.TwitterCards = []byte(twitterCards.String)
	}
	am.SignalsJSON = signalsJSON.String
	am.LLMSummary = llmSummary.String
	am.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return &am, nil
}

func nullRawMessage(raw []byte) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}
