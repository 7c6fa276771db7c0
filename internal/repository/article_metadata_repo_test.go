package repository

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/pubscope/internal/models"
)

func TestArticleMetadataRepository_FindFreshByURL(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	p, err := repos.Publisher.GetOrCreate(ctx, "example.com", "https://example.com")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	job := newTestJob(t, repos, p.ID, "https://example.com/article")

	am := &models.ArticleMetadata{
		ID:            ulid.Make().String(),
		JobID:         job.ID,
		ArticleURL:    "https://example.com/article",
		PaywallStatus: "free",
		CreatedAt:     time.Now(),
	}
	if err := repos.ArticleMetadata.Create(ctx, am); err != nil {
		t.Fatalf("Create: %v", err)
	}

	since := time.Now().Add(-time.Hour)
	found, err := repos.ArticleMetadata.FindFreshByURL(ctx, am.ArticleURL, since)
	if err != nil {
		t.Fatalf("FindFreshByURL: %v", err)
	}
	if found == nil || found.ID != am.ID {
		t.Fatalf("expected to find %s, got %+v", am.ID, found)
	}

	tooRecent := time.Now().Add(time.Hour)
	stale, err := repos.ArticleMetadata.FindFreshByURL(ctx, am.ArticleURL, tooRecent)
	if err != nil {
		t.Fatalf("FindFreshByURL (future cutoff): %v", err)
	}
	if stale != nil {
		t.Errorf("row created before cutoff should not be fresh, got %+v", stale)
	}
}
