package repository

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/pubscope/internal/models"
)

func newTestJob(t *testing.T, repos *Repositories, publisherID, canonicalURL string) *models.ResolutionJob {
	t.Helper()
	now := time.Now()
	job := &models.ResolutionJob{
		ID:           ulid.Make().String(),
		SubmittedURL: canonicalURL,
		CanonicalURL: canonicalURL,
		PublisherID:  publisherID,
		Status:       models.JobStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repos.Job.Create(context.Background(), job); err != nil {
		t.Fatalf("Create job: %v", err)
	}
	return job
}

func TestJobRepository_CreateAndGetByID(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	p, err := repos.Publisher.GetOrCreate(ctx, "example.com", "https://example.com")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	job := newTestJob(t, repos, p.ID, "https://example.com/article")

	fetched, err := repos.Job.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched == nil {
		t.Fatal("GetByID returned nil")
	}
	if fetched.Status != models.JobStatusPending {
		t.Errorf("status = %v, want pending", fetched.Status)
	}
	if fetched.WAFResultJSON != nil {
		t.Errorf("waf_result_json should start nil")
	}
}

func TestJobRepository_PerStepResultFields(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	p, err := repos.Publisher.GetOrCreate(ctx, "example.com", "https://example.com")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	job := newTestJob(t, repos, p.ID, "https://example.com/article")

	if err := repos.Job.SetWAFResultJSON(ctx, job.ID, `{"waf_detected":true}`); err != nil {
		t.Fatalf("SetWAFResultJSON: %v", err)
	}
	if err := repos.Job.SetArticleResultJSON(ctx, job.ID, `{"paywall_status":"free"}`); err != nil {
		t.Fatalf("SetArticleResultJSON: %v", err)
	}

	fetched, err := repos.Job.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.WAFResultJSON == nil || *fetched.WAFResultJSON != `{"waf_detected":true}` {
		t.Errorf("waf_result_json = %v, want set", fetched.WAFResultJSON)
	}
	if fetched.ArticleResultJSON == nil || *fetched.ArticleResultJSON != `{"paywall_status":"free"}` {
		t.Errorf("article_result_json = %v, want set", fetched.ArticleResultJSON)
	}
	// Untouched step fields remain nil.
	if fetched.TosResultJSON != nil {
		t.Errorf("tos_result_json should remain nil")
	}
}

func TestJobRepository_GetLiveByCanonicalURL(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	p, err := repos.Publisher.GetOrCreate(ctx, "example.com", "https://example.com")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	job := newTestJob(t, repos, p.ID, "https://example.com/article")

	live, err := repos.Job.GetLiveByCanonicalURL(ctx, job.CanonicalURL)
	if err != nil {
		t.Fatalf("GetLiveByCanonicalURL: %v", err)
	}
	if live == nil || live.ID != job.ID {
		t.Fatalf("expected to find pending job, got %+v", live)
	}

	if err := repos.Job.SetStatus(ctx, job.ID, models.JobStatusFailed, "boom"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	none, err := repos.Job.GetLiveByCanonicalURL(ctx, job.CanonicalURL)
	if err != nil {
		t.Fatalf("GetLiveByCanonicalURL after fail: %v", err)
	}
	if none != nil {
		t.Errorf("failed jobs must not be treated as live, got %+v", none)
	}
}

func TestJobRepository_ClaimPending(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	p, err := repos.Publisher.GetOrCreate(ctx, "example.com", "https://example.com")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	job := newTestJob(t, repos, p.ID, "https://example.com/article")

	claimed, err := repos.Job.ClaimPending(ctx)
	if err != nil {
		t.Fatalf("ClaimPending: %v", err)
	}
	if claimed == nil || claimed.ID != job.ID {
		t.Fatalf("expected to claim %s, got %+v", job.ID, claimed)
	}
	if claimed.Status != models.JobStatusRunning {
		t.Errorf("status = %v, want running", claimed.Status)
	}

	again, err := repos.Job.ClaimPending(ctx)
	if err != nil {
		t.Fatalf("ClaimPending (second call): %v", err)
	}
	if again != nil {
		t.Errorf("expected no more pending jobs, got %+v", again)
	}
}

func TestJobRepository_MostRecentCompletedForPublisher(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	p, err := repos.Publisher.GetOrCreate(ctx, "example.com", "https://example.com")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	older := newTestJob(t, repos, p.ID, "https://example.com/older")
	if err := repos.Job.SetStatus(ctx, older.ID, models.JobStatusCompleted, ""); err != nil {
		t.Fatalf("SetStatus older: %v", err)
	}

	current := newTestJob(t, repos, p.ID, "https://example.com/current")

	prior, err := repos.Job.MostRecentCompletedForPublisher(ctx, p.ID, current.ID)
	if err != nil {
		t.Fatalf("MostRecentCompletedForPublisher: %v", err)
	}
	if prior == nil || prior.ID != older.ID {
		t.Fatalf("expected to find %s, got %+v", older.ID, prior)
	}
}
