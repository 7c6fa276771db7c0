package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/pubscope/internal/eventbus"
	"github.com/jmylchreest/pubscope/internal/fetch"
	"github.com/jmylchreest/pubscope/internal/models"
	"github.com/jmylchreest/pubscope/internal/repository"
	"github.com/jmylchreest/pubscope/internal/waf"
)

// fakeStrategy is a canned, call-counting stand-in for fetch.Strategy so
// tests can assert exactly how many outbound fetches the Supervisor makes
// without touching the network.
type fakeStrategy struct {
	mu    sync.Mutex
	name  string
	bodyByURL map[string]string
	calls int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Fetch(ctx context.Context, url string) (models.FetchResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	body, ok := f.bodyByURL[url]
	if !ok {
		body = f.bodyByURL["*"]
	}
	return models.FetchResult{Body: []byte(body), StatusCode: 200, Strategy: f.name, FinalURL: url}, nil
}

func (f *fakeStrategy) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakePublisherRepo is a minimal in-memory repository.PublisherRepository.
type fakePublisherRepo struct {
	mu         sync.Mutex
	publishers map[string]*models.Publisher
}

func newFakePublisherRepo(publisher *models.Publisher) *fakePublisherRepo {
	return &fakePublisherRepo{publishers: map[string]*models.Publisher{publisher.ID: publisher}}
}

func (r *fakePublisherRepo) GetByDomain(ctx context.Context, domain string) (*models.Publisher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.publishers {
		if p.Domain == domain {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePublisherRepo) GetByID(ctx context.Context, id string) (*models.Publisher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.publishers[id], nil
}

func (r *fakePublisherRepo) Create(ctx context.Context, publisher *models.Publisher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers[publisher.ID] = publisher
	return nil
}

func (r *fakePublisherRepo) GetOrCreate(ctx context.Context, domain, homepageURL string) (*models.Publisher, error) {
	if p, _ := r.GetByDomain(ctx, domain); p != nil {
		return p, nil
	}
	p := &models.Publisher{ID: ulid.Make().String(), Domain: domain, Name: domain, HomepageURL: homepageURL}
	return p, r.Create(ctx, p)
}

func (r *fakePublisherRepo) SetFetchStrategy(ctx context.Context, publisherID, strategy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers[publisherID].FetchStrategy = strategy
	return nil
}

func (r *fakePublisherRepo) SetWAFResult(ctx context.Context, publisherID string, detected bool, wafType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers[publisherID].WAFDetected = detected
	r.publishers[publisherID].WAFType = wafType
	return nil
}

func (r *fakePublisherRepo) SetTosURL(ctx context.Context, publisherID, tosURL string) error {
	r.publishers[publisherID].TosURL = tosURL
	return nil
}

func (r *fakePublisherRepo) SetTosPermissions(ctx context.Context, publisherID, permissionsJSON string) error {
	r.publishers[publisherID].TosPermissionsJSON = permissionsJSON
	return nil
}

func (r *fakePublisherRepo) SetRobotsFound(ctx context.Context, publisherID string, found bool) error {
	r.publishers[publisherID].RobotsFound = found
	return nil
}

func (r *fakePublisherRepo) SetSitemapURLs(ctx context.Context, publisherID, sitemapURLsJSON string) error {
	r.publishers[publisherID].SitemapURLsJSON = sitemapURLsJSON
	return nil
}

func (r *fakePublisherRepo) SetRSSFeeds(ctx context.Context, publisherID, rssFeedsJSON string) error {
	r.publishers[publisherID].RSSFeedsJSON = rssFeedsJSON
	return nil
}

func (r *fakePublisherRepo) SetRSLDetected(ctx context.Context, publisherID string, detected bool) error {
	r.publishers[publisherID].RSLDetected = detected
	return nil
}

func (r *fakePublisherRepo) SetAIBotBlock(ctx context.Context, publisherID, aiBotBlockJSON string) error {
	r.publishers[publisherID].AIBotBlockJSON = aiBotBlockJSON
	return nil
}

func (r *fakePublisherRepo) SetOrganization(ctx context.Context, publisherID, organizationJSON string) error {
	r.publishers[publisherID].OrganizationJSON = organizationJSON
	return nil
}

func (r *fakePublisherRepo) SetName(ctx context.Context, publisherID, name string) error {
	r.publishers[publisherID].Name = name
	return nil
}

func (r *fakePublisherRepo) SetHasPaywall(ctx context.Context, publisherID string, hasPaywall bool) error {
	r.publishers[publisherID].HasPaywall = hasPaywall
	return nil
}

func (r *fakePublisherRepo) SetLastCheckedAt(ctx context.Context, publisherID string, at time.Time) error {
	r.publishers[publisherID].LastCheckedAt = &at
	return nil
}

// fakeJobRepo is a minimal in-memory repository.JobRepository.
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*models.ResolutionJob
}

func newFakeJobRepo(jobs ...*models.ResolutionJob) *fakeJobRepo {
	r := &fakeJobRepo{jobs: map[string]*models.ResolutionJob{}}
	for _, j := range jobs {
		r.jobs[j.ID] = j
	}
	return r
}

func (r *fakeJobRepo) Create(ctx context.Context, job *models.ResolutionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	return nil
}

func (r *fakeJobRepo) GetByID(ctx context.Context, id string) (*models.ResolutionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[id], nil
}

func (r *fakeJobRepo) GetLiveByCanonicalURL(ctx context.Context, canonicalURL string) (*models.ResolutionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.CanonicalURL == canonicalURL {
			return j, nil
		}
	}
	return nil, nil
}

func (r *fakeJobRepo) MostRecentCompletedForPublisher(ctx context.Context, publisherID, excludeJobID string) (*models.ResolutionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.ResolutionJob
	for _, j := range r.jobs {
		if j.PublisherID != publisherID || j.ID == excludeJobID || j.Status != models.JobStatusCompleted {
			continue
		}
		if latest == nil || j.UpdatedAt.After(latest.UpdatedAt) {
			latest = j
		}
	}
	return latest, nil
}

func (r *fakeJobRepo) SetStatus(ctx context.Context, id string, status models.JobStatus, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id].Status = status
	r.jobs[id].ErrorMessage = errorMessage
	return nil
}

func strPtr(s string) *string { return &s }

func (r *fakeJobRepo) SetWAFResultJSON(ctx context.Context, id, resultJSON string) error {
	r.jobs[id].WAFResultJSON = strPtr(resultJSON)
	return nil
}
func (r *fakeJobRepo) SetTosResultJSON(ctx context.Context, id, resultJSON string) error {
	r.jobs[id].TosResultJSON = strPtr(resultJSON)
	return nil
}
func (r *fakeJobRepo) SetRobotsResultJSON(ctx context.Context, id, resultJSON string) error {
	r.jobs[id].RobotsResultJSON = strPtr(resultJSON)
	return nil
}
func (r *fakeJobRepo) SetAIBotResultJSON(ctx context.Context, id, resultJSON string) error {
	r.jobs[id].AIBotResultJSON = strPtr(resultJSON)
	return nil
}
func (r *fakeJobRepo) SetSitemapResultJSON(ctx context.Context, id, resultJSON string) error {
	r.jobs[id].SitemapResultJSON = strPtr(resultJSON)
	return nil
}
func (r *fakeJobRepo) SetRSSResultJSON(ctx context.Context, id, resultJSON string) error {
	r.jobs[id].RSSResultJSON = strPtr(resultJSON)
	return nil
}
func (r *fakeJobRepo) SetRSLResultJSON(ctx context.Context, id, resultJSON string) error {
	r.jobs[id].RSLResultJSON = strPtr(resultJSON)
	return nil
}
func (r *fakeJobRepo) SetMetadataResultJSON(ctx context.Context, id, resultJSON string) error {
	r.jobs[id].MetadataResultJSON = strPtr(resultJSON)
	return nil
}
func (r *fakeJobRepo) SetArticleResultJSON(ctx context.Context, id, resultJSON string) error {
	r.jobs[id].ArticleResultJSON = strPtr(resultJSON)
	return nil
}

func (r *fakeJobRepo) ClaimPending(ctx context.Context) (*models.ResolutionJob, error) {
	return nil, nil
}

func (r *fakeJobRepo) MarkStaleRunningFailed(ctx context.Context, maxAge time.Duration) (int64, error) {
	return 0, nil
}

// fakeArticleRepo is a minimal in-memory repository.ArticleMetadataRepository.
type fakeArticleRepo struct {
	mu   sync.Mutex
	rows []*models.ArticleMetadata
}

func (r *fakeArticleRepo) Create(ctx context.Context, am *models.ArticleMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, am)
	return nil
}

func (r *fakeArticleRepo) FindFreshByURL(ctx context.Context, articleURL string, since time.Time) (*models.ArticleMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *models.ArticleMetadata
	for _, row := range r.rows {
		if row.ArticleURL != articleURL || row.CreatedAt.Before(since) {
			continue
		}
		if best == nil || row.CreatedAt.After(best.CreatedAt) {
			best = row
		}
	}
	return best, nil
}

func (r *fakeArticleRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

const cleanHomepage = `<html><head><title>Example</title></head><body><a href="/terms">Terms</a></body></html>`

const freeArticleHTML = `<html><head>
<script type="application/ld+json">{"@type":"NewsArticle","headline":"A Story","datePublished":"2024-01-01"}</script>
</head><body><p>Plain article text with no paywall signals.</p></body></html>`

func newTestSupervisor(t *testing.T, publisher *models.Publisher, prior *models.ResolutionJob, homepageBody, articleBody string) (*Supervisor, *fakeJobRepo, *fakeArticleRepo, *fakeStrategy) {
	t.Helper()

	strat := &fakeStrategy{name: fetch.StrategyDirect, bodyByURL: map[string]string{
		publisher.HomepageURL: homepageBody,
		"*":                   articleBody,
	}}
	manager := fetch.NewManager([]fetch.Strategy{strat}, newFakePublisherRepo(publisher), slog.Default())

	pubRepo := newFakePublisherRepo(publisher)
	var jobs []*models.ResolutionJob
	if prior != nil {
		jobs = append(jobs, prior)
	}
	jobRepo := newFakeJobRepo(jobs...)
	articleRepo := &fakeArticleRepo{}

	repos := &repository.Repositories{Publisher: pubRepo, Job: jobRepo, ArticleMetadata: articleRepo}
	bus := eventbus.New(slog.Default())
	fingerprinter := waf.New("", time.Second)

	sup := New(repos, bus, manager, fingerprinter, nil, 24*time.Hour, time.Hour, slog.Default())
	return sup, jobRepo, articleRepo, strat
}

func TestSupervisor_HappyPath(t *testing.T) {
	publisher := &models.Publisher{
		ID:          ulid.Make().String(),
		Domain:      "example.com",
		Name:        "example.com",
		HomepageURL: "https://example.com",
	}
	job := &models.ResolutionJob{
		ID:           ulid.Make().String(),
		SubmittedURL: "https://example.com/article-x",
		CanonicalURL: "https://example.com/article-x",
		PublisherID:  publisher.ID,
		Status:       models.JobStatusPending,
	}

	sup, jobRepo, articleRepo, strat := newTestSupervisor(t, publisher, nil, cleanHomepage, freeArticleHTML)
	jobRepo.jobs[job.ID] = job

	var events []models.StepEvent
	sub := sup.bus.Subscribe(job.ID)
	defer sub.Unsubscribe()
	done := make(chan struct{})
	go func() {
		for raw := range sub.C {
			var e models.StepEvent
			_ = json.Unmarshal(raw, &e)
			events = append(events, e)
			if e.Step == models.StepPipeline && (e.Status == models.StepCompleted || e.Status == models.StepFailed) {
				close(done)
				return
			}
		}
	}()

	err := sup.Run(context.Background(), job.ID)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pipeline:completed event")
	}

	got, _ := jobRepo.GetByID(context.Background(), job.ID)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	require.NotNil(t, got.WAFResultJSON)
	assert.Contains(t, *got.WAFResultJSON, `"waf_detected":false`)
	require.NotNil(t, got.RobotsResultJSON)
	require.NotNil(t, got.ArticleResultJSON)
	assert.Contains(t, *got.ArticleResultJSON, `"paywall_status":"free"`)
	assert.Equal(t, 1, articleRepo.count())

	// Homepage is fetched once and shared across ToS/RSS/RSL/org; robots.txt
	// is fetched once, and since it yields no sitemaps all four sitemap probe
	// paths are fetched (none returns XML); the article URL differs from the
	// homepage so it's fetched separately: 1 + 1 + 4 + 1.
	assert.Equal(t, 7, strat.callCount())

	var sawCompleted bool
	for _, e := range events {
		if e.Step == models.StepPipeline && e.Status == models.StepCompleted {
			sawCompleted = true
		}
	}
	assert.True(t, sawCompleted, "expected a pipeline:completed event")
}

func TestSupervisor_SkipsFreshPublisherSteps(t *testing.T) {
	publisher := &models.Publisher{
		ID:          ulid.Make().String(),
		Domain:      "example.com",
		Name:        "example.com",
		HomepageURL: "https://example.com",
	}
	checkedAt := time.Now().Add(-time.Hour)
	publisher.LastCheckedAt = &checkedAt

	priorWAF := `{"waf_detected":true,"waf_type":"cloudflare"}`
	prior := &models.ResolutionJob{
		ID:            ulid.Make().String(),
		PublisherID:   publisher.ID,
		Status:        models.JobStatusCompleted,
		CanonicalURL:  "https://example.com/old-article",
		WAFResultJSON: &priorWAF,
		UpdatedAt:     time.Now().Add(-time.Minute),
	}

	job := &models.ResolutionJob{
		ID:           ulid.Make().String(),
		SubmittedURL: "https://example.com/new-article",
		CanonicalURL: "https://example.com/new-article",
		PublisherID:  publisher.ID,
		Status:       models.JobStatusPending,
	}

	sup, jobRepo, _, strat := newTestSupervisor(t, publisher, prior, cleanHomepage, freeArticleHTML)
	jobRepo.jobs[job.ID] = job

	var skipped []models.StepName
	sub := sup.bus.Subscribe(job.ID)
	defer sub.Unsubscribe()
	done := make(chan struct{})
	go func() {
		for raw := range sub.C {
			var e models.StepEvent
			_ = json.Unmarshal(raw, &e)
			if e.Status == models.StepSkipped {
				skipped = append(skipped, e.Step)
			}
			if e.Step == models.StepPipeline && (e.Status == models.StepCompleted || e.Status == models.StepFailed) {
				close(done)
				return
			}
		}
	}()

	err := sup.Run(context.Background(), job.ID)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pipeline:completed event")
	}

	assert.ElementsMatch(t, publisherSteps, skipped)

	got, _ := jobRepo.GetByID(context.Background(), job.ID)
	require.NotNil(t, got.WAFResultJSON)
	assert.Equal(t, priorWAF, *got.WAFResultJSON, "fresh-skip should copy the prior job's publisher-level result")

	// No publisher-level fetch should have run (no robots/sitemap probe/etc),
	// but the article still needs its own fetch.
	assert.Equal(t, 1, strat.callCount(), "only the article fetch should hit the network when publisher steps are skipped")
}
