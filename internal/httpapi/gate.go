package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/pubscope/internal/canonicalize"
	"github.com/jmylchreest/pubscope/internal/models"
)

// JobRepo is the slice of repository.JobRepository the Submission Gate and
// SSE Streamer need: creating a job, looking one up for idempotent
// resubmission, and reading it back for the job page and stream.
type JobRepo interface {
	Create(ctx context.Context, job *models.ResolutionJob) error
	GetByID(ctx context.Context, id string) (*models.ResolutionJob, error)
	GetLiveByCanonicalURL(ctx context.Context, canonicalURL string) (*models.ResolutionJob, error)
}

// PublisherRepo is the slice of repository.PublisherRepository the
// Submission Gate needs: lazily creating a publisher row for a domain seen
// for the first time (§3, Publisher lifecycle).
type PublisherRepo interface {
	GetOrCreate(ctx context.Context, domain, homepageURL string) (*models.Publisher, error)
}

// handleSubmit implements the Submission Gate (C10): canonicalize the
// submitted URL, redirect to a live job for the same canonical URL if one
// already exists (idempotent resubmission, testable property 11), otherwise
// create the publisher/job and hand the job off to the worker pool by
// leaving it `pending` for ClaimPending to pick up.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, "could not parse submission")
		return
	}

	rawURL := r.FormValue("url")
	if rawURL == "" {
		s.redirectWithError(w, r, "url is required")
		return
	}

	canonicalURL, err := canonicalize.Canonicalize(rawURL)
	if err != nil {
		s.redirectWithError(w, r, "could not parse url")
		return
	}
	domain, err := canonicalize.ExtractDomain(rawURL)
	if err != nil || domain == "" {
		s.redirectWithError(w, r, "could not determine domain")
		return
	}

	ctx := r.Context()

	if existing, err := s.jobs.GetLiveByCanonicalURL(ctx, canonicalURL); err != nil {
		s.logger.Error("lookup live job failed", "canonical_url", canonicalURL, "error", err)
		s.redirectWithError(w, r, "internal error")
		return
	} else if existing != nil {
		http.Redirect(w, r, "/jobs/"+existing.ID, http.StatusFound)
		return
	}

	homepageURL := "https://" + domain + "/"
	publisher, err := s.publishers.GetOrCreate(ctx, domain, homepageURL)
	if err != nil {
		s.logger.Error("get or create publisher failed", "domain", domain, "error", err)
		s.redirectWithError(w, r, "internal error")
		return
	}

	now := time.Now()
	job := &models.ResolutionJob{
		ID:           ulid.Make().String(),
		SubmittedURL: rawURL,
		CanonicalURL: canonicalURL,
		PublisherID:  publisher.ID,
		Status:       models.JobStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		s.logger.Error("create job failed", "canonical_url", canonicalURL, "error", err)
		s.redirectWithError(w, r, "internal error")
		return
	}

	http.Redirect(w, r, "/jobs/"+job.ID, http.StatusFound)
}

// redirectWithError sends the caller back to "/" with the validation
// failure flashed onto the errors.url field. The Inertia-style flash session belongs to the
// out-of-scope HTTP front end; a query parameter is the honest stand-in for
// it here.
func (s *Server) redirectWithError(w http.ResponseWriter, r *http.Request, message string) {
	q := url.Values{"errors.url": {message}}
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusFound)
}
