package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmylchreest/pubscope/internal/models"
)

// jobView is the job-page payload: the Inertia-style UI that would render
// this is out of scope, so the job page renders as the JSON props that the
// UI would otherwise receive. Every result field is nullable: the job page
// always renders, and missing/failed steps are indicated by null results.
type jobView struct {
	ID           string    `json:"id"`
	SubmittedURL string    `json:"submitted_url"`
	CanonicalURL string    `json:"canonical_url"`
	PublisherID  string    `json:"publisher_id"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`

	WAFResult      json.RawMessage `json:"waf_result"`
	TosResult      json.RawMessage `json:"tos_result"`
	RobotsResult   json.RawMessage `json:"robots_result"`
	AIBotResult    json.RawMessage `json:"ai_bot_result"`
	SitemapResult  json.RawMessage `json:"sitemap_result"`
	RSSResult      json.RawMessage `json:"rss_result"`
	RSLResult      json.RawMessage `json:"rsl_result"`
	MetadataResult json.RawMessage `json:"metadata_result"`
	ArticleResult  json.RawMessage `json:"article_result"`
}

func newJobView(job *models.ResolutionJob) jobView {
	return jobView{
		ID:             job.ID,
		SubmittedURL:   job.SubmittedURL,
		CanonicalURL:   job.CanonicalURL,
		PublisherID:    job.PublisherID,
		Status:         string(job.Status),
		ErrorMessage:   job.ErrorMessage,
		WAFResult:      rawOrNull(job.WAFResultJSON),
		TosResult:      rawOrNull(job.TosResultJSON),
		RobotsResult:   rawOrNull(job.RobotsResultJSON),
		AIBotResult:    rawOrNull(job.AIBotResultJSON),
		SitemapResult:  rawOrNull(job.SitemapResultJSON),
		RSSResult:      rawOrNull(job.RSSResultJSON),
		RSLResult:      rawOrNull(job.RSLResultJSON),
		MetadataResult: rawOrNull(job.MetadataResultJSON),
		ArticleResult:  rawOrNull(job.ArticleResultJSON),
	}
}

func rawOrNull(s *string) json.RawMessage {
	if s == nil || *s == "" {
		return json.RawMessage("null")
	}
	return json.RawMessage(*s)
}

// handleGetJob serves GET /jobs/{uuid}: HTML + job props, here the
// props alone since rendering the UI is out of scope. 404 when unknown.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.jobs.GetByID(r.Context(), id)
	if err != nil {
		s.logger.Error("load job failed", "job_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if job == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, newJobView(job))
}
