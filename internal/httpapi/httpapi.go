// Package httpapi implements the two web-boundary components kept inside
// the core: the Submission Gate (C10), which turns a submitted URL into a
// queued ResolutionJob, and the SSE Streamer (C9), which relays a job's
// lifecycle events to a connected client without ever missing the terminal
// event. Everything else at the HTTP boundary (the Inertia-style UI, CSV
// bulk ingest, admin/CRUD screens) is an external collaborator specified
// only at its interface, so this package deliberately stays small: three
// routes, no view layer.
//
// The handlers themselves are registered as raw chi routes rather than
// through huma: a form POST with a redirect response and a long-lived SSE
// stream don't fit huma's request/response JSON model. OpenAPI documentation
// for them is still registered separately, through RegisterDocs: chi serves
// the request, huma only describes it.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/jmylchreest/pubscope/internal/eventbus"
)

// Server bundles the Submission Gate and SSE Streamer behind one
// construction point so main.go wires a single dependency into the router.
type Server struct {
	jobs                     JobRepo
	publishers               PublisherRepo
	bus                      *eventbus.Bus
	logger                   *slog.Logger
	submitRateLimitPerMinute int
}

// New builds a Server over the narrow repository slices each handler needs.
// submitRateLimitPerMinute bounds POST /submit by client IP; 0 or negative
// disables rate limiting.
func New(jobs JobRepo, publishers PublisherRepo, bus *eventbus.Bus, logger *slog.Logger, submitRateLimitPerMinute int) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		jobs:                     jobs,
		publishers:               publishers,
		bus:                      bus,
		logger:                   logger.With("component", "httpapi"),
		submitRateLimitPerMinute: submitRateLimitPerMinute,
	}
}

// Routes mounts the Submission Gate and SSE Streamer endpoints. Submission is
// rate-limited by client IP, matching the teacher's httprate.LimitByIP usage
// for public, unauthenticated endpoints.
func (s *Server) Routes(r chi.Router) {
	if s.submitRateLimitPerMinute > 0 {
		r.With(httprate.LimitByIP(s.submitRateLimitPerMinute, time.Minute)).Post("/submit", s.handleSubmit)
	} else {
		r.Post("/submit", s.handleSubmit)
	}
	r.Get("/jobs/{id}", s.handleGetJob)
	r.Get("/api/jobs/{id}/stream", s.handleStream)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
