package httpapi

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
)

// submitInput documents the Submission Gate's form body for OpenAPI clients;
// the live handler reads it via r.ParseForm instead (huma.Register below is
// documentation only, per RegisterDocs).
type submitInput struct {
	RawBody []byte `body:"" contentType:"application/x-www-form-urlencoded" doc:"url=<article or homepage URL>"`
}

type jobOutput struct {
	Body jobView
}

type jobPathInput struct {
	ID string `path:"id" doc:"Resolution job ID"`
}

type submitOutput struct{}

// RegisterDocs registers the Submission Gate and SSE Streamer with huma for
// OpenAPI schema generation only. The handlers that actually serve these
// paths are the raw chi routes mounted by Routes; huma never sees a live
// request, keeping documentation and execution separate.
func (s *Server) RegisterDocs(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "submitURL",
		Method:      http.MethodPost,
		Path:        "/submit",
		Summary:     "Submit a URL for resolution",
		Description: "Queues a ResolutionJob for the submitted article or homepage URL and redirects to its job page. A URL that canonicalizes to an already-live job redirects to that job instead of queuing a duplicate.",
		Tags:        []string{"Jobs"},
		Responses: map[string]*huma.Response{
			"302": {Description: "Redirect to /jobs/{id}, new or existing"},
		},
	}, func(ctx context.Context, input *submitInput) (*submitOutput, error) {
		return nil, huma.Error501NotImplemented("served by the chi route registered in Routes")
	})

	huma.Register(api, huma.Operation{
		OperationID: "getJob",
		Method:      http.MethodGet,
		Path:        "/jobs/{id}",
		Summary:     "Get a resolution job",
		Description: "Returns the job's status and the JSON result of each pipeline step. Steps that have not yet run render as null rather than being omitted; skipped steps carry the result reused from an earlier job, or null when there is none.",
		Tags:        []string{"Jobs"},
		Responses: map[string]*huma.Response{
			"404": {Description: "Job not found"},
		},
	}, func(ctx context.Context, input *jobPathInput) (*jobOutput, error) {
		return nil, huma.Error501NotImplemented("served by the chi route registered in Routes")
	})

	sse.Register(api, huma.Operation{
		OperationID: "streamJob",
		Method:      http.MethodGet,
		Path:        "/api/jobs/{id}/stream",
		Summary:     "Stream a resolution job's pipeline events",
		Description: `Server-Sent Events stream of per-step pipeline events, ending with a "done" event once the job reaches a terminal status.

A client that connects after the job has already finished receives a single synthesized "done" event built from the job's stored result, rather than hanging indefinitely.`,
		Tags: []string{"Jobs"},
	}, map[string]any{
		"message": stepEventDoc{},
		"done":    stepEventDoc{},
	}, func(ctx context.Context, input *jobPathInput, send sse.Sender) {
		<-ctx.Done()
	})
}

// stepEventDoc documents the shape of both per-step and terminal SSE frames
// published by the event bus (see eventbus.Message).
type stepEventDoc struct {
	Step   string         `json:"step" doc:"Pipeline step name, or \"pipeline\" for the terminal event"`
	Status string         `json:"status" doc:"started, completed, failed, or skipped"`
	Data   map[string]any `json:"data,omitempty" doc:"Step-specific result payload"`
}
