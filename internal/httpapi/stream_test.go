package httpapi

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/pubscope/internal/eventbus"
	"github.com/jmylchreest/pubscope/internal/models"
)

// TestSSEStream_AlreadyCompletedEmitsSingleDoneFrame covers testable
// property 12 (SSE race) and E2E-F: a client that subscribes after the job
// has already finished must get exactly one "done" frame before close.
func TestSSEStream_AlreadyCompletedEmitsSingleDoneFrame(t *testing.T) {
	jobs := newFakeJobRepo()
	bus := eventbus.New(nil)
	s := New(jobs, newFakePublisherRepo(), bus, nil, 0)
	r := chi.NewRouter()
	s.Routes(r)

	waf := `{"waf_detected":false}`
	tos := `{"tos_url":""}`
	job := &models.ResolutionJob{
		ID:            "job-done",
		Status:        models.JobStatusCompleted,
		WAFResultJSON: &waf,
		TosResultJSON: &tos,
	}
	require.NoError(t, jobs.Create(context.Background(), job))

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/job-done/stream", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, "event: done"), "exactly one done frame")
	assert.Contains(t, body, `"status":"completed"`)
	assert.Contains(t, body, "waf_result")
	assert.Contains(t, body, "tos_result")
}

func TestSSEStream_UnknownJobReturns404(t *testing.T) {
	jobs := newFakeJobRepo()
	s := New(jobs, newFakePublisherRepo(), eventbus.New(nil), nil, 0)
	r := chi.NewRouter()
	s.Routes(r)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/nope/stream", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestSSEStream_ForwardsEventsAndClosesOnTerminal exercises the live path:
// a running job whose events arrive on the bus after the client subscribes,
// ending with the pipeline:completed frame rendered as "event: done".
func TestSSEStream_ForwardsEventsAndClosesOnTerminal(t *testing.T) {
	jobs := newFakeJobRepo()
	bus := eventbus.New(nil)
	s := New(jobs, newFakePublisherRepo(), bus, nil, 0)
	r := chi.NewRouter()
	s.Routes(r)

	job := &models.ResolutionJob{ID: "job-live", Status: models.JobStatusRunning}
	require.NoError(t, jobs.Create(context.Background(), job))

	srv := httptest.NewServer(r)
	defer srv.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		bus.Publish("job-live", models.StepWAF, models.StepCompleted, map[string]any{"waf_detected": false})
		bus.Publish("job-live", models.StepPipeline, models.StepCompleted, nil)
	}()

	resp, err := http.Get(srv.URL + "/api/jobs/job-live/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	var sawDone bool
	var frameCount int
	deadline := time.Now().Add(2 * time.Second)
	for scanner.Scan() && time.Now().Before(deadline) {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: done") {
			sawDone = true
		}
		if strings.HasPrefix(line, "data:") {
			frameCount++
		}
		if sawDone && strings.TrimSpace(line) == "" {
			break
		}
	}

	assert.True(t, sawDone, "expected a done frame before stream close")
	assert.GreaterOrEqual(t, frameCount, 2, "expected both the waf and pipeline frames")
}
