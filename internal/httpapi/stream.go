package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmylchreest/pubscope/internal/models"
)

// handleStream implements the SSE Streamer (C9). The ordering is
// load-bearing: subscribe to the job's channel before re-reading its current
// status, so a job that finishes in the gap between the existence check and
// the subscribe call is still caught by the second read rather than racing
// a completion event the bus already dropped on the floor.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// 1. Verify the job exists.
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

	// 2. Subscribe before reading current status.
	sub := s.bus.Subscribe(job.ID)
	defer sub.Unsubscribe()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// 3. Read current status now that we're subscribed.
	current, err := s.jobs.GetByID(r.Context(), job.ID)
	if err == nil && current != nil && isTerminal(current.Status) {
		s.emitSyntheticDone(w, flusher, current)
		return
	}

	// 4. Forward bus messages until the terminal pipeline event arrives.
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case payload, open := <-sub.C:
			if !open {
				return
			}
			if isDoneFrame(payload) {
				fmt.Fprintf(w, "event: done\n")
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			if isDoneFrame(payload) {
				return
			}
		}
	}
}

func isTerminal(status models.JobStatus) bool {
	return status == models.JobStatusCompleted || status == models.JobStatusFailed
}

// isDoneFrame reports whether a raw bus payload is the pipeline's terminal
// event.
func isDoneFrame(payload []byte) bool {
	var msg struct {
		Step   models.StepName   `json:"step"`
		Status models.StepStatus `json:"status"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return false
	}
	return msg.Step == models.StepPipeline && (msg.Status == models.StepCompleted || msg.Status == models.StepFailed)
}

// emitSyntheticDone handles the fast-finish race: the job was already terminal by the time we
// subscribed, so there is no completion event left to forward. We build one
// synthetically instead of leaving the client hanging.
func (s *Server) emitSyntheticDone(w http.ResponseWriter, flusher http.Flusher, job *models.ResolutionJob) {
	data := map[string]json.RawMessage{
		"waf_result": rawOrNull(job.WAFResultJSON),
		"tos_result": rawOrNull(job.TosResultJSON),
	}
	frame := struct {
		Step   models.StepName            `json:"step"`
		Status models.JobStatus           `json:"status"`
		Data   map[string]json.RawMessage `json:"data"`
	}{
		Step:   models.StepPipeline,
		Status: job.Status,
		Data:   data,
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		s.logger.Error("marshal synthetic done frame failed", "job_id", job.ID, "error", err)
		return
	}
	fmt.Fprintf(w, "event: done\n")
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}
