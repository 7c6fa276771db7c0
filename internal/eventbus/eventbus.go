// Package eventbus implements the in-process pub/sub broker behind the
// Event Bus (C3): publish(job_id, step, status, data?) serializes
// {step, status, data} and fans it out to every subscriber of
// "job:{job_id}:events". Generalized from a single-client websocket Hub
// (register/unregister/broadcast channels guarded by one mutex) to a
// per-channel list of subscribers, since this service has no external
// broker dependency to lean on.
package eventbus

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/jmylchreest/pubscope/internal/models"
)

// Message is the JSON-serializable payload published on a job's channel.
type Message struct {
	Step   models.StepName   `json:"step"`
	Status models.StepStatus `json:"status"`
	Data   any               `json:"data,omitempty"`
}

// Subscription is a live handle to a channel's broadcast feed. C must be
// drained promptly; a message that finds a slow subscriber's buffer full is
// dropped for that subscriber rather than blocking publishers — a broker
// hiccup must never propagate into the pipeline.
type Subscription struct {
	C      <-chan []byte
	bus    *Bus
	key    string
	sendCh chan []byte
}

// Unsubscribe releases the subscription's resources. Safe to call once.
func (s *Subscription) Unsubscribe() {
	s.bus.unsubscribe(s.key, s.sendCh)
}

// Bus is an in-process, multi-channel pub/sub broker.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan []byte
	logger      *slog.Logger
}

// New creates an empty Bus.
func New(logger *slog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[string][]chan []byte),
		logger:      logger,
	}
}

// channelKey formats the broker channel name for a job.
func channelKey(jobID string) string {
	return "job:" + jobID + ":events"
}

// Subscribe registers a new subscriber on a job's channel and returns a
// handle whose C field receives every subsequent Publish for that job.
func (b *Bus) Subscribe(jobID string) *Subscription {
	key := channelKey(jobID)
	ch := make(chan []byte, 32)

	b.mu.Lock()
	b.subscribers[key] = append(b.subscribers[key], ch)
	b.mu.Unlock()

	return &Subscription{C: ch, bus: b, key: key, sendCh: ch}
}

func (b *Bus) unsubscribe(key string, ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[key]
	for i, s := range subs {
		if s == ch {
			b.subscribers[key] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(b.subscribers[key]) == 0 {
		delete(b.subscribers, key)
	}
}

// Publish serializes {step, status, data} and fans it out to every current
// subscriber of job:{jobID}:events. A broker failure (marshal error, or a
// subscriber whose buffer is full) is logged and swallowed: it must never
// propagate into the pipeline.
func (b *Bus) Publish(jobID string, step models.StepName, status models.StepStatus, data any) {
	payload, err := json.Marshal(Message{Step: step, Status: status, Data: data})
	if err != nil {
		b.logger.Error("eventbus: failed to marshal message", "job_id", jobID, "error", err)
		return
	}

	key := channelKey(jobID)
	// Hold the read lock across the non-blocking sends so a concurrent
	// Unsubscribe cannot close a channel mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[key] {
		select {
		case ch <- payload:
		default:
			b.logger.Warn("eventbus: subscriber buffer full, dropping message", "job_id", jobID)
		}
	}
}
