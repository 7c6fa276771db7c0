package eventbus

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/jmylchreest/pubscope/internal/models"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New(slog.Default())
	sub := bus.Subscribe("job-1")
	defer sub.Unsubscribe()

	bus.Publish("job-1", models.StepWAF, models.StepCompleted, map[string]any{"waf_detected": false})

	select {
	case raw := <-sub.C:
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Step != models.StepWAF || msg.Status != models.StepCompleted {
			t.Errorf("got %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestPublishNoSubscribersIsNoop(t *testing.T) {
	bus := New(slog.Default())
	bus.Publish("job-nobody-listening", models.StepWAF, models.StepCompleted, nil)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New(slog.Default())
	sub := bus.Subscribe("job-2")
	sub.Unsubscribe()

	bus.Publish("job-2", models.StepWAF, models.StepCompleted, nil)

	select {
	case _, ok := <-sub.C:
		if ok {
			t.Fatal("expected channel to be closed with no message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected channel to be closed promptly")
	}
}
