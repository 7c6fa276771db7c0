package fetch

import (
	"context"
	"log/slog"
	"testing"

	"github.com/jmylchreest/pubscope/internal/models"
)

type fakeStrategy struct {
	name    string
	fail    bool
	calls   *[]string
	onCall  func()
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Fetch(ctx context.Context, url string) (models.FetchResult, error) {
	if f.calls != nil {
		*f.calls = append(*f.calls, f.name)
	}
	if f.onCall != nil {
		f.onCall()
	}
	if f.fail {
		return models.FetchResult{}, &FetchError{Strategy: f.name, Cause: errString("boom")}
	}
	return models.FetchResult{Strategy: f.name, StatusCode: 200}, nil
}

type errString string

func (e errString) Error() string { return string(e) }

type fakeMemory struct {
	writes int
	last   string
}

func (f *fakeMemory) SetFetchStrategy(ctx context.Context, publisherID, strategy string) error {
	f.writes++
	f.last = strategy
	return nil
}

func TestManagerStrategyMemory(t *testing.T) {
	var calls []string
	a := &fakeStrategy{name: "direct", fail: true, calls: &calls}
	b := &fakeStrategy{name: "proxy", fail: false, calls: &calls}

	mem := &fakeMemory{}
	mgr := NewManager([]Strategy{a, b}, mem, slog.Default())

	publisher := &models.Publisher{ID: "pub-1"}
	_, err := mgr.Fetch(context.Background(), "https://example.com", publisher)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if publisher.FetchStrategy != "proxy" {
		t.Fatalf("publisher.FetchStrategy = %q, want %q", publisher.FetchStrategy, "proxy")
	}
	if mem.writes != 1 {
		t.Fatalf("expected exactly one write, got %d", mem.writes)
	}

	// Second call: publisher now prefers "proxy", so it must be tried first
	// and the call order is observable.
	calls = nil
	mem.writes = 0
	_, err = mgr.Fetch(context.Background(), "https://example.com", publisher)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 1 || calls[0] != "proxy" {
		t.Fatalf("expected proxy to be tried first and alone, got %v", calls)
	}
	if mem.writes != 0 {
		t.Fatalf("expected zero writes when preference unchanged, got %d", mem.writes)
	}
}

func TestManagerAllStrategiesExhausted(t *testing.T) {
	a := &fakeStrategy{name: "direct", fail: true}
	b := &fakeStrategy{name: "proxy", fail: true}

	mgr := NewManager([]Strategy{a, b}, nil, slog.Default())
	_, err := mgr.Fetch(context.Background(), "https://example.com", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	exhausted, ok := err.(*AllStrategiesExhausted)
	if !ok {
		t.Fatalf("expected *AllStrategiesExhausted, got %T", err)
	}
	if len(exhausted.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(exhausted.Errors))
	}
}
