// Package fetch implements the Fetch Strategy Manager (C2): a small set of
// interchangeable strategies for retrieving a URL's body, with a
// publisher-scoped preference memory so a publisher that needs strategy B
// doesn't keep re-trying strategy A on every job.
package fetch

import (
	"context"

	"github.com/jmylchreest/pubscope/internal/models"
)

// Strategy identifiers, used both as the Manager's declared order and as the
// value persisted on Publisher.FetchStrategy.
const (
	StrategyDirect = "direct"
	StrategyProxy  = "proxy"
)

// Strategy fetches a URL and returns its body, or fails with a *FetchError.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, url string) (models.FetchResult, error)
}
