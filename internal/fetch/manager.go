package fetch

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/pubscope/internal/models"
)

// StrategyMemory persists the single-field "last winning strategy"
// preference for a publisher. Implemented by the publisher repository;
// writes must be scoped to that one field.
type StrategyMemory interface {
	SetFetchStrategy(ctx context.Context, publisherID, strategy string) error
}

// Manager implements fetch(url, publisher?) → FetchResult, trying the
// publisher's preferred strategy first (if any), then the remaining
// strategies in declared order.
type Manager struct {
	strategies []Strategy
	memory     StrategyMemory
	logger     *slog.Logger
}

// NewManager builds a Manager over the given strategies in declared order.
func NewManager(strategies []Strategy, memory StrategyMemory, logger *slog.Logger) *Manager {
	return &Manager{strategies: strategies, memory: memory, logger: logger}
}

// Fetch tries strategies in preference order and returns the first success.
// publisher may be nil for a fetch with no publisher context yet.
func (m *Manager) Fetch(ctx context.Context, url string, publisher *models.Publisher) (models.FetchResult, error) {
	order := m.order(publisher)

	var errs []*FetchError
	for _, strat := range order {
		result, err := strat.Fetch(ctx, url)
		if err != nil {
			var fe *FetchError
			if asFetchError(err, &fe) {
				errs = append(errs, fe)
			} else {
				errs = append(errs, &FetchError{Strategy: strat.Name(), Cause: err})
			}
			continue
		}

		if publisher != nil && publisher.FetchStrategy != strat.Name() {
			if m.memory != nil {
				if err := m.memory.SetFetchStrategy(ctx, publisher.ID, strat.Name()); err != nil {
					m.logger.Warn("failed to persist fetch strategy preference",
						"publisher_id", publisher.ID, "strategy", strat.Name(), "error", err)
				} else {
					publisher.FetchStrategy = strat.Name()
				}
			}
		}

		return result, nil
	}

	return models.FetchResult{}, &AllStrategiesExhausted{Errors: errs}
}

// order returns strategies with the publisher's preference (if any) moved to
// the front, preserving the relative order of the rest.
func (m *Manager) order(publisher *models.Publisher) []Strategy {
	if publisher == nil || publisher.FetchStrategy == "" {
		return m.strategies
	}

	ordered := make([]Strategy, 0, len(m.strategies))
	var preferred Strategy
	for _, s := range m.strategies {
		if s.Name() == publisher.FetchStrategy {
			preferred = s
			continue
		}
		ordered = append(ordered, s)
	}
	if preferred == nil {
		return m.strategies
	}
	return append([]Strategy{preferred}, ordered...)
}

func asFetchError(err error, target **FetchError) bool {
	if fe, ok := err.(*FetchError); ok {
		*target = fe
		return true
	}
	return false
}
