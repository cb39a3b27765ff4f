// internal/console/strategy.go
package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/Annany2002/taxacurator/internal/gateway"
	"github.com/Annany2002/taxacurator/internal/metrics"
)

// ErrNoStrategy is returned when every strategy of a chain failed.
var ErrNoStrategy = errors.New("all fetch strategies failed")

// Strategy is one way of obtaining rows for a console, such as a remote
// procedure or a direct table query.
type Strategy[T any] struct {
	Name  string
	Fetch func(ctx context.Context, gw gateway.Gateway, w Window) (FetchResult[T], error)
}

// Attempt records the outcome of one strategy.
type Attempt struct {
	Strategy string
	Err      error
}

// Chain tries its strategies in order and returns the first success. Each
// strategy runs at most once per fetch; there are no retries.
type Chain[T any] struct {
	Console    string
	Strategies []Strategy[T]
}

// Fetch runs the chain. On success the result's Source names the strategy
// used; the attempts of every strategy tried are returned either way.
func (c Chain[T]) Fetch(ctx context.Context, gw gateway.Gateway, w Window) (FetchResult[T], []Attempt, error) {
	attempts := make([]Attempt, 0, len(c.Strategies))
	var errs []error

	for i, s := range c.Strategies {
		res, err := s.Fetch(ctx, gw, w)
		metrics.FetchStrategyTotal.WithLabelValues(c.Console, s.Name, metrics.Outcome(err)).Inc()
		attempts = append(attempts, Attempt{Strategy: s.Name, Err: err})
		if err == nil {
			res.Source = s.Name
			if i > 0 {
				customLog.Printf("Console[%s]: served by fallback strategy %q", c.Console, s.Name)
			}
			return res, attempts, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return FetchResult[T]{}, attempts, ctxErr
		}
		if i < len(c.Strategies)-1 {
			customLog.Warnf("Console[%s]: strategy %q failed, falling back: %v", c.Console, s.Name, err)
		}
	}

	if len(errs) == 0 {
		return FetchResult[T]{}, attempts, ErrNoStrategy
	}
	return FetchResult[T]{}, attempts, fmt.Errorf("%w: %w", ErrNoStrategy, errors.Join(errs...))
}
