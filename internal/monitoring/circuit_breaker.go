package monitoring

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/hexpanel/usdt-reconciler/internal/feed"
	"github.com/hexpanel/usdt-reconciler/internal/model"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
)

// CircuitBreakerFeed wraps a transaction feed so a flapping explorer API
// stops consuming quota: after enough consecutive failures calls short-circuit
// until the cooldown passes. An open breaker surfaces as ErrFeedUnavailable,
// which the loop already treats as "skip this intent, retry next cycle".
type CircuitBreakerFeed struct {
	wrapped        feed.ITransactionFeed
	circuitBreaker *gobreaker.CircuitBreaker
	logger         *logger.Logger
}

func NewCircuitBreakerFeed(wrapped feed.ITransactionFeed, logger *logger.Logger) feed.ITransactionFeed {
	settings := gobreaker.Settings{
		Name:        "transaction-feed",
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("[CircuitBreakerFeed] state change", map[string]string{
				"name": name,
				"from": from.String(),
				"to":   to.String(),
			})
		},
	}

	return &CircuitBreakerFeed{
		wrapped:        wrapped,
		circuitBreaker: gobreaker.NewCircuitBreaker(settings),
		logger:         logger,
	}
}

func (c *CircuitBreakerFeed) Fetch(ctx context.Context, network model.Network, address string, from time.Time) ([]model.TransferEvent, error) {
	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.wrapped.Fetch(ctx, network, address, from)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.Wrap(feed.ErrFeedUnavailable, err.Error())
		}
		return nil, err
	}

	events, ok := result.([]model.TransferEvent)
	if !ok {
		return nil, errors.Wrap(feed.ErrFeedUnavailable, "unexpected feed result type")
	}
	return events, nil
}
