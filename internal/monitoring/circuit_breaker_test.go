package monitoring_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexpanel/usdt-reconciler/internal/feed"
	"github.com/hexpanel/usdt-reconciler/internal/model"
	"github.com/hexpanel/usdt-reconciler/internal/monitoring"
	"github.com/hexpanel/usdt-reconciler/internal/types/environments"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
)

type stubFeed struct {
	events []model.TransferEvent
	err    error
	calls  int
}

func (s *stubFeed) Fetch(ctx context.Context, network model.Network, address string, from time.Time) ([]model.TransferEvent, error) {
	s.calls++
	return s.events, s.err
}

func TestCircuitBreakerFeedPassesThrough(t *testing.T) {
	stub := &stubFeed{events: []model.TransferEvent{{Hash: "0xaaa", Amount: 1.0}}}
	cb := monitoring.NewCircuitBreakerFeed(stub, logger.New(environments.Test))

	events, err := cb.Fetch(context.Background(), model.NetworkBsc, "0xwallet", time.Unix(0, 0))

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "0xaaa", events[0].Hash)
}

func TestCircuitBreakerFeedOpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubFeed{err: feed.ErrFeedUnavailable}
	cb := monitoring.NewCircuitBreakerFeed(stub, logger.New(environments.Test))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := cb.Fetch(ctx, model.NetworkBsc, "0xwallet", time.Unix(0, 0))
		assert.Error(t, err)
	}
	require.Equal(t, 5, stub.calls)

	// Breaker now open: the wrapped feed must not be called again.
	_, err := cb.Fetch(ctx, model.NetworkBsc, "0xwallet", time.Unix(0, 0))
	assert.True(t, errors.Is(err, feed.ErrFeedUnavailable))
	assert.Equal(t, 5, stub.calls)
}
