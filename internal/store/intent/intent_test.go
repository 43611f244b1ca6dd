package intent_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexpanel/usdt-reconciler/internal/model"
	"github.com/hexpanel/usdt-reconciler/internal/store/intent"
	"github.com/hexpanel/usdt-reconciler/internal/types/environments"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
)

func newTestStore(t *testing.T) (intent.IStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return intent.New(rdb, 24*time.Hour, logger.New(environments.Test)), mr
}

func newIntent(tradeNo string, userID int64, amount float64, createdAt int64) *model.PaymentIntent {
	return &model.PaymentIntent{
		TradeNo:       tradeNo,
		UserID:        userID,
		WalletAddress: "0xwallet",
		Amount:        amount,
		Network:       model.NetworkBsc,
		CreatedAt:     createdAt,
		ExpiresAt:     createdAt + 1800,
		Status:        model.IntentStatusPending,
	}
}

func TestCreateAndGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newIntent("T100", 1, 10.0, 1700000000)))

	got, err := s.Get(ctx, "T100")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UserID)
	assert.Equal(t, 10.0, got.Amount)
	assert.Equal(t, model.IntentStatusPending, got.Status)
}

func TestGetMissing(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, intent.ErrNotFound))
}

func TestListPending(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newIntent("T1", 1, 10.0, 1700000000)))
	require.NoError(t, s.Create(ctx, newIntent("T2", 2, 20.0, 1700090000)))

	t.Run("window bounds the scan set", func(t *testing.T) {
		all, err := s.ListPending(ctx, time.Unix(0, 0))
		require.NoError(t, err)
		assert.Len(t, all, 2)

		recent, err := s.ListPending(ctx, time.Unix(1700080000, 0))
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, "T2", recent[0].TradeNo)
	})

	t.Run("paid intents drop out of the index", func(t *testing.T) {
		won, err := s.ClaimPaid(ctx, "T1", "0xhash", time.Unix(1700000100, 0))
		require.NoError(t, err)
		require.True(t, won)

		pending, err := s.ListPending(ctx, time.Unix(0, 0))
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "T2", pending[0].TradeNo)
	})
}

func TestListPendingByUser(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newIntent("T1", 7, 5.0, 1700000000)))
	require.NoError(t, s.Create(ctx, newIntent("T2", 7, 5.005, 1700000100)))
	require.NoError(t, s.Create(ctx, newIntent("T3", 8, 5.0, 1700000200)))

	intents, err := s.ListPendingByUser(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, intents, 2)
	for _, it := range intents {
		assert.Equal(t, int64(7), it.UserID)
	}
}

func TestClaimPaid(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newIntent("T1", 1, 10.0, 1700000000)))

	won, err := s.ClaimPaid(ctx, "T1", "0xhash", time.Unix(1700000100, 0))
	require.NoError(t, err)
	require.True(t, won)

	got, err := s.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, model.IntentStatusPaid, got.Status)
	assert.Equal(t, "0xhash", got.TxHash)
	assert.Equal(t, int64(1700000100), got.PaidAt)

	t.Run("second claim loses", func(t *testing.T) {
		won, err := s.ClaimPaid(ctx, "T1", "0xother", time.Unix(1700000200, 0))
		require.NoError(t, err)
		assert.False(t, won)

		got, err := s.Get(ctx, "T1")
		require.NoError(t, err)
		assert.Equal(t, "0xhash", got.TxHash, "tx_hash is write-once")
	})
}

func TestReleaseClaim(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newIntent("T1", 1, 10.0, 1700000000)))

	won, err := s.ClaimPaid(ctx, "T1", "0xhash", time.Unix(1700000100, 0))
	require.NoError(t, err)
	require.True(t, won)

	require.NoError(t, s.ReleaseClaim(ctx, "T1"))

	got, err := s.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, model.IntentStatusPending, got.Status)
	assert.Empty(t, got.TxHash)

	pending, err := s.ListPending(ctx, time.Unix(0, 0))
	require.NoError(t, err)
	require.Len(t, pending, 1)

	t.Run("claim can be won again after release", func(t *testing.T) {
		won, err := s.ClaimPaid(ctx, "T1", "0xhash2", time.Unix(1700000300, 0))
		require.NoError(t, err)
		assert.True(t, won)
	})
}

func TestMarkExpired(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newIntent("T1", 1, 10.0, 1700000000)))
	require.NoError(t, s.MarkExpired(ctx, "T1"))

	got, err := s.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, model.IntentStatusExpired, got.Status)

	pending, err := s.ListPending(ctx, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Empty(t, pending)

	t.Run("expired intent cannot be claimed", func(t *testing.T) {
		won, err := s.ClaimPaid(ctx, "T1", "0xhash", time.Unix(1700000100, 0))
		require.NoError(t, err)
		assert.False(t, won)
	})
}

func TestStaleIndexEntrySkipped(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newIntent("T1", 1, 10.0, 1700000000)))

	// Simulate the record's TTL elapsing while the index entry survives.
	mr.Del("usdt:intent:T1")

	pending, err := s.ListPending(ctx, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Empty(t, pending)
}
