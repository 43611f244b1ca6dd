package intent

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/hexpanel/usdt-reconciler/internal/model"
)

var ErrNotFound = errors.New("payment intent not found")

type IStore interface {
	// Create stores a new intent under its TTL and indexes it as pending.
	Create(ctx context.Context, intent *model.PaymentIntent) error

	Get(ctx context.Context, tradeNo string) (*model.PaymentIntent, error)

	// ListPending returns pending intents created at or after since, in the
	// store's natural order.
	ListPending(ctx context.Context, since time.Time) ([]model.PaymentIntent, error)

	// ListPendingByUser serves the push-notification path that identifies
	// payments by (user_id, amount).
	ListPendingByUser(ctx context.Context, userID int64) ([]model.PaymentIntent, error)

	MarkExpired(ctx context.Context, tradeNo string) error

	// ClaimPaid atomically wins the pending->paid transition for a trade_no.
	// Exactly one caller gets true; the winner's intent is rewritten with the
	// hash and paid timestamp. Losers must not settle.
	ClaimPaid(ctx context.Context, tradeNo, txHash string, paidAt time.Time) (bool, error)

	// ReleaseClaim reverts a claimed intent to pending after a settlement
	// failure so the next cycle retries it.
	ReleaseClaim(ctx context.Context, tradeNo string) error
}
