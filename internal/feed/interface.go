package feed

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/hexpanel/usdt-reconciler/internal/model"
)

// ErrFeedUnavailable covers transport failures, non-2xx replies, and bodies
// the client cannot parse. Callers treat the intent as still pending and retry
// on the next cycle.
var ErrFeedUnavailable = errors.New("transaction feed unavailable")

// ErrUnknownNetwork is returned for a network with no configured feed.
var ErrUnknownNetwork = errors.New("network not configured")

// ITransactionFeed reports incoming token transfers for an address, newest
// first, normalized to token units. Pure I/O adapter; all matching decisions
// live in the engine.
type ITransactionFeed interface {
	Fetch(ctx context.Context, network model.Network, address string, from time.Time) ([]model.TransferEvent, error)
}
