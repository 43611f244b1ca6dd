package engine

import (
	"math"
	"strings"
	"time"

	"github.com/hexpanel/usdt-reconciler/internal/model"
)

// DefaultTolerance is the absolute token-unit deviation allowed between an
// observed transfer and the expected amount. Absolute rather than relative:
// token granularity differs per network, the panel prices in whole USDT.
const DefaultTolerance = 0.01

// Engine decides whether a transfer event satisfies a payment intent. It is a
// pure function over its inputs so both the polling loop and the push intake
// settle under identical rules.
type Engine struct {
	tolerance float64
}

func New(tolerance float64) *Engine {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Engine{tolerance: tolerance}
}

func (e *Engine) Tolerance() float64 {
	return e.tolerance
}

// FindMatch returns the first event satisfying the intent, or nil. Events are
// expected newest first; no attempt is made to find the closest amount.
func (e *Engine) FindMatch(intent *model.PaymentIntent, events []model.TransferEvent, now time.Time) *model.TransferEvent {
	if intent.ExpiredAt(now) {
		return nil
	}

	for i := range events {
		event := &events[i]
		if !strings.EqualFold(event.ToAddress, intent.WalletAddress) {
			continue
		}
		// Transfers predating the intent can never pay for it; an old
		// deposit must not satisfy a new order.
		if event.Timestamp < intent.CreatedAt {
			continue
		}
		if e.AmountMatches(intent.Amount, event.Amount) {
			return event
		}
	}

	return nil
}

// AmountMatches applies the tolerance check shared by the polling and push
// paths. Boundary inclusive: a deviation of exactly the tolerance matches.
func (e *Engine) AmountMatches(expected, observed float64) bool {
	return math.Abs(observed-expected) <= e.tolerance
}
