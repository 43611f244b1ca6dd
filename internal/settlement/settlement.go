package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/hexpanel/usdt-reconciler/internal/store"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
)

// ErrSettlementFailed means the order system refused the paid transition. The
// intent claim has been released; the next cycle retries with the same hash.
var ErrSettlementFailed = errors.New("order settlement failed")

// Request is the normalized "this intent is paid by this transaction" signal
// produced by the polling loop and the notification intake alike.
type Request struct {
	TradeNo string
	TxHash  string
}

type IService interface {
	// Settle marks the intent and its order paid, at most once per trade_no.
	// Losing the idempotency claim is a silent no-op: someone else settled.
	Settle(ctx context.Context, req Request) error
}

type service struct {
	db     *gorm.DB
	store  *store.Store
	logger *logger.Logger
}

func New(db *gorm.DB, s *store.Store, logger *logger.Logger) IService {
	return &service{
		db:     db,
		store:  s,
		logger: logger,
	}
}

func (s *service) Settle(ctx context.Context, req Request) error {
	won, err := s.store.Intent.ClaimPaid(ctx, req.TradeNo, req.TxHash, time.Now())
	if err != nil {
		s.logger.Error("[Settle][ClaimPaid]", map[string]string{
			"trade_no": req.TradeNo,
			"tx_hash":  req.TxHash,
			"error":    err.Error(),
		})
		return err
	}
	if !won {
		s.logger.Info(fmt.Sprintf("[Settle] %s already settled, skipping", req.TradeNo))
		return nil
	}

	ok, err := s.store.Order.MarkPaid(s.db, req.TradeNo, req.TxHash)
	if err != nil || !ok {
		fields := map[string]string{
			"trade_no": req.TradeNo,
			"tx_hash":  req.TxHash,
		}
		if err != nil {
			fields["error"] = err.Error()
		}
		s.logger.Error("[Settle][MarkPaid]", fields)

		// Hand the claim back so the intent stays retryable; the hash is not
		// reported as consumed.
		if releaseErr := s.store.Intent.ReleaseClaim(ctx, req.TradeNo); releaseErr != nil {
			s.logger.Error("[Settle][ReleaseClaim]", map[string]string{
				"trade_no": req.TradeNo,
				"error":    releaseErr.Error(),
			})
		}
		if err != nil {
			return errors.Wrap(ErrSettlementFailed, err.Error())
		}
		return ErrSettlementFailed
	}

	s.logger.Info(fmt.Sprintf("[Settle] order %s paid with tx %s", req.TradeNo, req.TxHash))
	return nil
}
