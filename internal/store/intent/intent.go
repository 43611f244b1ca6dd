package intent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/hexpanel/usdt-reconciler/internal/model"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
)

const (
	intentKeyPrefix = "usdt:intent:"
	claimKeyPrefix  = "usdt:intent:claim:"
	pendingIndexKey = "usdt:intents:pending"
)

type store struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

func New(rdb *redis.Client, ttl time.Duration, logger *logger.Logger) IStore {
	return &store{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func intentKey(tradeNo string) string {
	return intentKeyPrefix + tradeNo
}

func claimKey(tradeNo string) string {
	return claimKeyPrefix + tradeNo
}

func (s *store) Create(ctx context.Context, intent *model.PaymentIntent) error {
	if err := s.put(ctx, intent); err != nil {
		return err
	}
	return s.rdb.SAdd(ctx, pendingIndexKey, intent.TradeNo).Err()
}

func (s *store) Get(ctx context.Context, tradeNo string) (*model.PaymentIntent, error) {
	raw, err := s.rdb.Get(ctx, intentKey(tradeNo)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get payment intent")
	}

	var intent model.PaymentIntent
	if err := json.Unmarshal([]byte(raw), &intent); err != nil {
		return nil, errors.Wrap(err, "decode payment intent")
	}
	return &intent, nil
}

func (s *store) ListPending(ctx context.Context, since time.Time) ([]model.PaymentIntent, error) {
	tradeNos, err := s.rdb.SMembers(ctx, pendingIndexKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list pending index")
	}

	intents := make([]model.PaymentIntent, 0, len(tradeNos))
	for _, tradeNo := range tradeNos {
		intent, err := s.Get(ctx, tradeNo)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Record outlived by its TTL; drop the stale index entry.
				s.rdb.SRem(ctx, pendingIndexKey, tradeNo)
				continue
			}
			return nil, err
		}
		if intent.Status != model.IntentStatusPending {
			s.rdb.SRem(ctx, pendingIndexKey, tradeNo)
			continue
		}
		if intent.CreatedAt < since.Unix() {
			continue
		}
		intents = append(intents, *intent)
	}
	return intents, nil
}

func (s *store) ListPendingByUser(ctx context.Context, userID int64) ([]model.PaymentIntent, error) {
	all, err := s.ListPending(ctx, time.Unix(0, 0))
	if err != nil {
		return nil, err
	}

	intents := make([]model.PaymentIntent, 0, len(all))
	for _, intent := range all {
		if intent.UserID == userID {
			intents = append(intents, intent)
		}
	}
	return intents, nil
}

func (s *store) MarkExpired(ctx context.Context, tradeNo string) error {
	intent, err := s.Get(ctx, tradeNo)
	if err != nil {
		return err
	}
	if intent.Status != model.IntentStatusPending {
		return nil
	}

	intent.Status = model.IntentStatusExpired
	if err := s.put(ctx, intent); err != nil {
		return err
	}
	return s.rdb.SRem(ctx, pendingIndexKey, tradeNo).Err()
}

func (s *store) ClaimPaid(ctx context.Context, tradeNo, txHash string, paidAt time.Time) (bool, error) {
	won, err := s.rdb.SetNX(ctx, claimKey(tradeNo), txHash, s.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "claim paid transition")
	}
	if !won {
		return false, nil
	}

	intent, err := s.Get(ctx, tradeNo)
	if err != nil {
		s.rdb.Del(ctx, claimKey(tradeNo))
		return false, err
	}
	if intent.Status != model.IntentStatusPending {
		s.rdb.Del(ctx, claimKey(tradeNo))
		return false, nil
	}

	intent.Status = model.IntentStatusPaid
	intent.TxHash = txHash
	intent.PaidAt = paidAt.Unix()
	if err := s.put(ctx, intent); err != nil {
		s.rdb.Del(ctx, claimKey(tradeNo))
		return false, err
	}

	s.rdb.SRem(ctx, pendingIndexKey, tradeNo)
	return true, nil
}

func (s *store) ReleaseClaim(ctx context.Context, tradeNo string) error {
	intent, err := s.Get(ctx, tradeNo)
	if err != nil {
		return err
	}

	intent.Status = model.IntentStatusPending
	intent.TxHash = ""
	intent.PaidAt = 0
	if err := s.put(ctx, intent); err != nil {
		return err
	}

	if err := s.rdb.SAdd(ctx, pendingIndexKey, tradeNo).Err(); err != nil {
		return err
	}
	return s.rdb.Del(ctx, claimKey(tradeNo)).Err()
}

func (s *store) put(ctx context.Context, intent *model.PaymentIntent) error {
	raw, err := json.Marshal(intent)
	if err != nil {
		return errors.Wrap(err, "encode payment intent")
	}
	return s.rdb.Set(ctx, intentKey(intent.TradeNo), raw, s.ttl).Err()
}
