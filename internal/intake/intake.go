package intake

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/hexpanel/usdt-reconciler/internal/engine"
	"github.com/hexpanel/usdt-reconciler/internal/settlement"
	"github.com/hexpanel/usdt-reconciler/internal/store/intent"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
)

// successSentinel is the provider's "payment completed" status value; any
// other bizStatus is rejected outright.
const successSentinel = "PAY_SUCCESS"

var (
	// ErrInvalidPayload covers missing required fields and unparseable
	// embedded descriptors. Permanent for the request, no state change.
	ErrInvalidPayload = errors.New("invalid notification payload")

	// ErrNoMatchingIntent means the payload was well-formed but no pending
	// intent corresponds to it.
	ErrNoMatchingIntent = errors.New("no matching payment intent")
)

// IIntake normalizes push-style provider callbacks into the same settlement
// request the polling loop produces.
type IIntake interface {
	Ingest(ctx context.Context, payload map[string]interface{}) (*settlement.Request, error)
}

type service struct {
	intents intent.IStore
	engine  *engine.Engine
	logger  *logger.Logger
}

func New(intents intent.IStore, matchEngine *engine.Engine, logger *logger.Logger) IIntake {
	return &service{
		intents: intents,
		engine:  matchEngine,
		logger:  logger,
	}
}

// embeddedDescriptor is the structured payment descriptor carried as a JSON
// string inside the provider payload.
type embeddedDescriptor struct {
	MerchantTradeNo string `json:"merchantTradeNo"`
}

func (s *service) Ingest(ctx context.Context, payload map[string]interface{}) (*settlement.Request, error) {
	status, ok := payload["bizStatus"]
	if !ok {
		s.logger.Error("[Ingest] bizStatus not found", nil)
		return nil, errors.Wrap(ErrInvalidPayload, "bizStatus missing")
	}
	if cast.ToString(status) != successSentinel {
		s.logger.Error("[Ingest] bizStatus is not success", map[string]string{
			"bizStatus": cast.ToString(status),
		})
		return nil, errors.Wrapf(ErrInvalidPayload, "bizStatus %q", cast.ToString(status))
	}

	if raw, ok := payload["data"]; ok {
		return s.ingestDescriptor(ctx, payload, cast.ToString(raw))
	}
	return s.ingestByUserAmount(ctx, payload)
}

// ingestDescriptor handles providers that identify the payment by order id.
func (s *service) ingestDescriptor(ctx context.Context, payload map[string]interface{}, raw string) (*settlement.Request, error) {
	var descriptor embeddedDescriptor
	if err := json.Unmarshal([]byte(raw), &descriptor); err != nil {
		s.logger.Error("[Ingest] undecodable data descriptor", map[string]string{
			"error": err.Error(),
		})
		return nil, errors.Wrap(ErrInvalidPayload, "invalid data descriptor")
	}
	if descriptor.MerchantTradeNo == "" {
		s.logger.Error("[Ingest] merchantTradeNo not found", nil)
		return nil, errors.Wrap(ErrInvalidPayload, "merchantTradeNo missing")
	}

	if _, err := s.intents.Get(ctx, descriptor.MerchantTradeNo); err != nil {
		if errors.Is(err, intent.ErrNotFound) {
			s.logger.Error("[Ingest] no intent for trade_no", map[string]string{
				"trade_no": descriptor.MerchantTradeNo,
			})
			return nil, errors.Wrapf(ErrNoMatchingIntent, "trade_no %s", descriptor.MerchantTradeNo)
		}
		return nil, err
	}

	txHash := cast.ToString(payload["bizIdStr"])
	if txHash == "" {
		txHash = descriptor.MerchantTradeNo
	}

	s.logger.Info(fmt.Sprintf("[Ingest] order %s notified paid", descriptor.MerchantTradeNo))
	return &settlement.Request{TradeNo: descriptor.MerchantTradeNo, TxHash: txHash}, nil
}

// ingestByUserAmount handles providers that only report (user_id, amount):
// scan that user's pending intents and take the first within tolerance, the
// same rule the polling path applies.
func (s *service) ingestByUserAmount(ctx context.Context, payload map[string]interface{}) (*settlement.Request, error) {
	for _, field := range []string{"user_id", "tx_hash", "amount"} {
		if _, ok := payload[field]; !ok {
			s.logger.Error("[Ingest] missing required field", map[string]string{
				"field": field,
			})
			return nil, errors.Wrapf(ErrInvalidPayload, "%s missing", field)
		}
	}

	userID := cast.ToInt64(payload["user_id"])
	amount := cast.ToFloat64(payload["amount"])
	txHash := cast.ToString(payload["tx_hash"])

	intents, err := s.intents.ListPendingByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range intents {
		if s.engine.AmountMatches(intents[i].Amount, amount) {
			s.logger.Info(fmt.Sprintf("[Ingest] order %s matched by amount for user %d", intents[i].TradeNo, userID))
			return &settlement.Request{TradeNo: intents[i].TradeNo, TxHash: txHash}, nil
		}
	}

	s.logger.Error("[Ingest] no matching order", map[string]string{
		"user_id": cast.ToString(payload["user_id"]),
		"amount":  fmt.Sprintf("%.4f", amount),
	})
	return nil, errors.Wrapf(ErrNoMatchingIntent, "user %d amount %.4f", userID, amount)
}
