package reconciler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/hexpanel/usdt-reconciler/internal/engine"
	"github.com/hexpanel/usdt-reconciler/internal/feed"
	"github.com/hexpanel/usdt-reconciler/internal/model"
	"github.com/hexpanel/usdt-reconciler/internal/monitoring"
	"github.com/hexpanel/usdt-reconciler/internal/settlement"
	"github.com/hexpanel/usdt-reconciler/internal/store"
	"github.com/hexpanel/usdt-reconciler/internal/utils/config"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
)

const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
)

// CycleResult reports one reconciliation pass. A skipped cycle performed no
// feed calls at all.
type CycleResult struct {
	Status       string `json:"status"`
	PendingCount int    `json:"pending_count"`
	CheckedCount int    `json:"checked_count"`
	MatchedCount int    `json:"processed_count"`
	ExpiredCount int    `json:"expired_count"`
	NextCheck    int64  `json:"next_check"`
}

type IReconciler interface {
	// RunCycle scans pending intents once, debounced by the shared
	// checkpoint. Safe to invoke from the scheduler and the HTTP trigger
	// concurrently; at most one caller per interval does any work.
	RunCycle(ctx context.Context) (*CycleResult, error)
}

type reconciler struct {
	db        *gorm.DB
	store     *store.Store
	feed      feed.ITransactionFeed
	engine    *engine.Engine
	settler   settlement.IService
	appConfig *config.AppConfig
	logger    *logger.Logger
	metrics   *monitoring.Metrics
}

func New(
	db *gorm.DB,
	s *store.Store,
	txFeed feed.ITransactionFeed,
	matchEngine *engine.Engine,
	settler settlement.IService,
	appConfig *config.AppConfig,
	logger *logger.Logger,
	metrics *monitoring.Metrics,
) IReconciler {
	return &reconciler{
		db:        db,
		store:     s,
		feed:      txFeed,
		engine:    matchEngine,
		settler:   settler,
		appConfig: appConfig,
		logger:    logger,
		metrics:   metrics,
	}
}

func (r *reconciler) RunCycle(ctx context.Context) (*CycleResult, error) {
	now := time.Now()

	won, next, err := r.store.Checkpoint.TryAdvance(ctx, now, r.appConfig.Payment.CheckInterval)
	if err != nil {
		r.metrics.CyclesTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	if !won {
		r.logger.Info("[RunCycle] interval not elapsed, skipping", map[string]string{
			"next_check": next.Format(time.RFC3339),
		})
		r.metrics.CyclesTotal.WithLabelValues(StatusSkipped).Inc()
		return &CycleResult{Status: StatusSkipped, NextCheck: next.Unix()}, nil
	}

	r.logger.Info("[RunCycle] start checking pending payments...")

	intents, err := r.store.Intent.ListPending(ctx, now.Add(-r.appConfig.Payment.ScanWindow))
	if err != nil {
		r.logger.Error("[RunCycle][ListPending]", map[string]string{
			"error": err.Error(),
		})
		r.metrics.CyclesTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	result := &CycleResult{
		Status:       StatusCompleted,
		PendingCount: len(intents),
		NextCheck:    next.Unix(),
	}

	for i := range intents {
		intent := &intents[i]

		// Overdue intents are swept without a feed call; no quota is spent
		// on an order nobody can pay anymore.
		if intent.ExpiredAt(now) {
			if err := r.store.Intent.MarkExpired(ctx, intent.TradeNo); err != nil {
				r.logger.Error("[RunCycle][MarkExpired]", map[string]string{
					"trade_no": intent.TradeNo,
					"error":    err.Error(),
				})
				continue
			}
			result.ExpiredCount++
			r.metrics.IntentsExpired.Inc()
			continue
		}

		if r.checkIntent(ctx, intent, now) {
			result.MatchedCount++
			r.metrics.IntentsMatched.Inc()
		}
		result.CheckedCount++
		r.metrics.IntentsChecked.Inc()
	}

	r.logger.Info(fmt.Sprintf("[RunCycle] done, %d matched of %d pending", result.MatchedCount, result.PendingCount), map[string]string{
		"expired": strconv.Itoa(result.ExpiredCount),
	})
	r.metrics.CyclesTotal.WithLabelValues(StatusCompleted).Inc()

	return result, nil
}

// checkIntent runs one intent against the feed. Failures are logged and
// swallowed: one slow or broken explorer call never aborts the cycle.
func (r *reconciler) checkIntent(ctx context.Context, intent *model.PaymentIntent, now time.Time) bool {
	events, err := r.feed.Fetch(ctx, intent.Network, intent.WalletAddress, time.Unix(intent.CreatedAt, 0))
	if err != nil {
		r.logger.Error("[RunCycle][Fetch]", map[string]string{
			"trade_no": intent.TradeNo,
			"address":  intent.WalletAddress,
			"network":  string(intent.Network),
			"error":    err.Error(),
		})
		r.metrics.FeedErrors.Inc()
		return false
	}

	match := r.engine.FindMatch(intent, events, now)
	if match == nil {
		return false
	}

	r.logger.Info(fmt.Sprintf("[RunCycle] matching transfer %s for %s, amount %.4f", match.Hash, intent.TradeNo, match.Amount))

	if err := r.settler.Settle(ctx, settlement.Request{TradeNo: intent.TradeNo, TxHash: match.Hash}); err != nil {
		r.logger.Error("[RunCycle][Settle]", map[string]string{
			"trade_no": intent.TradeNo,
			"tx_hash":  match.Hash,
			"amount":   fmt.Sprintf("%.4f", match.Amount),
			"error":    err.Error(),
		})
		return false
	}

	return true
}
