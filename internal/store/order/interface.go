package order

import (
	"time"

	"gorm.io/gorm"

	"github.com/hexpanel/usdt-reconciler/internal/model"
)

type IStore interface {
	Create(db *gorm.DB, order *model.Order) (*model.Order, error)

	GetByTradeNo(db *gorm.DB, tradeNo string) (*model.Order, error)

	// FindPendingCreatedSince bounds the reconciliation scan set.
	FindPendingCreatedSince(db *gorm.DB, since time.Time) ([]model.Order, error)

	// MarkPaid transitions an order to paid exactly once. Returns true when
	// this call won the transition, or when the order was already paid with
	// the same callback number (idempotent re-delivery). False otherwise.
	MarkPaid(db *gorm.DB, tradeNo, callbackNo string) (bool, error)
}
