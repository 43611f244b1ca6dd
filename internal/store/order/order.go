package order

import (
	"time"

	"gorm.io/gorm"

	"github.com/hexpanel/usdt-reconciler/internal/model"
)

type store struct {
}

func New() IStore {
	return &store{}
}

func (s *store) Create(db *gorm.DB, order *model.Order) (*model.Order, error) {
	return order, db.Create(order).Error
}

func (s *store) GetByTradeNo(db *gorm.DB, tradeNo string) (*model.Order, error) {
	var order model.Order
	if err := db.Where("trade_no = ?", tradeNo).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *store) FindPendingCreatedSince(db *gorm.DB, since time.Time) ([]model.Order, error) {
	var orders []model.Order
	err := db.
		Where("status = ?", model.OrderStatusPending).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (s *store) MarkPaid(db *gorm.DB, tradeNo, callbackNo string) (bool, error) {
	result := db.Model(&model.Order{}).
		Where("trade_no = ? AND status = ?", tradeNo, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":      model.OrderStatusPaid,
			"callback_no": callbackNo,
			"paid_at":     time.Now(),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	// No row transitioned: re-delivery of the same settlement is still a
	// success, anything else is a failure.
	existing, err := s.GetByTradeNo(db, tradeNo)
	if err != nil {
		return false, err
	}
	return existing.Status == model.OrderStatusPaid && existing.CallbackNo == callbackNo, nil
}
