package model

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
)

// Order is the billing-panel order a payment intent settles against.
type Order struct {
	gorm.Model
	TradeNo string `gorm:"column:trade_no;type:varchar(64);not null;uniqueIndex"`
	UserID  int64  `gorm:"column:user_id;not null;index"`
	// Order total in fiat cents; the USDT amount is derived at intent creation.
	TotalAmount int64       `gorm:"column:total_amount;not null"`
	Status      OrderStatus `gorm:"column:status;type:varchar(50);default:'pending'"`
	CallbackNo  string      `gorm:"column:callback_no;type:varchar(128)"`
	PaidAt      *time.Time  `gorm:"column:paid_at"`
}

func (Order) TableName() string {
	return "orders"
}
