package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusCreated          OrderStatus = "order_created"
	OrderStatusStockReserved    OrderStatus = "stock_reserved"
	OrderStatusPaymentCompleted OrderStatus = "payment_completed"
	OrderStatusShipmentPrepared OrderStatus = "shipment_prepared"
	OrderStatusCompleted        OrderStatus = "order_completed"
	OrderStatusCancelled        OrderStatus = "cancelled"
)

// Order - заказ покупателя на один товар
type Order struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	UserID       uint            `json:"user_id" gorm:"index"`
	CustomerName string          `json:"customer_name" gorm:"size:200;not null"`
	ProductID    uint            `json:"product_id" gorm:"not null;index"`
	Quantity     int             `json:"quantity" gorm:"not null"`
	TotalAmount  decimal.Decimal `json:"total_amount" gorm:"type:numeric(18,2);not null"`
	Status       OrderStatus     `json:"status" gorm:"type:varchar(50);not null;index"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

type CreateOrderRequest struct {
	CustomerName string          `json:"customer_name"`
	ProductID    uint            `json:"product_id" binding:"required"`
	Quantity     int             `json:"quantity" binding:"required,min=1"`
	TotalAmount  decimal.Decimal `json:"total_amount" binding:"required"`
}

type ListOrdersResponse struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
}
