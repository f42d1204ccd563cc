package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusDeclined  PaymentStatus = "declined"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

const DeclineAmountLimit = "amount exceeds the payment limit"

// Payment - списание по заказу, на заказ не больше одного.
type Payment struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	OrderID       uint            `json:"order_id" gorm:"not null;uniqueIndex"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(18,2);not null"`
	Status        PaymentStatus   `json:"status" gorm:"type:varchar(20);not null"`
	TransactionID string          `json:"transaction_id,omitempty" gorm:"size:64"`
	DeclineReason string          `json:"decline_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// PaymentRequest - тело внутренних запросов списания и возврата
type PaymentRequest struct {
	OrderID uint            `json:"order_id" binding:"required"`
	Amount  decimal.Decimal `json:"amount"`
}

type PaymentResponse struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message,omitempty"`
	OrderID       uint          `json:"order_id"`
	PaymentID     uint          `json:"payment_id,omitempty"`
	Status        PaymentStatus `json:"status,omitempty"`
	TransactionID string        `json:"transaction_id,omitempty"`
}
