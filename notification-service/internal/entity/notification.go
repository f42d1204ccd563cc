package entity

import (
	"time"
)

type NotificationKind string

const (
	NotificationKindOrderCompleted NotificationKind = "order_completed"
	NotificationKindOrderCancelled NotificationKind = "order_cancelled"
)

const (
	NotificationStatusPending = "pending"
	NotificationStatusSent    = "sent"
	NotificationStatusFailed  = "failed"
)

// Notification сообщает покупателю, чем закончилась сага заказа. На сагу одно уведомление.
type Notification struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	SagaID    uint             `json:"saga_id" gorm:"not null;uniqueIndex"`
	OrderID   uint             `json:"order_id" gorm:"not null;index"`
	Recipient string           `json:"recipient" gorm:"size:200"`
	Kind      NotificationKind `json:"kind" gorm:"type:varchar(30);not null"`
	Subject   string           `json:"subject" gorm:"size:200;not null"`
	Message   string           `json:"message" gorm:"type:text"`
	Status    string           `json:"status" gorm:"type:varchar(20);not null"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

type ListNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	Total         int64          `json:"total"`
}
