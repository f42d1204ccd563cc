package entity

import (
	"time"

	"gorm.io/datatypes"
)

// SagaState упорядочен по ходу саги, а не по строковому значению
type SagaState string

const (
	SagaStateCreated                    SagaState = "created"
	SagaStateReservingInventory         SagaState = "reserving_inventory"
	SagaStateInventoryReserved          SagaState = "inventory_reserved"
	SagaStateProcessingPayment          SagaState = "processing_payment"
	SagaStatePaymentProcessed           SagaState = "payment_processed"
	SagaStatePreparingShipment          SagaState = "preparing_shipment"
	SagaStateCompleted                  SagaState = "completed"
	SagaStateInventoryReservationFailed SagaState = "inventory_reservation_failed"
	SagaStatePaymentFailed              SagaState = "payment_failed"
	SagaStateShippingFailed             SagaState = "shipping_failed"
	SagaStateCancelled                  SagaState = "cancelled"
)

func (s SagaState) IsTerminal() bool {
	return s == SagaStateCompleted || s == SagaStateCancelled
}

func (s SagaState) IsFailed() bool {
	switch s {
	case SagaStateInventoryReservationFailed, SagaStatePaymentFailed, SagaStateShippingFailed:
		return true
	}
	return false
}

func (s SagaState) String() string {
	return string(s)
}

// OrderSaga - один запуск саги для заказа.
// ErrorMessage заполняется при сбое и очищается при успешном завершении.
type OrderSaga struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	OrderID      uint             `json:"order_id" gorm:"not null;index"`
	CurrentState SagaState        `json:"current_state" gorm:"type:varchar(50);not null;index"`
	ErrorMessage string           `json:"error_message" gorm:"type:text"`
	CreatedAt    time.Time        `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time        `json:"updated_at" gorm:"not null"`
	Transitions  []SagaTransition `json:"transitions,omitempty" gorm:"foreignKey:SagaID"`
}

func (OrderSaga) TableName() string {
	return "order_sagas"
}

// SagaTransition - сохраненная смена состояния саги
type SagaTransition struct {
	ID           uint              `json:"id" gorm:"primaryKey"`
	SagaID       uint              `json:"saga_id" gorm:"not null;index"`
	FromState    SagaState         `json:"from_state" gorm:"type:varchar(50)"`
	ToState      SagaState         `json:"to_state" gorm:"type:varchar(50);not null"`
	ErrorMessage string            `json:"error_message,omitempty" gorm:"type:text"`
	Details      datatypes.JSONMap `json:"details,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time         `json:"created_at" gorm:"not null"`
}

func (SagaTransition) TableName() string {
	return "saga_transitions"
}
