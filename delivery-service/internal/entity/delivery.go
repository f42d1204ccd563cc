package entity

import (
	"errors"
	"time"
)

// ErrNoCapacity возвращается, когда все слоты доставки заняты
var ErrNoCapacity = errors.New("no shipping capacity available")

type ShipmentStatus string

const (
	ShipmentStatusPrepared   ShipmentStatus = "prepared"
	ShipmentStatusDispatched ShipmentStatus = "dispatched"
	ShipmentStatusCancelled  ShipmentStatus = "cancelled"
)

// Shipment - отгрузка заказа, на заказ не больше одной.
type Shipment struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	OrderID      uint           `json:"order_id" gorm:"not null;uniqueIndex"`
	Status       ShipmentStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	TrackingCode string         `json:"tracking_code" gorm:"size:64"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (Shipment) TableName() string {
	return "shipments"
}

// ShipmentRequest - тело внутренних запросов подготовки и отмены
type ShipmentRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

type ShipmentResponse struct {
	Success      bool           `json:"success"`
	Message      string         `json:"message,omitempty"`
	OrderID      uint           `json:"order_id"`
	Status       ShipmentStatus `json:"status,omitempty"`
	TrackingCode string         `json:"tracking_code,omitempty"`
}
