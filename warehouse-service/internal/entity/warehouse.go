package entity

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrReservationCommitted возвращается при снятии резерва, который уже списан
	ErrReservationCommitted = errors.New("reservation is already committed")
)

// Product - товар каталога с остатком
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"size:200;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(18,2);not null"`
	Stock       int64           `json:"stock" gorm:"type:bigint;not null;default:0"`
	Reserved    int64           `json:"reserved" gorm:"type:bigint;not null;default:0"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// Available - остаток, не занятый активными резервами
func (p Product) Available() int64 {
	return p.Stock - p.Reserved
}

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusReleased  ReservationStatus = "released"
	ReservationStatusCommitted ReservationStatus = "committed"
)

// Reservation - резерв товара под заказ, на заказ не больше одного.
type Reservation struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	OrderID   uint              `json:"order_id" gorm:"not null;uniqueIndex"`
	ProductID uint              `json:"product_id" gorm:"not null;index"`
	Quantity  int               `json:"quantity" gorm:"not null"`
	Status    ReservationStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (Reservation) TableName() string {
	return "stock_reservations"
}

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock" binding:"min=0"`
}

// StockRequest - тело внутренних запросов резерва и снятия резерва
type StockRequest struct {
	OrderID   uint `json:"order_id" binding:"required"`
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type StockResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	OrderID uint   `json:"order_id,omitempty"`
}

type ProductResponse struct {
	Product
	Available int64 `json:"available"`
}

type ListProductsResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int64             `json:"total"`
}
