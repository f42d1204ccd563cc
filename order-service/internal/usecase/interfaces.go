package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/director74/order_saga/order-service/internal/entity"
)

// Участники отвечают false при бизнес-отказе и возвращают ошибку
// при сбое инфраструктуры. Вызовы идемпотентны по ID заказа.

type InventoryService interface {
	ReserveStock(ctx context.Context, orderID, productID uint, quantity int) (bool, error)
	ReleaseStock(ctx context.Context, orderID, productID uint, quantity int) (bool, error)
}

type PaymentService interface {
	ProcessPayment(ctx context.Context, orderID uint, amount decimal.Decimal) (bool, error)
	RefundPayment(ctx context.Context, orderID uint, amount decimal.Decimal) (bool, error)
}

type ShippingService interface {
	PrepareShipment(ctx context.Context, orderID uint) (bool, error)
	CancelShipment(ctx context.Context, orderID uint) (bool, error)
}

// OrderRepository - хранилище заказов для usecase
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uint) (*entity.Order, error)
	ListOrdersByUserID(ctx context.Context, userID uint, limit, offset int) ([]entity.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, orderID uint, status entity.OrderStatus) error
}

type SagaRepository interface {
	Create(ctx context.Context, saga *entity.OrderSaga, details map[string]interface{}) error
	SaveTransition(ctx context.Context, saga *entity.OrderSaga, from entity.SagaState, details map[string]interface{}) error
	GetByID(ctx context.Context, id uint) (*entity.OrderSaga, error)
	ListByOrderID(ctx context.Context, orderID uint) ([]entity.OrderSaga, error)
	CountActiveByOrderID(ctx context.Context, orderID uint) (int64, error)
}

// RabbitMQClient публикует события саги
type RabbitMQClient interface {
	PublishMessage(exchange, routingKey string, message interface{}) error
	PublishMessageWithRetry(exchange, routingKey string, message interface{}, retries int) error
}

// SagaMetrics принимает телеметрию саги
type SagaMetrics interface {
	SagaStarted()
	SagaFinished(state entity.SagaState, duration time.Duration)
	StepFailed(step string, kind entity.FailureKind)
	CompensationFailed(step string)
	ConcurrentAttempt()
}

type nopMetrics struct{}

func (nopMetrics) SagaStarted() {}
func (nopMetrics) SagaFinished(entity.SagaState, time.Duration) {}
func (nopMetrics) StepFailed(string, entity.FailureKind) {}
func (nopMetrics) CompensationFailed(string) {}
func (nopMetrics) ConcurrentAttempt() {}
