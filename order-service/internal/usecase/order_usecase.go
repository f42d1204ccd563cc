package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/director74/order_saga/order-service/internal/entity"
	apperrors "github.com/director74/order_saga/pkg/errors"
)

// SagaRunner - часть оркестратора, которой пользуется OrderUseCase
type SagaRunner interface {
	ProcessOrder(ctx context.Context, orderID uint) (*entity.OrderSaga, error)
	ResumeCompensation(ctx context.Context, sagaID uint) (*entity.OrderSaga, error)
}

type OrderUseCase struct {
	repo     OrderRepository
	sagaRepo SagaRepository
	sagas    SagaRunner
	logger   zerolog.Logger
}

func NewOrderUseCase(orderRepo OrderRepository, sagaRepo SagaRepository, sagas SagaRunner, logger zerolog.Logger) *OrderUseCase {
	return &OrderUseCase{
		repo:     orderRepo,
		sagaRepo: sagaRepo,
		sagas:    sagas,
		logger:   logger.With().Str("component", "order_usecase").Logger(),
	}
}

func (uc *OrderUseCase) CreateOrder(ctx context.Context, userID uint, username string, req entity.CreateOrderRequest) (*entity.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if !req.TotalAmount.IsPositive() {
		return nil, apperrors.NewBadRequestError("total_amount должен быть больше нуля")
	}

	customer := req.CustomerName
	if customer == "" {
		customer = username
	}

	order := &entity.Order{
		UserID:       userID,
		CustomerName: customer,
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		TotalAmount:  req.TotalAmount.Round(2),
		Status:       entity.OrderStatusCreated,
	}
	if err := uc.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	uc.logger.Info().Uint("order_id", order.ID).Uint("user_id", userID).
		Str("amount", order.TotalAmount.StringFixed(2)).Msg("заказ создан")
	return order, nil
}

// GetOrder возвращает заказ, если он принадлежит userID
func (uc *OrderUseCase) GetOrder(ctx context.Context, userID, orderID uint) (*entity.Order, error) {
	order, err := uc.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		// чужие заказы не раскрываем
		return nil, apperrors.NewNotFoundError("заказ", orderID)
	}
	return order, nil
}

func (uc *OrderUseCase) ListUserOrders(ctx context.Context, userID uint, limit, offset int) (entity.ListOrdersResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	orders, total, err := uc.repo.ListOrdersByUserID(ctx, userID, limit, offset)
	if err != nil {
		return entity.ListOrdersResponse{}, err
	}
	return entity.ListOrdersResponse{Orders: orders, Total: total}, nil
}

// ProcessOrder запускает сагу для заказа покупателя и переносит ее итог в статус заказа
func (uc *OrderUseCase) ProcessOrder(ctx context.Context, userID, orderID uint) (*entity.OrderSaga, error) {
	if _, err := uc.GetOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}

	record, err := uc.sagas.ProcessOrder(ctx, orderID)
	if err != nil {
		return record, err
	}

	uc.syncOrderStatus(ctx, record)
	return record, nil
}

func (uc *OrderUseCase) GetSaga(ctx context.Context, userID, sagaID uint) (*entity.OrderSaga, error) {
	record, err := uc.sagaRepo.GetByID(ctx, sagaID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.GetOrder(ctx, userID, record.OrderID); err != nil {
		return nil, apperrors.NewNotFoundError("сага", sagaID)
	}
	return record, nil
}

func (uc *OrderUseCase) ListOrderSagas(ctx context.Context, userID, orderID uint) ([]entity.OrderSaga, error) {
	if _, err := uc.GetOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}
	return uc.sagaRepo.ListByOrderID(ctx, orderID)
}

// ResumeCompensation вызывается операторами через внутреннее API
func (uc *OrderUseCase) ResumeCompensation(ctx context.Context, sagaID uint) (*entity.OrderSaga, error) {
	record, err := uc.sagas.ResumeCompensation(ctx, sagaID)
	if err != nil {
		return record, err
	}

	uc.syncOrderStatus(ctx, record)
	return record, nil
}

func (uc *OrderUseCase) syncOrderStatus(ctx context.Context, record *entity.OrderSaga) {
	var status entity.OrderStatus
	switch record.CurrentState {
	case entity.SagaStateCompleted:
		status = entity.OrderStatusCompleted
	case entity.SagaStateCancelled:
		status = entity.OrderStatusCancelled
	default:
		return
	}

	if err := uc.repo.UpdateOrderStatus(context.WithoutCancel(ctx), record.OrderID, status); err != nil {
		uc.logger.Warn().Err(err).Uint("order_id", record.OrderID).Uint("saga_id", record.ID).
			Str("status", string(status)).Msg("не удалось обновить статус заказа")
	}
}
