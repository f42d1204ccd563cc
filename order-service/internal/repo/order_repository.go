package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/director74/order_saga/order-service/internal/entity"
	apperrors "github.com/director74/order_saga/pkg/errors"
)

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uint) (*entity.Order, error)
	ListOrdersByUserID(ctx context.Context, userID uint, limit, offset int) ([]entity.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, orderID uint, status entity.OrderStatus) error
}

type OrderRepositoryImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &OrderRepositoryImpl{
		db: db,
	}
}

func (r *OrderRepositoryImpl) Create(ctx context.Context, order *entity.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("ошибка при создании заказа: %w", err)
	}
	return nil
}

// GetByID возвращает ошибку с apperrors.ErrNotFound, если заказа нет
func (r *OrderRepositoryImpl) GetByID(ctx context.Context, id uint) (*entity.Order, error) {
	var order entity.Order
	result := r.db.WithContext(ctx).First(&order, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("заказ", id)
		}
		return nil, fmt.Errorf("ошибка при получении заказа %d: %w", id, result.Error)
	}
	return &order, nil
}

func (r *OrderRepositoryImpl) ListOrdersByUserID(ctx context.Context, userID uint, limit, offset int) ([]entity.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&entity.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("ошибка при подсчете заказов: %w", err)
	}

	var orders []entity.Order
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("ошибка при получении списка заказов: %w", err)
	}

	return orders, total, nil
}

func (r *OrderRepositoryImpl) UpdateOrderStatus(ctx context.Context, orderID uint, status entity.OrderStatus) error {
	result := r.db.WithContext(ctx).Model(&entity.Order{}).Where("id = ?", orderID).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("ошибка при обновлении статуса заказа %d: %w", orderID, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("заказ", orderID)
	}
	return nil
}
