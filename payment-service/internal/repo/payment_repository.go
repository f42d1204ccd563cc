package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/director74/order_saga/payment-service/internal/entity"
	apperrors "github.com/director74/order_saga/pkg/errors"
)

type PaymentRepository interface {
	Save(ctx context.Context, payment *entity.Payment) error
	GetByOrderID(ctx context.Context, orderID uint) (*entity.Payment, error)
}

type PaymentRepo struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

// Save вставляет новый платеж или обновляет существующий
func (r *PaymentRepo) Save(ctx context.Context, payment *entity.Payment) error {
	if err := r.db.WithContext(ctx).Save(payment).Error; err != nil {
		return fmt.Errorf("ошибка при сохранении платежа заказа %d: %w", payment.OrderID, err)
	}
	return nil
}

func (r *PaymentRepo) GetByOrderID(ctx context.Context, orderID uint) (*entity.Payment, error) {
	var payment entity.Payment
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("платеж по заказу", orderID)
		}
		return nil, fmt.Errorf("ошибка при получении платежа заказа %d: %w", orderID, err)
	}
	return &payment, nil
}
