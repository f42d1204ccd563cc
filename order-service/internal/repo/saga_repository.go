package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/director74/order_saga/order-service/internal/entity"
	apperrors "github.com/director74/order_saga/pkg/errors"
)

// SagaRepository хранит записи саг вместе с историей переходов.
// Запись обновляется и строка истории добавляется в одной транзакции,
// поэтому переходы саги применяются в порядке их выполнения.
type SagaRepository interface {
	Create(ctx context.Context, saga *entity.OrderSaga, details map[string]interface{}) error
	SaveTransition(ctx context.Context, saga *entity.OrderSaga, from entity.SagaState, details map[string]interface{}) error
	GetByID(ctx context.Context, id uint) (*entity.OrderSaga, error)
	ListByOrderID(ctx context.Context, orderID uint) ([]entity.OrderSaga, error)
	CountActiveByOrderID(ctx context.Context, orderID uint) (int64, error)
}

type sagaRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSagaRepository(db *gorm.DB) SagaRepository {
	return &sagaRepository{db: db, now: time.Now}
}

// Create вставляет сагу и ее первый переход, здесь же назначается saga.ID
func (r *sagaRepository) Create(ctx context.Context, saga *entity.OrderSaga, details map[string]interface{}) error {
	now := r.now()
	saga.CreatedAt = now
	saga.UpdatedAt = now

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Transitions").Create(saga).Error; err != nil {
			return err
		}
		return tx.Create(newTransition(saga, "", details, now)).Error
	})
	if err != nil {
		return fmt.Errorf("ошибка при создании саги для заказа %d: %w", saga.OrderID, err)
	}
	return nil
}

// SaveTransition сохраняет saga.CurrentState и saga.ErrorMessage как переход из состояния from
func (r *sagaRepository) SaveTransition(ctx context.Context, saga *entity.OrderSaga, from entity.SagaState, details map[string]interface{}) error {
	now := r.now()
	if now.Before(saga.CreatedAt) {
		now = saga.CreatedAt
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.OrderSaga{}).
			Where("id = ?", saga.ID).
			Updates(map[string]interface{}{
				"current_state": saga.CurrentState,
				"error_message": saga.ErrorMessage,
				"updated_at":    now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.NewNotFoundError("сага", saga.ID)
		}
		return tx.Create(newTransition(saga, from, details, now)).Error
	})
	if err != nil {
		return fmt.Errorf("ошибка при сохранении перехода саги %d %s -> %s: %w", saga.ID, from, saga.CurrentState, err)
	}

	saga.UpdatedAt = now
	return nil
}

func (r *sagaRepository) GetByID(ctx context.Context, id uint) (*entity.OrderSaga, error) {
	var saga entity.OrderSaga
	err := r.db.WithContext(ctx).
		Preload("Transitions", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&saga, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("сага", id)
		}
		return nil, fmt.Errorf("ошибка при получении саги %d: %w", id, err)
	}
	return &saga, nil
}

func (r *sagaRepository) ListByOrderID(ctx context.Context, orderID uint) ([]entity.OrderSaga, error) {
	var sagas []entity.OrderSaga
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&sagas).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении саг заказа %d: %w", orderID, err)
	}
	return sagas, nil
}

// CountActiveByOrderID считает саги заказа, не дошедшие до конечного состояния
func (r *sagaRepository) CountActiveByOrderID(ctx context.Context, orderID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.OrderSaga{}).
		Where("order_id = ? AND current_state NOT IN ?", orderID,
			[]entity.SagaState{entity.SagaStateCompleted, entity.SagaStateCancelled}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчете активных саг заказа %d: %w", orderID, err)
	}
	return count, nil
}

func newTransition(saga *entity.OrderSaga, from entity.SagaState, details map[string]interface{}, at time.Time) *entity.SagaTransition {
	var d datatypes.JSONMap
	if len(details) > 0 {
		d = datatypes.JSONMap(details)
	}
	return &entity.SagaTransition{
		SagaID:       saga.ID,
		FromState:    from,
		ToState:      saga.CurrentState,
		ErrorMessage: saga.ErrorMessage,
		Details:      d,
		CreatedAt:    at,
	}
}
