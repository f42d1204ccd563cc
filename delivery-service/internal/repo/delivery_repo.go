package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/director74/order_saga/delivery-service/internal/entity"
	apperrors "github.com/director74/order_saga/pkg/errors"
)

type DeliveryRepo struct {
	db *gorm.DB
}

func NewDeliveryRepo(db *gorm.DB) *DeliveryRepo {
	return &DeliveryRepo{
		db: db,
	}
}

func (r *DeliveryRepo) GetByOrderID(ctx context.Context, orderID uint) (*entity.Shipment, error) {
	var shipment entity.Shipment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&shipment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("отгрузка по заказу", orderID)
		}
		return nil, fmt.Errorf("ошибка при получении отгрузки заказа %d: %w", orderID, err)
	}
	return &shipment, nil
}

// Prepare создает отгрузку заказа, если подготовленных отгрузок меньше maxActive,
// иначе возвращает entity.ErrNoCapacity. Подготовленная или отправленная отгрузка
// заказа возвращается как есть. maxActive <= 0 снимает ограничение.
func (r *DeliveryRepo) Prepare(ctx context.Context, orderID uint, maxActive int, trackingCode string) (*entity.Shipment, error) {
	var shipment entity.Shipment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockShipment(tx, orderID)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status != entity.ShipmentStatusCancelled {
			shipment = *existing
			return nil
		}

		if maxActive > 0 {
			var active int64
			if err := tx.Model(&entity.Shipment{}).
				Where("status = ?", entity.ShipmentStatusPrepared).
				Count(&active).Error; err != nil {
				return err
			}
			if active >= int64(maxActive) {
				return entity.ErrNoCapacity
			}
		}

		if existing != nil {
			existing.Status = entity.ShipmentStatusPrepared
			existing.TrackingCode = trackingCode
			if err := tx.Save(existing).Error; err != nil {
				return err
			}
			shipment = *existing
			return nil
		}

		shipment = entity.Shipment{
			OrderID:      orderID,
			Status:       entity.ShipmentStatusPrepared,
			TrackingCode: trackingCode,
		}
		return tx.Create(&shipment).Error
	})
	if err != nil {
		if errors.Is(err, entity.ErrNoCapacity) {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка при подготовке отгрузки заказа %d: %w", orderID, err)
	}
	return &shipment, nil
}

// Cancel сообщает, была ли отменена подготовленная отгрузка
func (r *DeliveryRepo) Cancel(ctx context.Context, orderID uint) (bool, error) {
	cancelled := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockShipment(tx, orderID)
		if err != nil {
			return err
		}
		if existing == nil || existing.Status != entity.ShipmentStatusPrepared {
			return nil
		}
		if err := tx.Model(existing).Update("status", entity.ShipmentStatusCancelled).Error; err != nil {
			return err
		}
		cancelled = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("ошибка при отмене отгрузки заказа %d: %w", orderID, err)
	}
	return cancelled, nil
}

// Dispatch передает подготовленную отгрузку перевозчику и освобождает слот.
// Сообщает, была ли отгрузка отправлена.
func (r *DeliveryRepo) Dispatch(ctx context.Context, orderID uint) (bool, error) {
	dispatched := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockShipment(tx, orderID)
		if err != nil {
			return err
		}
		if existing == nil || existing.Status != entity.ShipmentStatusPrepared {
			return nil
		}
		if err := tx.Model(existing).Update("status", entity.ShipmentStatusDispatched).Error; err != nil {
			return err
		}
		dispatched = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("ошибка при отправке отгрузки заказа %d: %w", orderID, err)
	}
	return dispatched, nil
}

func lockShipment(tx *gorm.DB, orderID uint) (*entity.Shipment, error) {
	var shipment entity.Shipment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		First(&shipment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}
