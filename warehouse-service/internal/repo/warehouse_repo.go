package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/director74/order_saga/warehouse-service/internal/entity"
	apperrors "github.com/director74/order_saga/pkg/errors"
)

// WarehouseRepo хранит товары и резервы по заказам
type WarehouseRepo struct {
	db *gorm.DB
}

func NewWarehouseRepo(db *gorm.DB) *WarehouseRepo {
	return &WarehouseRepo{
		db: db,
	}
}

func (r *WarehouseRepo) CreateProduct(ctx context.Context, product *entity.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("ошибка при создании товара: %w", err)
	}
	return nil
}

func (r *WarehouseRepo) GetProductByID(ctx context.Context, id uint) (*entity.Product, error) {
	var product entity.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("товар", id)
		}
		return nil, fmt.Errorf("ошибка при получении товара %d: %w", id, err)
	}
	return &product, nil
}

func (r *WarehouseRepo) ListProducts(ctx context.Context, limit, offset int) ([]entity.Product, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.Product{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("ошибка при подсчете товаров: %w", err)
	}

	var products []entity.Product
	if err := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("ошибка при получении списка товаров: %w", err)
	}
	return products, total, nil
}

func (r *WarehouseRepo) GetReservationByOrderID(ctx context.Context, orderID uint) (*entity.Reservation, error) {
	var reservation entity.Reservation
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&reservation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("резерв по заказу", orderID)
		}
		return nil, fmt.Errorf("ошибка при получении резерва заказа %d: %w", orderID, err)
	}
	return &reservation, nil
}

// Reserve резервирует quantity товара под заказ. Повторный вызов для заказа
// с активным резервом возвращает этот резерв без изменений.
// Если товара не хватает, возвращается entity.ErrInsufficientStock.
func (r *WarehouseRepo) Reserve(ctx context.Context, orderID, productID uint, quantity int) (*entity.Reservation, error) {
	var reservation entity.Reservation

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockReservation(tx, orderID)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status != entity.ReservationStatusReleased {
			reservation = *existing
			return nil
		}

		var product entity.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return entity.ErrInsufficientStock
			}
			return err
		}
		if product.Available() < int64(quantity) {
			return entity.ErrInsufficientStock
		}

		if err := tx.Model(&product).Update("reserved", gorm.Expr("reserved + ?", quantity)).Error; err != nil {
			return err
		}

		if existing != nil {
			// снятый резерв переиспользуется при повторной обработке заказа
			existing.ProductID = productID
			existing.Quantity = quantity
			existing.Status = entity.ReservationStatusActive
			if err := tx.Save(existing).Error; err != nil {
				return err
			}
			reservation = *existing
			return nil
		}

		reservation = entity.Reservation{
			OrderID:   orderID,
			ProductID: productID,
			Quantity:  quantity,
			Status:    entity.ReservationStatusActive,
		}
		return tx.Create(&reservation).Error
	})
	if err != nil {
		if errors.Is(err, entity.ErrInsufficientStock) {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка при резервировании товара для заказа %d: %w", orderID, err)
	}
	return &reservation, nil
}

// Release снимает резерв заказа. Без активного резерва ничего не делает,
// для уже списанного резерва возвращает entity.ErrReservationCommitted.
func (r *WarehouseRepo) Release(ctx context.Context, orderID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockReservation(tx, orderID)
		if err != nil {
			return err
		}
		if existing == nil || existing.Status == entity.ReservationStatusReleased {
			return nil
		}
		if existing.Status == entity.ReservationStatusCommitted {
			return entity.ErrReservationCommitted
		}

		if err := tx.Model(&entity.Product{}).
			Where("id = ?", existing.ProductID).
			Update("reserved", gorm.Expr("reserved - ?", existing.Quantity)).Error; err != nil {
			return err
		}
		return tx.Model(existing).Update("status", entity.ReservationStatusReleased).Error
	})
	if err != nil {
		if errors.Is(err, entity.ErrReservationCommitted) {
			return err
		}
		return fmt.Errorf("ошибка при снятии резерва заказа %d: %w", orderID, err)
	}
	return nil
}

// Commit превращает активный резерв в списание остатка и сообщает, было ли что списывать.
func (r *WarehouseRepo) Commit(ctx context.Context, orderID uint) (bool, error) {
	committed := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockReservation(tx, orderID)
		if err != nil {
			return err
		}
		if existing == nil || existing.Status != entity.ReservationStatusActive {
			return nil
		}

		if err := tx.Model(&entity.Product{}).
			Where("id = ?", existing.ProductID).
			Updates(map[string]interface{}{
				"stock":    gorm.Expr("stock - ?", existing.Quantity),
				"reserved": gorm.Expr("reserved - ?", existing.Quantity),
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(existing).Update("status", entity.ReservationStatusCommitted).Error; err != nil {
			return err
		}
		committed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("ошибка при списании резерва заказа %d: %w", orderID, err)
	}
	return committed, nil
}

// lockReservation возвращает nil без ошибки, если у заказа нет резерва
func lockReservation(tx *gorm.DB, orderID uint) (*entity.Reservation, error) {
	var reservation entity.Reservation
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reservation, nil
}
