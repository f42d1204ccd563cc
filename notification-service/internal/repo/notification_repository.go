package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/director74/order_saga/notification-service/internal/entity"
	apperrors "github.com/director74/order_saga/pkg/errors"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{
		db: db,
	}
}

// CreateIfAbsent вставляет уведомление, если для саги его еще нет.
// Сообщает, была ли вставлена строка.
func (r *NotificationRepository) CreateIfAbsent(ctx context.Context, notification *entity.Notification) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "saga_id"}}, DoNothing: true}).
		Create(notification)
	if result.Error != nil {
		return false, fmt.Errorf("ошибка при создании уведомления для саги %d: %w", notification.SagaID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *NotificationRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&entity.Notification{}).Where("id = ?", id).
		Update("status", status).Error
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uint) (*entity.Notification, error) {
	var notification entity.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("уведомление", id)
		}
		return nil, fmt.Errorf("ошибка при получении уведомления %d: %w", id, err)
	}
	return &notification, nil
}

// List возвращает уведомления от новых к старым, при ненулевом orderID только по заказу
func (r *NotificationRepository) List(ctx context.Context, orderID uint, limit, offset int) ([]entity.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Notification{})
	if orderID != 0 {
		query = query.Where("order_id = ?", orderID)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("ошибка при подсчете уведомлений: %w", err)
	}

	var notifications []entity.Notification
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("ошибка при получении списка уведомлений: %w", err)
	}
	return notifications, total, nil
}
