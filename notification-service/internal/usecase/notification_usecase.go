package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/director74/order_saga/notification-service/internal/entity"
	"github.com/director74/order_saga/pkg/saga"
)

type NotificationRepository interface {
	CreateIfAbsent(ctx context.Context, notification *entity.Notification) (bool, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	GetByID(ctx context.Context, id uint) (*entity.Notification, error)
	List(ctx context.Context, orderID uint, limit, offset int) ([]entity.Notification, int64, error)
}

type Sender interface {
	Send(ctx context.Context, to, subject, message string) error
}

type NotificationUseCase struct {
	repo   NotificationRepository
	sender Sender
	logger zerolog.Logger
}

func NewNotificationUseCase(repo NotificationRepository, sender Sender, logger zerolog.Logger) *NotificationUseCase {
	return &NotificationUseCase{
		repo:   repo,
		sender: sender,
		logger: logger.With().Str("component", "notification_usecase").Logger(),
	}
}

// HandleSagaEvent один раз уведомляет покупателя о завершенной саге.
// Повторно доставленное событие находит сохраненное уведомление и ничего не шлет.
// Неудачная отправка фиксируется в уведомлении и не повторяется.
func (uc *NotificationUseCase) HandleSagaEvent(ctx context.Context, event saga.SagaEvent) error {
	notification := buildNotification(event)

	created, err := uc.repo.CreateIfAbsent(ctx, notification)
	if err != nil {
		return err
	}

	log := uc.logger.With().Uint("saga_id", event.SagaID).Uint("order_id", event.OrderID).Logger()
	if !created {
		log.Debug().Msg("уведомление уже записано")
		return nil
	}

	status := entity.NotificationStatusSent
	if err := uc.sender.Send(ctx, notification.Recipient, notification.Subject, notification.Message); err != nil {
		log.Error().Err(err).Msg("не удалось отправить уведомление")
		status = entity.NotificationStatusFailed
	}

	if err := uc.repo.UpdateStatus(ctx, notification.ID, status); err != nil {
		return fmt.Errorf("ошибка при обновлении уведомления %d: %w", notification.ID, err)
	}

	log.Info().Str("kind", string(notification.Kind)).Str("status", status).Msg("уведомление обработано")
	return nil
}

func (uc *NotificationUseCase) GetNotification(ctx context.Context, id uint) (*entity.Notification, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *NotificationUseCase) ListNotifications(ctx context.Context, orderID uint, limit, offset int) (entity.ListNotificationsResponse, error) {
	notifications, total, err := uc.repo.List(ctx, orderID, limit, offset)
	if err != nil {
		return entity.ListNotificationsResponse{}, err
	}
	if notifications == nil {
		notifications = []entity.Notification{}
	}
	return entity.ListNotificationsResponse{Notifications: notifications, Total: total}, nil
}

func buildNotification(event saga.SagaEvent) *entity.Notification {
	n := &entity.Notification{
		SagaID:    event.SagaID,
		OrderID:   event.OrderID,
		Recipient: event.CustomerName,
		Status:    entity.NotificationStatusPending,
	}

	if event.Completed() {
		n.Kind = entity.NotificationKindOrderCompleted
		n.Subject = fmt.Sprintf("Order #%d confirmed", event.OrderID)
		n.Message = fmt.Sprintf("Your order #%d for %s is on its way.", event.OrderID, event.Amount.StringFixed(2))
		return n
	}

	n.Kind = entity.NotificationKindOrderCancelled
	n.Subject = fmt.Sprintf("Order #%d cancelled", event.OrderID)
	n.Message = fmt.Sprintf("Your order #%d was cancelled", event.OrderID)
	if event.ErrorMessage != "" {
		n.Message += ": " + event.ErrorMessage
	}
	n.Message += "."
	return n
}
