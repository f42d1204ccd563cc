package usecase

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/director74/order_saga/notification-service/internal/entity"
	"github.com/director74/order_saga/pkg/saga"
)

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) CreateIfAbsent(ctx context.Context, notification *entity.Notification) (bool, error) {
	args := m.Called(ctx, notification)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockNotificationRepository) GetByID(ctx context.Context, id uint) (*entity.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Notification), args.Error(1)
}

func (m *MockNotificationRepository) List(ctx context.Context, orderID uint, limit, offset int) ([]entity.Notification, int64, error) {
	args := m.Called(ctx, orderID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.Notification), args.Get(1).(int64), args.Error(2)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, to, subject, message string) error {
	return m.Called(ctx, to, subject, message).Error(0)
}

func completedEvent() saga.SagaEvent {
	event := saga.NewSagaEvent(3, 42, "completed", "")
	event.CustomerName = "Jane Doe"
	event.Amount = decimal.NewFromInt(250)
	return event
}

func TestHandleSagaEvent_Completed(t *testing.T) {
	repo := new(MockNotificationRepository)
	sender := new(MockSender)
	repo.On("CreateIfAbsent", mock.Anything, mock.MatchedBy(func(n *entity.Notification) bool {
		return n.SagaID == 3 && n.Kind == entity.NotificationKindOrderCompleted
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.Notification).ID = 7
	}).Return(true, nil)
	sender.On("Send", mock.Anything, "Jane Doe", "Order #42 confirmed", "Your order #42 for 250.00 is on its way.").Return(nil)
	repo.On("UpdateStatus", mock.Anything, uint(7), entity.NotificationStatusSent).Return(nil)

	uc := NewNotificationUseCase(repo, sender, zerolog.Nop())

	require.NoError(t, uc.HandleSagaEvent(context.Background(), completedEvent()))
	repo.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestHandleSagaEvent_CancelledCarriesReason(t *testing.T) {
	repo := new(MockNotificationRepository)
	sender := new(MockSender)
	repo.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(true, nil)
	sender.On("Send", mock.Anything, mock.Anything, "Order #42 cancelled", "Your order #42 was cancelled: insufficient stock.").Return(nil)
	repo.On("UpdateStatus", mock.Anything, mock.Anything, entity.NotificationStatusSent).Return(nil)

	uc := NewNotificationUseCase(repo, sender, zerolog.Nop())

	require.NoError(t, uc.HandleSagaEvent(context.Background(), saga.NewSagaEvent(4, 42, "cancelled", "insufficient stock")))
	sender.AssertExpectations(t)
}

func TestHandleSagaEvent_RedeliveryIsNotSentTwice(t *testing.T) {
	repo := new(MockNotificationRepository)
	sender := new(MockSender)
	repo.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(false, nil)

	uc := NewNotificationUseCase(repo, sender, zerolog.Nop())

	require.NoError(t, uc.HandleSagaEvent(context.Background(), completedEvent()))
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleSagaEvent_SendFailureIsRecorded(t *testing.T) {
	repo := new(MockNotificationRepository)
	sender := new(MockSender)
	repo.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(true, nil)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)
	repo.On("UpdateStatus", mock.Anything, mock.Anything, entity.NotificationStatusFailed).Return(nil)

	uc := NewNotificationUseCase(repo, sender, zerolog.Nop())

	require.NoError(t, uc.HandleSagaEvent(context.Background(), completedEvent()))
	repo.AssertExpectations(t)
}

func TestHandleSagaEvent_StoreFailure(t *testing.T) {
	repo := new(MockNotificationRepository)
	repo.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(false, assert.AnError)

	uc := NewNotificationUseCase(repo, new(MockSender), zerolog.Nop())

	assert.ErrorIs(t, uc.HandleSagaEvent(context.Background(), completedEvent()), assert.AnError)
}

func TestListNotifications_EmptyIsNotNull(t *testing.T) {
	repo := new(MockNotificationRepository)
	repo.On("List", mock.Anything, uint(42), 10, 0).Return(nil, int64(0), nil)

	uc := NewNotificationUseCase(repo, new(MockSender), zerolog.Nop())
	resp, err := uc.ListNotifications(context.Background(), 42, 10, 0)

	require.NoError(t, err)
	assert.NotNil(t, resp.Notifications)
	assert.Empty(t, resp.Notifications)
}
