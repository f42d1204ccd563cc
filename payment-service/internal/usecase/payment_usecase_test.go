package usecase

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/director74/order_saga/payment-service/internal/entity"
	apperrors "github.com/director74/order_saga/pkg/errors"
)

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *entity.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByOrderID(ctx context.Context, orderID uint) (*entity.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payment), args.Error(1)
}

func newUseCase(limit int64) (*PaymentUseCase, *MockPaymentRepository) {
	repo := new(MockPaymentRepository)
	uc := NewPaymentUseCase(repo, decimal.NewFromInt(limit), zerolog.Nop())
	uc.newTxID = func() string { return "tx-1" }
	return uc, repo
}

func notFound(orderID uint) error {
	return apperrors.NewNotFoundError("платеж по заказу", orderID)
}

func TestCharge_Completed(t *testing.T) {
	uc, repo := newUseCase(1000)
	repo.On("GetByOrderID", mock.Anything, uint(42)).Return(nil, notFound(42))
	repo.On("Save", mock.Anything, mock.MatchedBy(func(p *entity.Payment) bool {
		return p.OrderID == 42 && p.Status == entity.PaymentStatusCompleted && p.Amount.Equal(decimal.NewFromInt(250))
	})).Return(nil)

	resp, err := uc.Charge(context.Background(), entity.PaymentRequest{OrderID: 42, Amount: decimal.NewFromInt(250)})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "tx-1", resp.TransactionID)
	repo.AssertExpectations(t)
}

func TestCharge_DeclinedAboveLimit(t *testing.T) {
	uc, repo := newUseCase(100)
	repo.On("GetByOrderID", mock.Anything, uint(42)).Return(nil, notFound(42))
	repo.On("Save", mock.Anything, mock.MatchedBy(func(p *entity.Payment) bool {
		return p.Status == entity.PaymentStatusDeclined
	})).Return(nil)

	resp, err := uc.Charge(context.Background(), entity.PaymentRequest{OrderID: 42, Amount: decimal.NewFromInt(250)})

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, entity.DeclineAmountLimit, resp.Message)
}

func TestCharge_ZeroLimitAcceptsAnyAmount(t *testing.T) {
	uc, repo := newUseCase(0)
	repo.On("GetByOrderID", mock.Anything, uint(42)).Return(nil, notFound(42))
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	resp, err := uc.Charge(context.Background(), entity.PaymentRequest{OrderID: 42, Amount: decimal.NewFromInt(1_000_000)})

	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestCharge_RepeatedChargeDoesNotChargeAgain(t *testing.T) {
	uc, repo := newUseCase(1000)
	repo.On("GetByOrderID", mock.Anything, uint(42)).Return(&entity.Payment{
		ID: 5, OrderID: 42, Amount: decimal.NewFromInt(250), Status: entity.PaymentStatusCompleted, TransactionID: "tx-0",
	}, nil)

	resp, err := uc.Charge(context.Background(), entity.PaymentRequest{OrderID: 42, Amount: decimal.NewFromInt(250)})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "tx-0", resp.TransactionID)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCharge_InvalidAmount(t *testing.T) {
	uc, repo := newUseCase(1000)

	_, err := uc.Charge(context.Background(), entity.PaymentRequest{OrderID: 42})

	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	repo.AssertNotCalled(t, "GetByOrderID", mock.Anything, mock.Anything)
}

func TestCharge_StoreFailure(t *testing.T) {
	uc, repo := newUseCase(1000)
	repo.On("GetByOrderID", mock.Anything, uint(42)).Return(nil, assert.AnError)

	_, err := uc.Charge(context.Background(), entity.PaymentRequest{OrderID: 42, Amount: decimal.NewFromInt(250)})

	assert.ErrorIs(t, err, assert.AnError)
}

func TestRefund_CompletedPayment(t *testing.T) {
	uc, repo := newUseCase(1000)
	repo.On("GetByOrderID", mock.Anything, uint(42)).Return(&entity.Payment{
		ID: 5, OrderID: 42, Amount: decimal.NewFromInt(250), Status: entity.PaymentStatusCompleted,
	}, nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(p *entity.Payment) bool {
		return p.Status == entity.PaymentStatusRefunded
	})).Return(nil)

	resp, err := uc.Refund(context.Background(), entity.PaymentRequest{OrderID: 42, Amount: decimal.NewFromInt(250)})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, entity.PaymentStatusRefunded, resp.Status)
}

func TestRefund_WithoutPaymentSucceeds(t *testing.T) {
	uc, repo := newUseCase(1000)
	repo.On("GetByOrderID", mock.Anything, uint(42)).Return(nil, notFound(42))

	resp, err := uc.Refund(context.Background(), entity.PaymentRequest{OrderID: 42})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRefund_AlreadyRefunded(t *testing.T) {
	uc, repo := newUseCase(1000)
	repo.On("GetByOrderID", mock.Anything, uint(42)).Return(&entity.Payment{
		ID: 5, OrderID: 42, Status: entity.PaymentStatusRefunded,
	}, nil)

	resp, err := uc.Refund(context.Background(), entity.PaymentRequest{OrderID: 42})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
