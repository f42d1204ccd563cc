package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/director74/order_saga/payment-service/internal/entity"
	apperrors "github.com/director74/order_saga/pkg/errors"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Charge(ctx context.Context, req entity.PaymentRequest) (entity.PaymentResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(entity.PaymentResponse), args.Error(1)
}

func (m *MockPaymentService) Refund(ctx context.Context, req entity.PaymentRequest) (entity.PaymentResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(entity.PaymentResponse), args.Error(1)
}

func (m *MockPaymentService) GetPaymentForOrder(ctx context.Context, orderID uint) (*entity.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payment), args.Error(1)
}

func setupRouter(svc PaymentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewPaymentHandler(svc, func(c *gin.Context) { c.Next() }).RegisterRoutes(router)
	return router
}

func post(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCharge_Success(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("Charge", mock.Anything, mock.MatchedBy(func(r entity.PaymentRequest) bool {
		return r.OrderID == 42 && r.Amount.String() == "250"
	})).Return(entity.PaymentResponse{Success: true, OrderID: 42, Status: entity.PaymentStatusCompleted}, nil)

	rec := post(setupRouter(svc), "/api/v1/internal/payments/charge", `{"order_id":42,"amount":"250.00"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestCharge_DeclineIs402(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("Charge", mock.Anything, mock.Anything).
		Return(entity.PaymentResponse{Success: false, OrderID: 42, Message: entity.DeclineAmountLimit}, nil)

	rec := post(setupRouter(svc), "/api/v1/internal/payments/charge", `{"order_id":42,"amount":"250.00"}`)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), entity.DeclineAmountLimit)
}

func TestCharge_BadRequestFromUseCase(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("Charge", mock.Anything, mock.Anything).
		Return(entity.PaymentResponse{}, apperrors.NewBadRequestError("сумма должна быть положительной"))

	rec := post(setupRouter(svc), "/api/v1/internal/payments/charge", `{"order_id":42}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefund(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("Refund", mock.Anything, mock.Anything).
		Return(entity.PaymentResponse{Success: true, OrderID: 42, Status: entity.PaymentStatusRefunded}, nil)

	rec := post(setupRouter(svc), "/api/v1/internal/payments/refund", `{"order_id":42,"amount":250}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetPaymentForOrder_NotFound(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("GetPaymentForOrder", mock.Anything, uint(42)).Return(nil, apperrors.NewNotFoundError("платеж по заказу", 42))

	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/payments/order/42", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
