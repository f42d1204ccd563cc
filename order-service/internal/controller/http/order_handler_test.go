package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/director74/order_saga/order-service/internal/entity"
	"github.com/director74/order_saga/pkg/auth"
	apperrors "github.com/director74/order_saga/pkg/errors"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, userID uint, username string, req entity.CreateOrderRequest) (*entity.Order, error) {
	args := m.Called(ctx, userID, username, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, userID, orderID uint) (*entity.Order, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderService) ListUserOrders(ctx context.Context, userID uint, limit, offset int) (entity.ListOrdersResponse, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).(entity.ListOrdersResponse), args.Error(1)
}

func (m *MockOrderService) ProcessOrder(ctx context.Context, userID, orderID uint) (*entity.OrderSaga, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.OrderSaga), args.Error(1)
}

func (m *MockOrderService) GetSaga(ctx context.Context, userID, sagaID uint) (*entity.OrderSaga, error) {
	args := m.Called(ctx, userID, sagaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.OrderSaga), args.Error(1)
}

func (m *MockOrderService) ListOrderSagas(ctx context.Context, userID, orderID uint) ([]entity.OrderSaga, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.OrderSaga), args.Error(1)
}

func (m *MockOrderService) ResumeCompensation(ctx context.Context, sagaID uint) (*entity.OrderSaga, error) {
	args := m.Called(ctx, sagaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.OrderSaga), args.Error(1)
}

// fakeAuth подменяет JWT middleware
func fakeAuth(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth.SetCustomer(c, auth.Customer{ID: userID, Name: "alice"})
		c.Next()
	}
}

func denyAll(c *gin.Context) {
	c.AbortWithStatus(http.StatusForbidden)
}

func setupRouter(svc OrderService, internalGuard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewOrderHandler(svc, fakeAuth(7), internalGuard, http.NotFoundHandler()).RegisterRoutes(router)
	return router
}

func perform(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrder(t *testing.T) {
	svc := new(MockOrderService)
	req := entity.CreateOrderRequest{ProductID: 1, Quantity: 5, TotalAmount: decimal.NewFromInt(250)}
	svc.On("CreateOrder", mock.Anything, uint(7), "alice", mock.MatchedBy(func(r entity.CreateOrderRequest) bool {
		return r.ProductID == 1 && r.Quantity == 5 && r.TotalAmount.Equal(decimal.NewFromInt(250))
	})).Return(&entity.Order{ID: 42, UserID: 7, ProductID: 1, Quantity: 5, TotalAmount: decimal.NewFromInt(250)}, nil)

	rec := perform(setupRouter(svc, denyAll), http.MethodPost, "/api/v1/orders", req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var got entity.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint(42), got.ID)
	svc.AssertExpectations(t)
}

func TestCreateOrder_InvalidBody(t *testing.T) {
	svc := new(MockOrderService)

	rec := perform(setupRouter(svc, denyAll), http.MethodPost, "/api/v1/orders", map[string]interface{}{"quantity": 0})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetOrder_NotFound(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("GetOrder", mock.Anything, uint(7), uint(9)).Return(nil, apperrors.NewNotFoundError("заказ", 9))

	rec := perform(setupRouter(svc, denyAll), http.MethodGet, "/api/v1/orders/9", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Не найдено: заказ с ID=9")
}

func TestGetOrder_InvalidID(t *testing.T) {
	rec := perform(setupRouter(new(MockOrderService), denyAll), http.MethodGet, "/api/v1/orders/abc", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUserOrders_ClampsLimit(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("ListUserOrders", mock.Anything, uint(7), 10, 0).
		Return(entity.ListOrdersResponse{Orders: []entity.Order{{ID: 1}}, Total: 1}, nil)

	rec := perform(setupRouter(svc, denyAll), http.MethodGet, "/api/v1/orders?limit=1000&offset=-3", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestProcessOrder_ReturnsCancelledRecord(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("ProcessOrder", mock.Anything, uint(7), uint(42)).Return(&entity.OrderSaga{
		ID:           3,
		OrderID:      42,
		CurrentState: entity.SagaStateCancelled,
		ErrorMessage: entity.ErrMsgInsufficientStock,
	}, nil)

	rec := perform(setupRouter(svc, denyAll), http.MethodPost, "/api/v1/orders/42/process", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got entity.OrderSaga
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, entity.SagaStateCancelled, got.CurrentState)
	assert.Equal(t, entity.ErrMsgInsufficientStock, got.ErrorMessage)
}

func TestProcessOrder_StoreFailure(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("ProcessOrder", mock.Anything, uint(7), uint(42)).Return(nil, assert.AnError)

	rec := perform(setupRouter(svc, denyAll), http.MethodPost, "/api/v1/orders/42/process", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestListOrderSagas(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("ListOrderSagas", mock.Anything, uint(7), uint(42)).
		Return([]entity.OrderSaga{{ID: 1, OrderID: 42}, {ID: 2, OrderID: 42}}, nil)

	rec := perform(setupRouter(svc, denyAll), http.MethodGet, "/api/v1/orders/42/sagas", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Sagas []entity.OrderSaga `json:"sagas"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Sagas, 2)
}

func TestGetSaga(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("GetSaga", mock.Anything, uint(7), uint(3)).Return(&entity.OrderSaga{
		ID:           3,
		OrderID:      42,
		CurrentState: entity.SagaStateCompleted,
		Transitions: []entity.SagaTransition{
			{SagaID: 3, ToState: entity.SagaStateCreated},
		},
	}, nil)

	rec := perform(setupRouter(svc, denyAll), http.MethodGet, "/api/v1/sagas/3", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"completed"`)
}

func TestResumeCompensation_RequiresInternalAccess(t *testing.T) {
	svc := new(MockOrderService)

	rec := perform(setupRouter(svc, denyAll), http.MethodPost, "/api/v1/internal/sagas/3/compensate", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	svc.AssertNotCalled(t, "ResumeCompensation", mock.Anything, mock.Anything)
}

func TestResumeCompensation(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("ResumeCompensation", mock.Anything, uint(3)).
		Return(&entity.OrderSaga{ID: 3, CurrentState: entity.SagaStateCancelled}, nil)
	allow := func(c *gin.Context) { c.Next() }

	rec := perform(setupRouter(svc, allow), http.MethodPost, "/api/v1/internal/sagas/3/compensate", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestResumeCompensation_Conflict(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("ResumeCompensation", mock.Anything, uint(3)).
		Return(nil, apperrors.NewConflictError("сага 3 еще выполняется"))
	allow := func(c *gin.Context) { c.Next() }

	rec := perform(setupRouter(svc, allow), http.MethodPost, "/api/v1/internal/sagas/3/compensate", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRoutesRequireToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	jwtAuth := auth.NewAuthMiddleware(auth.NewTokenManager(auth.NewConfig("secret")))
	NewOrderHandler(new(MockOrderService), jwtAuth.AuthRequired(), denyAll, nil).RegisterRoutes(router)

	rec := perform(router, http.MethodGet, "/api/v1/orders/1", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = perform(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
