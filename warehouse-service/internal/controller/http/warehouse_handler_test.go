package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/director74/order_saga/pkg/config"
	apperrors "github.com/director74/order_saga/pkg/errors"
	"github.com/director74/order_saga/pkg/middleware"
	"github.com/director74/order_saga/warehouse-service/internal/entity"
)

type MockWarehouseService struct {
	mock.Mock
}

func (m *MockWarehouseService) CreateProduct(ctx context.Context, req entity.CreateProductRequest) (*entity.ProductResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProductResponse), args.Error(1)
}

func (m *MockWarehouseService) GetProduct(ctx context.Context, id uint) (*entity.ProductResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProductResponse), args.Error(1)
}

func (m *MockWarehouseService) ListProducts(ctx context.Context, limit, offset int) (entity.ListProductsResponse, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).(entity.ListProductsResponse), args.Error(1)
}

func (m *MockWarehouseService) ReserveStock(ctx context.Context, req entity.StockRequest) (entity.StockResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(entity.StockResponse), args.Error(1)
}

func (m *MockWarehouseService) ReleaseStock(ctx context.Context, req entity.StockRequest) (entity.StockResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(entity.StockResponse), args.Error(1)
}

func (m *MockWarehouseService) GetReservation(ctx context.Context, orderID uint) (*entity.Reservation, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Reservation), args.Error(1)
}

const testAPIKey = "test-key"

func setupRouter(svc WarehouseService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	guard := middleware.NewInternalAuthMiddleware(config.InternalAPIConfig{APIKey: testAPIKey})
	NewWarehouseHandler(svc, guard.Required()).RegisterRoutes(router)
	return router
}

func post(router *gin.Engine, path string, body interface{}, apiKey string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-Internal-API-Key", apiKey)
	}
	// не доверенная сеть
	req.RemoteAddr = "203.0.113.7:5000"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReserveStock_Success(t *testing.T) {
	svc := new(MockWarehouseService)
	req := entity.StockRequest{OrderID: 42, ProductID: 1, Quantity: 5}
	svc.On("ReserveStock", mock.Anything, req).Return(entity.StockResponse{Success: true, OrderID: 42}, nil)

	rec := post(setupRouter(svc), "/api/v1/internal/stock/reserve", req, testAPIKey)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestReserveStock_DeclineIs409(t *testing.T) {
	svc := new(MockWarehouseService)
	req := entity.StockRequest{OrderID: 42, ProductID: 1, Quantity: 5}
	svc.On("ReserveStock", mock.Anything, req).
		Return(entity.StockResponse{Success: false, Message: "insufficient stock", OrderID: 42}, nil)

	rec := post(setupRouter(svc), "/api/v1/internal/stock/reserve", req, testAPIKey)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp entity.StockResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "insufficient stock", resp.Message)
}

func TestReserveStock_StoreFailureIs500(t *testing.T) {
	svc := new(MockWarehouseService)
	req := entity.StockRequest{OrderID: 42, ProductID: 1, Quantity: 5}
	svc.On("ReserveStock", mock.Anything, req).Return(entity.StockResponse{}, assert.AnError)

	rec := post(setupRouter(svc), "/api/v1/internal/stock/reserve", req, testAPIKey)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReserveStock_RequiresAPIKey(t *testing.T) {
	svc := new(MockWarehouseService)

	rec := post(setupRouter(svc), "/api/v1/internal/stock/reserve", entity.StockRequest{OrderID: 42, ProductID: 1, Quantity: 5}, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	svc.AssertNotCalled(t, "ReserveStock", mock.Anything, mock.Anything)
}

func TestReleaseStock_InvalidBody(t *testing.T) {
	svc := new(MockWarehouseService)

	rec := post(setupRouter(svc), "/api/v1/internal/stock/release", map[string]int{"quantity": 1}, testAPIKey)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProduct_NotFound(t *testing.T) {
	svc := new(MockWarehouseService)
	svc.On("GetProduct", mock.Anything, uint(5)).Return(nil, apperrors.NewNotFoundError("товар", 5))

	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/5", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
