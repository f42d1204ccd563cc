package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/director74/order_saga/order-service/internal/entity"
	"github.com/director74/order_saga/pkg/auth"
	apperrors "github.com/director74/order_saga/pkg/errors"
)

// OrderService реализует usecase.OrderUseCase
type OrderService interface {
	CreateOrder(ctx context.Context, userID uint, username string, req entity.CreateOrderRequest) (*entity.Order, error)
	GetOrder(ctx context.Context, userID, orderID uint) (*entity.Order, error)
	ListUserOrders(ctx context.Context, userID uint, limit, offset int) (entity.ListOrdersResponse, error)
	ProcessOrder(ctx context.Context, userID, orderID uint) (*entity.OrderSaga, error)
	GetSaga(ctx context.Context, userID, sagaID uint) (*entity.OrderSaga, error)
	ListOrderSagas(ctx context.Context, userID, orderID uint) ([]entity.OrderSaga, error)
	ResumeCompensation(ctx context.Context, sagaID uint) (*entity.OrderSaga, error)
}

type OrderHandler struct {
	orders           OrderService
	authMiddleware   gin.HandlerFunc
	internalAPIGuard gin.HandlerFunc
	metricsHandler   http.Handler
}

func NewOrderHandler(orders OrderService, authMiddleware, internalAPIGuard gin.HandlerFunc, metricsHandler http.Handler) *OrderHandler {
	return &OrderHandler{
		orders:           orders,
		authMiddleware:   authMiddleware,
		internalAPIGuard: internalAPIGuard,
		metricsHandler:   metricsHandler,
	}
}

func (h *OrderHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)
	if h.metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(h.metricsHandler))
	}

	api := router.Group("/api/v1")
	{
		authorized := api.Group("")
		authorized.Use(h.authMiddleware)
		{
			authorized.POST("/orders", h.CreateOrder)
			authorized.GET("/orders", h.ListUserOrders)
			authorized.GET("/orders/:id", h.GetOrder)
			authorized.POST("/orders/:id/process", h.ProcessOrder)
			authorized.GET("/orders/:id/sagas", h.ListOrderSagas)
			authorized.GET("/sagas/:id", h.GetSaga)
		}

		internal := api.Group("/internal")
		internal.Use(h.internalAPIGuard)
		{
			internal.POST("/sagas/:id/compensate", h.ResumeCompensation)
		}
	}
}

func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req entity.CreateOrderRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	customer, _ := auth.CustomerFromContext(c)
	order, err := h.orders.CreateOrder(c.Request.Context(), customer.ID, customer.Name, req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), auth.CustomerID(c), id)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListUserOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	resp, err := h.orders.ListUserOrders(c.Request.Context(), auth.CustomerID(c), limit, offset)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ProcessOrder синхронно выполняет сагу и возвращает итоговую запись.
// Отмененная сага тоже отдается с 200, причина лежит в записи.
func (h *OrderHandler) ProcessOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	record, err := h.orders.ProcessOrder(c.Request.Context(), auth.CustomerID(c), id)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *OrderHandler) GetSaga(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	record, err := h.orders.GetSaga(c.Request.Context(), auth.CustomerID(c), id)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *OrderHandler) ListOrderSagas(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	records, err := h.orders.ListOrderSagas(c.Request.Context(), auth.CustomerID(c), id)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"sagas": records})
}

func (h *OrderHandler) ResumeCompensation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	record, err := h.orders.ResumeCompensation(c.Request.Context(), id)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, record)
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, apperrors.ErrorResponse("invalid "+param, nil))
		c.Abort()
		return 0, false
	}
	return uint(id), true
}
