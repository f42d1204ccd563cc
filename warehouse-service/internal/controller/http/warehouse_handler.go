package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/director74/order_saga/pkg/errors"
	"github.com/director74/order_saga/warehouse-service/internal/entity"
)

type WarehouseService interface {
	CreateProduct(ctx context.Context, req entity.CreateProductRequest) (*entity.ProductResponse, error)
	GetProduct(ctx context.Context, id uint) (*entity.ProductResponse, error)
	ListProducts(ctx context.Context, limit, offset int) (entity.ListProductsResponse, error)
	ReserveStock(ctx context.Context, req entity.StockRequest) (entity.StockResponse, error)
	ReleaseStock(ctx context.Context, req entity.StockRequest) (entity.StockResponse, error)
	GetReservation(ctx context.Context, orderID uint) (*entity.Reservation, error)
}

type WarehouseHandler struct {
	warehouse     WarehouseService
	internalGuard gin.HandlerFunc
}

func NewWarehouseHandler(warehouse WarehouseService, internalGuard gin.HandlerFunc) *WarehouseHandler {
	return &WarehouseHandler{
		warehouse:     warehouse,
		internalGuard: internalGuard,
	}
}

func (h *WarehouseHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api/v1")
	{
		api.POST("/products", h.CreateProduct)
		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)

		// вызывается сагой заказа
		internal := api.Group("/internal")
		internal.Use(h.internalGuard)
		{
			internal.POST("/stock/reserve", h.ReserveStock)
			internal.POST("/stock/release", h.ReleaseStock)
			internal.GET("/stock/reservations/:order_id", h.GetReservation)
		}
	}
}

func (h *WarehouseHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *WarehouseHandler) CreateProduct(c *gin.Context) {
	var req entity.CreateProductRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	product, err := h.warehouse.CreateProduct(c.Request.Context(), req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *WarehouseHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, apperrors.ErrorResponse("invalid product id", nil))
		return
	}

	product, err := h.warehouse.GetProduct(c.Request.Context(), uint(id))
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *WarehouseHandler) ListProducts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	resp, err := h.warehouse.ListProducts(c.Request.Context(), limit, offset)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ReserveStock отвечает 409, если товара не хватает
func (h *WarehouseHandler) ReserveStock(c *gin.Context) {
	var req entity.StockRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	resp, err := h.warehouse.ReserveStock(c.Request.Context(), req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	writeStockResponse(c, resp)
}

func (h *WarehouseHandler) ReleaseStock(c *gin.Context) {
	var req entity.StockRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	resp, err := h.warehouse.ReleaseStock(c.Request.Context(), req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	writeStockResponse(c, resp)
}

func (h *WarehouseHandler) GetReservation(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("order_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, apperrors.ErrorResponse("invalid order id", nil))
		return
	}

	reservation, err := h.warehouse.GetReservation(c.Request.Context(), uint(orderID))
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, reservation)
}

func writeStockResponse(c *gin.Context, resp entity.StockResponse) {
	if !resp.Success {
		c.JSON(http.StatusConflict, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
