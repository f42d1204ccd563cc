package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/director74/order_saga/delivery-service/internal/entity"
	apperrors "github.com/director74/order_saga/pkg/errors"
)

type DeliveryService interface {
	PrepareShipment(ctx context.Context, req entity.ShipmentRequest) (entity.ShipmentResponse, error)
	CancelShipment(ctx context.Context, req entity.ShipmentRequest) (entity.ShipmentResponse, error)
	GetShipmentForOrder(ctx context.Context, orderID uint) (*entity.Shipment, error)
}

type DeliveryHandler struct {
	deliveries    DeliveryService
	internalGuard gin.HandlerFunc
}

func NewDeliveryHandler(deliveries DeliveryService, internalGuard gin.HandlerFunc) *DeliveryHandler {
	return &DeliveryHandler{
		deliveries:    deliveries,
		internalGuard: internalGuard,
	}
}

func (h *DeliveryHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api/v1")
	{
		api.GET("/shipments/order/:order_id", h.GetShipmentForOrder)

		internal := api.Group("/internal")
		internal.Use(h.internalGuard)
		{
			internal.POST("/shipments/prepare", h.PrepareShipment)
			internal.POST("/shipments/cancel", h.CancelShipment)
		}
	}
}

func (h *DeliveryHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PrepareShipment отвечает 409 Conflict, если свободных слотов доставки нет
func (h *DeliveryHandler) PrepareShipment(c *gin.Context) {
	var req entity.ShipmentRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	resp, err := h.deliveries.PrepareShipment(c.Request.Context(), req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	if !resp.Success {
		c.JSON(http.StatusConflict, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DeliveryHandler) CancelShipment(c *gin.Context) {
	var req entity.ShipmentRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	resp, err := h.deliveries.CancelShipment(c.Request.Context(), req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *DeliveryHandler) GetShipmentForOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("order_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, apperrors.ErrorResponse("invalid order id", nil))
		return
	}

	shipment, err := h.deliveries.GetShipmentForOrder(c.Request.Context(), uint(orderID))
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, shipment)
}
