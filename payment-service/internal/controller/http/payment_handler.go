package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/director74/order_saga/payment-service/internal/entity"
	apperrors "github.com/director74/order_saga/pkg/errors"
)

type PaymentService interface {
	Charge(ctx context.Context, req entity.PaymentRequest) (entity.PaymentResponse, error)
	Refund(ctx context.Context, req entity.PaymentRequest) (entity.PaymentResponse, error)
	GetPaymentForOrder(ctx context.Context, orderID uint) (*entity.Payment, error)
}

type PaymentHandler struct {
	payments      PaymentService
	internalGuard gin.HandlerFunc
}

func NewPaymentHandler(payments PaymentService, internalGuard gin.HandlerFunc) *PaymentHandler {
	return &PaymentHandler{
		payments:      payments,
		internalGuard: internalGuard,
	}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api/v1")
	{
		api.GET("/payments/order/:order_id", h.GetPaymentForOrder)

		internal := api.Group("/internal")
		internal.Use(h.internalGuard)
		{
			internal.POST("/payments/charge", h.Charge)
			internal.POST("/payments/refund", h.Refund)
		}
	}
}

func (h *PaymentHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Charge отвечает 402 Payment Required при отказе в оплате
func (h *PaymentHandler) Charge(c *gin.Context) {
	var req entity.PaymentRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	resp, err := h.payments.Charge(c.Request.Context(), req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	if !resp.Success {
		c.JSON(http.StatusPaymentRequired, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) Refund(c *gin.Context) {
	var req entity.PaymentRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	resp, err := h.payments.Refund(c.Request.Context(), req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) GetPaymentForOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("order_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, apperrors.ErrorResponse("invalid order id", nil))
		return
	}

	payment, err := h.payments.GetPaymentForOrder(c.Request.Context(), uint(orderID))
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, payment)
}
