package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/director74/order_saga/notification-service/internal/entity"
	apperrors "github.com/director74/order_saga/pkg/errors"
)

type NotificationService interface {
	GetNotification(ctx context.Context, id uint) (*entity.Notification, error)
	ListNotifications(ctx context.Context, orderID uint, limit, offset int) (entity.ListNotificationsResponse, error)
}

type NotificationHandler struct {
	notifications NotificationService
	internalGuard gin.HandlerFunc
}

func NewNotificationHandler(notifications NotificationService, internalGuard gin.HandlerFunc) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		internalGuard: internalGuard,
	}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)

	internal := router.Group("/api/v1/internal")
	internal.Use(h.internalGuard)
	{
		internal.GET("/notifications", h.ListNotifications)
		internal.GET("/notifications/:id", h.GetNotification)
	}
}

func (h *NotificationHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *NotificationHandler) GetNotification(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, apperrors.ErrorResponse("invalid notification id", nil))
		return
	}

	notification, err := h.notifications.GetNotification(c.Request.Context(), uint(id))
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, notification)
}

// ListNotifications фильтрует по необязательному параметру order_id
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	var orderID uint64
	if raw := c.Query("order_id"); raw != "" {
		var err error
		if orderID, err = strconv.ParseUint(raw, 10, 32); err != nil {
			c.JSON(http.StatusBadRequest, apperrors.ErrorResponse("invalid order id", nil))
			return
		}
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	resp, err := h.notifications.ListNotifications(c.Request.Context(), uint(orderID), limit, offset)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}
