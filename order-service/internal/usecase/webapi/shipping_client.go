package webapi

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
)

type shipmentRequest struct {
	OrderID uint `json:"order_id"`
}

type ShippingClient struct {
	client
}

func NewShippingClient(cfg ClientConfig, logger zerolog.Logger) *ShippingClient {
	return &ShippingClient{client: newClient("delivery-service", cfg, logger)}
}

func (c *ShippingClient) PrepareShipment(ctx context.Context, orderID uint) (bool, error) {
	return c.post(ctx, "/api/v1/internal/shipments/prepare", "prepare_shipment", orderID,
		shipmentRequest{OrderID: orderID}, http.StatusConflict)
}

func (c *ShippingClient) CancelShipment(ctx context.Context, orderID uint) (bool, error) {
	return c.post(ctx, "/api/v1/internal/shipments/cancel", "cancel_shipment", orderID,
		shipmentRequest{OrderID: orderID}, http.StatusConflict)
}
