package webapi

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
)

type stockRequest struct {
	OrderID   uint `json:"order_id"`
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// InventoryClient - клиент сервиса склада
type InventoryClient struct {
	client
}

func NewInventoryClient(cfg ClientConfig, logger zerolog.Logger) *InventoryClient {
	return &InventoryClient{client: newClient("warehouse-service", cfg, logger)}
}

// ReserveStock возвращает false, если на складе не хватает товара
func (c *InventoryClient) ReserveStock(ctx context.Context, orderID, productID uint, quantity int) (bool, error) {
	return c.post(ctx, "/api/v1/internal/stock/reserve", "reserve_stock", orderID,
		stockRequest{OrderID: orderID, ProductID: productID, Quantity: quantity}, http.StatusConflict)
}

func (c *InventoryClient) ReleaseStock(ctx context.Context, orderID, productID uint, quantity int) (bool, error) {
	return c.post(ctx, "/api/v1/internal/stock/release", "release_stock", orderID,
		stockRequest{OrderID: orderID, ProductID: productID, Quantity: quantity}, http.StatusConflict)
}
