package webapi

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type paymentRequest struct {
	OrderID uint            `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
}

type PaymentClient struct {
	client
}

func NewPaymentClient(cfg ClientConfig, logger zerolog.Logger) *PaymentClient {
	return &PaymentClient{client: newClient("payment-service", cfg, logger)}
}

// ProcessPayment возвращает false на 402 Payment Required
func (c *PaymentClient) ProcessPayment(ctx context.Context, orderID uint, amount decimal.Decimal) (bool, error) {
	return c.post(ctx, "/api/v1/internal/payments/charge", "charge", orderID,
		paymentRequest{OrderID: orderID, Amount: amount}, http.StatusPaymentRequired)
}

func (c *PaymentClient) RefundPayment(ctx context.Context, orderID uint, amount decimal.Decimal) (bool, error) {
	return c.post(ctx, "/api/v1/internal/payments/refund", "refund", orderID,
		paymentRequest{OrderID: orderID, Amount: amount}, http.StatusPaymentRequired)
}
