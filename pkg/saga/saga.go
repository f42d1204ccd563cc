// Package saga содержит сообщения, которыми сервисы обмениваются об итогах саги.
package saga

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Exchange     = "saga_exchange"
	ExchangeKind = "topic"

	RoutingKeyCompleted = "saga.order.completed"
	RoutingKeyCancelled = "saga.order.cancelled"
	// RoutingKeyAll подходит под любой итог саги заказа
	RoutingKeyAll = "saga.order.*"
)

// SagaEvent публикуется один раз, когда сага приходит в конечное состояние
type SagaEvent struct {
	SagaID       uint            `json:"saga_id"`
	OrderID      uint            `json:"order_id"`
	ProductID    uint            `json:"product_id,omitempty"`
	CustomerName string          `json:"customer_name,omitempty"`
	Quantity     int             `json:"quantity,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	State        string          `json:"state"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Timestamp    int64           `json:"timestamp"`
}

func NewSagaEvent(sagaID, orderID uint, state, errorMessage string) SagaEvent {
	return SagaEvent{
		SagaID:       sagaID,
		OrderID:      orderID,
		State:        state,
		ErrorMessage: errorMessage,
		Timestamp:    time.Now().Unix(),
	}
}

// RoutingKey выбирает routing key по конечному состоянию
func (e SagaEvent) RoutingKey() string {
	if e.Completed() {
		return RoutingKeyCompleted
	}
	return RoutingKeyCancelled
}

func (e SagaEvent) Completed() bool {
	return e.State == "completed"
}

func ParseSagaEvent(body []byte) (SagaEvent, error) {
	var event SagaEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("ошибка разбора события саги: %w", err)
	}
	if event.OrderID == 0 {
		return event, fmt.Errorf("в событии саги %d нет order_id", event.SagaID)
	}
	return event, nil
}
