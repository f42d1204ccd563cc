package rabbitmq

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/director74/order_saga/pkg/messaging"
	"github.com/director74/order_saga/pkg/saga"
)

const (
	SagaEventsQueue = "warehouse_saga_events"
	consumerName    = "warehouse-service"
	handleTimeout   = 10 * time.Second
)

type SagaEventHandler interface {
	HandleSagaEvent(ctx context.Context, event saga.SagaEvent) error
}

// SagaConsumer применяет итоги саг заказов к резервам товара
type SagaConsumer struct {
	handler SagaEventHandler
	broker  messaging.MessageConsumer
	logger  zerolog.Logger
}

func NewSagaConsumer(handler SagaEventHandler, broker messaging.MessageConsumer, logger zerolog.Logger) *SagaConsumer {
	return &SagaConsumer{
		handler: handler,
		broker:  broker,
		logger:  logger.With().Str("component", "saga_consumer").Logger(),
	}
}

// Setup привязывает очередь ко всем итогам саги и начинает чтение
func (c *SagaConsumer) Setup() error {
	if err := c.broker.DeclareQueue(SagaEventsQueue); err != nil {
		return err
	}
	if err := c.broker.BindQueue(SagaEventsQueue, saga.Exchange, saga.RoutingKeyAll); err != nil {
		return err
	}
	return c.broker.ConsumeMessages(SagaEventsQueue, consumerName, c.Handle)
}

// Handle возвращает ошибку, только если сообщение стоит доставить повторно.
// Некорректные события логируются и отбрасываются.
func (c *SagaConsumer) Handle(data []byte) error {
	event, err := saga.ParseSagaEvent(data)
	if err != nil {
		c.logger.Error().Err(err).Msg("отбрасываем некорректное событие саги")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if err := c.handler.HandleSagaEvent(ctx, event); err != nil {
		c.logger.Error().Err(err).Uint("saga_id", event.SagaID).Uint("order_id", event.OrderID).
			Str("state", event.State).Msg("не удалось применить событие саги")
		return err
	}
	return nil
}
