package rabbitmq

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/director74/order_saga/pkg/messaging"
	"github.com/director74/order_saga/pkg/saga"
)

const (
	SagaEventsQueue = "delivery_saga_events"
	consumerName    = "delivery-service"
	handleTimeout   = 10 * time.Second
)

type SagaEventHandler interface {
	HandleSagaEvent(ctx context.Context, event saga.SagaEvent) error
}

// SagaConsumer отправляет отгрузки завершенных саг
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

// Setup привязывает очередь к завершенным сагам и начинает чтение
func (c *SagaConsumer) Setup() error {
	if err := c.broker.DeclareQueue(SagaEventsQueue); err != nil {
		return err
	}
	if err := c.broker.BindQueue(SagaEventsQueue, saga.Exchange, saga.RoutingKeyCompleted); err != nil {
		return err
	}
	return c.broker.ConsumeMessages(SagaEventsQueue, consumerName, c.Handle)
}

// Handle возвращает ошибку для повторной доставки сообщения,
// некорректные события отбрасываются.
func (c *SagaConsumer) Handle(data []byte) error {
	event, err := saga.ParseSagaEvent(data)
	if err != nil {
		c.logger.Error().Err(err).Msg("некорректное событие саги пропущено")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if err := c.handler.HandleSagaEvent(ctx, event); err != nil {
		c.logger.Error().Err(err).Uint("saga_id", event.SagaID).Uint("order_id", event.OrderID).
			Msg("не удалось отправить отгрузку")
		return err
	}
	return nil
}
