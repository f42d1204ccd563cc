package rabbitmq

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/director74/order_saga/pkg/messaging"
	"github.com/director74/order_saga/pkg/saga"
)

const (
	SagaEventsQueue = "notification_saga_events"
	consumerName    = "notification-service"
	handleTimeout   = 10 * time.Second
)

type SagaEventHandler interface {
	HandleSagaEvent(ctx context.Context, event saga.SagaEvent) error
}

// SagaConsumer превращает итоги саг заказов в уведомления покупателям
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

func (c *SagaConsumer) Setup() error {
	if err := c.broker.DeclareQueue(SagaEventsQueue); err != nil {
		return err
	}
	if err := c.broker.BindQueue(SagaEventsQueue, saga.Exchange, saga.RoutingKeyAll); err != nil {
		return err
	}
	return c.broker.ConsumeMessages(SagaEventsQueue, consumerName, c.Handle)
}

// Handle пропускает некорректные события, ошибка возвращает сообщение в очередь
func (c *SagaConsumer) Handle(data []byte) error {
	event, err := saga.ParseSagaEvent(data)
	if err != nil {
		c.logger.Error().Err(err).Msg("пропускаем некорректное событие саги")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	return c.handler.HandleSagaEvent(ctx, event)
}
