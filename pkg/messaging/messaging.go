package messaging

import (
	"github.com/director74/order_saga/pkg/config"
	"github.com/director74/order_saga/pkg/rabbitmq"
	"github.com/rs/zerolog/log"
)

type MessagePublisher interface {
	PublishMessage(exchange, routingKey string, message interface{}) error
	PublishMessageWithRetry(exchange, routingKey string, message interface{}, retries int) error
}

type MessageConsumer interface {
	DeclareQueue(name string) error
	BindQueue(queueName, exchangeName, routingKey string) error
	ConsumeMessages(queueName, consumerName string, handler func([]byte) error) error
}

// MessageBroker объединяет публикацию, потребление и настройку топологии
type MessageBroker interface {
	MessagePublisher
	MessageConsumer
	DeclareExchange(name string, kind string) error
	Close() error
}

// InitRabbitMQ подключается к RabbitMQ с общими настройками
func InitRabbitMQ(cfg config.RabbitMQConfig) (*rabbitmq.RabbitMQ, error) {
	return rabbitmq.NewRabbitMQ(rabbitmq.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		VHost:    cfg.VHost,
	})
}

// PublishWithRetryAndLogging публикует с повторами и логирует результат
func PublishWithRetryAndLogging(publisher MessagePublisher, exchange, routingKey string, message interface{}, retries int) error {
	err := publisher.PublishMessageWithRetry(exchange, routingKey, message, retries)
	if err != nil {
		log.Error().Err(err).
			Str("exchange", exchange).
			Str("routing_key", routingKey).
			Int("attempts", retries+1).
			Msg("не удалось опубликовать сообщение")
		return err
	}

	log.Debug().Str("exchange", exchange).Str("routing_key", routingKey).Msg("сообщение опубликовано")
	return nil
}

// SetupExchangesAndQueues объявляет exchange, затем очереди и их привязки.
// queues: имя очереди -> exchange -> routing key.
func SetupExchangesAndQueues(broker MessageBroker, exchanges map[string]string, queues map[string]map[string]string) error {
	for name, kind := range exchanges {
		if err := broker.DeclareExchange(name, kind); err != nil {
			return err
		}
	}

	for queueName, bindings := range queues {
		if err := broker.DeclareQueue(queueName); err != nil {
			return err
		}

		for exchangeName, routingKey := range bindings {
			if err := broker.BindQueue(queueName, exchangeName, routingKey); err != nil {
				return err
			}
		}
	}

	return nil
}
