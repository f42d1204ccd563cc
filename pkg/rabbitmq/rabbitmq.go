package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	VHost    string
}

// URL собирает строку подключения AMQP
func (c Config) URL() string {
	vhost := c.VHost
	if vhost == "/" {
		vhost = ""
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/%s", c.User, c.Password, c.Host, c.Port, vhost)
}

// RabbitMQ держит одно соединение и один канал. Канал защищен мьютексом:
// каналы amqp нельзя использовать для публикации из нескольких горутин.
type RabbitMQ struct {
	config     Config
	mu         sync.Mutex
	connection *amqp.Connection
	channel    *amqp.Channel
}

func NewRabbitMQ(cfg Config) (*RabbitMQ, error) {
	rmq := &RabbitMQ{
		config: cfg,
	}

	if err := rmq.connect(); err != nil {
		return nil, err
	}

	return rmq, nil
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.config.URL())
	if err != nil {
		return fmt.Errorf("не удалось подключиться к RabbitMQ: %w", err)
	}
	r.connection = conn

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("не удалось открыть канал: %w", err)
	}
	r.channel = ch

	return nil
}

// reconnect вызывается под r.mu
func (r *RabbitMQ) reconnect() error {
	if r.connection != nil && !r.connection.IsClosed() && r.channel != nil && !r.channel.IsClosed() {
		return nil
	}

	log.Warn().Str("host", r.config.Host).Msg("переподключение к RabbitMQ")
	return r.connect()
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil && !r.channel.IsClosed() {
		if err := r.channel.Close(); err != nil {
			return fmt.Errorf("ошибка при закрытии канала: %w", err)
		}
	}
	if r.connection != nil && !r.connection.IsClosed() {
		if err := r.connection.Close(); err != nil {
			return fmt.Errorf("ошибка при закрытии соединения: %w", err)
		}
	}
	return nil
}

func (r *RabbitMQ) DeclareExchange(name string, kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.reconnect(); err != nil {
		return fmt.Errorf("reconnect before exchange declare: %w", err)
	}

	return r.channel.ExchangeDeclare(
		name,  // name
		kind,  // type
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
}

func (r *RabbitMQ) DeclareQueue(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.reconnect(); err != nil {
		return fmt.Errorf("reconnect before queue declare: %w", err)
	}

	_, err := r.channel.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	return err
}

func (r *RabbitMQ) BindQueue(queueName, exchangeName, routingKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.reconnect(); err != nil {
		return fmt.Errorf("reconnect before queue bind: %w", err)
	}

	return r.channel.QueueBind(
		queueName,    // queue name
		routingKey,   // routing key
		exchangeName, // exchange
		false,        // no-wait
		nil,          // arguments
	)
}

// PublishMessage отправляет сообщение как persistent JSON
func (r *RabbitMQ) PublishMessage(exchange, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("ошибка сериализации сообщения: %w", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.reconnect(); err != nil {
		return fmt.Errorf("reconnect before publish: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	return r.channel.PublishWithContext(
		ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// PublishMessageWithRetry повторяет с линейной задержкой, ошибки сериализации не повторяются
func (r *RabbitMQ) PublishMessageWithRetry(exchange, routingKey string, message interface{}, retries int) error {
	err := retry.Do(
		func() error {
			return r.PublishMessage(exchange, routingKey, message)
		},
		retry.Attempts(uint(retries+1)),
		retry.Delay(time.Second),
		retry.DelayType(func(n uint, _ error, config *retry.Config) time.Duration {
			return time.Duration(n+1) * time.Second
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Str("exchange", exchange).Msg("публикация не удалась, повторяем")
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("не удалось опубликовать сообщение за %d попыток: %w", retries+1, err)
	}
	return nil
}

// ConsumeMessages запускает горутину, передающую сообщения очереди queueName в handler
func (r *RabbitMQ) ConsumeMessages(queueName, consumerName string, handler func([]byte) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.reconnect(); err != nil {
		return fmt.Errorf("reconnect before consume: %w", err)
	}

	msgs, err := r.channel.Consume(
		queueName, // queue
		fmt.Sprintf("%s-%d", consumerName, time.Now().UnixNano()), // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("не удалось начать чтение очереди: %w", err)
	}

	go HandleMessages(msgs, handler)

	return nil
}

// Acknowledger - часть amqp.Delivery, нужная HandleMessages
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// HandleMessages подтверждает обработанные сообщения и возвращает в очередь упавшие
func HandleMessages(msgs <-chan amqp.Delivery, handler func([]byte) error) {
	for msg := range msgs {
		dispatch(&msg, msg.Body, handler)
	}
}

func dispatch(ack Acknowledger, body []byte, handler func([]byte) error) {
	if err := handler(body); err != nil {
		log.Error().Err(err).Msg("ошибка обработки сообщения, возвращаем в очередь")
		ack.Nack(false, true)
		return
	}
	ack.Ack(false)
}
