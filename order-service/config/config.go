package config

import (
	"time"

	"github.com/director74/order_saga/pkg/config"
)

// Config - конфигурация сервиса заказов
type Config struct {
	HTTP        config.HTTPConfig
	Postgres    config.PostgresConfig
	RabbitMQ    config.RabbitMQConfig
	Log         config.LogConfig
	JWT         config.JWTConfig
	InternalAPI config.InternalAPIConfig
	Services    ServicesConfig
	Retry       RetryConfig
	Saga        SagaConfig
}

// ServicesConfig - базовые URL сервисов-участников саги
type ServicesConfig struct {
	InventoryURL string
	PaymentURL   string
	ShippingURL  string
}

// RetryConfig задает повторы вызовов участников при сетевых ошибках
type RetryConfig struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

type SagaConfig struct {
	StepTimeout    time.Duration
	PublishRetries int
}

func NewConfig() (*Config, error) {
	commonConfig := config.LoadCommonConfig("orders", "8080")
	jwtConfig := config.LoadJWTConfig("order-service")

	return &Config{
		HTTP:        commonConfig.HTTP,
		Postgres:    commonConfig.Postgres,
		RabbitMQ:    commonConfig.RabbitMQ,
		Log:         commonConfig.Log,
		JWT:         *jwtConfig,
		InternalAPI: config.LoadInternalAPIConfig(),
		Services: ServicesConfig{
			InventoryURL: config.GetEnv("WAREHOUSE_SERVICE_URL", "http://localhost:8084"),
			PaymentURL:   config.GetEnv("PAYMENT_SERVICE_URL", "http://localhost:8083"),
			ShippingURL:  config.GetEnv("DELIVERY_SERVICE_URL", "http://localhost:8086"),
		},
		Retry: RetryConfig{
			Attempts: uint(max(1, config.GetEnvAsInt("COLLABORATOR_RETRY_ATTEMPTS", 3))),
			Delay:    config.GetEnvAsDuration("COLLABORATOR_RETRY_DELAY", 200*time.Millisecond),
			MaxDelay: config.GetEnvAsDuration("COLLABORATOR_RETRY_MAX_DELAY", 2*time.Second),
		},
		Saga: SagaConfig{
			StepTimeout:    config.GetEnvAsDuration("SAGA_STEP_TIMEOUT", 10*time.Second),
			PublishRetries: config.GetEnvAsInt("SAGA_PUBLISH_RETRIES", 3),
		},
	}, nil
}
