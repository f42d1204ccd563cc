package config

import (
	"github.com/director74/order_saga/pkg/config"
)

// Config - конфигурация сервиса доставки
type Config struct {
	HTTP        config.HTTPConfig
	Postgres    config.PostgresConfig
	RabbitMQ    config.RabbitMQConfig
	Log         config.LogConfig
	InternalAPI config.InternalAPIConfig
	Delivery    DeliveryConfig
}

type DeliveryConfig struct {
	// MaxActiveShipments ограничивает число подготовленных отгрузок, ноль снимает ограничение
	MaxActiveShipments int
	// ConsumeSagaEvents отправляет отгрузки завершенных саг и освобождает их слоты
	ConsumeSagaEvents bool
}

func NewConfig() (*Config, error) {
	commonConfig := config.LoadCommonConfig("delivery", "8086")

	return &Config{
		HTTP:        commonConfig.HTTP,
		Postgres:    commonConfig.Postgres,
		RabbitMQ:    commonConfig.RabbitMQ,
		Log:         commonConfig.Log,
		InternalAPI: config.LoadInternalAPIConfig(),
		Delivery: DeliveryConfig{
			MaxActiveShipments: config.GetEnvAsInt("DELIVERY_MAX_ACTIVE_SHIPMENTS", 0),
			ConsumeSagaEvents:  config.GetEnvAsBool("DELIVERY_CONSUME_SAGA_EVENTS", true),
		},
	}, nil
}
