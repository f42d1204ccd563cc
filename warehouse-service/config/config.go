package config

import (
	"github.com/director74/order_saga/pkg/config"
)

// Config - конфигурация сервиса склада
type Config struct {
	HTTP        config.HTTPConfig
	Postgres    config.PostgresConfig
	RabbitMQ    config.RabbitMQConfig
	Log         config.LogConfig
	InternalAPI config.InternalAPIConfig
	Warehouse   WarehouseConfig
}

type WarehouseConfig struct {
	// ConsumeSagaEvents списывает резервы завершенных саг
	ConsumeSagaEvents bool
}

func NewConfig() (*Config, error) {
	commonConfig := config.LoadCommonConfig("warehouse", "8084")

	return &Config{
		HTTP:        commonConfig.HTTP,
		Postgres:    commonConfig.Postgres,
		RabbitMQ:    commonConfig.RabbitMQ,
		Log:         commonConfig.Log,
		InternalAPI: config.LoadInternalAPIConfig(),
		Warehouse: WarehouseConfig{
			ConsumeSagaEvents: config.GetEnvAsBool("WAREHOUSE_CONSUME_SAGA_EVENTS", true),
		},
	}, nil
}
