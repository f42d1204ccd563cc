package config

import (
	"github.com/director74/order_saga/pkg/config"
)

// Config - конфигурация сервиса уведомлений
type Config struct {
	HTTP        config.HTTPConfig
	Postgres    config.PostgresConfig
	RabbitMQ    config.RabbitMQConfig
	Log         config.LogConfig
	InternalAPI config.InternalAPIConfig
	Mail        MailConfig
}

type MailConfig struct {
	FromEmail string
}

func NewConfig() (*Config, error) {
	commonConfig := config.LoadCommonConfig("notifications", "8082")

	return &Config{
		HTTP:        commonConfig.HTTP,
		Postgres:    commonConfig.Postgres,
		RabbitMQ:    commonConfig.RabbitMQ,
		Log:         commonConfig.Log,
		InternalAPI: config.LoadInternalAPIConfig(),
		Mail: MailConfig{
			FromEmail: config.GetEnv("FROM_EMAIL", "notification@example.com"),
		},
	}, nil
}
