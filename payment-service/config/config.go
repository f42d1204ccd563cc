package config

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/director74/order_saga/pkg/config"
)

// Config - конфигурация платежного сервиса
type Config struct {
	HTTP        config.HTTPConfig
	Postgres    config.PostgresConfig
	Log         config.LogConfig
	InternalAPI config.InternalAPIConfig
	Payment     PaymentConfig
}

type PaymentConfig struct {
	// MaxAmount - максимальная сумма списания, ноль отключает лимит
	MaxAmount decimal.Decimal
}

func NewConfig() (*Config, error) {
	commonConfig := config.LoadCommonConfig("payments", "8083")

	maxAmount, err := decimal.NewFromString(config.GetEnv("PAYMENT_MAX_AMOUNT", "10000"))
	if err != nil {
		return nil, fmt.Errorf("некорректный PAYMENT_MAX_AMOUNT: %w", err)
	}

	return &Config{
		HTTP:        commonConfig.HTTP,
		Postgres:    commonConfig.Postgres,
		Log:         commonConfig.Log,
		InternalAPI: config.LoadInternalAPIConfig(),
		Payment: PaymentConfig{
			MaxAmount: maxAmount,
		},
	}, nil
}
