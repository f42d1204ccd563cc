package main

import (
	"github.com/rs/zerolog/log"

	"github.com/director74/order_saga/payment-service/config"
	"github.com/director74/order_saga/payment-service/internal/app"
	"github.com/director74/order_saga/pkg/logger"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("ошибка загрузки конфигурации")
	}

	l := logger.New("payment-service", cfg.Log.Level)
	logger.SetGlobal(l)

	paymentApp, err := app.NewApp(cfg, l)
	if err != nil {
		l.Fatal().Err(err).Msg("ошибка создания приложения")
	}

	if err := paymentApp.Run(); err != nil {
		l.Fatal().Err(err).Msg("приложение завершилось с ошибкой")
	}
}
