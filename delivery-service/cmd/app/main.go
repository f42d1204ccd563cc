package main

import (
	"github.com/rs/zerolog/log"

	"github.com/director74/order_saga/delivery-service/config"
	"github.com/director74/order_saga/delivery-service/internal/app"
	"github.com/director74/order_saga/pkg/logger"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("ошибка загрузки конфигурации")
	}

	l := logger.New("delivery-service", cfg.Log.Level)
	logger.SetGlobal(l)

	deliveryApp, err := app.NewApp(cfg, l)
	if err != nil {
		l.Fatal().Err(err).Msg("ошибка создания приложения")
	}

	if err := deliveryApp.Run(); err != nil {
		l.Fatal().Err(err).Msg("приложение завершилось с ошибкой")
	}
}
