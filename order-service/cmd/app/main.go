package main

import (
	"github.com/rs/zerolog/log"

	"github.com/director74/order_saga/order-service/config"
	"github.com/director74/order_saga/order-service/internal/app"
	"github.com/director74/order_saga/pkg/logger"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("ошибка загрузки конфигурации")
	}

	l := logger.New("order-service", cfg.Log.Level)
	logger.SetGlobal(l)

	orderApp, err := app.NewApp(cfg, l)
	if err != nil {
		l.Fatal().Err(err).Msg("ошибка создания приложения")
	}

	if err := orderApp.Run(); err != nil {
		l.Fatal().Err(err).Msg("приложение завершилось с ошибкой")
	}
}
