package main

import (
	"github.com/rs/zerolog/log"

	"github.com/director74/order_saga/pkg/logger"
	"github.com/director74/order_saga/warehouse-service/config"
	"github.com/director74/order_saga/warehouse-service/internal/app"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("ошибка загрузки конфигурации")
	}

	l := logger.New("warehouse-service", cfg.Log.Level)
	logger.SetGlobal(l)

	warehouseApp, err := app.NewApp(cfg, l)
	if err != nil {
		l.Fatal().Err(err).Msg("ошибка создания приложения")
	}

	if err := warehouseApp.Run(); err != nil {
		l.Fatal().Err(err).Msg("приложение завершилось с ошибкой")
	}
}
