package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/director74/order_saga/pkg/database"
	"github.com/director74/order_saga/pkg/errors"
	"github.com/director74/order_saga/pkg/messaging"
	"github.com/director74/order_saga/pkg/middleware"
	"github.com/director74/order_saga/pkg/saga"
	"github.com/director74/order_saga/warehouse-service/config"
	httpController "github.com/director74/order_saga/warehouse-service/internal/controller/http"
	rmqController "github.com/director74/order_saga/warehouse-service/internal/controller/rabbitmq"
	"github.com/director74/order_saga/warehouse-service/internal/entity"
	"github.com/director74/order_saga/warehouse-service/internal/repo"
	"github.com/director74/order_saga/warehouse-service/internal/usecase"
)

// App - сервис склада. Эндпоинты /internal вызывает только сага заказа.
type App struct {
	config   *config.Config
	db       *gorm.DB
	rabbitMQ messaging.MessageBroker
	server   *http.Server
	logger   zerolog.Logger
}

func NewApp(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	db, err := database.NewPostgresDB(cfg.Postgres)
	if err != nil {
		return nil, errors.AppendPrefix(err, "ошибка подключения к базе данных")
	}

	if err := database.AutoMigrateWithCleanup(db, &entity.Product{}, &entity.Reservation{}); err != nil {
		return nil, errors.AppendPrefix(err, "ошибка миграции базы данных")
	}

	warehouseRepo := repo.NewWarehouseRepo(db)
	warehouseUseCase := usecase.NewWarehouseUseCase(warehouseRepo, logger)

	var rmq messaging.MessageBroker
	if cfg.Warehouse.ConsumeSagaEvents {
		rmq, err = messaging.InitRabbitMQ(cfg.RabbitMQ)
		if err != nil {
			database.CloseDB(db)
			return nil, errors.AppendPrefix(err, "ошибка подключения к RabbitMQ")
		}

		// exchange может еще не существовать, если сервис заказов не запущен
		if err := messaging.SetupExchangesAndQueues(rmq, map[string]string{saga.Exchange: saga.ExchangeKind}, nil); err != nil {
			database.CloseDB(db)
			rmq.Close()
			return nil, errors.AppendPrefix(err, "ошибка настройки RabbitMQ")
		}

		sagaConsumer := rmqController.NewSagaConsumer(warehouseUseCase, rmq, logger)
		if err := sagaConsumer.Setup(); err != nil {
			database.CloseDB(db)
			rmq.Close()
			return nil, errors.AppendPrefix(err, "ошибка запуска потребителя событий саги")
		}
	}

	internalAuth := middleware.NewInternalAuthMiddleware(cfg.InternalAPI)
	warehouseHandler := httpController.NewWarehouseHandler(warehouseUseCase, internalAuth.Required())

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(errors.RecoveryMiddleware())
	router.Use(errors.ErrorMiddleware())
	router.NoRoute(errors.NotFoundHandler())
	router.NoMethod(errors.MethodNotAllowedHandler())

	warehouseHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &App{
		config:   cfg,
		db:       db,
		rabbitMQ: rmq,
		server:   server,
		logger:   logger,
	}, nil
}

func (a *App) Run() error {
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error().Err(err).Msg("ошибка HTTP сервера")
		}
	}()

	a.logger.Info().Str("port", a.config.HTTP.Port).Msg("сервис склада запущен")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info().Msg("остановка сервиса склада")

	errGroup := errors.NewErrorGroup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errGroup.AddPrefix(a.server.Shutdown(ctx), "ошибка при остановке HTTP сервера")

	if a.rabbitMQ != nil {
		errGroup.AddPrefix(a.rabbitMQ.Close(), "ошибка при закрытии соединения с RabbitMQ")
	}
	errGroup.AddPrefix(database.CloseDB(a.db), "ошибка при закрытии соединения с базой данных")

	return errGroup.Err()
}
