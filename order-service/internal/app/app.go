package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/director74/order_saga/order-service/config"
	httpController "github.com/director74/order_saga/order-service/internal/controller/http"
	"github.com/director74/order_saga/order-service/internal/entity"
	"github.com/director74/order_saga/order-service/internal/metrics"
	"github.com/director74/order_saga/order-service/internal/repo"
	"github.com/director74/order_saga/order-service/internal/usecase"
	"github.com/director74/order_saga/order-service/internal/usecase/webapi"
	"github.com/director74/order_saga/pkg/auth"
	"github.com/director74/order_saga/pkg/database"
	"github.com/director74/order_saga/pkg/errors"
	"github.com/director74/order_saga/pkg/messaging"
	"github.com/director74/order_saga/pkg/middleware"
	"github.com/director74/order_saga/pkg/rabbitmq"
	"github.com/director74/order_saga/pkg/saga"
)

type App struct {
	config     *config.Config
	httpServer *http.Server
	db         *gorm.DB
	rabbitMQ   *rabbitmq.RabbitMQ
	logger     zerolog.Logger
}

func NewApp(config *config.Config, logger zerolog.Logger) (*App, error) {
	db, err := database.NewPostgresDB(config.Postgres)
	if err != nil {
		return nil, errors.AppendPrefix(err, "ошибка подключения к базе данных")
	}

	if err := database.AutoMigrateWithCleanup(db, &entity.Order{}, &entity.OrderSaga{}, &entity.SagaTransition{}); err != nil {
		return nil, errors.AppendPrefix(err, "ошибка миграции базы данных")
	}

	rmq, err := messaging.InitRabbitMQ(config.RabbitMQ)
	if err != nil {
		database.CloseDB(db)
		return nil, errors.AppendPrefix(err, "ошибка подключения к RabbitMQ")
	}

	// оркестратор только публикует, очереди привязывают сами потребители
	exchanges := map[string]string{
		saga.Exchange: saga.ExchangeKind,
	}
	if err := messaging.SetupExchangesAndQueues(rmq, exchanges, nil); err != nil {
		database.CloseDB(db)
		rmq.Close()
		return nil, errors.AppendPrefix(err, "ошибка настройки RabbitMQ")
	}

	tokenConfig := auth.NewConfig(config.JWT.SigningKey)
	tokenConfig.TTL = config.JWT.TTL
	tokenConfig.Issuer = config.JWT.Issuer
	tokenConfig.Audience = config.JWT.Audience
	tokenManager := auth.NewTokenManager(tokenConfig)

	orderRepo := repo.NewOrderRepository(db)
	sagaRepo := repo.NewSagaRepository(db)

	clientConfig := func(baseURL string) webapi.ClientConfig {
		return webapi.ClientConfig{
			BaseURL:   baseURL,
			APIKey:    config.InternalAPI.APIKey,
			APIHeader: config.InternalAPI.HeaderName,
			Timeout:   config.Saga.StepTimeout,
			Retry: webapi.RetryPolicy{
				Attempts: config.Retry.Attempts,
				Delay:    config.Retry.Delay,
				MaxDelay: config.Retry.MaxDelay,
			},
		}
	}
	inventoryClient := webapi.NewInventoryClient(clientConfig(config.Services.InventoryURL), logger)
	paymentClient := webapi.NewPaymentClient(clientConfig(config.Services.PaymentURL), logger)
	shippingClient := webapi.NewShippingClient(clientConfig(config.Services.ShippingURL), logger)

	sagaMetrics := metrics.New()
	orchestrator := usecase.NewSagaOrchestrator(
		orderRepo,
		sagaRepo,
		inventoryClient,
		paymentClient,
		shippingClient,
		rmq,
		sagaMetrics,
		logger,
		usecase.SagaOrchestratorConfig{
			StepTimeout:    config.Saga.StepTimeout,
			PublishRetries: config.Saga.PublishRetries,
		},
	)
	orderUseCase := usecase.NewOrderUseCase(orderRepo, sagaRepo, orchestrator, logger)

	authMiddleware := auth.NewAuthMiddleware(tokenManager)
	internalAuth := middleware.NewInternalAuthMiddleware(config.InternalAPI)
	orderHandler := httpController.NewOrderHandler(
		orderUseCase,
		authMiddleware.AuthRequired(),
		internalAuth.Required(),
		sagaMetrics.Handler(),
	)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(errors.RecoveryMiddleware())
	router.Use(errors.ErrorMiddleware())
	router.NoRoute(errors.NotFoundHandler())
	router.NoMethod(errors.MethodNotAllowedHandler())

	orderHandler.RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:         ":" + config.HTTP.Port,
		Handler:      router,
		ReadTimeout:  config.HTTP.ReadTimeout,
		WriteTimeout: config.HTTP.WriteTimeout,
	}

	return &App{
		config:     config,
		httpServer: httpServer,
		db:         db,
		rabbitMQ:   rmq,
		logger:     logger,
	}, nil
}

func (a *App) Run() error {
	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info().Str("port", a.config.HTTP.Port).Msg("HTTP сервер запущен")
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		a.logger.Info().Msg("получен сигнал завершения")
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("ошибка HTTP сервера")
	}

	return a.Shutdown()
}

// Shutdown сначала останавливает сервер, чтобы ни одна сага не стартовала после закрытия БД
func (a *App) Shutdown() error {
	errGroup := errors.NewErrorGroup()

	if a.httpServer != nil {
		// даем завершиться шагу саги, который уже выполняется
		ctx, cancel := context.WithTimeout(context.Background(), a.config.Saga.StepTimeout+5*time.Second)
		defer cancel()

		if err := a.httpServer.Shutdown(ctx); err != nil {
			errGroup.AddPrefix(err, "ошибка при остановке HTTP сервера")
		}
	}

	if a.rabbitMQ != nil {
		a.rabbitMQ.Close()
	}

	if a.db != nil {
		if err := database.CloseDB(a.db); err != nil {
			errGroup.AddPrefix(err, "ошибка при закрытии соединения с базой данных")
		}
	}

	if errGroup.HasErrors() {
		errors.LogError(errGroup, "Shutdown")
		return errGroup
	}

	a.logger.Info().Msg("приложение остановлено")
	return nil
}
