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

	"github.com/director74/order_saga/payment-service/config"
	httpController "github.com/director74/order_saga/payment-service/internal/controller/http"
	"github.com/director74/order_saga/payment-service/internal/entity"
	"github.com/director74/order_saga/payment-service/internal/repo"
	"github.com/director74/order_saga/payment-service/internal/usecase"
	"github.com/director74/order_saga/pkg/database"
	"github.com/director74/order_saga/pkg/errors"
	"github.com/director74/order_saga/pkg/middleware"
)

type App struct {
	config *config.Config
	db     *gorm.DB
	server *http.Server
	logger zerolog.Logger
}

func NewApp(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	db, err := database.NewPostgresDB(cfg.Postgres)
	if err != nil {
		return nil, errors.AppendPrefix(err, "ошибка подключения к базе данных")
	}

	if err := database.AutoMigrateWithCleanup(db, &entity.Payment{}); err != nil {
		return nil, errors.AppendPrefix(err, "ошибка миграции базы данных")
	}

	paymentRepo := repo.NewPaymentRepository(db)
	paymentUseCase := usecase.NewPaymentUseCase(paymentRepo, cfg.Payment.MaxAmount, logger)

	internalAuth := middleware.NewInternalAuthMiddleware(cfg.InternalAPI)
	paymentHandler := httpController.NewPaymentHandler(paymentUseCase, internalAuth.Required())

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(errors.RecoveryMiddleware())
	router.Use(errors.ErrorMiddleware())
	router.NoRoute(errors.NotFoundHandler())
	router.NoMethod(errors.MethodNotAllowedHandler())

	paymentHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &App{
		config: cfg,
		db:     db,
		server: server,
		logger: logger,
	}, nil
}

func (a *App) Run() error {
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error().Err(err).Msg("ошибка HTTP сервера")
		}
	}()

	a.logger.Info().Str("port", a.config.HTTP.Port).
		Str("max_amount", a.config.Payment.MaxAmount.String()).Msg("платежный сервис запущен")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info().Msg("остановка платежного сервиса")

	errGroup := errors.NewErrorGroup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errGroup.AddPrefix(a.server.Shutdown(ctx), "ошибка при остановке HTTP сервера")
	errGroup.AddPrefix(database.CloseDB(a.db), "ошибка при закрытии соединения с базой данных")

	return errGroup.Err()
}
