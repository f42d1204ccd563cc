package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/director74/order_saga/order-service/internal/entity"
	apperrors "github.com/director74/order_saga/pkg/errors"
	"github.com/director74/order_saga/pkg/messaging"
	"github.com/director74/order_saga/pkg/saga"
)

const (
	StepInventory = "inventory"
	StepPayment   = "payment"
	StepShipping  = "shipping"

	defaultStepTimeout = 10 * time.Second
)

// ErrSagaNotCompensable возвращается при запросе компенсации саги, которая еще выполняет шаг
var ErrSagaNotCompensable = errors.New("сага не в состоянии сбоя")

type stepFunc func(ctx context.Context, order *entity.Order) (bool, error)

// Step описывает прямое действие шага саги и его откат
type Step struct {
	Name       string
	Failed     entity.SagaState
	Decline    string
	Fault      string
	Execute    stepFunc
	Compensate stepFunc
}

type SagaOrchestratorConfig struct {
	StepTimeout    time.Duration
	PublishRetries int
}

// SagaOrchestrator выполняет сагу заказа: склад, оплата, доставка.
// Каждый переход сохраняется до следующего вызова участника.
type SagaOrchestrator struct {
	orderRepo OrderRepository
	sagaRepo  SagaRepository
	publisher RabbitMQClient
	metrics   SagaMetrics
	logger    zerolog.Logger
	cfg       SagaOrchestratorConfig
	steps     []Step
}

func NewSagaOrchestrator(
	orderRepo OrderRepository,
	sagaRepo SagaRepository,
	inventory InventoryService,
	payment PaymentService,
	shipping ShippingService,
	publisher RabbitMQClient,
	metrics SagaMetrics,
	logger zerolog.Logger,
	cfg SagaOrchestratorConfig,
) *SagaOrchestrator {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = defaultStepTimeout
	}

	steps := []Step{
		{
			Name:    StepInventory,
			Failed:  entity.SagaStateInventoryReservationFailed,
			Decline: entity.ErrMsgInsufficientStock,
			Fault:   entity.ErrMsgInventoryUnavailable,
			Execute: func(ctx context.Context, o *entity.Order) (bool, error) {
				return inventory.ReserveStock(ctx, o.ID, o.ProductID, o.Quantity)
			},
			Compensate: func(ctx context.Context, o *entity.Order) (bool, error) {
				return inventory.ReleaseStock(ctx, o.ID, o.ProductID, o.Quantity)
			},
		},
		{
			Name:    StepPayment,
			Failed:  entity.SagaStatePaymentFailed,
			Decline: entity.ErrMsgPaymentDeclined,
			Fault:   entity.ErrMsgPaymentUnavailable,
			Execute: func(ctx context.Context, o *entity.Order) (bool, error) {
				return payment.ProcessPayment(ctx, o.ID, o.TotalAmount)
			},
			Compensate: func(ctx context.Context, o *entity.Order) (bool, error) {
				return payment.RefundPayment(ctx, o.ID, o.TotalAmount)
			},
		},
		{
			Name:    StepShipping,
			Failed:  entity.SagaStateShippingFailed,
			Decline: entity.ErrMsgShipmentFailed,
			Fault:   entity.ErrMsgShippingUnavailable,
			Execute: func(ctx context.Context, o *entity.Order) (bool, error) {
				return shipping.PrepareShipment(ctx, o.ID)
			},
			Compensate: func(ctx context.Context, o *entity.Order) (bool, error) {
				return shipping.CancelShipment(ctx, o.ID)
			},
		},
	}

	return &SagaOrchestrator{
		orderRepo: orderRepo,
		sagaRepo:  sagaRepo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.With().Str("component", "saga_orchestrator").Logger(),
		cfg:       cfg,
		steps:     steps,
	}
}

// ProcessOrder запускает новую сагу для заказа и возвращает итоговую запись.
// Отказы и сбои участников попадают в запись, ошибка возвращается
// только если запись саги не удалось сохранить.
func (s *SagaOrchestrator) ProcessOrder(ctx context.Context, orderID uint) (*entity.OrderSaga, error) {
	// сага должна прийти в согласованное состояние, даже если вызывающий ушел
	ctx = context.WithoutCancel(ctx)

	s.warnOnActiveSagas(ctx, orderID)

	record := &entity.OrderSaga{
		OrderID:      orderID,
		CurrentState: entity.SagaStateCreated,
	}
	if err := s.sagaRepo.Create(ctx, record, nil); err != nil {
		return nil, fmt.Errorf("не удалось запустить сагу для заказа %d: %w", orderID, err)
	}
	s.metrics.SagaStarted()

	log := s.logger.With().Uint("saga_id", record.ID).Uint("order_id", orderID).Logger()
	log.Info().Msg("сага запущена")

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		kind := entity.FailureInfrastructure
		record.ErrorMessage = fmt.Sprintf("%s: %v", entity.ErrMsgOrderLookupFailed, err)
		if errors.Is(err, apperrors.ErrNotFound) {
			kind = entity.FailureNotFound
			record.ErrorMessage = entity.ErrMsgOrderNotFound
		}
		log.Warn().Err(err).Str("kind", string(kind)).Msg("не удалось получить заказ, сага отменяется")

		if err := s.transition(ctx, record, entity.TriggerAbort, map[string]interface{}{"kind": string(kind)}); err != nil {
			return record, err
		}
		s.finish(record, nil, log)
		return record, nil
	}

	for _, step := range s.steps {
		if err := s.transition(ctx, record, entity.TriggerAdvance, map[string]interface{}{"step": step.Name}); err != nil {
			return record, err
		}

		ok, callErr := s.call(ctx, step.Name, step.Execute, order)
		if callErr == nil && ok {
			if err := s.transition(ctx, record, entity.TriggerSucceeded, map[string]interface{}{"step": step.Name}); err != nil {
				return record, err
			}
			log.Debug().Str("step", step.Name).Str("state", record.CurrentState.String()).Msg("шаг выполнен")
			continue
		}

		failure := entity.NewDecline(step.Name, step.Decline)
		if callErr != nil {
			failure = entity.NewInfrastructureFault(step.Name, step.Fault, callErr)
		}
		s.metrics.StepFailed(step.Name, failure.Kind)
		log.Warn().Err(callErr).Str("step", step.Name).Str("kind", string(failure.Kind)).Msg(failure.Reason)

		record.ErrorMessage = failure.Error()
		if err := s.transition(ctx, record, entity.TriggerFailed, map[string]interface{}{
			"step": step.Name,
			"kind": string(failure.Kind),
		}); err != nil {
			return record, err
		}

		return s.compensate(ctx, record, log)
	}

	if record.CurrentState != entity.SagaStateCompleted {
		return record, fmt.Errorf("у саги %d закончились шаги в состоянии %s", record.ID, record.CurrentState)
	}

	log.Info().Msg("сага завершена")
	s.finish(record, order, log)
	return record, nil
}

// ResumeCompensation компенсирует сагу, оставшуюся в состоянии сбоя.
// Завершенные саги возвращаются без изменений.
func (s *SagaOrchestrator) ResumeCompensation(ctx context.Context, sagaID uint) (*entity.OrderSaga, error) {
	ctx = context.WithoutCancel(ctx)

	record, err := s.sagaRepo.GetByID(ctx, sagaID)
	if err != nil {
		return nil, err
	}
	log := s.logger.With().Uint("saga_id", record.ID).Uint("order_id", record.OrderID).Logger()

	if record.CurrentState.IsTerminal() {
		log.Info().Str("state", record.CurrentState.String()).Msg("сага уже завершена, компенсировать нечего")
		return record, nil
	}
	if !record.CurrentState.IsFailed() {
		return record, apperrors.NewServiceError(http.StatusConflict,
			fmt.Sprintf("сага %d в состоянии %s", record.ID, record.CurrentState), ErrSagaNotCompensable)
	}

	log.Info().Str("state", record.CurrentState.String()).Msg("возобновляем компенсацию")
	// загруженная история устареет после компенсации
	record.Transitions = nil
	return s.compensate(ctx, record, log)
}

// compensate откатывает в обратном порядке шаги, выполненные до упавшего.
// Выполняются все компенсации, сага в любом случае заканчивается в Cancelled.
func (s *SagaOrchestrator) compensate(ctx context.Context, record *entity.OrderSaga, log zerolog.Logger) (*entity.OrderSaga, error) {
	if record.CurrentState.IsTerminal() {
		return record, nil
	}

	failedIdx := s.failedStepIndex(record.CurrentState)
	if failedIdx < 0 {
		return record, fmt.Errorf("%w: %s", ErrSagaNotCompensable, record.CurrentState)
	}

	order, err := s.orderRepo.GetByID(ctx, record.OrderID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			// остается в состоянии сбоя, компенсацию можно возобновить позже
			log.Error().Err(err).Str("kind", string(entity.FailureInfrastructure)).
				Msg("не удалось получить заказ при компенсации, сага оставлена в состоянии сбоя")
			s.metrics.CompensationFailed("order_lookup")
			return record, nil
		}

		log.Warn().Str("kind", string(entity.FailureNotFound)).Msg(entity.ErrMsgOrderNotFoundOnCompensation)
		record.ErrorMessage = entity.ErrMsgOrderNotFoundOnCompensation
		if err := s.transition(ctx, record, entity.TriggerAbort, map[string]interface{}{
			"kind": string(entity.FailureNotFound),
		}); err != nil {
			return record, err
		}
		s.finish(record, nil, log)
		return record, nil
	}

	outcomes := make(map[string]interface{}, failedIdx)
	var incomplete []string
	for i := failedIdx - 1; i >= 0; i-- {
		step := s.steps[i]

		ok, err := s.call(ctx, step.Name, step.Compensate, order)
		switch {
		case err != nil:
			outcomes[step.Name] = "failed: " + err.Error()
			incomplete = append(incomplete, fmt.Sprintf("%s: %v", step.Name, err))
		case !ok:
			outcomes[step.Name] = "declined"
			incomplete = append(incomplete, fmt.Sprintf("%s: declined", step.Name))
		default:
			outcomes[step.Name] = "compensated"
			log.Debug().Str("step", step.Name).Msg("шаг компенсирован")
			continue
		}

		s.metrics.CompensationFailed(step.Name)
		log.Error().Err(err).Str("step", step.Name).Str("kind", string(entity.FailureCompensation)).
			Msg("компенсация не удалась")
	}

	if len(incomplete) > 0 {
		record.ErrorMessage = fmt.Sprintf("%s; %s: %s", record.ErrorMessage,
			entity.ErrMsgCompensationIncomplete, strings.Join(incomplete, ", "))
	}

	details := map[string]interface{}{"compensations": outcomes}
	if err := s.transition(ctx, record, entity.TriggerCompensated, details); err != nil {
		return record, err
	}

	log.Info().Int("compensated_steps", failedIdx).Bool("incomplete", len(incomplete) > 0).Msg("сага отменена")
	s.finish(record, order, log)
	return record, nil
}

// transition применяет триггер и сохраняет новое состояние.
// При ошибке сохранения состояние в памяти откатывается.
func (s *SagaOrchestrator) transition(ctx context.Context, record *entity.OrderSaga, trigger entity.Trigger, details map[string]interface{}) error {
	next, _, err := entity.NextState(record.CurrentState, trigger)
	if err != nil {
		return fmt.Errorf("saga %d: %w", record.ID, err)
	}

	from := record.CurrentState
	record.CurrentState = next
	if next == entity.SagaStateCompleted {
		record.ErrorMessage = ""
	}

	if err := s.sagaRepo.SaveTransition(ctx, record, from, details); err != nil {
		record.CurrentState = from
		s.logger.Error().Err(err).Uint("saga_id", record.ID).
			Str("from", from.String()).Str("to", next.String()).Msg("не удалось сохранить переход саги")
		return err
	}
	return nil
}

type stepResult struct {
	ok  bool
	err error
}

// call вызывает участника с дедлайном шага. Участник, игнорирующий контекст,
// не задержит сагу дольше дедлайна, а паника участника превращается в ошибку.
func (s *SagaOrchestrator) call(ctx context.Context, name string, fn stepFunc, order *entity.Order) (bool, error) {
	stepCtx, cancel := context.WithTimeout(ctx, s.cfg.StepTimeout)
	defer cancel()

	done := make(chan stepResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- stepResult{err: fmt.Errorf("%s panicked: %v", name, r)}
			}
		}()
		ok, err := fn(stepCtx, order)
		done <- stepResult{ok: ok, err: err}
	}()

	select {
	case r := <-done:
		return r.ok, r.err
	case <-stepCtx.Done():
		return false, fmt.Errorf("%s timed out after %s: %w", name, s.cfg.StepTimeout, stepCtx.Err())
	}
}

func (s *SagaOrchestrator) failedStepIndex(state entity.SagaState) int {
	for i, step := range s.steps {
		if step.Failed == state {
			return i
		}
	}
	return -1
}

func (s *SagaOrchestrator) warnOnActiveSagas(ctx context.Context, orderID uint) {
	active, err := s.sagaRepo.CountActiveByOrderID(ctx, orderID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("order_id", orderID).Msg("не удалось посчитать активные саги")
		return
	}
	if active > 0 {
		s.metrics.ConcurrentAttempt()
		s.logger.Warn().Uint("order_id", orderID).Int64("active_sagas", active).
			Msg("у заказа уже выполняется сага, запускаем еще одну")
	}
}

// finish пишет метрики и публикует итоговое событие, ошибки публикации только логируются
func (s *SagaOrchestrator) finish(record *entity.OrderSaga, order *entity.Order, log zerolog.Logger) {
	s.metrics.SagaFinished(record.CurrentState, record.UpdatedAt.Sub(record.CreatedAt))

	if s.publisher == nil {
		return
	}

	event := saga.NewSagaEvent(record.ID, record.OrderID, record.CurrentState.String(), record.ErrorMessage)
	if order != nil {
		event.ProductID = order.ProductID
		event.CustomerName = order.CustomerName
		event.Quantity = order.Quantity
		event.Amount = order.TotalAmount
	}

	if err := messaging.PublishWithRetryAndLogging(s.publisher, saga.Exchange, event.RoutingKey(), event, s.cfg.PublishRetries); err != nil {
		log.Error().Err(err).Msg("не удалось опубликовать событие саги")
	}
}
