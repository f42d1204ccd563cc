package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/director74/order_saga/delivery-service/internal/entity"
	"github.com/director74/order_saga/pkg/saga"
)

type DeliveryRepository interface {
	Prepare(ctx context.Context, orderID uint, maxActive int, trackingCode string) (*entity.Shipment, error)
	Cancel(ctx context.Context, orderID uint) (bool, error)
	Dispatch(ctx context.Context, orderID uint) (bool, error)
	GetByOrderID(ctx context.Context, orderID uint) (*entity.Shipment, error)
}

// DeliveryUseCase готовит и отменяет отгрузки, идемпотентно по ID заказа
type DeliveryUseCase struct {
	repo               DeliveryRepository
	maxActiveShipments int
	logger             zerolog.Logger
	newTrackingCode    func() string
}

func NewDeliveryUseCase(repo DeliveryRepository, maxActiveShipments int, logger zerolog.Logger) *DeliveryUseCase {
	return &DeliveryUseCase{
		repo:               repo,
		maxActiveShipments: maxActiveShipments,
		logger:             logger.With().Str("component", "delivery_usecase").Logger(),
		newTrackingCode:    newTrackingCode,
	}
}

// PrepareShipment отвечает Success=false, если нет свободных слотов
func (uc *DeliveryUseCase) PrepareShipment(ctx context.Context, req entity.ShipmentRequest) (entity.ShipmentResponse, error) {
	shipment, err := uc.repo.Prepare(ctx, req.OrderID, uc.maxActiveShipments, uc.newTrackingCode())
	if err != nil {
		if errors.Is(err, entity.ErrNoCapacity) {
			uc.logger.Info().Uint("order_id", req.OrderID).Msg("в отгрузке отказано")
			return entity.ShipmentResponse{
				Success: false,
				Message: entity.ErrNoCapacity.Error(),
				OrderID: req.OrderID,
			}, nil
		}
		return entity.ShipmentResponse{}, err
	}

	uc.logger.Info().
		Uint("order_id", req.OrderID).
		Str("tracking_code", shipment.TrackingCode).
		Msg("отгрузка подготовлена")

	return entity.ShipmentResponse{
		Success:      true,
		OrderID:      shipment.OrderID,
		Status:       shipment.Status,
		TrackingCode: shipment.TrackingCode,
	}, nil
}

// CancelShipment успешен и тогда, когда у заказа нет подготовленной отгрузки
func (uc *DeliveryUseCase) CancelShipment(ctx context.Context, req entity.ShipmentRequest) (entity.ShipmentResponse, error) {
	cancelled, err := uc.repo.Cancel(ctx, req.OrderID)
	if err != nil {
		return entity.ShipmentResponse{}, err
	}

	resp := entity.ShipmentResponse{
		Success: true,
		OrderID: req.OrderID,
		Status:  entity.ShipmentStatusCancelled,
	}
	if !cancelled {
		resp.Message = "nothing to cancel"
		return resp, nil
	}

	uc.logger.Info().Uint("order_id", req.OrderID).Msg("отгрузка отменена")
	return resp, nil
}

func (uc *DeliveryUseCase) GetShipmentForOrder(ctx context.Context, orderID uint) (*entity.Shipment, error) {
	return uc.repo.GetByOrderID(ctx, orderID)
}

// HandleSagaEvent отправляет отгрузку завершенной саги. Отмененные саги
// уже отменили отгрузку компенсацией.
func (uc *DeliveryUseCase) HandleSagaEvent(ctx context.Context, event saga.SagaEvent) error {
	if !event.Completed() {
		return nil
	}

	dispatched, err := uc.repo.Dispatch(ctx, event.OrderID)
	if err != nil {
		return err
	}

	log := uc.logger.With().Uint("saga_id", event.SagaID).Uint("order_id", event.OrderID).Logger()
	if dispatched {
		log.Info().Msg("отгрузка передана перевозчику")
	} else {
		log.Debug().Msg("нет подготовленной отгрузки для отправки")
	}
	return nil
}

func newTrackingCode() string {
	return "TRK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
