package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/director74/order_saga/payment-service/internal/entity"
	"github.com/director74/order_saga/payment-service/internal/repo"
	apperrors "github.com/director74/order_saga/pkg/errors"
)

// PaymentUseCase списывает и возвращает оплату заказов. Обе операции идемпотентны по ID заказа.
type PaymentUseCase struct {
	repo      repo.PaymentRepository
	maxAmount decimal.Decimal
	logger    zerolog.Logger
	newTxID   func() string
}

// NewPaymentUseCase отклоняет списания больше maxAmount, нулевой maxAmount отключает лимит
func NewPaymentUseCase(paymentRepo repo.PaymentRepository, maxAmount decimal.Decimal, logger zerolog.Logger) *PaymentUseCase {
	return &PaymentUseCase{
		repo:      paymentRepo,
		maxAmount: maxAmount,
		logger:    logger.With().Str("component", "payment_usecase").Logger(),
		newTxID:   uuid.NewString,
	}
}

// Charge отвечает Success=false при отказе. Повторное списание уже
// проведенного платежа успешно и ничего не списывает.
func (uc *PaymentUseCase) Charge(ctx context.Context, req entity.PaymentRequest) (entity.PaymentResponse, error) {
	if !req.Amount.IsPositive() {
		return entity.PaymentResponse{}, apperrors.NewBadRequestError("сумма должна быть положительной")
	}

	payment, err := uc.findPayment(ctx, req.OrderID)
	if err != nil {
		return entity.PaymentResponse{}, err
	}
	if payment != nil && payment.Status == entity.PaymentStatusCompleted {
		return toResponse(payment), nil
	}
	if payment == nil {
		payment = &entity.Payment{OrderID: req.OrderID}
	}

	payment.Amount = req.Amount.Round(2)
	log := uc.logger.With().Uint("order_id", req.OrderID).Str("amount", payment.Amount.StringFixed(2)).Logger()

	if uc.maxAmount.IsPositive() && payment.Amount.GreaterThan(uc.maxAmount) {
		payment.Status = entity.PaymentStatusDeclined
		payment.DeclineReason = entity.DeclineAmountLimit
		payment.TransactionID = ""
		if err := uc.repo.Save(ctx, payment); err != nil {
			return entity.PaymentResponse{}, err
		}
		log.Info().Msg("в оплате отказано")
		return toResponse(payment), nil
	}

	payment.Status = entity.PaymentStatusCompleted
	payment.DeclineReason = ""
	payment.TransactionID = uc.newTxID()
	if err := uc.repo.Save(ctx, payment); err != nil {
		return entity.PaymentResponse{}, err
	}

	log.Info().Str("transaction_id", payment.TransactionID).Msg("оплата проведена")
	return toResponse(payment), nil
}

// Refund возвращает проведенный платеж. Возврат по заказу без списания
// или уже возвращенному заказу тоже успешен.
func (uc *PaymentUseCase) Refund(ctx context.Context, req entity.PaymentRequest) (entity.PaymentResponse, error) {
	payment, err := uc.findPayment(ctx, req.OrderID)
	if err != nil {
		return entity.PaymentResponse{}, err
	}
	if payment == nil {
		return entity.PaymentResponse{Success: true, OrderID: req.OrderID, Message: "nothing to refund"}, nil
	}
	if payment.Status != entity.PaymentStatusCompleted {
		resp := toResponse(payment)
		resp.Success = true
		return resp, nil
	}

	payment.Status = entity.PaymentStatusRefunded
	if err := uc.repo.Save(ctx, payment); err != nil {
		return entity.PaymentResponse{}, err
	}

	uc.logger.Info().Uint("order_id", req.OrderID).Str("amount", payment.Amount.StringFixed(2)).Msg("оплата возвращена")
	return toResponse(payment), nil
}

func (uc *PaymentUseCase) GetPaymentForOrder(ctx context.Context, orderID uint) (*entity.Payment, error) {
	return uc.repo.GetByOrderID(ctx, orderID)
}

// findPayment возвращает nil без ошибки, если у заказа нет платежа
func (uc *PaymentUseCase) findPayment(ctx context.Context, orderID uint) (*entity.Payment, error) {
	payment, err := uc.repo.GetByOrderID(ctx, orderID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	return payment, err
}

func toResponse(p *entity.Payment) entity.PaymentResponse {
	return entity.PaymentResponse{
		Success:       p.Status != entity.PaymentStatusDeclined,
		Message:       p.DeclineReason,
		OrderID:       p.OrderID,
		PaymentID:     p.ID,
		Status:        p.Status,
		TransactionID: p.TransactionID,
	}
}
