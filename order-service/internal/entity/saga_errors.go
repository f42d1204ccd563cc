package entity

import (
	"fmt"
)

// FailureKind - причина, по которой шаг саги не выполнился
type FailureKind string

const (
	FailureNotFound        FailureKind = "not_found"
	FailureBusinessDecline FailureKind = "business_decline"
	FailureInfrastructure  FailureKind = "infrastructure_fault"
	FailureCompensation    FailureKind = "compensation_failed"
)

// StepFailure - итог неуспешного вызова участника.
// При бизнес-отказе Cause равен nil.
type StepFailure struct {
	Step   string
	Kind   FailureKind
	Reason string
	Cause  error
}

func NewDecline(step, reason string) *StepFailure {
	return &StepFailure{Step: step, Kind: FailureBusinessDecline, Reason: reason}
}

func NewInfrastructureFault(step, reason string, cause error) *StepFailure {
	return &StepFailure{Step: step, Kind: FailureInfrastructure, Reason: reason, Cause: cause}
}

// Error - сообщение, которое сохраняется в записи саги
func (f *StepFailure) Error() string {
	if f.Kind == FailureInfrastructure && f.Cause != nil {
		return fmt.Sprintf("%s: infrastructure fault: %v", f.Reason, f.Cause)
	}
	return f.Reason
}

func (f *StepFailure) Unwrap() error {
	return f.Cause
}

const (
	ErrMsgOrderNotFound               = "order not found"
	ErrMsgOrderNotFoundOnCompensation = "order not found during compensation"
	ErrMsgOrderLookupFailed           = "order lookup failed"
	ErrMsgInsufficientStock           = "insufficient stock"
	ErrMsgPaymentDeclined             = "payment declined"
	ErrMsgShipmentFailed              = "shipment preparation failed"
	ErrMsgCompensationIncomplete      = "compensation incomplete"

	ErrMsgInventoryUnavailable = "inventory reservation failed"
	ErrMsgPaymentUnavailable   = "payment processing failed"
	ErrMsgShippingUnavailable  = "shipment request failed"
)
