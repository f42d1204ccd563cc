package entity

import (
	"errors"
	"fmt"
)

// Trigger - событие саги: шаг начат, завершен, упал
// или сагу нужно прервать.
type Trigger string

const (
	TriggerAdvance     Trigger = "advance"
	TriggerSucceeded   Trigger = "succeeded"
	TriggerFailed      Trigger = "failed"
	TriggerCompensated Trigger = "compensated"
	TriggerAbort       Trigger = "abort"
)

// Effect говорит оркестратору, что делать после перехода
type Effect string

const (
	// EffectInvoke вызывает участника только что начатого шага
	EffectInvoke Effect = "invoke"
	// EffectProceed переходит к следующему шагу
	EffectProceed Effect = "proceed"
	// EffectCompensate откатывает шаги, выполненные до сбоя
	EffectCompensate Effect = "compensate"
	// EffectFinish - сага пришла в конечное состояние
	EffectFinish Effect = "finish"
)

var ErrInvalidTransition = errors.New("недопустимый переход саги")

type transitionKey struct {
	from    SagaState
	trigger Trigger
}

type transitionTarget struct {
	to     SagaState
	effect Effect
}

var sagaTransitions = map[transitionKey]transitionTarget{
	{SagaStateCreated, TriggerAdvance}: {SagaStateReservingInventory, EffectInvoke},

	{SagaStateReservingInventory, TriggerSucceeded}: {SagaStateInventoryReserved, EffectProceed},
	{SagaStateReservingInventory, TriggerFailed}:    {SagaStateInventoryReservationFailed, EffectCompensate},

	{SagaStateInventoryReserved, TriggerAdvance}: {SagaStateProcessingPayment, EffectInvoke},

	{SagaStateProcessingPayment, TriggerSucceeded}: {SagaStatePaymentProcessed, EffectProceed},
	{SagaStateProcessingPayment, TriggerFailed}:    {SagaStatePaymentFailed, EffectCompensate},

	{SagaStatePaymentProcessed, TriggerAdvance}: {SagaStatePreparingShipment, EffectInvoke},

	{SagaStatePreparingShipment, TriggerSucceeded}: {SagaStateCompleted, EffectFinish},
	{SagaStatePreparingShipment, TriggerFailed}:    {SagaStateShippingFailed, EffectCompensate},

	{SagaStateInventoryReservationFailed, TriggerCompensated}: {SagaStateCancelled, EffectFinish},
	{SagaStatePaymentFailed, TriggerCompensated}:              {SagaStateCancelled, EffectFinish},
	{SagaStateShippingFailed, TriggerCompensated}:             {SagaStateCancelled, EffectFinish},
}

// NextState - чистая функция переходов саги заказа.
// Abort переводит любое неконечное состояние в Cancelled, конечные состояния ничего не принимают.
func NextState(state SagaState, trigger Trigger) (SagaState, Effect, error) {
	if state.IsTerminal() {
		return state, "", fmt.Errorf("%w: %s - конечное состояние", ErrInvalidTransition, state)
	}

	if trigger == TriggerAbort {
		return SagaStateCancelled, EffectFinish, nil
	}

	target, ok := sagaTransitions[transitionKey{from: state, trigger: trigger}]
	if !ok {
		return state, "", fmt.Errorf("%w: %s on %s", ErrInvalidTransition, trigger, state)
	}

	return target.to, target.effect, nil
}
