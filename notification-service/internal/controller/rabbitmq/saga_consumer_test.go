package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/director74/order_saga/pkg/saga"
)

type MockConsumer struct {
	mock.Mock
}

func (m *MockConsumer) DeclareQueue(name string) error {
	return m.Called(name).Error(0)
}

func (m *MockConsumer) BindQueue(queueName, exchangeName, routingKey string) error {
	return m.Called(queueName, exchangeName, routingKey).Error(0)
}

func (m *MockConsumer) ConsumeMessages(queueName, consumerName string, handler func([]byte) error) error {
	return m.Called(queueName, consumerName, handler).Error(0)
}

type MockHandler struct {
	mock.Mock
}

func (m *MockHandler) HandleSagaEvent(ctx context.Context, event saga.SagaEvent) error {
	return m.Called(ctx, event).Error(0)
}

func TestSetup(t *testing.T) {
	broker := new(MockConsumer)
	broker.On("DeclareQueue", SagaEventsQueue).Return(nil)
	broker.On("BindQueue", SagaEventsQueue, saga.Exchange, saga.RoutingKeyAll).Return(nil)
	broker.On("ConsumeMessages", SagaEventsQueue, "notification-service", mock.Anything).Return(nil)

	require.NoError(t, NewSagaConsumer(new(MockHandler), broker, zerolog.Nop()).Setup())
	broker.AssertExpectations(t)
}

func TestSetup_BindFails(t *testing.T) {
	broker := new(MockConsumer)
	broker.On("DeclareQueue", SagaEventsQueue).Return(nil)
	broker.On("BindQueue", SagaEventsQueue, saga.Exchange, saga.RoutingKeyAll).Return(assert.AnError)

	assert.ErrorIs(t, NewSagaConsumer(new(MockHandler), broker, zerolog.Nop()).Setup(), assert.AnError)
	broker.AssertNotCalled(t, "ConsumeMessages", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandle(t *testing.T) {
	body, err := json.Marshal(saga.NewSagaEvent(3, 42, "cancelled", "payment declined"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		body       []byte
		handlerErr error
		wantErr    bool
		wantCalled bool
	}{
		{name: "passes event", body: body, wantCalled: true},
		{name: "handler failure requeues", body: body, handlerErr: assert.AnError, wantErr: true, wantCalled: true},
		{name: "malformed event dropped", body: []byte("not json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := new(MockHandler)
			handler.On("HandleSagaEvent", mock.Anything, mock.MatchedBy(func(e saga.SagaEvent) bool {
				return e.OrderID == 42 && e.ErrorMessage == "payment declined"
			})).Return(tt.handlerErr)

			err := NewSagaConsumer(handler, new(MockConsumer), zerolog.Nop()).Handle(tt.body)

			if tt.wantErr {
				assert.ErrorIs(t, err, assert.AnError)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantCalled {
				handler.AssertNumberOfCalls(t, "HandleSagaEvent", 1)
			} else {
				handler.AssertNotCalled(t, "HandleSagaEvent", mock.Anything, mock.Anything)
			}
		})
	}
}
