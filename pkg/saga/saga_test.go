package saga

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSagaEventRoundTrip(t *testing.T) {
	event := NewSagaEvent(3, 42, "completed", "")
	event.ProductID = 1
	event.Quantity = 5
	event.Amount = decimal.RequireFromString("250.00")

	body, err := json.Marshal(event)
	require.NoError(t, err)

	parsed, err := ParseSagaEvent(body)
	require.NoError(t, err)
	assert.Equal(t, uint(42), parsed.OrderID)
	assert.True(t, parsed.Amount.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, RoutingKeyCompleted, parsed.RoutingKey())
}

func TestSagaEventRoutingKeyCancelled(t *testing.T) {
	event := NewSagaEvent(1, 2, "cancelled", "payment declined")
	assert.Equal(t, RoutingKeyCancelled, event.RoutingKey())
	assert.False(t, event.Completed())
}

func TestParseSagaEventErrors(t *testing.T) {
	_, err := ParseSagaEvent([]byte("{"))
	assert.Error(t, err)

	_, err = ParseSagaEvent([]byte(`{"saga_id":1}`))
	assert.EqualError(t, err, "в событии саги 1 нет order_id")
}
