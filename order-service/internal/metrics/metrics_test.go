package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/director74/order_saga/order-service/internal/entity"
)

func TestMetricsCounters(t *testing.T) {
	m := New()

	m.SagaStarted()
	m.SagaStarted()
	m.SagaFinished(entity.SagaStateCompleted, 120*time.Millisecond)
	m.SagaFinished(entity.SagaStateCancelled, 80*time.Millisecond)
	m.StepFailed("payment", entity.FailureBusinessDecline)
	m.CompensationFailed("inventory")
	m.ConcurrentAttempt()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sagasStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sagasFinished.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sagasFinished.WithLabelValues("cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stepFailures.WithLabelValues("payment", "business_decline")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compensationFailure.WithLabelValues("inventory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.concurrentAttempts))
	assert.Equal(t, 2, testutil.CollectAndCount(m.sagaDuration))
}

func TestMetricsHandler(t *testing.T) {
	m := New()
	m.CompensationFailed("payment")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `saga_compensation_failures_total{step="payment"} 1`)
	assert.Contains(t, string(body), "saga_started_total 0")
}
