package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/director74/order_saga/order-service/internal/entity"
)

// Metrics - метрики Prometheus оркестратора саги.
type Metrics struct {
	registry            *prometheus.Registry
	sagasStarted        prometheus.Counter
	sagasFinished       *prometheus.CounterVec
	sagaDuration        *prometheus.HistogramVec
	stepFailures        *prometheus.CounterVec
	compensationFailure *prometheus.CounterVec
	concurrentAttempts  prometheus.Counter
}

// New создает реестр и регистрирует в нем метрики саги.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	sagasStarted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "saga_started_total",
		Help: "Total number of started order sagas.",
	})

	sagasFinished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_finished_total",
		Help: "Total number of order sagas that reached a terminal state.",
	}, []string{"state"})

	sagaDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "saga_duration_seconds",
		Help:    "Time from saga creation to its terminal state.",
		Buckets: prometheus.DefBuckets,
	}, []string{"state"})

	stepFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_step_failures_total",
		Help: "Total number of failed saga steps.",
	}, []string{"step", "kind"})

	compensationFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_compensation_failures_total",
		Help: "Total number of compensation actions that did not succeed.",
	}, []string{"step"})

	concurrentAttempts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "saga_concurrent_attempts_total",
		Help: "Sagas started while another saga for the same order was still active.",
	})

	registry.MustRegister(sagasStarted, sagasFinished, sagaDuration, stepFailures, compensationFailure, concurrentAttempts)

	return &Metrics{
		registry:            registry,
		sagasStarted:        sagasStarted,
		sagasFinished:       sagasFinished,
		sagaDuration:        sagaDuration,
		stepFailures:        stepFailures,
		compensationFailure: compensationFailure,
		concurrentAttempts:  concurrentAttempts,
	}
}

// Handler отдает реестр метрик по HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SagaStarted() {
	m.sagasStarted.Inc()
}

// SagaFinished считает конечное состояние и время выполнения саги.
func (m *Metrics) SagaFinished(state entity.SagaState, duration time.Duration) {
	m.sagasFinished.WithLabelValues(state.String()).Inc()
	m.sagaDuration.WithLabelValues(state.String()).Observe(duration.Seconds())
}

func (m *Metrics) StepFailed(step string, kind entity.FailureKind) {
	m.stepFailures.WithLabelValues(step, string(kind)).Inc()
}

func (m *Metrics) CompensationFailed(step string) {
	m.compensationFailure.WithLabelValues(step).Inc()
}

func (m *Metrics) ConcurrentAttempt() {
	m.concurrentAttempts.Inc()
}
