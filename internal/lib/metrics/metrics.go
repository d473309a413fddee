// Package metrics содержит счётчики prometheus для операций трекера.
// Счётчики регистрируются в собственном реестре, чтобы тесты и несколько
// экземпляров приложения не конфликтовали в глобальном реестре.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics объединяет счётчики операций.
type Metrics struct {
	registry        *prometheus.Registry
	Operations      *prometheus.CounterVec
	StorageFailures *prometheus.CounterVec
}

// New создает счётчики и регистрирует их в новом реестре.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "habit_tracker",
			Name:      "operations_total",
			Help:      "Количество выполненных операций по типу и результату.",
		}, []string{"operation", "result"}),
		StorageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "habit_tracker",
			Name:      "storage_failures_total",
			Help:      "Количество сбоев хранилища по операции.",
		}, []string{"operation"}),
	}
	m.registry.MustRegister(m.Operations, m.StorageFailures)
	return m
}

// Observe отмечает результат операции. Сбои дополнительно считаются в StorageFailures.
func (m *Metrics) Observe(operation, result string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, result).Inc()
	if result == ResultFailure {
		m.StorageFailures.WithLabelValues(operation).Inc()
	}
}

// Handler возвращает http.Handler для отдачи метрик.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Возможные значения метки result.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultConflict = "conflict"
	ResultInvalid  = "invalid"
	ResultFailure  = "failure"
	ResultCanceled = "canceled"
)
