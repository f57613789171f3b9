package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики корзины, оформления заказа и складского учёта.
// Методы безопасно вызывать на nil-получателе: сервисы в тестах работают без метрик.
type CheckoutMetrics struct {
	ordersPlaced     prometheus.Counter
	checkoutFailed   *prometheus.CounterVec
	checkoutDuration prometheus.Histogram

	cancellations *prometheus.CounterVec
	transitions   *prometheus.CounterVec

	unitsReserved prometheus.Counter
	unitsReleased prometheus.Counter

	cartMutations *prometheus.CounterVec
}

// NewCheckoutMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewCheckoutMetrics() *CheckoutMetrics {
	return NewCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCheckoutMetricsWithRegisterer регистрирует метрики в переданном registerer.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CheckoutMetrics{
		ordersPlaced: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Total number of orders placed successfully",
		})),
		checkoutFailed: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_checkout_failed_total",
			Help: "Total number of failed checkouts by error category",
		}, []string{"reason"})),
		checkoutDuration: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_checkout_duration_seconds",
			Help:    "Duration of order placement in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		})),
		cancellations: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_orders_cancelled_total",
			Help: "Total number of cancelled orders by actor",
		}, []string{"actor"})),
		transitions: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_order_status_transitions_total",
			Help: "Total number of order status transitions",
		}, []string{"from", "to"})),
		unitsReserved: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_inventory_units_reserved_total",
			Help: "Total number of stock units reserved by orders",
		})),
		unitsReleased: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_inventory_units_released_total",
			Help: "Total number of stock units returned by cancellations",
		})),
		cartMutations: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Total number of cart mutations by operation",
		}, []string{"operation"})),
	}
}

func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			existing, ok := already.ExistingCollector.(T)
			if !ok {
				panic(fmt.Sprintf("collector already registered with unexpected type %T", already.ExistingCollector))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector: %v", err))
	}
	return collector
}

// RecordOrderPlaced учитывает успешно оформленный заказ.
func (m *CheckoutMetrics) RecordOrderPlaced(duration time.Duration) {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.checkoutDuration.Observe(duration.Seconds())
}

// RecordCheckoutFailed учитывает неудачное оформление с категорией ошибки.
func (m *CheckoutMetrics) RecordCheckoutFailed(reason string, duration time.Duration) {
	if m == nil {
		return
	}
	m.checkoutFailed.WithLabelValues(reason).Inc()
	m.checkoutDuration.Observe(duration.Seconds())
}

// RecordCancelled учитывает отмену заказа покупателем или администратором.
func (m *CheckoutMetrics) RecordCancelled(actor string) {
	if m == nil {
		return
	}
	m.cancellations.WithLabelValues(actor).Inc()
}

// RecordTransition учитывает смену статуса заказа.
func (m *CheckoutMetrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *CheckoutMetrics) RecordUnitsReserved(units int32) {
	if m == nil || units <= 0 {
		return
	}
	m.unitsReserved.Add(float64(units))
}

func (m *CheckoutMetrics) RecordUnitsReleased(units int32) {
	if m == nil || units <= 0 {
		return
	}
	m.unitsReleased.Add(float64(units))
}

// RecordCartMutation учитывает изменение корзины (add, update, remove, clear).
func (m *CheckoutMetrics) RecordCartMutation(operation string) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(operation).Inc()
}
