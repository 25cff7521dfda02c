package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/thuanng/bookingpay/pkg/logger"
)

// PaymentMetrics интерфейс для метрик платежей
type PaymentMetrics interface {
	IncPaymentCreated()
	IncReconciliation(channel, outcome string)
	IncSignatureRejected(channel string)
	ObservePaymentAmount(amount float64, status string)
}

type paymentMetrics struct {
	log                 *logger.Logger
	paymentsCreated     prometheus.Counter
	reconciliations     *prometheus.CounterVec
	signatureRejections *prometheus.CounterVec
	paymentsAmount      *prometheus.HistogramVec
}

// NewPaymentMetrics создает новые метрики платежей
func NewPaymentMetrics(registry *prometheus.Registry, log *logger.Logger) PaymentMetrics {
	paymentsCreated := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "payments_created_total",
			Help: "The total number of created payment attempts",
		},
	)

	reconciliations := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reconciliations_total",
			Help: "The total number of reconciliation calls by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	signatureRejections := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_signature_rejections_total",
			Help: "The total number of callbacks rejected before reconciliation",
		},
		[]string{"channel"},
	)

	paymentsAmount := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payments_amount",
			Help:    "Payment amounts distribution in gateway minor units",
			Buckets: prometheus.ExponentialBuckets(100000, 10, 6),
		},
		[]string{"status"},
	)

	return &paymentMetrics{
		log:                 log,
		paymentsCreated:     paymentsCreated,
		reconciliations:     reconciliations,
		signatureRejections: signatureRejections,
		paymentsAmount:      paymentsAmount,
	}
}

// IncPaymentCreated увеличивает счетчик созданных платежных попыток
func (m *paymentMetrics) IncPaymentCreated() {
	m.paymentsCreated.Inc()
}

// IncReconciliation увеличивает счетчик сверок по каналу и исходу
func (m *paymentMetrics) IncReconciliation(channel, outcome string) {
	m.reconciliations.WithLabelValues(channel, outcome).Inc()
}

// IncSignatureRejected увеличивает счетчик отвергнутых коллбэков
func (m *paymentMetrics) IncSignatureRejected(channel string) {
	m.signatureRejections.WithLabelValues(channel).Inc()
}

// ObservePaymentAmount записывает сумму платежа
func (m *paymentMetrics) ObservePaymentAmount(amount float64, status string) {
	m.paymentsAmount.WithLabelValues(status).Observe(amount)
}

// NoOpMetrics заглушка метрик для тестов
type NoOpMetrics struct{}

func (NoOpMetrics) IncPaymentCreated()                                 {}
func (NoOpMetrics) IncReconciliation(channel, outcome string)          {}
func (NoOpMetrics) IncSignatureRejected(channel string)                {}
func (NoOpMetrics) ObservePaymentAmount(amount float64, status string) {}
