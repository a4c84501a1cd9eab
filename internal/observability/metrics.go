package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	httpDurationHistogram    *prometheus.HistogramVec
	webhookEventCounter      *prometheus.CounterVec
	signatureFailureCounter  *prometheus.CounterVec
	paymentRecordedCounter   prometheus.Counter
	duplicateDeliveryCounter *prometheus.CounterVec
	notificationSendCounter  *prometheus.CounterVec
	reconciliationGapCounter *prometheus.CounterVec
	workerRunCounter         *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		webhookEventCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook events by type and routing outcome",
		}, []string{"type", "outcome"})

		signatureFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_signature_failures_total",
			Help: "Webhook deliveries rejected before routing",
		}, []string{"reason"})

		paymentRecordedCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payments_recorded_total",
			Help: "Payments persisted by the reconciliation transaction",
		})

		duplicateDeliveryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_duplicate_deliveries_total",
			Help: "Deliveries short-circuited as already processed",
		}, []string{"stage"})

		notificationSendCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_sends_total",
			Help: "Notification attempts by channel and outcome",
		}, []string{"channel", "outcome"})

		reconciliationGapCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reconciliation_gaps_total",
			Help: "Inconsistencies found by the reconciliation sweep",
		}, []string{"kind"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			webhookEventCounter,
			signatureFailureCounter,
			paymentRecordedCounter,
			duplicateDeliveryCounter,
			notificationSendCounter,
			reconciliationGapCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementWebhookEvent(eventType, outcome string) {
	if webhookEventCounter == nil {
		return
	}
	webhookEventCounter.WithLabelValues(eventType, outcome).Inc()
}

func IncrementSignatureFailure(reason string) {
	if signatureFailureCounter == nil {
		return
	}
	signatureFailureCounter.WithLabelValues(reason).Inc()
}

func IncrementPaymentRecorded() {
	if paymentRecordedCounter == nil {
		return
	}
	paymentRecordedCounter.Inc()
}

func IncrementDuplicateDelivery(stage string) {
	if duplicateDeliveryCounter == nil {
		return
	}
	duplicateDeliveryCounter.WithLabelValues(stage).Inc()
}

func IncrementNotificationSend(channel, outcome string) {
	if notificationSendCounter == nil {
		return
	}
	notificationSendCounter.WithLabelValues(channel, outcome).Inc()
}

func IncrementReconciliationGap(kind string) {
	if reconciliationGapCounter == nil {
		return
	}
	reconciliationGapCounter.WithLabelValues(kind).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
