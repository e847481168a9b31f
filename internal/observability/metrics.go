package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	eventsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_assist_events_received_total",
		Help: "Total number of transcription events received",
	})

	eventsByDisposition = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assist_events_total",
		Help: "Total number of normalized events by disposition",
	}, []string{"disposition"})

	utterancesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_assist_utterances_stored_total",
		Help: "Total number of utterances written to the store",
	})

	// Store metrics
	storeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assist_store_errors_total",
		Help: "Total number of storage failures",
	}, []string{"operation"})

	storeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voice_assist_store_latency_seconds",
		Help:    "Latency of store operations in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"operation"})

	// Publisher metrics
	publishResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assist_publish_total",
		Help: "Total number of event publish attempts",
	}, []string{"topic", "status"})

	// Dashboard metrics
	dashboardPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assist_dashboard_polls_total",
		Help: "Total number of dashboard poll cycles",
	}, []string{"status"})

	dashboardClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_assist_dashboard_clients",
		Help: "Number of connected dashboard clients",
	})
)

// RecordEventReceived counts one inbound callback event.
func RecordEventReceived() {
	eventsReceived.Inc()
}

// RecordDisposition counts one normalization outcome.
func RecordDisposition(disposition string) {
	eventsByDisposition.WithLabelValues(disposition).Inc()
}

// RecordStoreOperation records latency and outcome of one store call.
func RecordStoreOperation(operation string, start time.Time, err error) {
	storeLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		storeErrors.WithLabelValues(operation).Inc()
	} else if operation == "upsert" {
		utterancesStored.Inc()
	}
}

// RecordPublish records the outcome of one publish attempt.
func RecordPublish(topic string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	publishResults.WithLabelValues(topic, status).Inc()
}

// RecordDashboardPoll records the outcome of one dashboard poll cycle.
func RecordDashboardPoll(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	dashboardPolls.WithLabelValues(status).Inc()
}

// SetDashboardClients tracks connected dashboard clients.
func SetDashboardClients(n int) {
	dashboardClients.Set(float64(n))
}
