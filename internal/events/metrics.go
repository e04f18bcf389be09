package events

import "github.com/prometheus/client_golang/prometheus"

var (
	deliveredCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "events",
		Name:      "delivered_total",
		Help:      "Number of domain events successfully published to Kafka.",
	}, []string{"event_type"})

	failedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "events",
		Name:      "failed_total",
		Help:      "Number of domain events that could not be published.",
	}, []string{"event_type"})
)

func init() {
	prometheus.MustRegister(deliveredCounter, failedCounter)
}

func recordDelivered(eventType string) {
	deliveredCounter.WithLabelValues(eventType).Inc()
}

func recordFailed(eventType string) {
	failedCounter.WithLabelValues(eventType).Inc()
}
