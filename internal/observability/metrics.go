package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	usersCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "registry",
		Name:      "users_created_total",
		Help:      "Number of users inserted by the upsert endpoint.",
	})

	exercisesLoggedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "exercise_log",
		Name:      "exercises_logged_total",
		Help:      "Number of exercises persisted.",
	})

	exerciseLoggedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "exercise_tracker",
		Subsystem: "exercise_log",
		Name:      "last_exercise_logged_timestamp_seconds",
		Help:      "Unix timestamp of the most recent exercise persisted.",
	})

	httpRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of HTTP requests grouped by route, method and status.",
	}, []string{"route", "method", "status"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"route", "method"})
)

func init() {
	prometheus.MustRegister(
		usersCreatedCounter,
		exercisesLoggedCounter,
		exerciseLoggedGauge,
		httpRequestsCounter,
		httpRequestDuration,
	)
}

// RecordUserCreated counts a newly inserted user.
func RecordUserCreated() {
	usersCreatedCounter.Inc()
}

// RecordExerciseLogged counts a persisted exercise and moves the watermark.
func RecordExerciseLogged(ts time.Time) {
	exercisesLoggedCounter.Inc()
	if ts.IsZero() {
		return
	}
	exerciseLoggedGauge.Set(float64(ts.Unix()))
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(route, method string, status int, elapsed time.Duration) {
	httpRequestsCounter.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
