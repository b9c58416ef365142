package telemetry

import (
	"net/http"
	"time"

	"cardrelay/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardrelay_events_received_total",
			Help: "Webhook events received, by event type.",
		},
		[]string{"type"},
	)

	FeedbackForwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardrelay_feedback_forwarded_total",
			Help: "Feedback events forwarded downstream, by method.",
		},
		[]string{"method"},
	)

	CardUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cardrelay_card_updates_total",
			Help: "Card state transitions persisted.",
		},
	)

	FanoutPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cardrelay_fanout_published_total",
			Help: "Inbound messages published to the downstream topic.",
		},
	)

	FanoutFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cardrelay_fanout_failures_total",
			Help: "Inbound messages dropped or failed to publish.",
		},
	)
)

func init() {
	prometheus.MustRegister(EventsReceived)
	prometheus.MustRegister(FeedbackForwarded)
	prometheus.MustRegister(CardUpdates)
	prometheus.MustRegister(FanoutPublished)
	prometheus.MustRegister(FanoutFailures)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware logs each request with its status and duration.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		logger.Debug("http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"headers", logger.SafeHeaders(r),
		)
	})
}
