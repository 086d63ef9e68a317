package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by route and status",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	bookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Total bookings created",
		},
	)

	bookingStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_status_changes_total",
			Help: "Booking status transitions",
		},
		[]string{"from", "to"},
	)

	feedbackSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_submitted_total",
			Help: "Total feedback entries submitted",
		},
	)

	notificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Notifications written, by kind",
		},
		[]string{"kind"},
	)
)

// Middleware records request count and latency per matched route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func TrackBookingCreated() {
	bookingsCreated.Inc()
}

func TrackBookingStatusChange(from, to string) {
	bookingStatusChanges.WithLabelValues(from, to).Inc()
}

func TrackFeedbackSubmitted() {
	feedbackSubmitted.Inc()
}

func TrackNotifications(kind string, count int) {
	notificationsCreated.WithLabelValues(kind).Add(float64(count))
}
