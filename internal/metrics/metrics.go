package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickcourt_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quickcourt_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickcourt_bookings_total",
			Help: "Total number of bookings created",
		},
		[]string{"sport"},
	)

	BookingRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickcourt_booking_rejections_total",
			Help: "Booking requests rejected by availability checks",
		},
		[]string{"reason"},
	)

	BookingCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quickcourt_booking_cancellations_total",
			Help: "Total number of booking cancellations",
		},
	)

	BookingCompletionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quickcourt_booking_completions_total",
			Help: "Bookings moved to completed by the sweeper",
		},
	)

	BookingRevenue = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickcourt_booking_revenue_total",
			Help: "Sum of booking prices at creation time",
		},
		[]string{"sport"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickcourt_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickcourt_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	OTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickcourt_otp_requests_total",
			Help: "OTP issue and verification outcomes",
		},
		[]string{"outcome"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickcourt_events_published_total",
			Help: "Domain events published to the broker",
		},
		[]string{"key", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(sport string, price float64) {
	BookingsTotal.WithLabelValues(sport).Inc()
	BookingRevenue.WithLabelValues(sport).Add(price)
}

func RecordBookingRejection(reason string) {
	BookingRejectionsTotal.WithLabelValues(reason).Inc()
}

func RecordBookingCancellation() {
	BookingCancellationsTotal.Inc()
}

func RecordBookingCompletions(n int64) {
	BookingCompletionsTotal.Add(float64(n))
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordOTP(outcome string) {
	OTPRequestsTotal.WithLabelValues(outcome).Inc()
}

func RecordEvent(key, status string) {
	EventsPublishedTotal.WithLabelValues(key, status).Inc()
}
