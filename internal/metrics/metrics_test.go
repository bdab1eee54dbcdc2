package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST", "/bookings", "201", 0.12)
	RecordHTTPRequest("POST", "/bookings", "201", 0.08)
	RecordHTTPRequest("POST", "/bookings", "409", 0.05)

	assert.Equal(t, float64(2), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/bookings", "201")))
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/bookings", "409")))
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestRecordBooking(t *testing.T) {
	BookingsTotal.Reset()
	BookingRevenue.Reset()

	RecordBooking("badminton", 2400)
	RecordBooking("badminton", 1200)
	RecordBooking("football", 3000)

	assert.Equal(t, float64(2), testutil.ToFloat64(BookingsTotal.WithLabelValues("badminton")))
	assert.Equal(t, float64(3600), testutil.ToFloat64(BookingRevenue.WithLabelValues("badminton")))
	assert.Equal(t, float64(3000), testutil.ToFloat64(BookingRevenue.WithLabelValues("football")))
}

func TestRecordBookingRejection(t *testing.T) {
	BookingRejectionsTotal.Reset()

	RecordBookingRejection("overlap")
	RecordBookingRejection("overlap")
	RecordBookingRejection("outside_hours")

	assert.Equal(t, float64(2), testutil.ToFloat64(BookingRejectionsTotal.WithLabelValues("overlap")))
	assert.Equal(t, float64(1), testutil.ToFloat64(BookingRejectionsTotal.WithLabelValues("outside_hours")))
}

func TestRecordCancellationAndCompletion(t *testing.T) {
	cancelledBefore := testutil.ToFloat64(BookingCancellationsTotal)
	completedBefore := testutil.ToFloat64(BookingCompletionsTotal)

	RecordBookingCancellation()
	RecordBookingCompletions(4)

	assert.Equal(t, cancelledBefore+1, testutil.ToFloat64(BookingCancellationsTotal))
	assert.Equal(t, completedBefore+4, testutil.ToFloat64(BookingCompletionsTotal))
}

func TestRecordEmailOTPAndEvents(t *testing.T) {
	EmailsSentTotal.Reset()
	OTPRequestsTotal.Reset()
	EventsPublishedTotal.Reset()

	RecordEmail("otp", "queued")
	RecordOTP("issued")
	RecordOTP("verified")
	RecordEvent("booking.created", "ok")

	assert.Equal(t, float64(1), testutil.ToFloat64(EmailsSentTotal.WithLabelValues("otp", "queued")))
	assert.Equal(t, float64(1), testutil.ToFloat64(OTPRequestsTotal.WithLabelValues("verified")))
	assert.Equal(t, float64(1), testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("booking.created", "ok")))
}

func TestEmailQueueLength(t *testing.T) {
	EmailQueueLength.Set(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(EmailQueueLength))
}
