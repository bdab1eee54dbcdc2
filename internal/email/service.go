package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quickcourt/internal/logger"
	"quickcourt/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3
)

type EmailJob struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Service struct {
	redis      *redis.Client
	sender     Sender
	retryDelay time.Duration
}

func New(rdb *redis.Client, sender Sender) *Service {
	return &Service{
		redis:      rdb,
		sender:     sender,
		retryDelay: 5 * time.Second,
	}
}

func (s *Service) enqueue(ctx context.Context, emailType, to, name, subject, body string) error {
	job := EmailJob{
		Type:    emailType,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Error("failed to queue email", "to", to, "error", err)
		metrics.RecordEmail(emailType, "queue_error")
		return err
	}

	metrics.RecordEmail(emailType, "queued")
	logger.Info("email queued", "type", emailType, "to", to)
	return nil
}

// Start runs the delivery worker until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("email worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logger.Error("email queue pop failed", "error", err)
			time.Sleep(time.Second)
		}
		return
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("bad email payload", "error", err)
		return
	}

	s.deliver(ctx, job)
}

func (s *Service) deliver(ctx context.Context, job EmailJob) {
	job.Tries++
	if err := s.sender.Deliver(ctx, job); err != nil {
		logger.Error("email delivery failed", "to", job.To, "attempt", job.Tries, "error", err)

		if job.Tries < maxTries {
			time.Sleep(s.retryDelay)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
			metrics.RecordEmail(job.Type, "retry")
		} else {
			s.saveFailed(job, err)
			metrics.RecordEmail(job.Type, "failed")
		}
		return
	}

	metrics.RecordEmail(job.Type, "sent")
	logger.Info("email sent", "type", job.Type, "to", job.To)
}

func (s *Service) saveFailed(job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, data)
	logger.Error("email moved to failed queue", "to", job.To)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.EmailQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) SendOTP(ctx context.Context, email, name, otp string, ttl time.Duration) error {
	subject := "Your QuickCourt signup code"
	body := fmt.Sprintf(`Hi %s,

Your verification code is %s. It expires in %d minutes.

If you did not request this, ignore this email.

- QuickCourt`, name, otp, int(ttl.Minutes()))

	return s.enqueue(ctx, "otp", email, name, subject, body)
}

func (s *Service) SendBookingConfirmation(ctx context.Context, email, name, venue, court string, start time.Time, hours int, price float64) error {
	subject := "Booking Confirmed - " + venue
	body := fmt.Sprintf(`Hi %s,

Your booking is confirmed!

Venue: %s
Court: %s
Time: %s
Duration: %d hour(s)
Price: %.2f

See you on court!

- QuickCourt`, name, venue, court, start.Format("Jan 2, 2006 at 3:04 PM"), hours, price)

	return s.enqueue(ctx, "booking_confirmation", email, name, subject, body)
}

func (s *Service) SendCancellation(ctx context.Context, email, name, venue, court string, start time.Time) error {
	subject := "Booking Cancelled - " + venue
	body := fmt.Sprintf(`Hi %s,

Your booking has been cancelled:

Venue: %s
Court: %s
Time: %s

- QuickCourt`, name, venue, court, start.Format("Jan 2, 2006 at 3:04 PM"))

	return s.enqueue(ctx, "booking_cancellation", email, name, subject, body)
}
