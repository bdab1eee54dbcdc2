package email

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	jobs []EmailJob
	err  error
}

func (r *recordingSender) Deliver(_ context.Context, job EmailJob) error {
	r.jobs = append(r.jobs, job)
	return r.err
}

func newTestService(rdb *redis.Client, sender Sender) *Service {
	s := New(rdb, sender)
	s.retryDelay = 0
	return s
}

func TestSendOTP(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(queueKey, `.*`).SetVal(1)

	svc := newTestService(db, &recordingSender{})
	err := svc.SendOTP(context.Background(), "new@example.com", "Asha", "123456", 10*time.Minute)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendBookingConfirmation(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(queueKey, `.*`).SetVal(1)

	svc := newTestService(db, &recordingSender{})
	start := time.Date(2025, 8, 11, 18, 0, 0, 0, time.UTC)
	err := svc.SendBookingConfirmation(context.Background(), "user@example.com", "User", "Smash Arena", "Court 1", start, 2, 2400)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendCancellation(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(queueKey, `.*`).SetVal(1)

	svc := newTestService(db, &recordingSender{})
	err := svc.SendCancellation(context.Background(), "user@example.com", "User", "Smash Arena", "Court 2", time.Now())

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(queueKey, `.*`).SetErr(assert.AnError)

	svc := newTestService(db, &recordingSender{})
	err := svc.SendOTP(context.Background(), "user@example.com", "User", "123456", 10*time.Minute)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectLLen(queueKey).SetVal(5)

	svc := newTestService(db, &recordingSender{})
	assert.Equal(t, int64(5), svc.QueueLength(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_Delivers(t *testing.T) {
	db, mock := redismock.NewClientMock()
	job := EmailJob{Type: "otp", To: "a@example.com", Subject: "code"}
	data, _ := json.Marshal(job)
	mock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, string(data)})

	sender := &recordingSender{}
	svc := newTestService(db, sender)
	svc.processNext(context.Background())

	require.Len(t, sender.jobs, 1)
	assert.Equal(t, "a@example.com", sender.jobs[0].To)
	assert.Equal(t, 1, sender.jobs[0].Tries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliver_RequeuesThenFails(t *testing.T) {
	db, mock := redismock.NewClientMock()
	sender := &recordingSender{err: errors.New("smtp down")}
	svc := newTestService(db, sender)

	mock.Regexp().ExpectLPush(queueKey, `.*`).SetVal(1)
	svc.deliver(context.Background(), EmailJob{Type: "otp", To: "a@example.com"})

	mock.Regexp().ExpectLPush(failedQueueKey, `.*`).SetVal(1)
	svc.deliver(context.Background(), EmailJob{Type: "otp", To: "a@example.com", Tries: maxTries - 1})

	assert.Len(t, sender.jobs, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
