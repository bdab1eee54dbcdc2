package booking

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingCompleter struct {
	calls atomic.Int32
	err   error
}

func (c *countingCompleter) SweepCompletions(_ context.Context, _ time.Time) (int64, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestSweeper_RunsUntilCancelled(t *testing.T) {
	c := &countingCompleter{}
	s := &Sweeper{svc: c, interval: 10 * time.Millisecond, now: time.Now}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return c.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeper_SurvivesErrors(t *testing.T) {
	c := &countingCompleter{err: errors.New("db down")}
	s := &Sweeper{svc: c, interval: 5 * time.Millisecond, now: time.Now}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	assert.Eventually(t, func() bool { return c.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
