package booking

import (
	"context"
	"time"

	"quickcourt/internal/logger"
)

type completer interface {
	SweepCompletions(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically completes confirmed bookings whose time has passed.
type Sweeper struct {
	svc      completer
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(svc Service, interval time.Duration) *Sweeper {
	return &Sweeper{svc: svc, interval: interval, now: time.Now}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	logger.Info("completion sweeper started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("completion sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.svc.SweepCompletions(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("completion sweep failed", "error", err)
		}
		return
	}
	if n > 0 {
		logger.Info("bookings completed", "count", n)
	}
}
