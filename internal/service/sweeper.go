package service

import (
    "context"
    "log/slog"
    "time"
)

// RefreshSweeper is the part of the refresh session manager the sweeper drives.
type RefreshSweeper interface {
    Sweep(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically deletes expired refresh tokens so the table does
// not grow without bound. It owns the timer; the manager only exposes Sweep.
type Sweeper struct {
    target   RefreshSweeper
    log      *slog.Logger
    interval time.Duration
    now      func() time.Time

    stopCh chan struct{}
    doneCh chan struct{}
}

// NewSweeper creates a sweeper. A non-positive interval defaults to 24h.
func NewSweeper(target RefreshSweeper, log *slog.Logger, interval time.Duration) *Sweeper {
    if interval <= 0 {
        interval = 24 * time.Hour
    }
    return &Sweeper{
        target:   target,
        log:      log,
        interval: interval,
        now:      time.Now,
        stopCh:   make(chan struct{}),
        doneCh:   make(chan struct{}),
    }
}

// Start runs the sweep loop in the background. Call Stop to end it.
func (s *Sweeper) Start() {
    go s.run()
    s.log.Info("refresh token sweeper started", "interval", s.interval)
}

// Stop ends the loop and waits for an in-progress sweep to finish.
func (s *Sweeper) Stop() {
    close(s.stopCh)
    <-s.doneCh
    s.log.Info("refresh token sweeper stopped")
}

func (s *Sweeper) run() {
    defer close(s.doneCh)

    ticker := time.NewTicker(s.interval)
    defer ticker.Stop()

    // Sweep once at startup.
    s.RunOnce(context.Background())

    for {
        select {
        case <-ticker.C:
            s.RunOnce(context.Background())
        case <-s.stopCh:
            return
        }
    }
}

// RunOnce performs a single sweep and returns the number of removed rows.
// Failures are logged; the next tick tries again.
func (s *Sweeper) RunOnce(ctx context.Context) int64 {
    now := s.now()
    n, err := s.target.Sweep(ctx, now)
    if err != nil {
        s.log.Error("refresh token sweep failed", "error", err)
        return 0
    }
    s.log.Info("expired refresh tokens cleaned up", "deleted", n, "at", now.UTC())
    return n
}
